// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"gonum.org/v1/gonum/mat"
)

type fittedModel struct {
	model pdt.Model
	root  pdt.Node
}

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	models            = make(map[uint64]*fittedModel)

	partitionMu       sync.Mutex
	pendingPartitions []*pdt.Partition

	lastErrorMu sync.Mutex
	lastError   string
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func storeModel(model pdt.Model) (uint64, error) {
	root, err := model.Root()
	if err != nil {
		return 0, err
	}
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	models[handle] = &fittedModel{model: model, root: root}
	nextHandle++
	return handle, nil
}

func fetchModel(handle uint64) (*fittedModel, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	model, ok := models[handle]
	if !ok {
		return nil, errors.New("invalid model handle")
	}
	return model, nil
}

//export FreeModel
func FreeModel(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(models, uint64(handle))
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func sliceFromPtr(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length), nil
}

//buildDense copies a non-empty row-major matrix. mat.NewDense panics on zero dimensions,
//so empty partitions are registered with pdt.NewEmptyPartition instead.
func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.New("invalid matrix dimensions")
	}
	data, err := copyFloatSlice(ptr, r*c)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}

//export RegisterPartition
func RegisterPartition(featuresPtr *C.double, rows C.int, cols C.int, labelsPtr *C.double) C.int {
	setLastError(nil)

	if rows < 0 || cols <= 0 {
		setLastError(errors.New("invalid partition dimensions"))
		return 1
	}

	var part *pdt.Partition
	if rows == 0 {
		part = pdt.NewEmptyPartition(int(cols))
	} else {
		features, err := buildDense(featuresPtr, rows, cols)
		if err != nil {
			setLastError(err)
			return 2
		}
		labels, err := copyFloatSlice(labelsPtr, int(rows))
		if err != nil {
			setLastError(err)
			return 3
		}
		part, err = pdt.NewPartition(features, labels)
		if err != nil {
			setLastError(err)
			return 4
		}
	}

	partitionMu.Lock()
	defer partitionMu.Unlock()
	pendingPartitions = append(pendingPartitions, part)
	return 0
}

//export ClearPartitions
func ClearPartitions() {
	partitionMu.Lock()
	defer partitionMu.Unlock()
	pendingPartitions = nil
}

func buildParams(maxDepth C.int, minImpurityDecrease, probabilityThreshold C.double, threadsNum C.int) pdt.TreeParams {
	params := pdt.DefaultTreeParams()
	if maxDepth >= 0 {
		params.MaxDepth = int(maxDepth)
	}
	params.MinImpurityDecrease = float64(minImpurityDecrease)
	if probabilityThreshold > 0 {
		params.ProbabilityThreshold = float64(probabilityThreshold)
	}
	if threadsNum > 1 {
		params.Workers = int(threadsNum)
	}
	return params
}

//TrainModel fits a tree on the registered partitions and consumes them. kind 0 is classification,
//kind 1 is regression. A negative maxDepth leaves the depth unbounded.
//
//export TrainModel
func TrainModel(
	kind C.int,
	maxDepth C.int,
	minImpurityDecrease C.double,
	probabilityThreshold C.double,
	threadsNum C.int,
) C.ulonglong {
	setLastError(nil)

	partitionMu.Lock()
	partitions := pendingPartitions
	pendingPartitions = nil
	partitionMu.Unlock()

	dataset, err := pdt.NewDataset(partitions...)
	if err != nil {
		setLastError(err)
		return 0
	}
	params := buildParams(maxDepth, minImpurityDecrease, probabilityThreshold, threadsNum)

	var model pdt.Model
	switch kind {
	case 0:
		params.Classes = pdt.CollectClasses(dataset)
		root, err := pdt.NewClassifier(params).Fit(dataset)
		if err != nil {
			setLastError(err)
			return 0
		}
		model = pdt.NewModel(pdt.KindClassification, params.Classes, dataset.Cols(), root)
	case 1:
		root, err := pdt.NewRegressor(params).Fit(dataset)
		if err != nil {
			setLastError(err)
			return 0
		}
		model = pdt.NewModel(pdt.KindRegression, nil, dataset.Cols(), root)
	default:
		setLastError(errors.New("unsupported model kind"))
		return 0
	}

	handle, err := storeModel(model)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(handle)
}

//export Predict
func Predict(handle C.ulonglong, featuresPtr *C.double, rows C.int, cols C.int, outputPtr *C.double) C.int {
	setLastError(nil)
	fitted, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	features, err := buildDense(featuresPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 2
	}
	if err := fitted.model.CheckFeatures(features); err != nil {
		setLastError(err)
		return 4
	}

	outSlice, err := sliceFromPtr(outputPtr, int(rows))
	if err != nil {
		setLastError(err)
		return 3
	}
	copy(outSlice, pdt.PredictDense(fitted.root, features).RawMatrix().Data)
	return 0
}

//export TreeDepth
func TreeDepth(handle C.ulonglong) C.int {
	setLastError(nil)
	fitted, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return -1
	}
	return C.int(pdt.Depth(fitted.root))
}

//export SaveModel
func SaveModel(handle C.ulonglong, path *C.char) C.int {
	setLastError(nil)
	fitted, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if err := fitted.model.Save(C.GoString(path)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export RenderTree
func RenderTree(handle C.ulonglong, figureType, fileName *C.char) C.int {
	setLastError(nil)
	fitted, err := fetchModel(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	goFigureType := C.GoString(figureType)
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if err := pdt.RenderTree(fitted.root, goFigureType, C.GoString(fileName)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export LoadModel
func LoadModel(path *C.char) C.ulonglong {
	setLastError(nil)
	model, err := pdt.LoadModel(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 0
	}
	handle, err := storeModel(model)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(handle)
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
