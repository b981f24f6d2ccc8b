package pdt

import (
	"errors"
	"fmt"
	"github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"
)

//DefaultMaskCacheSize is the number of node masks a partition remembers.
const DefaultMaskCacheSize = 128

var (
	//ErrRaggedPartition is returned when the feature rows and labels of a partition disagree in length.
	ErrRaggedPartition = errors.New("ragged partition")
	//ErrColumnMismatch is returned when partitions of one dataset have different column counts.
	ErrColumnMismatch = errors.New("column count mismatch")
	//ErrEmptyDataset is returned when there are no rows to learn from.
	ErrEmptyDataset = errors.New("empty dataset")
)

//Partition is an immutable block of rows: a row-major feature matrix and a label per row.
//The trainer never copies or reorders it; node membership is expressed with predicates.
type Partition struct {
	features *mat.Dense
	labels   []float64
	rows     int
	cols     int
	masks    *lru.Cache[string, []bool]
}

//NewPartition wraps a feature matrix and a label vector of the same height.
func NewPartition(features *mat.Dense, labels []float64) (*Partition, error) {
	if features == nil {
		return nil, fmt.Errorf("%w: nil feature matrix", ErrRaggedPartition)
	}
	h, w := features.Dims()
	if h != len(labels) {
		return nil, fmt.Errorf("%w: %d feature rows and %d labels", ErrRaggedPartition, h, len(labels))
	}
	part := &Partition{features: features, labels: labels, rows: h, cols: w}
	return part.WithMaskCache(DefaultMaskCacheSize), nil
}

//NewPartitionFromRows copies a slice of feature rows into a partition.
func NewPartitionFromRows(rows [][]float64, labels []float64) (*Partition, error) {
	if len(rows) == 0 {
		if len(labels) != 0 {
			return nil, fmt.Errorf("%w: 0 feature rows and %d labels", ErrRaggedPartition, len(labels))
		}
		return nil, fmt.Errorf("%w: no rows, use NewEmptyPartition", ErrRaggedPartition)
	}
	w := len(rows[0])
	data := make([]float64, 0, len(rows)*w)
	for i, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d columns, row 0 has %d", ErrRaggedPartition, i, len(row), w)
		}
		data = append(data, row...)
	}
	return NewPartition(mat.NewDense(len(rows), w, data), append([]float64(nil), labels...))
}

//NewEmptyPartition is a partition without rows that still declares its column count.
func NewEmptyPartition(cols int) *Partition {
	return &Partition{cols: cols}
}

//WithMaskCache returns a partition sharing the receiver's data with a fresh mask cache of the given size.
//A size of zero disables caching.
func (p *Partition) WithMaskCache(size int) *Partition {
	res := &Partition{features: p.features, labels: p.labels, rows: p.rows, cols: p.cols}
	if size > 0 {
		cache, err := lru.New[string, []bool](size)
		if err != nil {
			panic(err)
		}
		res.masks = cache
	}
	return res
}

//Rows is the number of rows.
func (p *Partition) Rows() int {
	return p.rows
}

//Cols is the number of feature columns.
func (p *Partition) Cols() int {
	return p.cols
}

//Row returns a read-only view of the i-th feature row.
func (p *Partition) Row(i int) []float64 {
	return p.features.RawRowView(i)
}

//Label returns the label of the i-th row.
func (p *Partition) Label(i int) float64 {
	return p.labels[i]
}

//Labels returns the read-only label vector.
func (p *Partition) Labels() []float64 {
	return p.labels
}

//Mask marks the rows matched by pred. The result is shared and must not be modified.
//When caching is enabled the mask of a node is derived from the cached mask of its parent,
//so only the last comparison is evaluated.
func (p *Partition) Mask(pred Predicate) []bool {
	if p.masks == nil {
		return p.evaluate(pred)
	}
	key := pred.String()
	if mask, ok := p.masks.Get(key); ok {
		return mask
	}

	mask := make([]bool, p.rows)
	if len(pred) == 0 {
		for i := range mask {
			mask[i] = true
		}
	} else {
		parentMask := p.Mask(pred.parent())
		last := pred[len(pred)-1]
		for i := range mask {
			mask[i] = parentMask[i] && last.test(p.Row(i))
		}
	}
	p.masks.Add(key, mask)
	return mask
}

func (p *Partition) evaluate(pred Predicate) []bool {
	mask := make([]bool, p.rows)
	for i := range mask {
		mask[i] = pred.Test(p.Row(i))
	}
	return mask
}

//Matched counts the rows selected by a mask.
func Matched(mask []bool) int {
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return n
}
