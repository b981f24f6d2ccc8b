package pdt

import (
	"fmt"
	"github.com/sbinet/npyio"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
	"os"
)

//ReadNpy reads the content of a rank-2 npy file.
func ReadNpy(fileName string) (denseMat *mat.Dense, err error) {
	defer essentials.AddCtxTo("read "+fileName, &err)

	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}
	if shape := r.Header.Descr.Shape; len(shape) != 2 {
		return nil, fmt.Errorf("expected a matrix, got shape %v", shape)
	}

	denseMat = &mat.Dense{}
	if err = r.Read(denseMat); err != nil {
		return nil, err
	}
	return denseMat, nil
}

//ReadVectorNpy reads a rank-1 npy file, or a matrix with a single column.
func ReadVectorNpy(fileName string) (vec []float64, err error) {
	defer essentials.AddCtxTo("read "+fileName, &err)

	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}
	shape := r.Header.Descr.Shape
	if !(len(shape) == 1 || (len(shape) == 2 && shape[1] == 1)) {
		return nil, fmt.Errorf("expected a vector, got shape %v", shape)
	}

	if err = r.Read(&vec); err != nil {
		return nil, err
	}
	return vec, nil
}

//ReadPartitionNpy loads a partition from a feature matrix file and a label vector file.
func ReadPartitionNpy(featuresFile, labelsFile string) (*Partition, error) {
	features, err := ReadNpy(featuresFile)
	if err != nil {
		return nil, err
	}
	labels, err := ReadVectorNpy(labelsFile)
	if err != nil {
		return nil, err
	}
	return NewPartition(features, labels)
}

//ReadStackedNpy loads a rank-3 array of shape (partitions, rows, columns+1). The last column of
//every row is its label.
func ReadStackedNpy(fileName string) (partitions []*Partition, err error) {
	defer essentials.AddCtxTo("read "+fileName, &err)

	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 3 || shape[2] < 2 {
		return nil, fmt.Errorf("expected shape (partitions, rows, columns+1), got %v", shape)
	}

	var data []float64
	if err = r.Read(&data); err != nil {
		return nil, err
	}
	return StackedPartitions(tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)))
}

//StackedPartitions slices a (partitions, rows, columns+1) tensor into partitions.
func StackedPartitions(stacked *tensor.Dense) ([]*Partition, error) {
	shape := stacked.Shape()
	if len(shape) != 3 || shape[2] < 2 {
		return nil, fmt.Errorf("expected shape (partitions, rows, columns+1), got %v", shape)
	}
	partsNum, h, w := shape[0], shape[1], shape[2]-1

	partitions := make([]*Partition, partsNum)
	for p := range partitions {
		if h == 0 {
			partitions[p] = NewEmptyPartition(w)
			continue
		}
		features := mat.NewDense(h, w, nil)
		labels := make([]float64, h)
		for row := 0; row < h; row++ {
			for col := 0; col <= w; col++ {
				element, err := stacked.At(p, row, col)
				if err != nil {
					return nil, err
				}
				value, ok := element.(float64)
				if !ok {
					return nil, fmt.Errorf("element (%d, %d, %d) is %T, expected float64", p, row, col, element)
				}
				if col == w {
					labels[row] = value
				} else {
					features.Set(row, col, value)
				}
			}
		}
		part, err := NewPartition(features, labels)
		if err != nil {
			return nil, err
		}
		partitions[p] = part
	}
	return partitions, nil
}

//WriteNpy stores a matrix as an npy file.
func WriteNpy(fileName string, m *mat.Dense) (err error) {
	defer essentials.AddCtxTo("write "+fileName, &err)

	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	return npyio.Write(f, m)
}
