package pdt

import "fmt"

//Dataset is an unordered collection of partitions with the same column count.
type Dataset struct {
	partitions []*Partition
	cols       int
	workers    int
}

//NewDataset checks that all partitions agree on the column count.
func NewDataset(partitions ...*Partition) (*Dataset, error) {
	if len(partitions) == 0 {
		return nil, fmt.Errorf("%w: no partitions", ErrEmptyDataset)
	}
	cols := partitions[0].Cols()
	for ind, part := range partitions {
		if part == nil {
			return nil, fmt.Errorf("partition %d is nil", ind)
		}
		if part.Cols() != cols {
			return nil, fmt.Errorf("%w: partition %d has %d columns, partition 0 has %d", ErrColumnMismatch, ind, part.Cols(), cols)
		}
	}
	return &Dataset{partitions: partitions, cols: cols, workers: 1}, nil
}

//WithWorkers returns a dataset over the same partitions whose Compute runs mappers on n goroutines.
func (d *Dataset) WithWorkers(n int) *Dataset {
	if n < 1 {
		n = 1
	}
	return &Dataset{partitions: d.partitions, cols: d.cols, workers: n}
}

//Partitions returns the partitions in their stored order.
func (d *Dataset) Partitions() []*Partition {
	return d.partitions
}

//Cols is the column count shared by every partition.
func (d *Dataset) Cols() int {
	return d.cols
}

//Rows is the total row count.
func (d *Dataset) Rows() int {
	total := 0
	for _, part := range d.partitions {
		total += part.Rows()
	}
	return total
}

type partial[R any] struct {
	value R
	ok    bool
}

type mapTask[R any] struct {
	part   *Partition
	mapper func(*Partition) (R, bool)
	slot   *partial[R]
}

func (task *mapTask[R]) Run() {
	task.slot.value, task.slot.ok = task.mapper(task.part)
}

//Compute applies mapper to every partition and folds the results with reducer.
//A mapper returns false when its partition contributes nothing; such results are skipped,
//and Compute returns false when no partition contributed. reducer must be associative and
//commutative. Partial results are folded in partition order whatever the number of workers.
func Compute[R any](d *Dataset, mapper func(*Partition) (R, bool), reducer func(R, R) R) (R, bool) {
	partials := make([]partial[R], len(d.partitions))

	if d.workers <= 1 || len(d.partitions) == 1 {
		for ind, part := range d.partitions {
			partials[ind].value, partials[ind].ok = mapper(part)
		}
	} else {
		taskPool := NewPool(d.workers)
		for ind, part := range d.partitions {
			taskPool.AddTask(&mapTask[R]{part: part, mapper: mapper, slot: &partials[ind]})
		}
		taskPool.Close()
		taskPool.WaitAll()
	}

	var acc R
	have := false
	for _, p := range partials {
		if !p.ok {
			continue
		}
		if !have {
			acc, have = p.value, true
			continue
		}
		acc = reducer(acc, p.value)
	}
	return acc, have
}
