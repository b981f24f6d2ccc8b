package pdt

import (
	"errors"
	"gonum.org/v1/gonum/mat"
	"math/rand"
	"reflect"
	"testing"
)

func randomPartition(rnd *rand.Rand, rows, cols, classes int) *Partition {
	features := mat.NewDense(rows, cols, nil)
	labels := make([]float64, rows)
	for p := 0; p < rows; p++ {
		for q := 0; q < cols; q++ {
			features.Set(p, q, float64(rnd.Intn(10)))
		}
		labels[p] = float64(rnd.Intn(classes))
	}
	part, err := NewPartition(features, labels)
	if err != nil {
		panic(err)
	}
	return part
}

func TestNewPartitionRagged(t *testing.T) {
	if _, err := NewPartition(mat.NewDense(2, 2, nil), []float64{1}); !errors.Is(err, ErrRaggedPartition) {
		t.Errorf("expected ErrRaggedPartition, got %v", err)
	}
	if _, err := NewPartitionFromRows([][]float64{{1, 2}, {3}}, []float64{0, 1}); !errors.Is(err, ErrRaggedPartition) {
		t.Errorf("expected ErrRaggedPartition, got %v", err)
	}
}

func TestNewDatasetErrors(t *testing.T) {
	if _, err := NewDataset(); !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
	rnd := rand.New(rand.NewSource(3))
	if _, err := NewDataset(randomPartition(rnd, 3, 2, 2), randomPartition(rnd, 3, 3, 2)); !errors.Is(err, ErrColumnMismatch) {
		t.Errorf("expected ErrColumnMismatch, got %v", err)
	}
	if _, err := NewDataset(randomPartition(rnd, 3, 2, 2), NewEmptyPartition(2)); err != nil {
		t.Errorf("an empty partition with the right width must be accepted: %v", err)
	}
}

func TestComputeOrderIndependence(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	parts := []*Partition{randomPartition(rnd, 7, 3, 3), randomPartition(rnd, 5, 3, 3), randomPartition(rnd, 9, 3, 3), NewEmptyPartition(3)}
	criterion, err := NewClassification([]float64{0, 1, 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	mapper := func(part *Partition) ([]StepFunction[GiniMeasure], bool) {
		return columnStepFunctions[GiniMeasure, ClassCounts](criterion, part, part.Mask(nil))
	}

	dataset, err := NewDataset(parts...)
	if err != nil {
		t.Fatal(err)
	}
	expected, ok := Compute(dataset, mapper, mergeColumns[GiniMeasure])
	if !ok {
		t.Fatal("no result")
	}

	for iter := 0; iter < 20; iter++ {
		perm := rnd.Perm(len(parts))
		shuffled := make([]*Partition, len(parts))
		for i, j := range perm {
			shuffled[i] = parts[j]
		}
		dataset, err := NewDataset(shuffled...)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := Compute(dataset.WithWorkers(1+iter%4), mapper, mergeColumns[GiniMeasure])
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("order %v gives a different result", perm)
		}
	}
}

func TestComputeSkipsAbsentResults(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	dataset, err := NewDataset(randomPartition(rnd, 4, 1, 2), NewEmptyPartition(1), randomPartition(rnd, 6, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	rows := func(part *Partition) (int, bool) {
		return part.Rows(), part.Rows() > 0
	}
	sum := func(a, b int) int { return a + b }

	for _, workers := range []int{1, 3} {
		total, ok := Compute(dataset.WithWorkers(workers), rows, sum)
		if !ok || total != 10 {
			t.Errorf("%d workers: total %d (%v), expected 10", workers, total, ok)
		}
		_, ok = Compute(dataset.WithWorkers(workers), func(*Partition) (int, bool) { return 0, false }, sum)
		if ok {
			t.Errorf("%d workers: a result without contributions", workers)
		}
	}
}

func TestComputeParallelOrder(t *testing.T) {
	parts := make([]*Partition, 16)
	for i := range parts {
		parts[i] = singleColumn(t, []float64{float64(i)}, []float64{float64(i)})
	}
	dataset, err := NewDataset(parts...)
	if err != nil {
		t.Fatal(err)
	}
	// concatenation is not commutative, so this checks that partials are folded in partition order
	labels, _ := Compute(dataset.WithWorkers(5), func(part *Partition) ([]float64, bool) {
		return part.Labels(), true
	}, func(a, b []float64) []float64 {
		return append(append([]float64(nil), a...), b...)
	})
	for i, label := range labels {
		if label != float64(i) {
			t.Fatalf("labels %v are out of order", labels)
		}
	}
}

func TestMaskCacheMatchesEvaluation(t *testing.T) {
	rnd := rand.New(rand.NewSource(6))
	part := randomPartition(rnd, 50, 3, 2)
	uncached := part.WithMaskCache(0)

	pred := Predicate(nil).Then(0, 4.5).Else(1, 6.5).Then(2, 1.5)
	for depth := 0; depth <= len(pred); depth++ {
		sub := pred[:depth]
		cached := part.Mask(sub)
		direct := uncached.Mask(sub)
		if !reflect.DeepEqual(cached, direct) {
			t.Fatalf("predicate %v: cached mask differs", sub)
		}
		for row, ok := range direct {
			if ok != sub.Test(part.Row(row)) {
				t.Fatalf("predicate %v, row %d: mask %v", sub, row, ok)
			}
		}
	}
}
