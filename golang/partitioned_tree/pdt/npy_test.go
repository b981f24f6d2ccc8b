package pdt

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
	"path"
	"reflect"
	"testing"
)

func TestNpyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	featuresFile := path.Join(dir, "features.npy")
	labelsFile := path.Join(dir, "labels.npy")

	features := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	if err := WriteNpy(featuresFile, features); err != nil {
		t.Fatal(err)
	}
	if err := WriteNpy(labelsFile, mat.NewDense(3, 1, []float64{0, 1, 0})); err != nil {
		t.Fatal(err)
	}

	read, err := ReadNpy(featuresFile)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(read, features) {
		t.Errorf("read %v", mat.Formatted(read))
	}

	part, err := ReadPartitionNpy(featuresFile, labelsFile)
	if err != nil {
		t.Fatal(err)
	}
	if part.Rows() != 3 || part.Cols() != 2 || !reflect.DeepEqual(part.Labels(), []float64{0, 1, 0}) {
		t.Errorf("partition %d x %d with labels %v", part.Rows(), part.Cols(), part.Labels())
	}
}

func TestReadNpyMissingFile(t *testing.T) {
	if _, err := ReadNpy(path.Join(t.TempDir(), "absent.npy")); err == nil {
		t.Error("expected an error")
	}
}

func TestStackedPartitions(t *testing.T) {
	// two partitions of two rows, one feature and a label each
	stacked := tensor.New(tensor.WithShape(2, 2, 2), tensor.WithBacking([]float64{
		1, 10,
		2, 20,

		3, 30,
		4, 40,
	}))
	parts, err := StackedPartitions(stacked)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Fatalf("%d partitions, expected 2", len(parts))
	}
	if parts[1].Row(0)[0] != 3 || parts[1].Label(1) != 40 || parts[0].Cols() != 1 {
		t.Errorf("unexpected content: %v %v", parts[1].Row(0), parts[1].Labels())
	}

	if _, err := StackedPartitions(tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float64{1, 2, 3, 4}))); err == nil {
		t.Error("expected an error for a rank-2 tensor")
	}
}
