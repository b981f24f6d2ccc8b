package pdt

import (
	"errors"
	"gonum.org/v1/gonum/mat"
	"path"
	"reflect"
	"testing"
)

func sampleTree() Node {
	return &ConditionalNode{
		Col:       0,
		Threshold: 0.5,
		Samples:   6,
		Then: &ConditionalNode{
			Col:       1,
			Threshold: -2,
			Samples:   4,
			Then:      &LeafNode{Value: 1, Samples: 3},
			Else:      &LeafNode{Value: 2, Samples: 1},
		},
		Else: &LeafNode{Value: 3, Samples: 2},
	}
}

func TestFlattenInflate(t *testing.T) {
	flat := Flatten(sampleTree())
	if len(flat) != 5 {
		t.Fatalf("%d flat nodes, expected 5", len(flat))
	}
	if flat[0].ThenIndex != 1 || flat[0].ElseIndex != 4 || flat[1].ThenIndex != 2 || flat[1].ElseIndex != 3 {
		t.Errorf("unexpected child indices %+v", flat)
	}

	root, err := Inflate(flat)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(root, sampleTree()) {
		t.Errorf("inflated tree %#v differs from the original", root)
	}
	if Depth(root) != 2 || Leaves(root) != 3 {
		t.Errorf("depth %d and %d leaves, expected 2 and 3", Depth(root), Leaves(root))
	}
}

func TestInflateMalformed(t *testing.T) {
	valid := Flatten(sampleTree())
	for name, nodes := range map[string][]FlatNode{
		"empty":        nil,
		"truncated":    valid[:3],
		"extra node":   append(append([]FlatNode(nil), valid...), FlatNode{ThenIndex: -1, ElseIndex: -1}),
		"single child": {{ThenIndex: -1, ElseIndex: 1}, {ThenIndex: -1, ElseIndex: -1}},
		"cycle":        {{ThenIndex: 0, ElseIndex: 0}},
	} {
		if _, err := Inflate(nodes); !errors.Is(err, ErrMalformedTree) {
			t.Errorf("%s: expected ErrMalformedTree, got %v", name, err)
		}
	}
}

func TestModelSaveLoad(t *testing.T) {
	fileName := path.Join(t.TempDir(), "model.json")
	model := NewModel(KindClassification, []float64{1, 2, 3}, 2, sampleTree())
	if err := model.Save(fileName); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadModel(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, model) {
		t.Errorf("loaded %+v, saved %+v", loaded, model)
	}
	root, err := loaded.Root()
	if err != nil {
		t.Fatal(err)
	}
	if got := root.Predict([]float64{1, -5}); got != 2 {
		t.Errorf("prediction %g, expected 2", got)
	}
}

func TestModelUnknownKind(t *testing.T) {
	model := NewModel("clustering", nil, 1, &LeafNode{Value: 1})
	if _, err := model.Root(); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("expected ErrMalformedTree, got %v", err)
	}
}

func TestModelColumnOutOfRange(t *testing.T) {
	model := NewModel(KindRegression, nil, 1, sampleTree())
	if _, err := model.Root(); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("expected ErrMalformedTree for column 1 of a one-column model, got %v", err)
	}
}

func TestModelCheckFeatures(t *testing.T) {
	model := NewModel(KindRegression, nil, 2, sampleTree())
	if err := model.CheckFeatures(mat.NewDense(3, 2, nil)); err != nil {
		t.Error(err)
	}
	for _, cols := range []int{1, 3} {
		if err := model.CheckFeatures(mat.NewDense(1, cols, nil)); !errors.Is(err, ErrColumnMismatch) {
			t.Errorf("%d columns: expected ErrColumnMismatch, got %v", cols, err)
		}
	}
}

func TestPredictDense(t *testing.T) {
	features := mat.NewDense(3, 2, []float64{
		1, 0,
		1, -3,
		0, 0,
	})
	prediction := PredictDense(sampleTree(), features)
	if !mat.Equal(prediction, mat.NewDense(3, 1, []float64{1, 2, 3})) {
		t.Errorf("prediction %v", mat.Formatted(prediction))
	}
}
