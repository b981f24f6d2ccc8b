package pdt

import (
	"encoding/json"
	"fmt"
	"gonum.org/v1/gonum/mat"
	"os"
)

//Kind of a task a model was trained for.
const (
	KindClassification = "classification"
	KindRegression     = "regression"
)

//Model is the persisted form of a fitted tree. Cols is the width of the training rows.
type Model struct {
	Kind    string
	Classes []float64 `json:",omitempty"`
	Cols    int
	Nodes   []FlatNode
}

//NewModel flattens a tree fitted on rows of cols features.
func NewModel(kind string, classes []float64, cols int, root Node) Model {
	return Model{Kind: kind, Classes: classes, Cols: cols, Nodes: Flatten(root)}
}

//Root rebuilds the fitted tree.
func (model Model) Root() (Node, error) {
	if model.Kind != KindClassification && model.Kind != KindRegression {
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrMalformedTree, model.Kind)
	}
	for _, node := range model.Nodes {
		if !node.IsLeaf() && node.Col >= model.Cols {
			return nil, fmt.Errorf("%w: node %d tests column %d of %d", ErrMalformedTree, node.NodeId, node.Col, model.Cols)
		}
	}
	return Inflate(model.Nodes)
}

//CheckFeatures returns ErrColumnMismatch unless features has the width of the training rows.
func (model Model) CheckFeatures(features *mat.Dense) error {
	if _, w := features.Dims(); w != model.Cols {
		return fmt.Errorf("%w: %d feature columns, the model was trained on %d", ErrColumnMismatch, w, model.Cols)
	}
	return nil
}

//Encode serializes the model as JSON.
func (model Model) Encode() ([]byte, error) {
	return json.MarshalIndent(model, "", "  ")
}

//DecodeModel parses a model serialized with Encode.
func DecodeModel(data []byte) (model Model, err error) {
	err = json.Unmarshal(data, &model)
	return
}

//Save writes the model to a JSON file.
func (model Model) Save(filename string) (err error) {
	modelByteRepr, err := model.Encode()
	if err != nil {
		return err
	}

	dest, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("can't open file %s to write: %w", filename, err)
	}
	defer func() {
		if closeErr := dest.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = dest.Write(modelByteRepr)
	return
}

//LoadModel reads a model written by Save.
func LoadModel(filename string) (model Model, err error) {
	source, err := os.Open(filename)
	if err != nil {
		return model, err
	}
	defer source.Close()

	decoder := json.NewDecoder(source)
	if err = decoder.Decode(&model); err != nil {
		return model, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return
}
