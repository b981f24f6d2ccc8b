package pdt

import (
	"errors"
	"fmt"
	"gonum.org/v1/gonum/mat"
)

//ErrMalformedTree is returned when a flat node array does not describe a tree.
var ErrMalformedTree = errors.New("malformed tree")

//Node is a fitted decision tree or one of its subtrees.
type Node interface {
	//Predict routes a feature row to a leaf and returns the leaf value.
	Predict(features []float64) float64
	flatten(nodes []FlatNode) []FlatNode
}

//LeafNode holds the prediction of a terminal node.
type LeafNode struct {
	Value   float64
	Samples int64
}

func (node *LeafNode) Predict([]float64) float64 {
	return node.Value
}

func (node *LeafNode) flatten(nodes []FlatNode) []FlatNode {
	return append(nodes, FlatNode{
		NodeId:    len(nodes),
		ThenIndex: -1,
		ElseIndex: -1,
		Value:     node.Value,
		Samples:   node.Samples,
	})
}

//ConditionalNode sends rows with features[Col] > Threshold to Then and the rest to Else.
type ConditionalNode struct {
	Col        int
	Threshold  float64
	Then, Else Node
	Samples    int64
}

func (node *ConditionalNode) Predict(features []float64) float64 {
	if features[node.Col] > node.Threshold {
		return node.Then.Predict(features)
	}
	return node.Else.Predict(features)
}

func (node *ConditionalNode) flatten(nodes []FlatNode) []FlatNode {
	ind := len(nodes)
	nodes = append(nodes, FlatNode{
		NodeId:    ind,
		Col:       node.Col,
		Threshold: node.Threshold,
		Samples:   node.Samples,
	})
	nodes[ind].ThenIndex = len(nodes)
	nodes = node.Then.flatten(nodes)
	nodes[ind].ElseIndex = len(nodes)
	return node.Else.flatten(nodes)
}

//FlatNode is a node of a tree stored in an array in preorder. ThenIndex and ElseIndex are equal
//to -1 when the node is a leaf, otherwise they contain array indices of the children.
type FlatNode struct {
	NodeId               int
	Col                  int
	Threshold            float64
	ThenIndex, ElseIndex int // -1, -1 if it is a leaf
	Value                float64
	Samples              int64
}

//IsLeaf returns whether this node is a leaf.
func (node FlatNode) IsLeaf() bool {
	return node.ThenIndex == -1
}

//Flatten stores a tree in an array, the root first.
func Flatten(root Node) []FlatNode {
	return root.flatten(nil)
}

//Inflate rebuilds the tree stored by Flatten.
func Inflate(nodes []FlatNode) (Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedTree)
	}
	root, next, err := inflate(nodes, 0)
	if err != nil {
		return nil, err
	}
	if next != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes are unreachable", ErrMalformedTree, len(nodes)-next, len(nodes))
	}
	return root, nil
}

//inflate returns the subtree at ind and the index following it in preorder.
func inflate(nodes []FlatNode, ind int) (Node, int, error) {
	if ind >= len(nodes) {
		return nil, 0, fmt.Errorf("%w: node %d is out of range", ErrMalformedTree, ind)
	}
	cur := nodes[ind]
	if cur.IsLeaf() {
		if cur.ElseIndex != -1 {
			return nil, 0, fmt.Errorf("%w: node %d has a single child", ErrMalformedTree, ind)
		}
		return &LeafNode{Value: cur.Value, Samples: cur.Samples}, ind + 1, nil
	}

	if cur.Col < 0 {
		return nil, 0, fmt.Errorf("%w: node %d tests column %d", ErrMalformedTree, ind, cur.Col)
	}
	if cur.ThenIndex != ind+1 {
		return nil, 0, fmt.Errorf("%w: node %d has then-child %d", ErrMalformedTree, ind, cur.ThenIndex)
	}
	thenNode, next, err := inflate(nodes, cur.ThenIndex)
	if err != nil {
		return nil, 0, err
	}
	if cur.ElseIndex != next {
		return nil, 0, fmt.Errorf("%w: node %d has else-child %d, expected %d", ErrMalformedTree, ind, cur.ElseIndex, next)
	}
	elseNode, next, err := inflate(nodes, cur.ElseIndex)
	if err != nil {
		return nil, 0, err
	}
	return &ConditionalNode{
		Col:       cur.Col,
		Threshold: cur.Threshold,
		Then:      thenNode,
		Else:      elseNode,
		Samples:   cur.Samples,
	}, next, nil
}

//Depth is the length of the longest root-to-leaf path. A single leaf has depth 0.
func Depth(root Node) int {
	return flatDepth(Flatten(root))
}

//Leaves counts the leaves of a tree.
func Leaves(root Node) int {
	return countLeaves(Flatten(root))
}

func flatDepth(nodes []FlatNode) int {
	depth := make([]int, len(nodes))
	res := 0
	for ind, node := range nodes {
		if depth[ind] > res {
			res = depth[ind]
		}
		if !node.IsLeaf() {
			depth[node.ThenIndex] = depth[ind] + 1
			depth[node.ElseIndex] = depth[ind] + 1
		}
	}
	return res
}

func countLeaves(nodes []FlatNode) int {
	n := 0
	for _, node := range nodes {
		if node.IsLeaf() {
			n++
		}
	}
	return n
}

//PredictDense predicts every row of a feature matrix into a column vector.
func PredictDense(root Node, features *mat.Dense) *mat.Dense {
	h, _ := features.Dims()
	prediction := mat.NewDense(h, 1, nil)
	for p := 0; p < h; p++ {
		prediction.Set(p, 0, root.Predict(features.RawRowView(p)))
	}
	return prediction
}
