package pdt

import (
	"strconv"
	"strings"
)

//Direction tells which side of a threshold a comparison accepts.
type Direction int

const (
	//Greater accepts rows with features[Col] > Threshold (the "then" child).
	Greater Direction = iota
	//NotGreater accepts rows with features[Col] <= Threshold (the "else" child).
	NotGreater
)

//Comparison is one ancestor condition of a tree node.
type Comparison struct {
	Col       int
	Threshold float64
	Direction Direction
}

func (c Comparison) test(features []float64) bool {
	if c.Direction == Greater {
		return features[c.Col] > c.Threshold
	}
	return features[c.Col] <= c.Threshold
}

func (c Comparison) String() string {
	op := ">"
	if c.Direction == NotGreater {
		op = "<="
	}
	return "f" + strconv.Itoa(c.Col) + op + strconv.FormatFloat(c.Threshold, 'g', -1, 64)
}

//Predicate is the conjunction of the comparisons on the path from the root to a node.
//The empty predicate matches every row.
type Predicate []Comparison

//Test reports whether a feature row belongs to the node.
func (p Predicate) Test(features []float64) bool {
	for _, c := range p {
		if !c.test(features) {
			return false
		}
	}
	return true
}

//Then returns the predicate of the child that receives features[col] > threshold.
func (p Predicate) Then(col int, threshold float64) Predicate {
	return p.extend(Comparison{Col: col, Threshold: threshold, Direction: Greater})
}

//Else returns the predicate of the child that receives features[col] <= threshold.
func (p Predicate) Else(col int, threshold float64) Predicate {
	return p.extend(Comparison{Col: col, Threshold: threshold, Direction: NotGreater})
}

func (p Predicate) extend(c Comparison) Predicate {
	res := make(Predicate, len(p), len(p)+1)
	copy(res, p)
	return append(res, c)
}

//parent drops the last comparison.
func (p Predicate) parent() Predicate {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Predicate) String() string {
	if len(p) == 0 {
		return "*"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, "&")
}
