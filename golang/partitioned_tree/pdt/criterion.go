package pdt

import (
	"errors"
	"fmt"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/floats"
	"sort"
)

//ErrUnknownLabel is returned when a label is missing from the class list of a classifier.
var ErrUnknownLabel = errors.New("unknown label")

//NodeSummary is a mergeable statistic of the labels that reach a node. It yields the leaf value.
type NodeSummary[S any] interface {
	Merge(S) S
	Count() int64
	Value() float64
}

//SplittingCriterion builds the per-column step functions of one partition and decides when a node is terminal.
type SplittingCriterion[T ImpurityMeasure[T], S NodeSummary[S]] interface {
	//StepFunction gets the values of one column sorted ascending with their labels.
	StepFunction(values, labels []float64) StepFunction[T]
	//Summarize tallies the labels selected by mask.
	Summarize(labels []float64, mask []bool) S
	//Stop reports whether a node with this summary must become a leaf, and why.
	Stop(summary S) (bool, string)
}

//columnStepFunctions builds one step function per column from the rows of a partition selected by mask.
//Each column is sorted on a private copy of (value, label) pairs.
func columnStepFunctions[T ImpurityMeasure[T], S NodeSummary[S]](criterion SplittingCriterion[T, S], part *Partition, mask []bool) ([]StepFunction[T], bool) {
	n := Matched(mask)
	if n == 0 {
		return nil, false
	}

	res := make([]StepFunction[T], part.Cols())
	values := make([]float64, n)
	labels := make([]float64, n)
	for col := range res {
		ind := 0
		for row, ok := range mask {
			if ok {
				values[ind] = part.Row(row)[col]
				labels[ind] = part.Label(row)
				ind++
			}
		}
		essentials.VoodooSort(values, func(i, j int) bool {
			return values[i] < values[j]
		}, labels)
		res[col] = criterion.StepFunction(values, labels)
	}
	return res, true
}

//mergeColumns adds two per-column step function slices column by column.
func mergeColumns[T ImpurityMeasure[T]](a, b []StepFunction[T]) []StepFunction[T] {
	if len(a) != len(b) {
		panic(fmt.Errorf("%w: %d and %d columns", ErrColumnMismatch, len(a), len(b)))
	}
	res := make([]StepFunction[T], len(a))
	for col := range a {
		res[col] = a[col].Add(b[col])
	}
	return res
}

//Classification scores splits with GiniMeasure and predicts the majority class.
type Classification struct {
	classes              []float64
	index                map[float64]int
	probabilityThreshold float64
}

//NewClassification builds the label to class-index map from the given labels (sorted, duplicates removed).
//A node stops splitting once its majority class reaches probabilityThreshold.
func NewClassification(classes []float64, probabilityThreshold float64) (*Classification, error) {
	sorted := append([]float64(nil), classes...)
	sort.Float64s(sorted)
	uniq := sorted[:0]
	for i, label := range sorted {
		if i == 0 || label != sorted[i-1] {
			uniq = append(uniq, label)
		}
	}
	if len(uniq) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidParams)
	}
	if !(probabilityThreshold > 0 && probabilityThreshold <= 1) {
		return nil, fmt.Errorf("%w: probability threshold %g is outside (0, 1]", ErrInvalidParams, probabilityThreshold)
	}

	index := make(map[float64]int, len(uniq))
	for i, label := range uniq {
		index[label] = i
	}
	return &Classification{classes: uniq, index: index, probabilityThreshold: probabilityThreshold}, nil
}

//Classes returns the sorted class labels; the position of a label is its class index.
func (c *Classification) Classes() []float64 {
	return c.classes
}

//ClassIndex returns the class index of a label.
func (c *Classification) ClassIndex(label float64) (int, bool) {
	ind, ok := c.index[label]
	return ind, ok
}

func (c *Classification) mustIndex(label float64) int {
	ind, ok := c.index[label]
	if !ok {
		panic(fmt.Errorf("%w: %g", ErrUnknownLabel, label))
	}
	return ind
}

func (c *Classification) StepFunction(values, labels []float64) StepFunction[GiniMeasure] {
	state := NewGiniMeasure(len(c.classes))
	for _, label := range labels {
		state.Right[c.mustIndex(label)]++
	}

	x := []float64{negativeInfinity}
	y := []GiniMeasure{state.Clone()}
	for i, label := range labels {
		ind := c.mustIndex(label)
		state.Left[ind]++
		state.Right[ind]--
		if i+1 < len(values) && values[i+1] == values[i] {
			continue
		}
		x = append(x, values[i])
		y = append(y, state.Clone())
	}
	return StepFunction[GiniMeasure]{X: x, Y: y}
}

func (c *Classification) Summarize(labels []float64, mask []bool) ClassCounts {
	counts := ClassCounts{Counts: make([]int64, len(c.classes)), classes: c.classes}
	for row, ok := range mask {
		if ok {
			counts.Counts[c.mustIndex(labels[row])]++
		}
	}
	return counts
}

func (c *Classification) Stop(summary ClassCounts) (bool, string) {
	total := summary.Count()
	if total <= 1 {
		return true, "single row"
	}
	best, _ := summary.majority()
	if best == total {
		return true, "pure"
	}
	if float64(best)/float64(total) >= c.probabilityThreshold {
		return true, "probability threshold"
	}
	return false, ""
}

//ClassCounts is the number of rows of each class that reach a node.
type ClassCounts struct {
	Counts  []int64
	classes []float64
}

func (s ClassCounts) Merge(b ClassCounts) ClassCounts {
	if len(s.Counts) != len(b.Counts) {
		panic(fmt.Errorf("%w: %d and %d classes", ErrMeasureShape, len(s.Counts), len(b.Counts)))
	}
	res := ClassCounts{Counts: make([]int64, len(s.Counts)), classes: s.classes}
	for i := range s.Counts {
		res.Counts[i] = s.Counts[i] + b.Counts[i]
	}
	return res
}

func (s ClassCounts) Count() int64 {
	var total int64
	for _, c := range s.Counts {
		total += c
	}
	return total
}

//Value is the majority class label. Ties go to the smallest label.
func (s ClassCounts) Value() float64 {
	_, ind := s.majority()
	return s.classes[ind]
}

func (s ClassCounts) majority() (best int64, ind int) {
	best = -1
	for i, c := range s.Counts {
		if c > best {
			best, ind = c, i
		}
	}
	return best, ind
}

//Regression scores splits with MSEMeasure and predicts the mean label.
type Regression struct{}

func (Regression) StepFunction(values, labels []float64) StepFunction[MSEMeasure] {
	var state MSEMeasure
	for _, label := range labels {
		state.RightY += label
		state.RightY2 += label * label
		state.RightCnt++
	}

	x := []float64{negativeInfinity}
	y := []MSEMeasure{state}
	for i, label := range labels {
		state.LeftY += label
		state.LeftY2 += label * label
		state.LeftCnt++
		state.RightY -= label
		state.RightY2 -= label * label
		state.RightCnt--
		if i+1 < len(values) && values[i+1] == values[i] {
			continue
		}
		x = append(x, values[i])
		y = append(y, state)
	}
	return StepFunction[MSEMeasure]{X: x, Y: y}
}

func (Regression) Summarize(labels []float64, mask []bool) Moments {
	selected := make([]float64, 0, len(labels))
	for row, ok := range mask {
		if ok {
			selected = append(selected, labels[row])
		}
	}
	if len(selected) == 0 {
		return Moments{}
	}
	return Moments{
		Sum:   floats.Sum(selected),
		SumSq: floats.Dot(selected, selected),
		N:     int64(len(selected)),
		Min:   floats.Min(selected),
		Max:   floats.Max(selected),
	}
}

func (Regression) Stop(summary Moments) (bool, string) {
	if summary.N <= 1 {
		return true, "single row"
	}
	if summary.Min == summary.Max {
		return true, "constant labels"
	}
	return false, ""
}

//Moments are the label sum, sum of squares, count and range of the rows that reach a node.
type Moments struct {
	Sum, SumSq float64
	N          int64
	Min, Max   float64
}

func (s Moments) Merge(b Moments) Moments {
	if s.N == 0 {
		return b
	}
	if b.N == 0 {
		return s
	}
	res := Moments{Sum: s.Sum + b.Sum, SumSq: s.SumSq + b.SumSq, N: s.N + b.N, Min: s.Min, Max: s.Max}
	if b.Min < res.Min {
		res.Min = b.Min
	}
	if b.Max > res.Max {
		res.Max = b.Max
	}
	return res
}

func (s Moments) Count() int64 {
	return s.N
}

//Value is the mean label.
func (s Moments) Value() float64 {
	if s.N == 0 {
		return 0
	}
	return s.Sum / float64(s.N)
}
