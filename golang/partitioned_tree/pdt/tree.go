package pdt

import (
	"fmt"
	"go.uber.org/zap"
	"math"
	"sort"
	"sync"
)

//impurityTolerance is the relative difference below which two impurities of one node are equal.
//Sums merged from differently grouped partitions disagree in the last bits.
const impurityTolerance = 1e-9

//Trainer grows one decision tree over a partitioned dataset. T is the impurity measure scored at
//every candidate split and S is the statistic that decides stopping and the leaf value.
type Trainer[T ImpurityMeasure[T], S NodeSummary[S]] struct {
	params    TreeParams
	criterion func(dataset *Dataset) (SplittingCriterion[T, S], error)
}

//NewClassifier creates a Gini trainer. Labels are class values; when params.Classes is empty
//the classes are collected from the dataset.
func NewClassifier(params TreeParams) *Trainer[GiniMeasure, ClassCounts] {
	return &Trainer[GiniMeasure, ClassCounts]{
		params: params,
		criterion: func(dataset *Dataset) (SplittingCriterion[GiniMeasure, ClassCounts], error) {
			classes := params.Classes
			if len(classes) == 0 {
				classes = CollectClasses(dataset)
				if len(classes) == 0 {
					return nil, fmt.Errorf("%w: no labels to collect classes from", ErrEmptyDataset)
				}
			}
			c, err := NewClassification(classes, params.ProbabilityThreshold)
			if err != nil {
				return nil, err
			}
			if err := checkLabels(dataset, c); err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

//NewRegressor creates a trainer minimizing the squared error; leaves hold mean labels.
func NewRegressor(params TreeParams) *Trainer[MSEMeasure, Moments] {
	return &Trainer[MSEMeasure, Moments]{
		params: params,
		criterion: func(*Dataset) (SplittingCriterion[MSEMeasure, Moments], error) {
			return Regression{}, nil
		},
	}
}

//CollectClasses returns the sorted distinct labels of a dataset.
func CollectClasses(dataset *Dataset) []float64 {
	union, _ := Compute(dataset, func(part *Partition) (map[float64]struct{}, bool) {
		if part.Rows() == 0 {
			return nil, false
		}
		set := make(map[float64]struct{})
		for _, label := range part.Labels() {
			set[label] = struct{}{}
		}
		return set, true
	}, func(a, b map[float64]struct{}) map[float64]struct{} {
		res := make(map[float64]struct{}, len(a)+len(b))
		for label := range a {
			res[label] = struct{}{}
		}
		for label := range b {
			res[label] = struct{}{}
		}
		return res
	})

	classes := make([]float64, 0, len(union))
	for label := range union {
		classes = append(classes, label)
	}
	sort.Float64s(classes)
	return classes
}

func checkLabels(dataset *Dataset, c *Classification) error {
	for partInd, part := range dataset.Partitions() {
		for row, label := range part.Labels() {
			if _, ok := c.ClassIndex(label); !ok {
				return fmt.Errorf("%w: %g in partition %d, row %d", ErrUnknownLabel, label, partInd, row)
			}
		}
	}
	return nil
}

//Fit grows a tree from the root predicate that matches every row.
func (t *Trainer[T, S]) Fit(dataset *Dataset) (Node, error) {
	if err := t.params.Validate(); err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrEmptyDataset)
	}
	criterion, err := t.criterion(dataset)
	if err != nil {
		return nil, err
	}

	logger := t.params.logger()
	g := newGrower(dataset, criterion, t.params)

	rootSummary, ok := g.summarize(nil)
	if !ok {
		return nil, fmt.Errorf("%w: %d partitions without rows", ErrEmptyDataset, len(dataset.Partitions()))
	}

	logger.Info("fit started",
		zap.Int("partitions", len(dataset.Partitions())),
		zap.Int("rows", dataset.Rows()),
		zap.Int("columns", dataset.Cols()))

	root := g.split(nil, 0, rootSummary)

	flat := Flatten(root)
	logger.Info("fit finished",
		zap.Int("nodes", len(flat)),
		zap.Int("leaves", countLeaves(flat)),
		zap.Int("depth", flatDepth(flat)))
	return root, nil
}

type grower[T ImpurityMeasure[T], S NodeSummary[S]] struct {
	dataset   *Dataset
	criterion SplittingCriterion[T, S]
	params    TreeParams
	logger    *zap.Logger
	slots     chan struct{} // free goroutines for subtrees
}

//bestSplit is the winning (column, breakpoint) of a node.
type bestSplit struct {
	col        int
	threshold  float64
	impurity   float64
	gain       float64
	breakpoint int // index of the breakpoint; rows with values <= X[breakpoint] go to the else child
}

func newGrower[T ImpurityMeasure[T], S NodeSummary[S]](dataset *Dataset, criterion SplittingCriterion[T, S], params TreeParams) *grower[T, S] {
	return &grower[T, S]{
		dataset:   dataset.WithWorkers(params.workers()),
		criterion: criterion,
		params:    params,
		logger:    params.logger(),
		slots:     make(chan struct{}, params.workers()-1),
	}
}

func (g *grower[T, S]) summarize(pred Predicate) (S, bool) {
	summary, ok := Compute(g.dataset, func(part *Partition) (S, bool) {
		var none S
		mask := part.Mask(pred)
		if Matched(mask) == 0 {
			return none, false
		}
		return g.criterion.Summarize(part.Labels(), mask), true
	}, func(a, b S) S {
		return a.Merge(b)
	})
	if ok && summary.Count() == 0 {
		return summary, false
	}
	return summary, ok
}

//columnFunctions merges the per-partition step functions of every column for the rows of pred.
func (g *grower[T, S]) columnFunctions(pred Predicate) ([]StepFunction[T], bool) {
	return Compute(g.dataset, func(part *Partition) ([]StepFunction[T], bool) {
		return columnStepFunctions(g.criterion, part, part.Mask(pred))
	}, mergeColumns[T])
}

func (g *grower[T, S]) leaf(pred Predicate, depth int, summary S, reason string) *LeafNode {
	node := &LeafNode{Value: summary.Value(), Samples: summary.Count()}
	g.logger.Debug("leaf",
		zap.Stringer("predicate", pred),
		zap.Int("depth", depth),
		zap.Float64("value", node.Value),
		zap.Int64("rows", node.Samples),
		zap.String("reason", reason))
	return node
}

//split builds the subtree of the rows matched by pred. summary describes those rows.
func (g *grower[T, S]) split(pred Predicate, depth int, summary S) Node {
	if depth >= g.params.MaxDepth {
		return g.leaf(pred, depth, summary, "max depth")
	}
	if stop, reason := g.criterion.Stop(summary); stop {
		return g.leaf(pred, depth, summary, reason)
	}

	functions, ok := g.columnFunctions(pred)
	if !ok {
		return g.leaf(pred, depth, summary, "no rows")
	}
	best := selectBestSplit(functions, g.params.MinImpurityDecrease)
	if best == nil {
		return g.leaf(pred, depth, summary, "no split")
	}

	g.logger.Debug("split",
		zap.Stringer("predicate", pred),
		zap.Int("depth", depth),
		zap.Int("column", best.col),
		zap.Float64("threshold", best.threshold),
		zap.Float64("gain", best.gain),
		zap.Int("breakpoint", best.breakpoint))

	var thenNode, elseNode Node
	thenPred := pred.Then(best.col, best.threshold)
	elsePred := pred.Else(best.col, best.threshold)

	select {
	case g.slots <- struct{}{}:
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-g.slots }()
			thenNode = g.child(thenPred, depth+1, summary)
		}()
		elseNode = g.child(elsePred, depth+1, summary)
		wg.Wait()
	default:
		thenNode = g.child(thenPred, depth+1, summary)
		elseNode = g.child(elsePred, depth+1, summary)
	}

	return &ConditionalNode{
		Col:       best.col,
		Threshold: best.threshold,
		Then:      thenNode,
		Else:      elseNode,
		Samples:   summary.Count(),
	}
}

//child grows a child subtree; a child without rows becomes a leaf with the parent's value.
//A child that kept every row of its parent is a leaf too, otherwise the same node repeats.
func (g *grower[T, S]) child(pred Predicate, depth int, parent S) Node {
	summary, ok := g.summarize(pred)
	if !ok {
		node := g.leaf(pred, depth, parent, "empty child")
		node.Samples = 0
		return node
	}
	if summary.Count() == parent.Count() {
		return g.leaf(pred, depth, summary, "no progress")
	}
	return g.split(pred, depth, summary)
}

//selectBestSplit scans the interior breakpoints of every column. The candidate with the lowest
//impurity wins among those whose gain over the unsplit node is at least minDecrease; ties keep
//the first candidate in column-then-breakpoint order. Both comparisons use impurityTolerance,
//scaled by the impurity of the unsplit node.
func selectBestSplit[T ImpurityMeasure[T]](functions []StepFunction[T], minDecrease float64) *bestSplit {
	var best *bestSplit
	for col, f := range functions {
		if f.Len() < 3 {
			continue
		}
		base := f.Y[0].Impurity()
		eps := impurityTolerance * math.Max(1, math.Abs(base))
		for ind := 1; ind < f.Len()-1; ind++ {
			impurity := f.Y[ind].Impurity()
			gain := base - impurity
			if gain < minDecrease-eps {
				continue
			}
			if best == nil || impurity < best.impurity-eps {
				best = &bestSplit{
					col:        col,
					threshold:  f.threshold(ind),
					impurity:   impurity,
					gain:       gain,
					breakpoint: ind,
				}
			}
		}
	}
	return best
}
