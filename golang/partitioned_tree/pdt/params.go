package pdt

import (
	"errors"
	"fmt"
	"go.uber.org/zap"
	"math"
)

//ErrInvalidParams is returned for tree parameters that cannot describe a tree.
var ErrInvalidParams = errors.New("invalid tree parameters")

//TreeParams are the learning parameters shared by the classifier and the regressor.
type TreeParams struct {
	MaxDepth             int       // the root has depth 0; a node at MaxDepth is a leaf
	MinImpurityDecrease  float64   // a split is kept when its gain is at least this value, so 0 keeps zero-gain splits
	ProbabilityThreshold float64   // classification: a node whose majority share reaches it is a leaf
	Classes              []float64 // classification: class labels; inferred from the data when empty
	Workers              int       // goroutines for per-partition work and subtree growth
	Logger               *zap.Logger
}

//DefaultTreeParams returns an unbounded-depth configuration that only stops on pure nodes.
func DefaultTreeParams() TreeParams {
	return TreeParams{
		MaxDepth:             math.MaxInt32,
		MinImpurityDecrease:  0,
		ProbabilityThreshold: 1,
		Workers:              1,
	}
}

//Validate checks the parameter ranges.
func (p TreeParams) Validate() error {
	if p.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d is negative", ErrInvalidParams, p.MaxDepth)
	}
	if math.IsNaN(p.MinImpurityDecrease) || p.MinImpurityDecrease < 0 {
		return fmt.Errorf("%w: min impurity decrease %g", ErrInvalidParams, p.MinImpurityDecrease)
	}
	if !(p.ProbabilityThreshold > 0 && p.ProbabilityThreshold <= 1) {
		return fmt.Errorf("%w: probability threshold %g is outside (0, 1]", ErrInvalidParams, p.ProbabilityThreshold)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: %d workers", ErrInvalidParams, p.Workers)
	}
	return nil
}

func (p TreeParams) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p TreeParams) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}
