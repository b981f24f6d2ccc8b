package pdt

import (
	"errors"
	"fmt"
	"math"
)

//ErrStepFunctionShape is raised (as a panic value) when a step function is built from inconsistent arrays.
var ErrStepFunctionShape = errors.New("malformed step function")

//StepFunction maps a split position to the accumulated impurity measure of that split.
//X is strictly ascending and starts with -Inf (everything goes right). Y[i] is the measure
//when the rows with column value <= X[i] go to the left child.
type StepFunction[T ImpurityMeasure[T]] struct {
	X []float64
	Y []T
}

//NewStepFunction checks the construction invariants and wraps the arrays.
func NewStepFunction[T ImpurityMeasure[T]](x []float64, y []T) StepFunction[T] {
	f := StepFunction[T]{X: x, Y: y}
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

//Validate reports whether x and y have equal lengths and x is strictly increasing.
func (f StepFunction[T]) Validate() error {
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("%w: %d breakpoints and %d values", ErrStepFunctionShape, len(f.X), len(f.Y))
	}
	for i := 1; i < len(f.X); i++ {
		if !(f.X[i-1] < f.X[i]) {
			return fmt.Errorf("%w: breakpoint %d (%g) does not exceed %g", ErrStepFunctionShape, i, f.X[i], f.X[i-1])
		}
	}
	return nil
}

//Len is the number of breakpoints including the -Inf sentinel.
func (f StepFunction[T]) Len() int {
	return len(f.X)
}

//Add merges two step functions built over disjoint row sets into the step function of their union.
//The sweep runs once over both breakpoint arrays: the running value starts from the first
//value of each input and every later breakpoint contributes the increment y[i]-y[i-1] of the input
//that advanced. Equal breakpoints collapse into one entry.
func (f StepFunction[T]) Add(b StepFunction[T]) StepFunction[T] {
	if f.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return f
	}

	resX := make([]float64, 0, f.Len()+b.Len())
	resY := make([]T, 0, f.Len()+b.Len())

	var running T
	started := false
	l, r := 0, 0
	for l < f.Len() || r < b.Len() {
		var point float64
		if r >= b.Len() || (l < f.Len() && f.X[l] <= b.X[r]) {
			point = f.X[l]
			running = advance(running, started, f.Y, l)
			l++
		} else {
			point = b.X[r]
			running = advance(running, started, b.Y, r)
			r++
		}
		started = true

		if last := len(resX) - 1; last >= 0 && resX[last] == point {
			resY[last] = running
		} else {
			resX = append(resX, point)
			resY = append(resY, running)
		}
	}

	return StepFunction[T]{X: resX, Y: resY}
}

func advance[T ImpurityMeasure[T]](running T, started bool, y []T, ind int) T {
	if ind == 0 {
		if !started {
			return y[0]
		}
		return running.Add(y[0])
	}
	return running.Add(y[ind]).Subtract(y[ind-1])
}

//threshold is the midpoint between breakpoint ind and the next one. When the midpoint rounds up
//to the next breakpoint, as it does for adjacent floats, the breakpoint itself is returned.
func (f StepFunction[T]) threshold(ind int) float64 {
	mid := (f.X[ind] + f.X[ind+1]) / 2
	if !(mid < f.X[ind+1]) {
		return f.X[ind]
	}
	return mid
}

var negativeInfinity = math.Inf(-1)
