package pdt

import (
	"errors"
	"fmt"
)

//ErrMeasureShape is raised (as a panic value) when two class-count measures of different lengths are combined.
var ErrMeasureShape = errors.New("impurity measure shape mismatch")

//ImpurityMeasure is the sufficient statistic of one candidate split. Lower Impurity is better.
//Instances form a commutative group under Add, so m.Add(d).Subtract(d) gives back m.
type ImpurityMeasure[T any] interface {
	Impurity() float64
	Add(T) T
	Subtract(T) T
}

//GiniMeasure holds per-class row counts on both sides of a split.
//Impurity is the negated sum-of-squares ratio -(sum(l_i^2)/L + sum(r_i^2)/R).
type GiniMeasure struct {
	Left  []int64
	Right []int64
}

//NewGiniMeasure allocates a measure with k empty classes on both sides.
func NewGiniMeasure(k int) GiniMeasure {
	return GiniMeasure{Left: make([]int64, k), Right: make([]int64, k)}
}

func (m GiniMeasure) Impurity() float64 {
	return -(sideSquares(m.Left) + sideSquares(m.Right))
}

func sideSquares(counts []int64) float64 {
	var total int64
	squares := 0.0
	for _, c := range counts {
		total += c
		squares += float64(c) * float64(c)
	}
	if total == 0 {
		return 0
	}
	return squares / float64(total)
}

func (m GiniMeasure) Add(b GiniMeasure) GiniMeasure {
	m.checkShape(b)
	res := NewGiniMeasure(len(m.Left))
	for i := range m.Left {
		res.Left[i] = m.Left[i] + b.Left[i]
		res.Right[i] = m.Right[i] + b.Right[i]
	}
	return res
}

func (m GiniMeasure) Subtract(b GiniMeasure) GiniMeasure {
	m.checkShape(b)
	res := NewGiniMeasure(len(m.Left))
	for i := range m.Left {
		res.Left[i] = m.Left[i] - b.Left[i]
		res.Right[i] = m.Right[i] - b.Right[i]
	}
	return res
}

//Clone returns a copy that shares no memory with the receiver.
func (m GiniMeasure) Clone() GiniMeasure {
	res := NewGiniMeasure(len(m.Left))
	copy(res.Left, m.Left)
	copy(res.Right, m.Right)
	return res
}

func (m GiniMeasure) checkShape(b GiniMeasure) {
	k := len(m.Left)
	if len(m.Right) != k || len(b.Left) != k || len(b.Right) != k {
		panic(fmt.Errorf("%w: %d/%d classes against %d/%d", ErrMeasureShape, len(m.Left), len(m.Right), len(b.Left), len(b.Right)))
	}
}

//MSEMeasure holds label sums, sums of squares and counts on both sides of a split.
//Impurity is sum(y^2) - sum(y)^2/n of each side, added together.
type MSEMeasure struct {
	LeftY, LeftY2   float64
	LeftCnt         int64
	RightY, RightY2 float64
	RightCnt        int64
}

func (m MSEMeasure) Impurity() float64 {
	return sideVariance(m.LeftY, m.LeftY2, m.LeftCnt) + sideVariance(m.RightY, m.RightY2, m.RightCnt)
}

func sideVariance(sum, sumSq float64, cnt int64) float64 {
	if cnt == 0 {
		return 0
	}
	return sumSq - sum*sum/float64(cnt)
}

func (m MSEMeasure) Add(b MSEMeasure) MSEMeasure {
	return MSEMeasure{
		LeftY:    m.LeftY + b.LeftY,
		LeftY2:   m.LeftY2 + b.LeftY2,
		LeftCnt:  m.LeftCnt + b.LeftCnt,
		RightY:   m.RightY + b.RightY,
		RightY2:  m.RightY2 + b.RightY2,
		RightCnt: m.RightCnt + b.RightCnt,
	}
}

func (m MSEMeasure) Subtract(b MSEMeasure) MSEMeasure {
	return MSEMeasure{
		LeftY:    m.LeftY - b.LeftY,
		LeftY2:   m.LeftY2 - b.LeftY2,
		LeftCnt:  m.LeftCnt - b.LeftCnt,
		RightY:   m.RightY - b.RightY,
		RightY2:  m.RightY2 - b.RightY2,
		RightCnt: m.RightCnt - b.RightCnt,
	}
}
