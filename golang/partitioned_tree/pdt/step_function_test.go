package pdt

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

//scalar is a one-number impurity measure that makes merge arithmetic easy to follow.
type scalar float64

func (s scalar) Impurity() float64        { return float64(s) }
func (s scalar) Add(b scalar) scalar      { return s + b }
func (s scalar) Subtract(b scalar) scalar { return s - b }

var inf = math.Inf(-1)

func scalars(values ...float64) []scalar {
	res := make([]scalar, len(values))
	for i, v := range values {
		res[i] = scalar(v)
	}
	return res
}

func TestStepFunctionAdd(t *testing.T) {
	for _, tc := range []struct {
		name      string
		a, b      StepFunction[scalar]
		expectedX []float64
		expectedY []scalar
	}{
		{
			name:      "increasing",
			a:         NewStepFunction([]float64{inf, 1, 2}, scalars(0, 1, 2)),
			b:         NewStepFunction([]float64{inf, 1.5, 2.5}, scalars(0, 1, 2)),
			expectedX: []float64{inf, 1, 1.5, 2, 2.5},
			expectedY: scalars(0, 1, 2, 3, 4),
		},
		{
			name:      "decreasing",
			a:         NewStepFunction([]float64{inf, 1, 2}, scalars(2, 1, 0)),
			b:         NewStepFunction([]float64{inf, 1.5, 2.5}, scalars(2, 1, 0)),
			expectedX: []float64{inf, 1, 1.5, 2, 2.5},
			expectedY: scalars(4, 3, 2, 1, 0),
		},
		{
			name:      "same point decreasing",
			a:         NewStepFunction([]float64{inf, 1, 2}, scalars(2, 1, 0)),
			b:         NewStepFunction([]float64{inf, 1, 2.5}, scalars(2, 1, 0)),
			expectedX: []float64{inf, 1, 2, 2.5},
			expectedY: scalars(4, 2, 1, 0),
		},
		{
			name:      "same point increasing",
			a:         NewStepFunction([]float64{inf, 1, 2}, scalars(0, 1, 2)),
			b:         NewStepFunction([]float64{inf, 1, 2.5}, scalars(0, 1, 2)),
			expectedX: []float64{inf, 1, 2, 2.5},
			expectedY: scalars(0, 2, 3, 4),
		},
	} {
		res := tc.a.Add(tc.b)
		if !reflect.DeepEqual(res.X, tc.expectedX) || !reflect.DeepEqual(res.Y, tc.expectedY) {
			t.Errorf("%s: got x=%v y=%v, expected x=%v y=%v", tc.name, res.X, res.Y, tc.expectedX, tc.expectedY)
		}
		if err := res.Validate(); err != nil {
			t.Errorf("%s: %v", tc.name, err)
		}
	}
}

func TestStepFunctionAddEmpty(t *testing.T) {
	a := NewStepFunction([]float64{inf, 1}, scalars(3, 1))
	if res := a.Add(StepFunction[scalar]{}); !reflect.DeepEqual(res, a) {
		t.Errorf("a+empty = %v, expected %v", res, a)
	}
	if res := (StepFunction[scalar]{}).Add(a); !reflect.DeepEqual(res, a) {
		t.Errorf("empty+a = %v, expected %v", res, a)
	}
}

func TestNewStepFunctionRejectsUnsorted(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrStepFunctionShape) {
			t.Fatalf("expected a panic with ErrStepFunctionShape, got %v", r)
		}
	}()
	NewStepFunction([]float64{inf, 2, 2}, scalars(0, 1, 2))
}

func TestStepFunctionValidateLengths(t *testing.T) {
	f := StepFunction[scalar]{X: []float64{inf, 1}, Y: scalars(0)}
	if err := f.Validate(); !errors.Is(err, ErrStepFunctionShape) {
		t.Errorf("expected ErrStepFunctionShape, got %v", err)
	}
}

//sortedRows is one block of (value, label) pairs sorted by value.
type sortedRows struct {
	values, labels []float64
}

func randomRows(rnd *rand.Rand, n int) sortedRows {
	rows := sortedRows{make([]float64, n), make([]float64, n)}
	for i := 0; i < n; i++ {
		rows.values[i] = float64(rnd.Intn(8))
		rows.labels[i] = float64(rnd.Intn(3))
	}
	return rows.sorted()
}

func (rows sortedRows) sorted() sortedRows {
	res := sortedRows{append([]float64(nil), rows.values...), append([]float64(nil), rows.labels...)}
	// insertion sort keeps the test independent of the sorting code under test
	for i := 1; i < len(res.values); i++ {
		for j := i; j > 0 && res.values[j-1] > res.values[j]; j-- {
			res.values[j-1], res.values[j] = res.values[j], res.values[j-1]
			res.labels[j-1], res.labels[j] = res.labels[j], res.labels[j-1]
		}
	}
	return res
}

func union(blocks ...sortedRows) sortedRows {
	var res sortedRows
	for _, b := range blocks {
		res.values = append(res.values, b.values...)
		res.labels = append(res.labels, b.labels...)
	}
	return res.sorted()
}

func TestRegressionMergeMatchesUnion(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	criterion := Regression{}
	for iter := 0; iter < 50; iter++ {
		a, b, c := randomRows(rnd, 1+rnd.Intn(10)), randomRows(rnd, 1+rnd.Intn(10)), randomRows(rnd, 1+rnd.Intn(10))
		fa := criterion.StepFunction(a.values, a.labels)
		fb := criterion.StepFunction(b.values, b.labels)
		fc := criterion.StepFunction(c.values, c.labels)
		u := union(a, b, c)
		direct := criterion.StepFunction(u.values, u.labels)

		for name, merged := range map[string]StepFunction[MSEMeasure]{
			"(a+b)+c": fa.Add(fb).Add(fc),
			"a+(b+c)": fa.Add(fb.Add(fc)),
			"(b+a)+c": fb.Add(fa).Add(fc),
			"c+(a+b)": fc.Add(fa.Add(fb)),
		} {
			if !reflect.DeepEqual(merged, direct) {
				t.Fatalf("iteration %d: %s = %v, direct build gives %v", iter, name, merged, direct)
			}
		}
	}
}

func TestClassificationMergeMatchesUnion(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	criterion, err := NewClassification([]float64{0, 1, 2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for iter := 0; iter < 50; iter++ {
		a, b, c := randomRows(rnd, 1+rnd.Intn(10)), randomRows(rnd, 1+rnd.Intn(10)), randomRows(rnd, 1+rnd.Intn(10))
		fa := criterion.StepFunction(a.values, a.labels)
		fb := criterion.StepFunction(b.values, b.labels)
		fc := criterion.StepFunction(c.values, c.labels)
		u := union(a, b, c)
		direct := criterion.StepFunction(u.values, u.labels)

		if merged := fa.Add(fb).Add(fc); !reflect.DeepEqual(merged, direct) {
			t.Fatalf("iteration %d: (a+b)+c = %v, direct build gives %v", iter, merged, direct)
		}
		if merged := fc.Add(fb.Add(fa)); !reflect.DeepEqual(merged, direct) {
			t.Fatalf("iteration %d: c+(b+a) = %v, direct build gives %v", iter, merged, direct)
		}
	}
}

func TestThresholdBetweenAdjacentFloats(t *testing.T) {
	a := math.Nextafter(1, 2)
	b := math.Nextafter(a, 2)
	f := StepFunction[scalar]{X: []float64{math.Inf(-1), a, b}, Y: make([]scalar, 3)}
	if got := f.threshold(1); got != a {
		t.Errorf("threshold %v, expected the lower breakpoint %v", got, a)
	}

	f = StepFunction[scalar]{X: []float64{math.Inf(-1), 1, 2}, Y: make([]scalar, 3)}
	if got := f.threshold(1); got != 1.5 {
		t.Errorf("threshold %v, expected 1.5", got)
	}
}
