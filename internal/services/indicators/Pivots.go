package indicators

import "math"

const (
	DefaultPivotRadius = 5
	// MinPivotRadius is the smallest usable radius. With radius 1 the
	// half-open window holds only the bar and its left neighbour, so every
	// bar of a rising leg would be a High.
	MinPivotRadius = 2
)

type PivotKind string

const (
	PivotHigh PivotKind = "H"
	PivotLow  PivotKind = "L"
)

type Pivot struct {
	Kind  PivotKind
	Value float64
	Index int
	Aux   float64 // indicator value at Index (RSI), NaN when unknown
}

// DetectPivots marks bar i a High pivot when highs[i] is the maximum of
// highs[i-radius : i+radius) and a Low pivot when lows[i] is the minimum of
// lows[i-radius : i+radius), for i in [radius, n-radius).
//
// Tied extrema are each marked, so adjacent equal pivots can appear. A bar
// can be both; the High is emitted first. A radius of zero or less means
// DefaultPivotRadius, and 1 is raised to MinPivotRadius.
func DetectPivots(highs, lows, aux []float64, radius int) []Pivot {
	switch {
	case radius <= 0:
		radius = DefaultPivotRadius
	case radius < MinPivotRadius:
		radius = MinPivotRadius
	}
	n := len(highs)
	if len(lows) < n {
		n = len(lows)
	}

	var out []Pivot
	for i := radius; i < n-radius; i++ {
		hi, lo := true, true
		for j := i - radius; j < i+radius; j++ {
			if highs[j] > highs[i] {
				hi = false
			}
			if lows[j] < lows[i] {
				lo = false
			}
			if !hi && !lo {
				break
			}
		}

		if hi {
			out = append(out, Pivot{Kind: PivotHigh, Value: highs[i], Index: i, Aux: auxAt(aux, i)})
		}
		if lo {
			out = append(out, Pivot{Kind: PivotLow, Value: lows[i], Index: i, Aux: auxAt(aux, i)})
		}
	}
	return out
}

func auxAt(aux []float64, i int) float64 {
	if i < len(aux) {
		return aux[i]
	}
	return math.NaN()
}
