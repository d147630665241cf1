// Package wave classifies the most recent swing structure against a few
// Elliott-wave style heuristics.
package wave

import (
	"math"

	"wavewatch/internal/models"
	"wavewatch/internal/services/indicators"
)

// WindowSize is the number of pivots the matcher looks at: the wave start
// followed by w1..w5.
const WindowSize = 6

const (
	LabelWave3Explosion = "wave 3 explosion"
	LabelWave5Diverge   = "wave 5 divergence"
	LabelWave4Bounce    = "wave 4 bounce"
	LabelScanning       = "scanning"
	LabelNotEnoughData  = "not enough data"
)

const (
	fibRetrace   = 0.618
	fibExtension = 1.618
	retraceSlack = 0.99
	stopBuffer   = 0.005
)

// Structure names the six pivots of a window.
type Structure struct {
	Start indicators.Pivot
	W1    indicators.Pivot // high
	W2    indicators.Pivot // low
	W3    indicators.Pivot // high
	W4    indicators.Pivot // low
	W5    indicators.Pivot // high
}

type Result struct {
	Label      string
	Direction  models.Direction
	Entry      float64
	TakeProfit float64
	StopLoss   float64
	Structure  *Structure
}

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match classifies the pivot sequence at the current price. Rules are
// evaluated in order and the first match wins:
//  1. wave 3 explosion: w2 held the 0.618 retracement of wave 1 and price broke w1.
//  2. wave 5 divergence: w5 made a higher high than w3 with lower RSI.
//  3. wave 4 bounce: w4 stayed above w1 and price is above w4.
func (m *Matcher) Match(pivots []indicators.Pivot, price float64) Result {
	if len(pivots) < WindowSize {
		return neutral(LabelNotEnoughData, nil)
	}

	s, ok := structureOf(pivots)
	if !ok {
		return neutral(LabelNotEnoughData, nil)
	}

	w1, w2, w3, w4, w5 := s.W1.Value, s.W2.Value, s.W3.Value, s.W4.Value, s.W5.Value

	wave1 := math.Abs(w1 - s.Start.Value)
	fib := w1 - fibRetrace*wave1
	if w2 >= retraceSlack*fib && price > w1 {
		return Result{
			Label:      LabelWave3Explosion,
			Direction:  models.DirectionBuy,
			Entry:      price,
			StopLoss:   w2 * (1 - stopBuffer),
			TakeProfit: price + fibExtension*wave1,
			Structure:  s,
		}
	}

	// NaN RSI fails both comparisons
	if w5 > w3 && s.W5.Aux < s.W3.Aux {
		return Result{
			Label:      LabelWave5Diverge,
			Direction:  models.DirectionSell,
			Entry:      price,
			StopLoss:   w5 * (1 + stopBuffer),
			TakeProfit: price - fibRetrace*math.Abs(w5-w4),
			Structure:  s,
		}
	}

	if w4 > w1 && price > w4 {
		return Result{
			Label:      LabelWave4Bounce,
			Direction:  models.DirectionBuy,
			Entry:      price,
			StopLoss:   w4 * (1 - stopBuffer),
			TakeProfit: price + fibRetrace*math.Abs(w3-w2),
			Structure:  s,
		}
	}

	return neutral(LabelScanning, s)
}

func neutral(label string, s *Structure) Result {
	return Result{Label: label, Direction: models.DirectionNeutral, Structure: s}
}

// structureOf normalises the pivot sequence and slices the last window.
// Runs of same-kind pivots collapse to their most extreme member, trailing
// lows are dropped so the window ends on a high, and the remaining last six
// must alternate L,H,L,H,L,H.
func structureOf(pivots []indicators.Pivot) (*Structure, bool) {
	seq := Collapse(pivots)
	for len(seq) > 0 && seq[len(seq)-1].Kind != indicators.PivotHigh {
		seq = seq[:len(seq)-1]
	}
	if len(seq) < WindowSize {
		return nil, false
	}

	w := seq[len(seq)-WindowSize:]
	for i, p := range w {
		want := indicators.PivotLow
		if i%2 == 1 {
			want = indicators.PivotHigh
		}
		if p.Kind != want {
			return nil, false
		}
	}

	return &Structure{Start: w[0], W1: w[1], W2: w[2], W3: w[3], W4: w[4], W5: w[5]}, true
}

// Collapse merges consecutive pivots of the same kind into one, keeping the
// higher high or the lower low. On equal values the later pivot is kept.
func Collapse(pivots []indicators.Pivot) []indicators.Pivot {
	out := make([]indicators.Pivot, 0, len(pivots))
	for _, p := range pivots {
		if len(out) == 0 || out[len(out)-1].Kind != p.Kind {
			out = append(out, p)
			continue
		}

		last := &out[len(out)-1]
		switch p.Kind {
		case indicators.PivotHigh:
			if p.Value >= last.Value {
				*last = p
			}
		case indicators.PivotLow:
			if p.Value <= last.Value {
				*last = p
			}
		}
	}
	return out
}
