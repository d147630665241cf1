package indicators

import (
	talib "github.com/markcheno/go-talib"
)

const DefaultSRWindow = 30

// SupportResistance returns the lowest low and the highest high of the
// last window bars.
func SupportResistance(highs, lows []float64, window int) (support, resistance float64, err error) {
	if window <= 0 {
		window = DefaultSRWindow
	}
	n := len(highs)
	if len(lows) < n {
		n = len(lows)
	}
	if n < window {
		return 0, 0, &InsufficientDataError{What: "support/resistance", Need: window, Got: n}
	}

	minLows := talib.Min(lows[len(lows)-window:], window)
	maxHighs := talib.Max(highs[len(highs)-window:], window)

	return minLows[len(minLows)-1], maxHighs[len(maxHighs)-1], nil
}
