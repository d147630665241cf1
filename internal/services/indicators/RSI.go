package indicators

import "math"

const DefaultRSIPeriod = 14

// RSI computes a rolling RSI where average gain and loss are simple means of
// the last period close-to-close deltas. The result has the same length as
// closes; entries before index period are NaN.
//
// When the average loss is zero RSI is 100. When both averages are zero
// (no movement at all) RSI is 50.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return nil, &InsufficientDataError{What: "rsi", Need: period + 1, Got: len(closes)}
	}

	rsi := make([]float64, len(closes))
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = math.Abs(change)
		}
	}

	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}

	// Windows are summed afresh; a running sum drifts below tiny prices.
	p := float64(period)
	for i := period; i < len(closes); i++ {
		var sumGain, sumLoss float64
		for j := i - period + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		rsi[i] = rsiValue(sumGain/p, sumLoss/p)
	}

	return rsi, nil
}

// LastRSI returns the most recent RSI value of the series.
func LastRSI(closes []float64, period int) (float64, error) {
	series, err := RSI(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
