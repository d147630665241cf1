package models

import (
	"time"
)

type Candle struct {
	OpenTime       time.Time
	CloseTime      time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         float64
	TakerBuyVolume float64
}

// Trade is a single recent trade print. BuyerInitiated is true when the
// buyer crossed the spread (the maker was the seller).
type Trade struct {
	ID             int64
	Price          float64
	Quantity       float64
	BuyerInitiated bool
	Time           time.Time
}

// Closes, Highs and Lows split a candle window into the series the
// indicators work on.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
