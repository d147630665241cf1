package models

import "time"

type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Indicators is the snapshot of values a signal was derived from.
type Indicators struct {
	Price      float64 `json:"price"`
	RSI        float64 `json:"rsi"`
	Delta      float64 `json:"delta"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

type Signal struct {
	Symbol     string     `json:"symbol"`
	Strategy   string     `json:"strategy"`
	Label      string     `json:"label"`
	Direction  Direction  `json:"direction"`
	Entry      float64    `json:"entry"`
	TakeProfit float64    `json:"take_profit"`
	StopLoss   float64    `json:"stop_loss"`
	Indicators Indicators `json:"indicators"`
	Time       time.Time  `json:"time"`
}

func (s Signal) IsActionable() bool {
	return s.Direction == DirectionBuy || s.Direction == DirectionSell
}

// SameAs reports whether two signals describe the same condition. Entry
// levels follow the live price, so only direction and label are compared.
func (s Signal) SameAs(other Signal) bool {
	return s.Symbol == other.Symbol &&
		s.Direction == other.Direction &&
		s.Label == other.Label
}

// SignalRecord is a journaled alert.
type SignalRecord struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Symbol    string  `gorm:"index;not null" json:"symbol"`
	Strategy  string  `gorm:"not null" json:"strategy"`
	Label     string  `gorm:"not null" json:"label"`
	Direction string  `gorm:"index;not null" json:"direction"`
	Entry     float64 `gorm:"type:decimal(20,8);not null" json:"entry"`

	StopLossPrice   float64 `gorm:"type:decimal(20,8);not null" json:"stop_loss"`
	TakeProfitPrice float64 `gorm:"type:decimal(20,8);not null" json:"take_profit"`

	RSI   float64 `gorm:"type:decimal(20,8)" json:"rsi"`
	Delta float64 `gorm:"type:decimal(20,8)" json:"delta"`

	SignalTime time.Time `gorm:"index;not null" json:"signal_time"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for SignalRecord model
func (SignalRecord) TableName() string {
	return "signals"
}

func NewSignalRecord(s Signal) *SignalRecord {
	return &SignalRecord{
		Symbol:          s.Symbol,
		Strategy:        s.Strategy,
		Label:           s.Label,
		Direction:       string(s.Direction),
		Entry:           s.Entry,
		StopLossPrice:   s.StopLoss,
		TakeProfitPrice: s.TakeProfit,
		RSI:             s.Indicators.RSI,
		Delta:           s.Indicators.Delta,
		SignalTime:      s.Time,
	}
}

// Row is one line of the live table.
type Row struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	RSI        float64   `json:"rsi"`
	Delta      float64   `json:"delta"`
	Support    float64   `json:"support"`
	Resistance float64   `json:"resistance"`
	Label      string    `json:"label"`
	Status     Direction `json:"status"`
	Err        string    `json:"error,omitempty"`
}
