package strategy

import (
	"fmt"
	"strings"
)

const (
	NameOrderFlow = "orderflow"
	NameWave      = "wave"
)

const (
	LabelOrderFlowBuy  = "order flow buy"
	LabelOrderFlowSell = "order flow sell"
	LabelScanning      = "scanning"
)

// Params holds the evaluation thresholds for one polling run.
type Params struct {
	Strategy    string
	RSIPeriod   int
	RSIBuy      float64
	RSISell     float64
	SRWindow    int
	PivotRadius int
	MinNotional float64
	RiskReward  float64
}

func DefaultParams() Params {
	return Params{
		Strategy:    NameWave,
		RSIPeriod:   14,
		RSIBuy:      30,
		RSISell:     70,
		SRWindow:    30,
		PivotRadius: 5,
		MinNotional: 0,
		RiskReward:  2.0,
	}
}

// ParseName normalises a strategy name.
func ParseName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case NameOrderFlow, "order-flow", "delta":
		return NameOrderFlow, nil
	case NameWave, "elliott":
		return NameWave, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}
