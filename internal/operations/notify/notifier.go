// Package notify delivers signal alerts to external channels. Delivery is
// best effort: failures are logged and counted, never returned to the loop.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wavewatch/internal/models"
)

type Alert struct {
	Title   string        `json:"title"`
	Message string        `json:"message"`
	Signal  models.Signal `json:"signal"`
}

// Notifier is implemented by every delivery channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// NotificationError wraps a failed delivery.
type NotificationError struct {
	Channel string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// NewAlert builds the alert text for a signal.
func NewAlert(s models.Signal) Alert {
	return Alert{
		Title:   fmt.Sprintf("%s %s", s.Direction, s.Symbol),
		Message: FormatAlert(s),
		Signal:  s,
	}
}

func FormatAlert(s models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s signal on %s\n", s.Direction, s.Symbol)
	fmt.Fprintf(&b, "Setup: %s (%s)\n", s.Label, s.Strategy)
	fmt.Fprintf(&b, "Entry: %.4f\n", s.Entry)
	fmt.Fprintf(&b, "TP: %.4f\n", s.TakeProfit)
	fmt.Fprintf(&b, "SL: %.4f\n", s.StopLoss)
	fmt.Fprintf(&b, "RSI: %.2f  Delta: %.4f", s.Indicators.RSI, s.Indicators.Delta)
	return b.String()
}

// LogNotifier writes alerts to the log, useful when no channel is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.log.Info().
		Str("symbol", alert.Signal.Symbol).
		Str("direction", string(alert.Signal.Direction)).
		Str("label", alert.Signal.Label).
		Float64("entry", alert.Signal.Entry).
		Float64("take_profit", alert.Signal.TakeProfit).
		Float64("stop_loss", alert.Signal.StopLoss).
		Msg(alert.Title)
	return nil
}
