package display

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"wavewatch/internal/models"
)

// Console re-renders the whole table on every cycle.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) OnCycle(res models.CycleResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = RenderTable(c.w, res.Rows, res.Finished)
}

// RenderTable writes rows as an aligned text table headed by the timestamp.
func RenderTable(w io.Writer, rows []models.Row, ts time.Time) error {
	if _, err := fmt.Fprintf(w, "\nLast update: %s\n", ts.Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tRSI\tDELTA\tSUPPORT\tRESISTANCE\tSETUP\tSTATUS")
	for _, r := range rows {
		if r.Err != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t%s\t%s\n", r.Symbol, r.Err, r.Status)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.2f\t%.4f\t%.4f\t%.4f\t%s\t%s\n",
			r.Symbol, r.Price, r.RSI, r.Delta, r.Support, r.Resistance, r.Label, r.Status)
	}
	return tw.Flush()
}
