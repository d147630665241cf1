// Package display keeps and renders the latest cycle results. Both types
// here are passive observers of the monitor.
package display

import (
	"sync"

	"wavewatch/internal/models"
)

// Board holds the most recent cycle for readers such as the HTTP API.
type Board struct {
	mu     sync.RWMutex
	latest models.CycleResult
	rows   map[string]models.Row
	cycles int
}

func NewBoard() *Board {
	return &Board{rows: make(map[string]models.Row)}
}

func (b *Board) OnCycle(res models.CycleResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = res
	b.cycles++
	b.rows = make(map[string]models.Row, len(res.Rows))
	for _, r := range res.Rows {
		b.rows[r.Symbol] = r
	}
}

// Snapshot returns a copy of the latest cycle.
func (b *Board) Snapshot() models.CycleResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := b.latest
	out.Rows = append([]models.Row(nil), b.latest.Rows...)
	out.Alerts = append([]models.Signal(nil), b.latest.Alerts...)
	return out
}

func (b *Board) Row(symbol string) (models.Row, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.rows[symbol]
	return r, ok
}

func (b *Board) Cycles() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cycles
}
