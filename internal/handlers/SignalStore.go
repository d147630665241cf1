package handlers

import (
	"sync"

	"wavewatch/internal/models"
)

// SignalStore remembers the last evaluated signal per symbol so a
// persisting condition is notified once.
type SignalStore struct {
	mu   sync.RWMutex
	last map[string]models.Signal
}

func NewSignalStore() *SignalStore {
	return &SignalStore{last: make(map[string]models.Signal)}
}

// Observe records sig and reports whether it should be notified: it must be
// actionable and differ from the previous signal of the symbol.
func (s *SignalStore) Observe(sig models.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, seen := s.last[sig.Symbol]
	s.last[sig.Symbol] = sig
	return sig.IsActionable() && (!seen || !sig.SameAs(prev))
}

func (s *SignalStore) Get(symbol string) (models.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.last[symbol]
	return sig, ok
}

// Retain drops every symbol not in keep.
func (s *SignalStore) Retain(keep []string) {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sym := range s.last {
		if _, ok := set[sym]; !ok {
			delete(s.last, sym)
		}
	}
}
