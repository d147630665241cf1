package models

import "time"

// CycleResult is what one polling cycle produced.
type CycleResult struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Rows     []Row     `json:"rows"`
	Alerts   []Signal  `json:"alerts,omitempty"` // signals notified this cycle
}
