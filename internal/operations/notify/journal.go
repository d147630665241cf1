package notify

import (
	"context"

	"wavewatch/internal/models"
)

// SignalWriter persists journaled alerts.
type SignalWriter interface {
	Create(ctx context.Context, record *models.SignalRecord) error
}

// JournalNotifier records every dispatched alert.
type JournalNotifier struct {
	repo SignalWriter
}

func NewJournalNotifier(repo SignalWriter) *JournalNotifier {
	return &JournalNotifier{repo: repo}
}

func (j *JournalNotifier) Name() string { return "journal" }

func (j *JournalNotifier) Send(ctx context.Context, alert Alert) error {
	if err := j.repo.Create(ctx, models.NewSignalRecord(alert.Signal)); err != nil {
		return &NotificationError{Channel: j.Name(), Err: err}
	}
	return nil
}
