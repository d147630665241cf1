package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wavewatch/internal/models"
)

type SignalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new instance of SignalRepository
func NewSignalRepository(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Migrate creates or updates the signals table
func (r *SignalRepository) Migrate() error {
	return r.db.AutoMigrate(&models.SignalRecord{})
}

// Create adds a new SignalRecord to the database
func (r *SignalRepository) Create(ctx context.Context, record *models.SignalRecord) error {
	if record == nil {
		return errors.New("signal record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindRecent retrieves the newest records for a symbol, newest first
func (r *SignalRepository) FindRecent(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	if limit <= 0 {
		limit = 50
	}
	var records []models.SignalRecord
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("signal_time DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// GetSignalsByTimeRange retrieves records for all symbols within a time range
func (r *SignalRepository) GetSignalsByTimeRange(ctx context.Context, start, end time.Time) ([]models.SignalRecord, error) {
	var records []models.SignalRecord
	err := r.db.WithContext(ctx).
		Where("signal_time BETWEEN ? AND ?", start, end).
		Order("signal_time ASC").
		Find(&records).Error
	return records, err
}

// CountByDirection counts journaled signals per direction for a symbol
func (r *SignalRepository) CountByDirection(ctx context.Context, symbol string) (map[models.Direction]int64, error) {
	type row struct {
		Direction string
		Total     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.SignalRecord{}).
		Select("direction, COUNT(*) as total").
		Where("symbol = ?", symbol).
		Group("direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Direction]int64, len(rows))
	for _, r := range rows {
		counts[models.Direction(r.Direction)] = r.Total
	}
	return counts, nil
}
