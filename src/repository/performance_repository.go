package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsquant/src/database"
	"newsquant/src/model"
)

// PerformanceRepository handles the append-only performance-record table.
type PerformanceRepository struct {
	db *gorm.DB
}

// NewPerformanceRepository creates a new repository instance using the main database.
func NewPerformanceRepository() *PerformanceRepository {
	return &PerformanceRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PerformanceRepository) WithDB(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Append inserts one evaluation record. Records are never updated or deleted.
func (r *PerformanceRepository) Append(ctx context.Context, record *model.PerformanceRecord) error {
	logger.WithFields(map[string]interface{}{
		"repo":       "PerformanceRepository",
		"op":         "Append",
		"ticker":     record.Ticker,
		"run_id":     record.RunID,
		"consistent": record.Consistent,
		"fake":       record.Fake,
	}).Debug("Appending performance record")

	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PerformanceRepository",
			"op":     "Append",
			"ticker": record.Ticker,
		}).WithError(err).Error("Failed to append performance record")
		return err
	}

	return nil
}

// ListSince returns all records with an event timestamp at or after the cutoff,
// oldest first.
func (r *PerformanceRepository) ListSince(ctx context.Context, cutoff time.Time) ([]model.PerformanceRecord, error) {
	var records []model.PerformanceRecord

	err := r.db.WithContext(ctx).
		Where("event_at >= ?", cutoff).
		Order("event_at ASC").
		Find(&records).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PerformanceRepository",
			"op":     "ListSince",
			"cutoff": cutoff,
		}).WithError(err).Error("Failed to list performance records")
		return nil, err
	}

	return records, nil
}

// ListByRun returns the records written by one evaluation run.
func (r *PerformanceRepository) ListByRun(ctx context.Context, runID string) ([]model.PerformanceRecord, error) {
	var records []model.PerformanceRecord

	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PerformanceRepository",
			"op":     "ListByRun",
			"run_id": runID,
		}).WithError(err).Error("Failed to list performance records for run")
		return nil, err
	}

	return records, nil
}
