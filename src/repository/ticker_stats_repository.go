package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsquant/src/database"
	"newsquant/src/model"
)

// TickerStatsRepository maintains the per-ticker outcome aggregates.
type TickerStatsRepository struct {
	db *gorm.DB
}

// NewTickerStatsRepository creates a new repository instance using the main database.
func NewTickerStatsRepository() *TickerStatsRepository {
	return &TickerStatsRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *TickerStatsRepository) WithDB(db *gorm.DB) *TickerStatsRepository {
	return &TickerStatsRepository{db: db}
}

// Get fetches the aggregate for one ticker. Returns (nil, nil) if not found.
func (r *TickerStatsRepository) Get(ctx context.Context, ticker string) (*model.TickerStats, error) {
	var stats model.TickerStats

	err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo":   "TickerStatsRepository",
			"op":     "Get",
			"ticker": ticker,
		}).WithError(err).Error("Failed to fetch ticker stats")
		return nil, err
	}

	return &stats, nil
}

// List returns every aggregate row, worst reliability first.
func (r *TickerStatsRepository) List(ctx context.Context) ([]model.TickerStats, error) {
	var stats []model.TickerStats

	err := r.db.WithContext(ctx).
		Order("reliability_score ASC").
		Find(&stats).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TickerStatsRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to list ticker stats")
		return nil, err
	}

	return stats, nil
}

// ApplyOutcome folds one evaluated outcome into the ticker's aggregate,
// creating the row on first appearance. The stored score is always the
// closed-form recomputation from the updated totals.
func (r *TickerStatsRepository) ApplyOutcome(ctx context.Context, ticker string, consistent, fake bool) (*model.TickerStats, error) {
	var stats model.TickerStats

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("ticker = ?", ticker).First(&stats).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			stats = model.TickerStats{Ticker: ticker}
		}

		stats.Apply(consistent, fake)
		return tx.Save(&stats).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TickerStatsRepository",
			"op":     "ApplyOutcome",
			"ticker": ticker,
		}).WithError(err).Error("Failed to apply outcome to ticker stats")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "TickerStatsRepository",
		"op":          "ApplyOutcome",
		"ticker":      ticker,
		"reliability": stats.ReliabilityScore,
		"appearances": stats.Appearances,
	}).Debug("Ticker stats updated")

	return &stats, nil
}
