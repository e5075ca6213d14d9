package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"newsquant/src/database"
	"newsquant/src/model"
)

// OHLCVRepository handles daily price bars.
type OHLCVRepository struct {
	db *gorm.DB
}

// NewOHLCVRepository creates a new repository instance using the main database.
func NewOHLCVRepository() *OHLCVRepository {
	return &OHLCVRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *OHLCVRepository) WithDB(db *gorm.DB) *OHLCVRepository {
	return &OHLCVRepository{db: db}
}

// UpsertBars stores a batch of bars, replacing any existing bar for the same
// (symbol, datetime) so repeated backfills stay idempotent.
func (r *OHLCVRepository) UpsertBars(ctx context.Context, bars []model.OHLCVBar) error {
	if len(bars) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "symbol"},
				{Name: "datetime"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		Create(&bars).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OHLCVRepository",
			"op":     "UpsertBars",
			"symbol": bars[0].Symbol,
			"count":  len(bars),
		}).WithError(err).Error("Failed to upsert OHLCV bars")
		return err
	}

	return nil
}

// SeriesBetween returns the bars for a symbol within [from, to], oldest first.
func (r *OHLCVRepository) SeriesBetween(ctx context.Context, symbol string, from, to time.Time) (model.OHLCVSeries, error) {
	var bars []model.OHLCVBar

	err := r.db.WithContext(ctx).
		Where("symbol = ? AND datetime >= ? AND datetime <= ?", symbol, from, to).
		Order("datetime ASC").
		Find(&bars).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OHLCVRepository",
			"op":     "SeriesBetween",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch OHLCV series")
		return nil, err
	}

	return bars, nil
}

// SeriesTrailing returns the most recent n bars for a symbol, oldest first.
func (r *OHLCVRepository) SeriesTrailing(ctx context.Context, symbol string, n int) (model.OHLCVSeries, error) {
	var bars []model.OHLCVBar

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("datetime DESC").
		Limit(n).
		Find(&bars).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OHLCVRepository",
			"op":     "SeriesTrailing",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch trailing OHLCV series")
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// LatestDatetime returns the newest stored bar timestamp for a symbol.
// Returns the zero time when the symbol has no bars yet.
func (r *OHLCVRepository) LatestDatetime(ctx context.Context, symbol string) (time.Time, error) {
	var bar model.OHLCVBar

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("datetime DESC").
		First(&bar).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":   "OHLCVRepository",
			"op":     "LatestDatetime",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch latest bar datetime")
		return time.Time{}, err
	}

	return bar.Datetime, nil
}
