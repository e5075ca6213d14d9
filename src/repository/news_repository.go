package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"newsquant/src/database"
	"newsquant/src/model"
)

// NewsRepository handles ingested news articles.
type NewsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a new repository instance using the main database.
func NewNewsRepository() *NewsRepository {
	return &NewsRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *NewsRepository) WithDB(db *gorm.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// UpsertArticles stores a batch of articles, ignoring any row that collides
// with an already-ingested (ticker, headline, published_at) tuple. Returns the
// number of rows actually written.
func (r *NewsRepository) UpsertArticles(ctx context.Context, articles []model.NewsItem) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "ticker"},
				{Name: "headline"},
				{Name: "published_at"},
			},
			DoNothing: true,
		}).
		Create(&articles)
	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "NewsRepository",
			"op":    "UpsertArticles",
			"count": len(articles),
		}).WithError(result.Error).Error("Failed to upsert news articles")
		return 0, result.Error
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "NewsRepository",
		"op":       "UpsertArticles",
		"received": len(articles),
		"written":  result.RowsAffected,
	}).Debug("News articles upserted")

	return result.RowsAffected, nil
}

// ListRecentByTicker returns articles for a ticker published within the last
// hoursBack hours, newest first.
func (r *NewsRepository) ListRecentByTicker(ctx context.Context, ticker string, hoursBack int) ([]model.NewsItem, error) {
	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	var items []model.NewsItem
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND published_at >= ?", ticker, cutoff).
		Order("published_at DESC").
		Find(&items).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "NewsRepository",
			"op":     "ListRecentByTicker",
			"ticker": ticker,
		}).WithError(err).Error("Failed to list recent news")
		return nil, err
	}

	return items, nil
}
