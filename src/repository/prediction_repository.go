package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsquant/src/database"
	"newsquant/src/model"
)

// PredictionRepository handles the active-prediction table. At most one
// active prediction exists per ticker; recording a new one expires the old.
type PredictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository creates a new repository instance using the main database.
func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PredictionRepository) WithDB(db *gorm.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Record persists a new prediction for the ticker, superseding any prior
// active one in the same transaction.
func (r *PredictionRepository) Record(ctx context.Context, prediction *model.Prediction) error {
	logger.WithFields(map[string]interface{}{
		"repo":   "PredictionRepository",
		"op":     "Record",
		"ticker": prediction.Ticker,
		"score":  prediction.Score,
	}).Debug("Recording prediction")

	prediction.Status = model.PredictionStatusActive

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Prediction{}).
			Where("ticker = ? AND status = ?", prediction.Ticker, model.PredictionStatusActive).
			Update("status", model.PredictionStatusExpired).Error; err != nil {
			return err
		}
		return tx.Create(prediction).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PredictionRepository",
			"op":     "Record",
			"ticker": prediction.Ticker,
		}).WithError(err).Error("Failed to record prediction")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "PredictionRepository",
		"op":     "Record",
		"ticker": prediction.Ticker,
		"id":     prediction.ID,
	}).Info("Prediction recorded")

	return nil
}

// GetActive returns all currently active predictions, oldest first.
func (r *PredictionRepository) GetActive(ctx context.Context) ([]model.Prediction, error) {
	var predictions []model.Prediction

	err := r.db.WithContext(ctx).
		Where("status = ?", model.PredictionStatusActive).
		Order("event_at ASC").
		Find(&predictions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PredictionRepository",
			"op":   "GetActive",
		}).WithError(err).Error("Failed to fetch active predictions")
		return nil, err
	}

	return predictions, nil
}

// GetActiveByTicker fetches the active prediction for one ticker.
// Returns (nil, nil) if not found.
func (r *PredictionRepository) GetActiveByTicker(ctx context.Context, ticker string) (*model.Prediction, error) {
	var prediction model.Prediction

	err := r.db.WithContext(ctx).
		Where("ticker = ? AND status = ?", ticker, model.PredictionStatusActive).
		First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo":   "PredictionRepository",
			"op":     "GetActiveByTicker",
			"ticker": ticker,
		}).WithError(err).Error("Failed to fetch active prediction")
		return nil, err
	}

	return &prediction, nil
}

// GetByID fetches one prediction. Returns (nil, nil) if not found.
func (r *PredictionRepository) GetByID(ctx context.Context, id uint) (*model.Prediction, error) {
	var prediction model.Prediction

	err := r.db.WithContext(ctx).First(&prediction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo": "PredictionRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch prediction")
		return nil, err
	}

	return &prediction, nil
}

// MarkEvaluated moves a prediction out of the active set once a performance
// record has been written for it.
func (r *PredictionRepository) MarkEvaluated(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&model.Prediction{}).
		Where("id = ?", id).
		Update("status", model.PredictionStatusEvaluated).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PredictionRepository",
			"op":   "MarkEvaluated",
			"id":   id,
		}).WithError(err).Error("Failed to mark prediction evaluated")
		return err
	}

	return nil
}
