package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsquant/src/database"
	"newsquant/src/model"
)

// ErrNoDraft is returned by Promote when the requested snapshot does not
// exist or is not in a promotable state.
var ErrNoDraft = errors.New("config snapshot not found or not promotable")

// ConfigRepository handles versioned scoring-config snapshots.
// Snapshots are immutable; only their status moves through the lifecycle.
type ConfigRepository struct {
	db *gorm.DB
}

// NewConfigRepository creates a new repository instance using the main database.
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ConfigRepository) WithDB(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetActive returns the currently active snapshot. Returns (nil, nil) when no
// snapshot has been promoted yet; callers fall back to the default config.
func (r *ConfigRepository) GetActive(ctx context.Context) (*model.ConfigSnapshot, error) {
	var snapshot model.ConfigSnapshot

	err := r.db.WithContext(ctx).
		Where("status = ?", model.ConfigStatusActive).
		Order("version DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo": "ConfigRepository",
			"op":   "GetActive",
		}).WithError(err).Error("Failed to fetch active config snapshot")
		return nil, err
	}

	return &snapshot, nil
}

// GetByVersion fetches one snapshot by version. Returns (nil, nil) if not found.
func (r *ConfigRepository) GetByVersion(ctx context.Context, version int) (*model.ConfigSnapshot, error) {
	var snapshot model.ConfigSnapshot

	err := r.db.WithContext(ctx).
		Where("version = ?", version).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}
		logger.WithFields(map[string]interface{}{
			"repo":    "ConfigRepository",
			"op":      "GetByVersion",
			"version": version,
		}).WithError(err).Error("Failed to fetch config snapshot")
		return nil, err
	}

	return &snapshot, nil
}

// List returns every snapshot, newest version first.
func (r *ConfigRepository) List(ctx context.Context) ([]model.ConfigSnapshot, error) {
	var snapshots []model.ConfigSnapshot

	err := r.db.WithContext(ctx).
		Order("version DESC").
		Find(&snapshots).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ConfigRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to list config snapshots")
		return nil, err
	}

	return snapshots, nil
}

// SaveDraft persists a learner-produced snapshot, assigning the next free
// version number inside the transaction.
func (r *ConfigRepository) SaveDraft(ctx context.Context, snapshot *model.ConfigSnapshot) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&model.ConfigSnapshot{}).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		snapshot.Version = maxVersion + 1
		snapshot.Status = model.ConfigStatusDraft
		return tx.Create(snapshot).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "ConfigRepository",
			"op":     "SaveDraft",
			"run_id": snapshot.RunID,
		}).WithError(err).Error("Failed to save config draft")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "ConfigRepository",
		"op":      "SaveDraft",
		"version": snapshot.Version,
		"run_id":  snapshot.RunID,
	}).Info("Config draft saved")

	return nil
}

// MarkReviewed flags a draft as reviewed by an operator.
func (r *ConfigRepository) MarkReviewed(ctx context.Context, version int) error {
	result := r.db.WithContext(ctx).
		Model(&model.ConfigSnapshot{}).
		Where("version = ? AND status = ?", version, model.ConfigStatusDraft).
		Update("status", model.ConfigStatusReviewed)
	if result.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "ConfigRepository",
			"op":      "MarkReviewed",
			"version": version,
		}).WithError(result.Error).Error("Failed to mark config snapshot reviewed")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoDraft
	}

	return nil
}

// Promote makes the given snapshot active and supersedes the previously
// active one in the same transaction. Draft and reviewed snapshots are both
// promotable.
func (r *ConfigRepository) Promote(ctx context.Context, version int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ConfigSnapshot{}).
			Where("version = ? AND status IN ?", version,
				[]string{model.ConfigStatusDraft, model.ConfigStatusReviewed}).
			Update("status", model.ConfigStatusActive)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoDraft
		}

		return tx.Model(&model.ConfigSnapshot{}).
			Where("status = ? AND version <> ?", model.ConfigStatusActive, version).
			Update("status", model.ConfigStatusSuperseded).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "ConfigRepository",
			"op":      "Promote",
			"version": version,
		}).WithError(err).Error("Failed to promote config snapshot")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":    "ConfigRepository",
		"op":      "Promote",
		"version": version,
	}).Info("Config snapshot promoted to active")

	return nil
}
