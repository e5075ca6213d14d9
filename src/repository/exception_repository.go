package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsquant/src/database"
	"newsquant/src/model"
)

// ExceptionRepository persists system-level errors for auditing.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new repository instance using the main database.
func NewExceptionRepository() *ExceptionRepository {
	return &ExceptionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ExceptionRepository) WithDB(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// Create stores one exception row. Failures here are logged, never propagated:
// exception persistence must not mask the original error.
func (r *ExceptionRepository) Create(ctx context.Context, exception *model.Exception) error {
	err := r.db.WithContext(ctx).Create(exception).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "ExceptionRepository",
			"op":     "Create",
			"module": exception.Module,
		}).WithError(err).Error("Failed to persist exception")
		return err
	}
	return nil
}
