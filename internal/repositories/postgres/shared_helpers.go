package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

// getDB returns the transaction DB if provided, otherwise the default DB
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// applyDifficultyBucket filters by the stored range a difficulty bucket selects.
func applyDifficultyBucket(query *gorm.DB, bucket *int) *gorm.DB {
	if bucket == nil {
		return query
	}
	lo, hi := models.DifficultyRange(*bucket)
	if lo == hi {
		return query.Where("difficulty = ?", lo)
	}
	return query.Where("difficulty BETWEEN ? AND ?", lo, hi)
}

// applyTopic filters by exact topic; nil or empty means any topic.
func applyTopic(query *gorm.DB, topic *string) *gorm.DB {
	if topic == nil || *topic == "" {
		return query
	}
	return query.Where("topic = ?", *topic)
}

// notFound maps gorm's not-found error onto the repository sentinel.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", entity, id, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

// requireAffected turns a zero row count into ErrNotFound.
func requireAffected(result *gorm.DB, entity string, id uint) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, repositories.ErrNotFound)
	}
	return nil
}
