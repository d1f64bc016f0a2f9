package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

type SettingPostgreSQL struct {
	db *gorm.DB
}

func NewSettingPostgreSQL(db *gorm.DB) repositories.SettingRepository {
	return &SettingPostgreSQL{db: db}
}

// Get returns nil when the key was never saved
func (r *SettingPostgreSQL) Get(ctx context.Context, tx *gorm.DB, key string) (*string, error) {
	db := getDB(r.db, tx)
	var setting models.Setting
	if err := db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return &setting.Value, nil
}

// Save upserts a setting
func (r *SettingPostgreSQL) Save(ctx context.Context, tx *gorm.DB, key, value string) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&models.Setting{Key: key, Value: value}).Error; err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
