package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/cache"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

type TemplatePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewTemplatePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TemplateRepository {
	return &TemplatePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *TemplatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, template *models.Template) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	cache.InvalidateTemplateCache(ctx, r.cacheManager)
	return nil
}

func (r *TemplatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Template, error) {
	db := getDB(r.db, tx)
	var template models.Template
	if err := db.WithContext(ctx).First(&template, id).Error; err != nil {
		return nil, notFound(err, "template", id)
	}
	return &template, nil
}

// List returns templates newest first; the list is cached because previews are large
func (r *TemplatePostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]models.Template, error) {
	db := getDB(r.db, tx)
	var templates []models.Template

	err := r.cacheManager.Template.CacheOrExecute(ctx, "list", &templates, cache.TemplateCacheConfig.TTL, func() (any, error) {
		rows := []models.Template{}
		if err := db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return templates, nil
}

// Update changes the name and margins; the source file and preview are immutable
func (r *TemplatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, id uint, name, marginsJSON string) error {
	db := getDB(r.db, tx)
	result := db.WithContext(ctx).
		Model(&models.Template{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "margins_json": marginsJSON})
	if err := requireAffected(result, "template", id); err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	cache.InvalidateTemplateCache(ctx, r.cacheManager)
	return nil
}

func (r *TemplatePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(r.db, tx)
	result := db.WithContext(ctx).Delete(&models.Template{}, id)
	if err := requireAffected(result, "template", id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	cache.InvalidateTemplateCache(ctx, r.cacheManager)
	return nil
}
