package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/cache"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create stores an analysed question and invalidates derived caches
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager)
	return nil
}

// GetByIDs retrieves questions by id, serving single ids from cache.
// Rows come back in the order of ids; unknown ids are skipped.
func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}

	db := getDB(q.db, tx)
	byID := make(map[uint]models.Question, len(ids))
	var missing []uint
	for _, id := range ids {
		var cached models.Question
		if err := q.cacheManager.Question.Get(ctx, fmt.Sprintf("id:%d", id), &cached); err == nil {
			byID[id] = cached
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		var rows []models.Question
		if err := db.WithContext(ctx).Where("id IN ?", missing).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get questions by IDs: %w", err)
		}
		for _, row := range rows {
			byID[row.ID] = row
			// cache failures never fail a read
			_ = q.cacheManager.Question.Set(ctx, fmt.Sprintf("id:%d", row.ID), row, cache.QuestionCacheConfig.TTL)
		}
	}

	questions := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := byID[id]; ok {
			questions = append(questions, question)
		}
	}
	return questions, nil
}

// ListAll returns every question, newest first
func (q *QuestionPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]models.Question, error) {
	db := getDB(q.db, tx)
	var questions []models.Question
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// ===== QUERY OPERATIONS =====

// List retrieves one page of questions. Search matches text or topic as a substring.
func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]models.Question, int64, error) {
	db := getDB(q.db, tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	if search := strings.TrimSpace(filters.Search); search != "" {
		term := "%" + search + "%"
		query = query.Where("(text ILIKE ? OR topic ILIKE ?)", term, term)
	}
	query = applyTopic(query, filters.Topic)
	query = applyDifficultyBucket(query, filters.Difficulty)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	questions := []models.Question{}
	if err := query.Order("created_at DESC").Order("id DESC").Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// GetRandom samples questions, optionally skipping a student's solved set
func (q *QuestionPostgreSQL) GetRandom(ctx context.Context, tx *gorm.DB, filters repositories.RandomQuestionFilters) ([]models.Question, error) {
	db := getDB(q.db, tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	query = applyTopic(query, filters.Topic)
	query = applyDifficultyBucket(query, filters.Difficulty)
	if filters.ExcludeSolvedBy != nil {
		solved := db.WithContext(ctx).
			Model(&models.SolvedQuestion{}).
			Select("question_id").
			Where("student_id = ?", *filters.ExcludeSolvedBy)
		query = query.Where("id NOT IN (?)", solved)
	}

	questions := []models.Question{}
	if err := query.Order("RANDOM()").Limit(filters.Count).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get random questions: %w", err)
	}

	return questions, nil
}

// GetTopics returns distinct non-empty topics in ascending order
func (q *QuestionPostgreSQL) GetTopics(ctx context.Context, tx *gorm.DB) ([]string, error) {
	db := getDB(q.db, tx)
	var topics []string

	err := q.cacheManager.Topic.CacheOrExecute(ctx, "all", &topics, cache.TopicCacheConfig.TTL, func() (any, error) {
		rows := []string{}
		if err := db.WithContext(ctx).
			Model(&models.Question{}).
			Distinct("topic").
			Where("topic IS NOT NULL AND topic <> ''").
			Order("topic ASC").
			Pluck("topic", &rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get topics: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return topics, nil
}

// ===== BULK OPERATIONS =====

// DeleteBatch removes questions together with their test membership and solved rows
func (q *QuestionPostgreSQL) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	db := getDB(q.db, tx)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id IN ?", ids).Delete(&models.TestQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete questions from tests: %w", err)
		}
		if err := tx.Where("question_id IN ?", ids).Delete(&models.SolvedQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete solved rows: %w", err)
		}
		if err := tx.Delete(&models.Question{}, ids).Error; err != nil {
			return fmt.Errorf("failed to delete questions batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateQuestionCache(ctx, q.cacheManager, ids...)
	return nil
}

// DeleteAll empties the question bank
func (q *QuestionPostgreSQL) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	db := getDB(q.db, tx)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.TestQuestion{}, &models.SolvedQuestion{}, &models.Question{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateAllQuestions(ctx, q.cacheManager)
	return nil
}

// ===== STATISTICS =====

type groupCount struct {
	Key   *string
	Count int64
}

// Stats aggregates counters for the dashboard endpoint
func (q *QuestionPostgreSQL) Stats(ctx context.Context, tx *gorm.DB) (*models.QuestionStats, error) {
	db := getDB(q.db, tx)
	var stats models.QuestionStats

	err := q.cacheManager.Stats.CacheOrExecute(ctx, "summary", &stats, cache.StatsCacheConfig.TTL, func() (any, error) {
		s := models.QuestionStats{
			ByTopic:      map[string]int64{},
			ByDifficulty: map[string]int64{},
		}
		if err := db.WithContext(ctx).Model(&models.Question{}).Count(&s.TotalQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		if err := db.WithContext(ctx).Model(&models.TestRecord{}).Count(&s.TotalTests).Error; err != nil {
			return nil, fmt.Errorf("failed to count tests: %w", err)
		}
		if err := db.WithContext(ctx).Model(&models.Student{}).Count(&s.TotalStudents).Error; err != nil {
			return nil, fmt.Errorf("failed to count students: %w", err)
		}

		var topics []groupCount
		if err := db.WithContext(ctx).Model(&models.Question{}).
			Select("topic AS key, COUNT(*) AS count").
			Group("topic").
			Scan(&topics).Error; err != nil {
			return nil, fmt.Errorf("failed to group by topic: %w", err)
		}
		for _, row := range topics {
			key := models.DefaultTopic
			if row.Key != nil && *row.Key != "" {
				key = *row.Key
			}
			s.ByTopic[key] += row.Count
		}

		var difficulties []struct {
			Difficulty *int
			Count      int64
		}
		if err := db.WithContext(ctx).Model(&models.Question{}).
			Select("difficulty, COUNT(*) AS count").
			Group("difficulty").
			Scan(&difficulties).Error; err != nil {
			return nil, fmt.Errorf("failed to group by difficulty: %w", err)
		}
		for _, row := range difficulties {
			s.ByDifficulty[models.DifficultyLabel(row.Difficulty)] += row.Count
		}

		return &s, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
