package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

// Create stores a test and its questions in order
func (r *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.TestRecord, questionIDs []uint) error {
	db := getDB(r.db, tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if test.Name == "" {
			test.Name = models.TestNameFor(time.Now())
		}
		if err := tx.Omit("Student").Create(test).Error; err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}

		if len(questionIDs) == 0 {
			return nil
		}
		rows := make([]models.TestQuestion, 0, len(questionIDs))
		for i, qid := range questionIDs {
			rows = append(rows, models.TestQuestion{TestID: test.ID, QuestionID: qid, Position: i})
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to attach questions to test: %w", err)
		}
		return nil
	})
}

type testSummaryRow struct {
	ID            uint
	CreatedAt     time.Time
	StudentName   *string
	QuestionCount int
}

// List returns archive rows, newest first
func (r *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]models.TestSummary, error) {
	db := getDB(r.db, tx)
	var rows []testSummaryRow
	if err := db.WithContext(ctx).
		Table("tests AS t").
		Select("t.id, t.created_at, s.name AS student_name, COUNT(tq.question_id) AS question_count").
		Joins("LEFT JOIN students s ON s.id = t.student_id").
		Joins("LEFT JOIN test_questions tq ON tq.test_id = t.id").
		Group("t.id, t.created_at, s.name").
		Order("t.created_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	summaries := make([]models.TestSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.TestSummary{
			ID:            row.ID,
			Date:          row.CreatedAt.Format("2006-01-02 15:04"),
			StudentName:   row.StudentName,
			QuestionCount: row.QuestionCount,
		})
	}
	return summaries, nil
}

// GetQuestions returns the questions of a test in their exported order
func (r *TestPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error) {
	db := getDB(r.db, tx)

	var exists int64
	if err := db.WithContext(ctx).Model(&models.TestRecord{}).Where("id = ?", testID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("test %d: %w", testID, repositories.ErrNotFound)
	}

	questions := []models.Question{}
	if err := db.WithContext(ctx).
		Joins("JOIN test_questions tq ON tq.question_id = questions.id").
		Where("tq.test_id = ?", testID).
		Order("tq.position ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}
	return questions, nil
}

// GetAnswerKey returns the cached key, or nil when none was generated yet
func (r *TestPostgreSQL) GetAnswerKey(ctx context.Context, tx *gorm.DB, testID uint) (*string, error) {
	db := getDB(r.db, tx)
	var test models.TestRecord
	if err := db.WithContext(ctx).Select("id", "answer_key").First(&test, testID).Error; err != nil {
		return nil, notFound(err, "test", testID)
	}
	if len(test.AnswerKey) == 0 || test.AnswerKey.String() == "null" {
		return nil, nil
	}
	key := test.AnswerKey.String()
	return &key, nil
}

func (r *TestPostgreSQL) SaveAnswerKey(ctx context.Context, tx *gorm.DB, testID uint, answerKey string) error {
	db := getDB(r.db, tx)
	result := db.WithContext(ctx).
		Model(&models.TestRecord{}).
		Where("id = ?", testID).
		Update("answer_key", datatypes.JSON(answerKey))
	if err := requireAffected(result, "test", testID); err != nil {
		return fmt.Errorf("failed to save answer key: %w", err)
	}
	return nil
}

// DeleteAll removes every test and its membership rows
func (r *TestPostgreSQL) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	db := getDB(r.db, tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.TestQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear test questions: %w", err)
		}
		if err := global.Delete(&models.TestRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear tests: %w", err)
		}
		return nil
	})
}
