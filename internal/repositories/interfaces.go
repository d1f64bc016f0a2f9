package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Search     string  `json:"search"`
	Topic      *string `json:"topic"`
	Difficulty *int    `json:"difficulty"` // bucket, see models.DifficultyRange
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type RandomQuestionFilters struct {
	Topic      *string `json:"topic"`
	Difficulty *int    `json:"difficulty"`
	// ExcludeSolvedBy drops questions this student already received.
	ExcludeSolvedBy *uint `json:"exclude_solved_by"`
	Count           int   `json:"count"`
}

// ===== REPOSITORY INTERFACES =====
// Every method accepts an optional transaction; nil uses the default connection.

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Question, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]models.Question, int64, error)
	GetRandom(ctx context.Context, tx *gorm.DB, filters RandomQuestionFilters) ([]models.Question, error)
	GetTopics(ctx context.Context, tx *gorm.DB) ([]string, error)
	DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error
	DeleteAll(ctx context.Context, tx *gorm.DB) error
	Stats(ctx context.Context, tx *gorm.DB) (*models.QuestionStats, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, template *models.Template) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Template, error)
	List(ctx context.Context, tx *gorm.DB) ([]models.Template, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, name, marginsJSON string) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	List(ctx context.Context, tx *gorm.DB) ([]models.Student, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	MarkSolved(ctx context.Context, tx *gorm.DB, studentID uint, questionIDs []uint) error
	SolvedQuestionIDs(ctx context.Context, tx *gorm.DB, studentID uint) ([]uint, error)
}

type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.TestRecord, questionIDs []uint) error
	List(ctx context.Context, tx *gorm.DB) ([]models.TestSummary, error)
	GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error)
	GetAnswerKey(ctx context.Context, tx *gorm.DB, testID uint) (*string, error)
	SaveAnswerKey(ctx context.Context, tx *gorm.DB, testID uint, answerKey string) error
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type SettingRepository interface {
	Get(ctx context.Context, tx *gorm.DB, key string) (*string, error)
	Save(ctx context.Context, tx *gorm.DB, key, value string) error
}
