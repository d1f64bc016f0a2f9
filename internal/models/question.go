package models

import (
	"time"
)

// Difficulty buckets offered by the library and generator filters.
const (
	DifficultyEasy   = 1
	DifficultyMedium = 3
	DifficultyHard   = 5
)

const (
	// DefaultDifficulty is used when neither the engine nor the user supplied one.
	DefaultDifficulty = 3
	// DefaultTopic matches the label the analysis engine assigns to unclassified questions.
	DefaultTopic = "Genel"
)

type Question struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	ImagePath   string    `json:"image_path" gorm:"type:text;not null;default:''"`
	ImageBase64 *string   `json:"image_base64" gorm:"type:text"`
	Subject     *string   `json:"subject" gorm:"size:255"`
	SourcePDF   *string   `json:"source_pdf" gorm:"type:text"`
	PageNumber  *int      `json:"page_number"`
	Difficulty  *int      `json:"difficulty" gorm:"default:3;index"`
	Topic       *string   `json:"topic" gorm:"size:255;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// SolvedQuestion records that a student already received a question in an exported test.
type SolvedQuestion struct {
	StudentID  uint      `json:"student_id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"primaryKey"`
	SolvedAt   time.Time `json:"solved_at" gorm:"autoCreateTime"`
}

func (SolvedQuestion) TableName() string {
	return "student_solved_questions"
}

// ExtractedQuestion is produced by the analysis engine and lives in memory until saved.
type ExtractedQuestion struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Image      string    `json:"image,omitempty"`
	ImagePath  string    `json:"image_path,omitempty"`
	Page       int       `json:"page"`
	BBox       []float64 `json:"bbox,omitempty"`
	Difficulty int       `json:"difficulty,omitempty"`
	Topic      string    `json:"topic,omitempty"`
}

// DifficultyLabel returns the human label for a stored difficulty value.
func DifficultyLabel(d *int) string {
	if d == nil {
		return "unknown"
	}
	switch {
	case *d <= 2:
		return "easy"
	case *d == 3:
		return "medium"
	default:
		return "hard"
	}
}

// DifficultyRange maps a filter bucket to the inclusive range of stored values it selects.
func DifficultyRange(bucket int) (int, int) {
	switch bucket {
	case DifficultyEasy:
		return 1, 2
	case DifficultyHard:
		return 4, 5
	default:
		return bucket, bucket
	}
}
