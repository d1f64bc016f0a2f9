package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// TestRecord is a generated and exported test.
type TestRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	StudentID *uint          `json:"student_id" gorm:"index"`
	Name      string         `json:"name" gorm:"size:255;not null"`
	AnswerKey datatypes.JSON `json:"answer_key" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (TestRecord) TableName() string {
	return "tests"
}

// TestQuestion links a test to the questions it contains.
type TestQuestion struct {
	TestID     uint `json:"test_id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"primaryKey"`
	Position   int  `json:"position" gorm:"not null;default:0"`
}

// TestNameFor builds the display name stored for a test created at t.
func TestNameFor(t time.Time) string {
	return "Test - " + t.Format("2006-01-02 15:04")
}

// TestSummary is one archive row. On the wire it is [id, date, student_name|null, question_count].
type TestSummary struct {
	ID            uint
	Date          string
	StudentName   *string
	QuestionCount int
}

func (s TestSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.ID, s.Date, s.StudentName, s.QuestionCount})
}

func (s *TestSummary) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("test summary: expected 4 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.ID); err != nil {
		return fmt.Errorf("test summary id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &s.Date); err != nil {
		return fmt.Errorf("test summary date: %w", err)
	}
	if err := json.Unmarshal(raw[2], &s.StudentName); err != nil {
		return fmt.Errorf("test summary student: %w", err)
	}
	if err := json.Unmarshal(raw[3], &s.QuestionCount); err != nil {
		return fmt.Errorf("test summary count: %w", err)
	}
	return nil
}

type AnswerEntry struct {
	QNum   int    `json:"q_num"`
	Answer string `json:"answer"`
	Detail string `json:"detail,omitempty"`
}

type AnswerKey struct {
	Answers []AnswerEntry `json:"answers"`
}

// ParseAnswerKey decodes an answer key and rejects the engine's {"error": ...} shape.
func ParseAnswerKey(s string) (*AnswerKey, error) {
	var payload struct {
		Answers []AnswerEntry `json:"answers"`
		Error   string        `json:"error"`
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, fmt.Errorf("malformed answer key: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("solver: %s", payload.Error)
	}
	if payload.Answers == nil {
		return nil, fmt.Errorf("malformed answer key: missing answers")
	}
	return &AnswerKey{Answers: payload.Answers}, nil
}
