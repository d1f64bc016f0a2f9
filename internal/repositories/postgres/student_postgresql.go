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

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

// Create inserts a student; a taken name yields repositories.ErrDuplicate
func (r *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).Create(student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("student %q: %w", student.Name, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// List returns students ordered by name
func (r *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]models.Student, error) {
	db := getDB(r.db, tx)
	students := []models.Student{}
	if err := db.WithContext(ctx).Order("name ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// Delete removes a student, the solved set and detaches the student's tests
func (r *StudentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(r.db, tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.SolvedQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to delete solved rows: %w", err)
		}
		if err := tx.Model(&models.TestRecord{}).Where("student_id = ?", id).Update("student_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tests: %w", err)
		}
		result := tx.Delete(&models.Student{}, id)
		if err := requireAffected(result, "student", id); err != nil {
			return fmt.Errorf("failed to delete student: %w", err)
		}
		return nil
	})
}

// MarkSolved records questions as received; already recorded pairs are ignored
func (r *StudentPostgreSQL) MarkSolved(ctx context.Context, tx *gorm.DB, studentID uint, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	rows := make([]models.SolvedQuestion, 0, len(questionIDs))
	for _, qid := range questionIDs {
		rows = append(rows, models.SolvedQuestion{StudentID: studentID, QuestionID: qid})
	}

	db := getDB(r.db, tx)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to mark questions solved: %w", err)
	}
	return nil
}

func (r *StudentPostgreSQL) SolvedQuestionIDs(ctx context.Context, tx *gorm.DB, studentID uint) ([]uint, error) {
	db := getDB(r.db, tx)
	ids := []uint{}
	if err := db.WithContext(ctx).
		Model(&models.SolvedQuestion{}).
		Where("student_id = ?", studentID).
		Order("question_id").
		Pluck("question_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get solved questions: %w", err)
	}
	return ids, nil
}
