package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

// newDryRunDB builds a gorm handle that renders SQL without a server and
// records every query statement.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=exam dbname=exam sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)

	var statements []string
	err = db.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		statements = append(statements, tx.Dialector.Explain(tx.Statement.SQL.String(), tx.Statement.Vars...))
	})
	require.NoError(t, err)

	return db, &statements
}

func TestQuestionPostgreSQL_ListFilters(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewQuestionPostgreSQL(db, nil)

	topic := "Math"
	difficulty := 1
	_, _, err := repo.List(context.Background(), nil, repositories.QuestionFilters{
		Search:     "alg",
		Topic:      &topic,
		Difficulty: &difficulty,
		Limit:      20,
		Offset:     20,
	})
	require.NoError(t, err)
	require.Len(t, *statements, 2)

	count := (*statements)[0]
	assert.Contains(t, count, "count(*)")
	assert.Contains(t, count, "text ILIKE '%alg%' OR topic ILIKE '%alg%'")
	assert.Contains(t, count, "topic = 'Math'")
	assert.Contains(t, count, "difficulty BETWEEN 1 AND 2")

	page := (*statements)[1]
	assert.Contains(t, page, "ORDER BY created_at DESC")
	assert.Contains(t, page, "LIMIT 20")
	assert.Contains(t, page, "OFFSET 20")
}

func TestQuestionPostgreSQL_ListWithoutFilters(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewQuestionPostgreSQL(db, nil)

	empty := ""
	_, _, err := repo.List(context.Background(), nil, repositories.QuestionFilters{Search: "  ", Topic: &empty, Limit: 20})
	require.NoError(t, err)
	require.NotEmpty(t, *statements)
	assert.NotContains(t, (*statements)[0], "WHERE")
}

func TestQuestionPostgreSQL_GetRandomExcludesSolved(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewQuestionPostgreSQL(db, nil)

	student := uint(4)
	difficulty := 3
	_, err := repo.GetRandom(context.Background(), nil, repositories.RandomQuestionFilters{
		Difficulty:      &difficulty,
		ExcludeSolvedBy: &student,
		Count:           10,
	})
	require.NoError(t, err)
	require.Len(t, *statements, 1)

	sql := (*statements)[0]
	assert.Contains(t, sql, `NOT IN (SELECT question_id FROM "student_solved_questions" WHERE student_id = 4`)
	assert.Contains(t, sql, "difficulty = 3")
	assert.Contains(t, sql, "ORDER BY RANDOM()")
	assert.Contains(t, sql, "LIMIT 10")
	assert.NotContains(t, sql, "topic =")
}

func TestQuestionPostgreSQL_GetTopics(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewQuestionPostgreSQL(db, nil)

	topics, err := repo.GetTopics(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, topics)
	require.Len(t, *statements, 1)

	sql := (*statements)[0]
	assert.Contains(t, sql, "DISTINCT")
	assert.Contains(t, sql, "topic <> ''")
	assert.Contains(t, sql, "ORDER BY topic ASC")
}

func TestQuestionPostgreSQL_GetByIDsEmpty(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewQuestionPostgreSQL(db, nil)

	questions, err := repo.GetByIDs(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.Empty(t, *statements)
}
