package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

func TestQuestionsList_SearchMatchesTextOrTopic(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.AddQuestion("Solve for x", "Algebra", 3, "")
	s.AddQuestion("Name the capital", "Geography", 1, "")
	s.AddQuestion("Area of a circle", "Geometry", 5, "")

	got, total, err := s.Question().List(ctx, nil, repositories.QuestionFilters{Search: "GEO", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)

	hard := models.DifficultyHard
	got, total, err = s.Question().List(ctx, nil, repositories.QuestionFilters{Difficulty: &hard, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Area of a circle", got[0].Text)
}

func TestQuestionsList_PagesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	var ids []uint
	for i := 0; i < 5; i++ {
		ids = append(ids, s.AddQuestion("q", "Math", 3, ""))
	}

	page, total, err := s.Question().List(ctx, nil, repositories.QuestionFilters{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, _, err = s.Question().List(ctx, nil, repositories.QuestionFilters{Limit: 2, Offset: 9})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestGetRandom_ExcludesSolved(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := s.AddQuestion("a", "Math", 3, "")
	b := s.AddQuestion("b", "Math", 3, "")

	student := &models.Student{Name: "Ayse"}
	require.NoError(t, s.Student().Create(ctx, nil, student))
	require.NoError(t, s.Student().MarkSolved(ctx, nil, student.ID, []uint{b}))

	got, err := s.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{Count: 5, ExcludeSolvedBy: &student.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ID)
}

func TestGetRandom_ShufflesAndTruncates(t *testing.T) {
	s := New(WithRand(rand.New(rand.NewPCG(7, 11))))
	ctx := context.Background()
	var all []uint
	for i := 0; i < 6; i++ {
		all = append(all, s.AddQuestion("q", "Math", 3, ""))
	}

	orders := map[string]bool{}
	for i := 0; i < 20; i++ {
		got, err := s.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{Count: 6})
		require.NoError(t, err)
		ids := make([]uint, 0, len(got))
		for _, q := range got {
			ids = append(ids, q.ID)
		}
		assert.ElementsMatch(t, all, ids)
		orders[fmt.Sprint(ids)] = true
	}
	assert.Greater(t, len(orders), 1)

	got, err := s.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{Count: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, slices.Contains(all, got[0].ID))
}

func TestGetRandom_SeededSourceRepeats(t *testing.T) {
	draw := func() []uint {
		s := New(WithRand(rand.New(rand.NewPCG(3, 5))))
		for i := 0; i < 8; i++ {
			s.AddQuestion("q", "Math", 3, "")
		}
		got, err := s.Question().GetRandom(context.Background(), nil, repositories.RandomQuestionFilters{Count: 4})
		require.NoError(t, err)
		ids := make([]uint, 0, len(got))
		for _, q := range got {
			ids = append(ids, q.ID)
		}
		return ids
	}
	assert.Equal(t, draw(), draw())
}

func TestStudents_DuplicateName(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Student().Create(ctx, nil, &models.Student{Name: "Ali"}))
	err := s.Student().Create(ctx, nil, &models.Student{Name: "Ali"})
	assert.True(t, repositories.IsDuplicateError(err))
}

func TestTests_ListAndAnswerKey(t *testing.T) {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()
	q := s.AddQuestion("q", "Math", 3, "")
	student := &models.Student{Name: "Ali"}
	require.NoError(t, s.Student().Create(ctx, nil, student))

	rec := &models.TestRecord{Name: "Test", StudentID: &student.ID}
	require.NoError(t, s.Test().Create(ctx, nil, rec, []uint{q}))

	list, err := s.Test().List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-03-01 09:30", list[0].Date)
	assert.Equal(t, "Ali", *list[0].StudentName)
	assert.Equal(t, 1, list[0].QuestionCount)

	key, err := s.Test().GetAnswerKey(ctx, nil, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, key)

	require.NoError(t, s.Test().SaveAnswerKey(ctx, nil, rec.ID, `{"answers":[]}`))
	key, err = s.Test().GetAnswerKey(ctx, nil, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"answers":[]}`, *key)

	_, err = s.Test().GetQuestions(ctx, nil, 999)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestDeleteBatch_DropsLinks(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := s.AddQuestion("a", "Math", 3, "")
	b := s.AddQuestion("b", "Math", 3, "")
	rec := &models.TestRecord{Name: "T"}
	require.NoError(t, s.Test().Create(ctx, nil, rec, []uint{a, b}))

	require.NoError(t, s.Question().DeleteBatch(ctx, nil, []uint{a}))

	qs, err := s.Test().GetQuestions(ctx, nil, rec.ID)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, b, qs[0].ID)
}

func TestManager_Lifecycle(t *testing.T) {
	store := New()
	var mgr repositories.RepositoryManager = NewManager(store)
	ctx := context.Background()

	require.NoError(t, mgr.Initialize())
	assert.Same(t, store, mgr.GetRepository())
	assert.NoError(t, mgr.HealthCheck(ctx))
	assert.NoError(t, mgr.Shutdown(ctx))
}
