package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(1))
	assert.Equal(t, 1, TotalPages(20))
	assert.Equal(t, 2, TotalPages(21))
	assert.Equal(t, 5, TotalPages(100))
}

// pagedLibrary answers list_questions_paginated with total questions split in pages.
func pagedLibrary(fb *fakeBridge, total int) {
	fb.handle("list_questions_paginated", func(raw json.RawMessage) (any, error) {
		var p models.ListQuestionsParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		var page []models.Question
		for i := (p.Page - 1) * p.Limit; i < min(p.Page*p.Limit, total); i++ {
			page = append(page, models.Question{ID: uint(i + 1)})
		}
		return models.PaginatedQuestions{Questions: page, Total: int64(total)}, nil
	})
}

func TestLibrary_EmptyLibrary(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 0)
	c := NewLibraryController(fb, testLogger())

	require.NoError(t, c.Reload(context.Background()))

	snap := c.Snapshot()
	assert.Zero(t, snap.TotalPages)
	assert.Empty(t, snap.Questions)
	assert.Empty(t, snap.Error)
}

func TestLibrary_SearchIsDebounced(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 45)
	timers := &fakeTimers{}
	c := NewLibraryController(fb, testLogger(), WithAfterFunc(timers.AfterFunc))
	require.NoError(t, c.SetPage(context.Background(), 3))

	c.SetSearch("t")
	c.SetSearch("tu")
	c.SetSearch("tur")
	assert.Len(t, fb.params("list_questions_paginated"), 1)

	for _, tm := range timers.all() {
		assert.Equal(t, SearchDebounce, tm.d)
	}
	assert.Equal(t, 1, timers.fire())

	calls := fb.params("list_questions_paginated")
	require.Len(t, calls, 2)
	assert.Equal(t, "tur", calls[1]["search"])
	assert.EqualValues(t, 1, calls[1]["page"])
	assert.EqualValues(t, PageSize, calls[1]["limit"])
	assert.Equal(t, 1, c.Snapshot().Page)
}

func TestLibrary_SupersededTimerDoesNothing(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 5)
	timers := &fakeTimers{}
	c := NewLibraryController(fb, testLogger(), WithAfterFunc(timers.AfterFunc))

	c.SetSearch("a")
	c.SetSearch("ab")
	stale := timers.all()[0]
	stale.f()

	assert.Empty(t, fb.params("list_questions_paginated"))
	c.Close()
	assert.Zero(t, timers.fire())
}

func TestLibrary_SearchNowCancelsDebounce(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 5)
	timers := &fakeTimers{}
	c := NewLibraryController(fb, testLogger(), WithAfterFunc(timers.AfterFunc))

	c.SetSearch("geo")
	require.NoError(t, c.Search(context.Background(), "geometri"))

	assert.Zero(t, timers.fire())
	calls := fb.params("list_questions_paginated")
	require.Len(t, calls, 1)
	assert.Equal(t, "geometri", calls[0]["search"])
}

func TestLibrary_FiltersResetPage(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 45)
	c := NewLibraryController(fb, testLogger())
	ctx := context.Background()

	require.NoError(t, c.SetPage(ctx, 3))
	assert.Equal(t, 3, c.Snapshot().Page)

	require.NoError(t, c.SetTopic(ctx, "Geometri"))
	require.NoError(t, c.SetDifficulty(ctx, ptr(models.DifficultyHard)))

	calls := fb.params("list_questions_paginated")
	require.Len(t, calls, 3)
	assert.Equal(t, "Geometri", calls[1]["topic"])
	assert.EqualValues(t, 1, calls[1]["page"])
	assert.Nil(t, calls[1]["difficulty"])
	assert.EqualValues(t, 5, calls[2]["difficulty"])
	assert.EqualValues(t, 1, calls[2]["page"])

	require.NoError(t, c.SetTopic(ctx, ""))
	assert.Nil(t, fb.params("list_questions_paginated")[3]["topic"])

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.TotalPages)
	assert.Len(t, snap.Questions, PageSize)
}

func TestLibrary_StaleResponseIsDropped(t *testing.T) {
	fb := newFakeBridge()
	release := make(chan struct{})
	fb.handle("list_questions_paginated", func(raw json.RawMessage) (any, error) {
		var p models.ListQuestionsParams
		_ = json.Unmarshal(raw, &p)
		if p.Page == 1 {
			<-release
			return models.PaginatedQuestions{Questions: []models.Question{{ID: 1}}, Total: 40}, nil
		}
		return models.PaginatedQuestions{Questions: []models.Question{{ID: 21}}, Total: 40}, nil
	})
	c := NewLibraryController(fb, testLogger())

	done := make(chan error, 1)
	go func() { done <- c.Reload(context.Background()) }()
	require.Eventually(t, func() bool { return len(fb.commands()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.SetPage(context.Background(), 2))
	close(release)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.Page)
	require.Len(t, snap.Questions, 1)
	assert.EqualValues(t, 21, snap.Questions[0].ID)
	assert.False(t, snap.Loading)
}

func TestLibrary_DeleteAwaitsThenReloads(t *testing.T) {
	fb := newFakeBridge()
	pagedLibrary(fb, 21)
	c := NewLibraryController(fb, testLogger())
	ctx := context.Background()
	require.NoError(t, c.SetPage(ctx, 2))
	c.Toggle(21)
	c.Toggle(3)

	// The backend now holds 20 questions, so page 2 no longer exists.
	pagedLibrary(fb, 20)
	require.NoError(t, c.Delete(ctx, []uint{21}))

	assert.Equal(t, []string{
		"list_questions_paginated", "delete_questions", "list_questions_paginated", "list_questions_paginated",
	}, fb.commands())
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, []uint{3}, snap.Selected)

	assert.ErrorIs(t, c.Delete(ctx, nil), ErrNothingSelected)
}

func TestLibrary_ReloadErrorIsKept(t *testing.T) {
	fb := newFakeBridge()
	fb.fail("list_questions_paginated", errors.New("database is locked"))
	c := NewLibraryController(fb, testLogger())

	assert.Error(t, c.Reload(context.Background()))
	assert.Equal(t, "database is locked", c.Snapshot().Error)
}

func TestLibrary_SelectionAndExport(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("get_questions_by_ids", []models.Question{{ID: 2}, {ID: 9}, {ID: 5}})
	c := NewLibraryController(fb, testLogger())

	_, err := c.ExportSelection(context.Background())
	assert.ErrorIs(t, err, ErrNothingSelected)

	c.Toggle(9)
	c.Toggle(5)
	c.Toggle(7)
	c.Toggle(2)
	c.Toggle(7)
	assert.Equal(t, []uint{9, 5, 2}, c.Selected())

	questions, err := c.ExportSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{9, 5, 2}, []uint{questions[0].ID, questions[1].ID, questions[2].ID})

	c.ClearSelection()
	assert.Empty(t, c.Selected())
}

func TestLibrary_LoadTopics(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("get_topics", []string{"Geometri", "Sayılar"})
	c := NewLibraryController(fb, testLogger())

	require.NoError(t, c.LoadTopics(context.Background()))
	assert.Equal(t, []string{"Geometri", "Sayılar"}, c.Snapshot().Topics)
}
