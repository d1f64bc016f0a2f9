package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

func TestTestBuilder_GenerateForwardsNullFilters(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("generate_test", []models.Question{{ID: 1, ImagePath: "/a.png"}, {ID: 2, ImagePath: "/b.png"}})
	c := NewTestBuilderController(fb, testLogger())

	questions, err := c.Generate(context.Background(), models.GenerateTestParams{Count: 10})
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	assert.Equal(t, []map[string]any{{"topic": nil, "difficulty": nil, "count": float64(10), "studentId": nil}}, fb.params("generate_test"))
}

func TestTestBuilder_CountRange(t *testing.T) {
	fb := newFakeBridge()
	c := NewTestBuilderController(fb, testLogger())

	_, err := c.Generate(context.Background(), models.GenerateTestParams{Count: 0})
	assert.ErrorIs(t, err, ErrCountOutOfRange)
	_, err = c.Generate(context.Background(), models.GenerateTestParams{Count: 101})
	assert.ErrorIs(t, err, ErrCountOutOfRange)
	assert.Empty(t, fb.commands())
}

func TestTestBuilder_RegenerateAndExportRequest(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("generate_test", []models.Question{{ID: 3}})
	c := NewTestBuilderController(fb, testLogger())
	ctx := context.Background()

	_, err := c.Regenerate(ctx)
	assert.ErrorIs(t, err, ErrNothingGenerated)
	_, err = c.ExportRequest(nil)
	assert.ErrorIs(t, err, ErrNothingGenerated)

	params := models.GenerateTestParams{Topic: ptr("Geometri"), Difficulty: ptr(models.DifficultyEasy), Count: 5, StudentID: ptr(uint(2))}
	_, err = c.Generate(ctx, params)
	require.NoError(t, err)
	_, err = c.Regenerate(ctx)
	require.NoError(t, err)

	calls := fb.params("generate_test")
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])

	req, err := c.ExportRequest(ptr(uint(6)))
	require.NoError(t, err)
	assert.Equal(t, ExportRequest{Questions: []models.Question{{ID: 3}}, StudentID: ptr(uint(2)), TemplateID: ptr(uint(6))}, req)
}

func TestTestBuilder_LoadOptions(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("get_topics", []string{"Geometri"})
	fb.respond("list_students", []models.StudentEntry{{ID: 1, Name: "Ayşe"}})
	c := NewTestBuilderController(fb, testLogger())

	require.NoError(t, c.LoadOptions(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, []string{"Geometri"}, snap.Topics)
	assert.Equal(t, []models.StudentEntry{{ID: 1, Name: "Ayşe"}}, snap.Students)
}

func TestStudents_AddTrimsAndReloads(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("add_student", 3)
	fb.respond("list_students", []models.StudentEntry{{ID: 3, Name: "Mehmet"}})
	c := NewStudentsController(fb, testLogger())
	ctx := context.Background()

	_, err := c.Add(ctx, "   ")
	assert.ErrorIs(t, err, ErrStudentNameRequired)

	id, err := c.Add(ctx, "  Mehmet ")
	require.NoError(t, err)
	assert.EqualValues(t, 3, id)
	assert.Equal(t, "Mehmet", fb.params("add_student")[0]["name"])
	assert.Equal(t, []models.StudentEntry{{ID: 3, Name: "Mehmet"}}, c.Students())

	require.NoError(t, c.Delete(ctx, 3))
	assert.Equal(t, []string{"add_student", "list_students", "delete_student", "list_students"}, fb.commands())
}

func TestStudents_DuplicateIsReported(t *testing.T) {
	fb := newFakeBridge()
	fb.fail("add_student", errors.New("student already exists"))
	c := NewStudentsController(fb, testLogger())

	_, err := c.Add(context.Background(), "Ali")
	assert.Equal(t, "student already exists", bridge.Message(err))
	assert.Equal(t, []string{"add_student"}, fb.commands())
}

func TestSettings_LoadDefaultsAndSave(t *testing.T) {
	fb := newFakeBridge()
	c := NewSettingsController(fb, testLogger())
	ctx := context.Background()

	require.NoError(t, c.Load(ctx))
	assert.Equal(t, Settings{AIEngine: models.AIEngineGemini}, c.Settings())

	assert.ErrorIs(t, c.Save(ctx, Settings{AIEngine: "tesseract"}), ErrUnknownAIEngine)
	assert.Empty(t, fb.params("save_setting"))

	require.NoError(t, c.Save(ctx, Settings{GeminiAPIKey: "k-1", AIEngine: models.AIEngineYOLO}))
	assert.Equal(t, []map[string]any{
		{"key": models.SettingGeminiAPIKey, "value": "k-1"},
		{"key": models.SettingAIEngine, "value": models.AIEngineYOLO},
	}, fb.params("save_setting"))

	require.NoError(t, c.ClearDatabase(ctx))
	assert.Contains(t, fb.commands(), "clear_database")
}

func TestArchive_SelectAndAnswerKey(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("list_tests", []models.TestSummary{{ID: 1, Date: "2026-10-01 09:30", QuestionCount: 2}})
	fb.respond("get_test_questions", []models.Question{{ID: 10}, {ID: 11}})
	fb.respond("generate_answer_key", `{"answers":[{"q_num":1,"answer":"B"},{"q_num":2,"answer":"D"}]}`)
	c := NewArchiveController(fb, testLogger())
	ctx := context.Background()

	_, err := c.GenerateAnswerKey(ctx)
	assert.ErrorIs(t, err, ErrNoTestSelected)

	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, 1))
	key, err := c.GenerateAnswerKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.AnswerEntry{{QNum: 1, Answer: "B"}, {QNum: 2, Answer: "D"}}, key.Answers)

	snap := c.Snapshot()
	assert.Len(t, snap.Tests, 1)
	assert.Len(t, snap.Questions, 2)
	assert.Equal(t, key, snap.AnswerKey)

	// Selecting again hides the shown key.
	require.NoError(t, c.Select(ctx, 1))
	assert.Nil(t, c.Snapshot().AnswerKey)
}

func TestArchive_SolverErrorIsSurfaced(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("get_test_questions", []models.Question{})
	fb.respond("generate_answer_key", `{"error":"quota exceeded"}`)
	c := NewArchiveController(fb, testLogger())
	ctx := context.Background()

	require.NoError(t, c.Select(ctx, 1))
	_, err := c.GenerateAnswerKey(ctx)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Nil(t, c.Snapshot().AnswerKey)
}

func TestArchive_ExportXLSX(t *testing.T) {
	fb := newFakeBridge()
	fb.respond("export_archive_xlsx", "/out/arsiv.xlsx")
	c := NewArchiveController(fb, testLogger())

	path, err := c.ExportXLSX(context.Background(), "/out/arsiv.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "/out/arsiv.xlsx", path)
	assert.Equal(t, "/out/arsiv.xlsx", fb.params("export_archive_xlsx")[0]["outputPath"])
}
