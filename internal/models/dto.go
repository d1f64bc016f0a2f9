package models

import "strings"

// Parameter and result shapes of the command surface. JSON keys follow the
// client-side naming used on the wire.

// PageSize is the fixed library page size.
const PageSize = 20

type PaginatedQuestions struct {
	Questions []Question `json:"questions"`
	Total     int64      `json:"total"`
}

type IDParams struct {
	ID uint `json:"id" validate:"required"`
}

type IDsParams struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

type PathParams struct {
	Path string `json:"path" validate:"required"`
}

type NameParams struct {
	Name string `json:"name" validate:"required,student_name"`
}

type KeyParams struct {
	Key string `json:"key" validate:"required,setting_key"`
}

type SaveSettingParams struct {
	Key   string `json:"key" validate:"required,setting_key"`
	Value string `json:"value"`
}

type TestIDParams struct {
	TestID uint `json:"testId" validate:"required"`
}

type SaveTemplateParams struct {
	Name    string `json:"name" validate:"required,template_name"`
	Path    string `json:"path" validate:"required"`
	Preview string `json:"preview"`
	Margins string `json:"margins" validate:"required,margins_json"`
}

type UpdateTemplateParams struct {
	ID      uint   `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required,template_name"`
	Margins string `json:"margins" validate:"required,margins_json"`
}

type ExportPDFParams struct {
	ImagePaths   []string `json:"imagePaths" validate:"required,min=1,dive,required"`
	OutputPath   string   `json:"outputPath" validate:"required"`
	TemplatePath *string  `json:"templatePath"`
	Margins      *string  `json:"margins" validate:"omitempty,margins_json"`
}

type SaveTestRecordParams struct {
	StudentID   *uint  `json:"studentId"`
	QuestionIDs []uint `json:"questionIds" validate:"required,min=1"`
}

type MarkSolvedParams struct {
	StudentID   uint   `json:"studentId" validate:"required"`
	QuestionIDs []uint `json:"questionIds" validate:"required,min=1"`
}

type SaveQuestionParams struct {
	Text       string  `json:"text"`
	Image      string  `json:"image"`
	Base64     string  `json:"base64"`
	PDF        string  `json:"pdf"`
	Page       int     `json:"page" validate:"min=0"`
	Difficulty *int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
	Topic      *string `json:"topic" validate:"omitempty,max=255"`
}

type ListQuestionsParams struct {
	Page       int     `json:"page" validate:"min=1"`
	Limit      int     `json:"limit" validate:"min=1,max=200"`
	Search     string  `json:"search"`
	Topic      *string `json:"topic"`
	Difficulty *int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
}

type GenerateTestParams struct {
	Topic      *string `json:"topic"`
	Difficulty *int    `json:"difficulty" validate:"omitempty,min=1,max=5"`
	Count      int     `json:"count" validate:"min=1,max=100"`
	StudentID  *uint   `json:"studentId"`
}

type ExportArchiveParams struct {
	OutputPath string `json:"outputPath" validate:"required"`
}

// QuestionStats backs the REST stats endpoint.
type QuestionStats struct {
	TotalQuestions int64            `json:"total_questions"`
	TotalTests     int64            `json:"total_tests"`
	TotalStudents  int64            `json:"total_students"`
	ByTopic        map[string]int64 `json:"by_topic"`
	ByDifficulty   map[string]int64 `json:"by_difficulty"`
}

// UnknownPDF is recorded as the source of questions whose PDF path is unknown.
const UnknownPDF = "unknown.pdf"

// SaveParams builds the save_question parameters for an extracted question.
// Missing difficulty and topic fall back to the defaults.
func (q ExtractedQuestion) SaveParams(pdfPath string) SaveQuestionParams {
	image := q.ImagePath
	if image == "" {
		image = q.Image
	}
	var b64 string
	if strings.HasPrefix(q.Image, "data:") {
		b64 = q.Image
	}
	if pdfPath == "" {
		pdfPath = UnknownPDF
	}
	difficulty := q.Difficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}
	topic := q.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return SaveQuestionParams{
		Text:       q.Text,
		Image:      image,
		Base64:     b64,
		PDF:        pdfPath,
		Page:       q.Page,
		Difficulty: &difficulty,
		Topic:      &topic,
	}
}
