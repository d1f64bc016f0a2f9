package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type GenerateTestRequest = validator.GenerateTestRequest
type RandomTestRequest = validator.RandomTestRequest

// GeneratedPDF describes a test rendered into the static directory.
type GeneratedPDF struct {
	Status        string `json:"status"`
	URL           string `json:"url"`
	Filename      string `json:"filename"`
	QuestionCount int    `json:"question_count"`
	TestID        uint   `json:"test_id"`
}

// GeneratedFile is one rendered PDF listed by the REST archive.
type GeneratedFile struct {
	Filename string    `json:"filename"`
	URL      string    `json:"url"`
	Date     time.Time `json:"date"`
	Size     int64     `json:"size"`
}

// ImportResult summarizes a synchronous PDF import.
type ImportResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Saved   int    `json:"saved"`
}

// QuestionView is the REST shape of a question, with the image mapped to a URL.
type QuestionView struct {
	ID         uint    `json:"id"`
	Text       string  `json:"text"`
	Image      string  `json:"image" copier:"-"`
	Subject    string  `json:"subject" copier:"-"`
	Topic      *string `json:"topic"`
	Difficulty string  `json:"difficulty" copier:"-"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	Save(ctx context.Context, req *models.SaveQuestionParams) (uint, error)
	ListAll(ctx context.Context) ([]models.Question, error)
	ListPaginated(ctx context.Context, req *models.ListQuestionsParams) (*models.PaginatedQuestions, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error)
	Delete(ctx context.Context, id uint) error
	DeleteBatch(ctx context.Context, ids []uint) error
	Topics(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.QuestionStats, error)
	ListViews(ctx context.Context) ([]QuestionView, error)
}

type TemplateService interface {
	List(ctx context.Context) ([]models.Template, error)
	Get(ctx context.Context, id uint) (*models.Template, error)
	Analyze(ctx context.Context, path string) (string, error)
	Save(ctx context.Context, req *models.SaveTemplateParams) (uint, error)
	Update(ctx context.Context, req *models.UpdateTemplateParams) error
	Delete(ctx context.Context, id uint) error
}

type StudentService interface {
	List(ctx context.Context) ([]models.StudentEntry, error)
	Add(ctx context.Context, name string) (uint, error)
	Delete(ctx context.Context, id uint) error
	MarkSolved(ctx context.Context, req *models.MarkSolvedParams) error
}

type ArchiveService interface {
	SaveTestRecord(ctx context.Context, req *models.SaveTestRecordParams) (uint, error)
	ListTests(ctx context.Context) ([]models.TestSummary, error)
	TestQuestions(ctx context.Context, testID uint) ([]models.Question, error)
	AnswerKey(ctx context.Context, testID uint) (string, error)
	ClearDatabase(ctx context.Context) error
}

type GeneratorService interface {
	Generate(ctx context.Context, req *models.GenerateTestParams) ([]models.Question, error)
	ExportPDF(ctx context.Context, req *models.ExportPDFParams) (string, error)
	BuildFromSelection(ctx context.Context, req *GenerateTestRequest) (*GeneratedPDF, error)
	BuildRandom(ctx context.Context, req *RandomTestRequest) (*GeneratedPDF, error)
	ListGenerated(ctx context.Context) ([]GeneratedFile, error)
}

type SettingService interface {
	Get(ctx context.Context, key string) (*string, error)
	Save(ctx context.Context, key, value string) error
	// APIKey returns the stored Gemini key or "".
	APIKey(ctx context.Context) (string, error)
}

type AnalysisService interface {
	// StartPDF launches analysis in the background and publishes each engine
	// line as an analysis event. It returns once the engine was scheduled.
	StartPDF(ctx context.Context, path string) error
	// ImportPDF analyzes a PDF and saves every extracted question before returning.
	ImportPDF(ctx context.Context, path string) (*ImportResult, error)
	// Wait blocks until background analyses finish or ctx ends.
	Wait(ctx context.Context) error
	// Shutdown cancels running analyses and waits for them.
	Shutdown(ctx context.Context) error
}

type SpreadsheetService interface {
	ExportArchive(ctx context.Context, outputPath string) (string, error)
}

// ServiceManager owns construction and lifecycle of all services.
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error

	Question() QuestionService
	Template() TemplateService
	Student() StudentService
	Archive() ArchiveService
	Generator() GeneratorService
	Setting() SettingService
	Analysis() AnalysisService
	Spreadsheet() SpreadsheetService
}
