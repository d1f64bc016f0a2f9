package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// StaticDir receives PDFs rendered by the REST endpoints.
	StaticDir string
	// SettingsSecret encrypts secret settings when non-empty.
	SettingsSecret string
}

// Dependencies are the collaborators every service is built from.
type Dependencies struct {
	Repo      repositories.Repository
	Engine    engine.Engine
	Solver    engine.Solver
	Publisher events.Publisher
	Logger    *slog.Logger
	Validator *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	// Service instances
	questionService    QuestionService
	templateService    TemplateService
	studentService     StudentService
	archiveService     ArchiveService
	generatorService   GeneratorService
	settingService     SettingService
	analysisService    AnalysisService
	spreadsheetService SpreadsheetService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{deps: deps, config: config}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := sm.validateDependencies(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	logger := sm.deps.Logger
	logger.Info("Initializing service manager")

	repo, v := sm.deps.Repo, sm.deps.Validator

	sm.settingService = NewSettingService(repo, sm.config.SettingsSecret, logger.With("service", "setting"), v)
	sm.questionService = NewQuestionService(repo, logger.With("service", "question"), v)
	sm.templateService = NewTemplateService(repo, sm.deps.Engine, sm.settingService, logger.With("service", "template"), v)
	sm.studentService = NewStudentService(repo, logger.With("service", "student"), v)
	sm.archiveService = NewArchiveService(repo, sm.deps.Solver, sm.settingService, logger.With("service", "archive"), v)
	sm.generatorService = NewGeneratorService(repo, sm.deps.Engine, sm.settingService, sm.config.StaticDir, logger.With("service", "generator"), v)
	sm.analysisService = NewAnalysisService(sm.deps.Engine, sm.deps.Publisher, sm.questionService, sm.settingService, logger.With("service", "analysis"))
	sm.spreadsheetService = NewSpreadsheetService(repo, logger.With("service", "spreadsheet"))

	sm.initialized = true
	logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) validateDependencies() error {
	switch {
	case sm.deps.Repo == nil:
		return fmt.Errorf("repository is required")
	case sm.deps.Engine == nil:
		return fmt.Errorf("engine is required")
	case sm.deps.Solver == nil:
		return fmt.Errorf("solver is required")
	case sm.deps.Publisher == nil:
		return fmt.Errorf("event publisher is required")
	case sm.deps.Logger == nil:
		return fmt.Errorf("logger is required")
	case sm.deps.Validator == nil:
		return fmt.Errorf("validator is required")
	}
	return nil
}

// Shutdown stops background analyses. The repository is closed by its owner.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized || sm.shutdown {
		return nil
	}
	sm.shutdown = true

	sm.deps.Logger.Info("Shutting down service manager")
	if err := sm.analysisService.Shutdown(ctx); err != nil {
		return fmt.Errorf("analysis shutdown: %w", err)
	}
	return nil
}

func (sm *serviceManager) mustBeReady(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("question")
	return sm.questionService
}

func (sm *serviceManager) Template() TemplateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("template")
	return sm.templateService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("student")
	return sm.studentService
}

func (sm *serviceManager) Archive() ArchiveService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("archive")
	return sm.archiveService
}

func (sm *serviceManager) Generator() GeneratorService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("generator")
	return sm.generatorService
}

func (sm *serviceManager) Setting() SettingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("setting")
	return sm.settingService
}

func (sm *serviceManager) Analysis() AnalysisService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("analysis")
	return sm.analysisService
}

func (sm *serviceManager) Spreadsheet() SpreadsheetService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("spreadsheet")
	return sm.spreadsheetService
}
