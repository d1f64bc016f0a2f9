package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

type analysisService struct {
	engine    engine.Engine
	publisher events.Publisher
	questions QuestionService
	settings  SettingService
	logger    *slog.Logger

	// base outlives the request that started an analysis and ends on Shutdown.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAnalysisService(eng engine.Engine, publisher events.Publisher, questions QuestionService, settings SettingService, logger *slog.Logger) AnalysisService {
	base, cancel := context.WithCancel(context.Background())
	return &analysisService{
		engine:    eng,
		publisher: publisher,
		questions: questions,
		settings:  settings,
		logger:    logger,
		base:      base,
		cancel:    cancel,
	}
}

func (s *analysisService) StartPDF(ctx context.Context, path string) error {
	if err := checkPDF(path); err != nil {
		return err
	}
	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(apiKey, path)
	}()

	s.logger.Info("PDF analysis scheduled", "path", path)
	return nil
}

func (s *analysisService) run(apiKey, path string) {
	ctx := s.base
	terminal := false

	err := s.engine.AnalyzePDF(ctx, apiKey, path, func(line string) {
		if ev, err := models.ParseAnalysisEvent(line); err == nil && (ev.Kind == models.AnalysisFinish || ev.Kind == models.AnalysisError) {
			terminal = true
		}
		if err := s.publisher.Publish(ctx, models.AnalysisEventName, line); err != nil {
			s.logger.Warn("Failed to publish analysis event", "error", err)
		}
	})

	// The engine may die without reporting; listeners still need a terminal event.
	if err != nil && !terminal {
		s.logger.Error("PDF analysis failed", "path", path, "error", err)
		payload, _ := json.Marshal(map[string]string{"type": string(models.AnalysisError), "message": err.Error()})
		if pubErr := s.publisher.Publish(ctx, models.AnalysisEventName, string(payload)); pubErr != nil {
			s.logger.Warn("Failed to publish analysis error", "error", pubErr)
		}
	}
}

func (s *analysisService) ImportPDF(ctx context.Context, path string) (*ImportResult, error) {
	if err := checkPDF(path); err != nil {
		return nil, err
	}
	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return nil, err
	}

	var (
		saved     int
		failure   error
		engineMsg string
	)
	err = s.engine.AnalyzePDF(ctx, apiKey, path, func(line string) {
		if failure != nil {
			return
		}
		ev, err := models.ParseAnalysisEvent(line)
		if err != nil {
			s.logger.Warn("Ignoring malformed analysis line", "error", err)
			return
		}
		switch ev.Kind {
		case models.AnalysisProgress:
			for _, q := range ev.Questions {
				params := q.SaveParams(path)
				if _, err := s.questions.Save(ctx, &params); err != nil {
					failure = err
					return
				}
				saved++
			}
		case models.AnalysisError:
			engineMsg = ev.Message
		case models.AnalysisLog:
			s.logger.Debug("Engine log", "message", ev.Message)
		}
	})
	switch {
	case failure != nil:
		return nil, failure
	case engineMsg != "":
		return nil, &EngineError{Operation: "analyze pdf", Err: errors.New(engineMsg)}
	case err != nil:
		return nil, &EngineError{Operation: "analyze pdf", Err: err}
	}

	s.logger.Info("PDF imported", "path", path, "saved", saved)
	return &ImportResult{
		Status:  "success",
		Message: "PDF processed successfully",
		Saved:   saved,
	}, nil
}

func (s *analysisService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *analysisService) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.Wait(ctx)
}

func checkPDF(path string) error {
	if path == "" {
		return NewValidationError("path", "is required", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return NewValidationError("path", fmt.Sprintf("cannot be read: %v", err), path)
	}
	if info.IsDir() {
		return NewValidationError("path", "is a directory", path)
	}
	return nil
}
