package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

type AnalysisState string

const (
	AnalysisIdle      AnalysisState = "idle"
	AnalysisPreparing AnalysisState = "preparing"
	AnalysisRunning   AnalysisState = "running"
	AnalysisFinished  AnalysisState = "finished"
	AnalysisFailed    AnalysisState = "failed"
)

func (s AnalysisState) terminal() bool {
	return s == AnalysisFinished || s == AnalysisFailed
}

// AnalysisView is the screen the analysis flow wants shown.
type AnalysisView string

const (
	ViewUpload  AnalysisView = "upload"
	ViewResults AnalysisView = "results"
)

type AnalysisSnapshot struct {
	State     AnalysisState
	View      AnalysisView
	PDFPath   string
	Current   int
	Total     int
	Questions []models.ExtractedQuestion
	Error     string
}

// AnalysisController drives one PDF analysis at a time. Engine events of a
// previous session are ignored once a new session started or Reset was called.
type AnalysisController struct {
	notifier
	bridge bridge.Bridge
	client *bridge.Client
	logger *slog.Logger

	mu       sync.Mutex
	epoch    uint64
	unlisten bridge.Unlisten
	snap     AnalysisSnapshot
}

func NewAnalysisController(b bridge.Bridge, logger *slog.Logger) *AnalysisController {
	return &AnalysisController{
		bridge: b,
		client: bridge.NewClient(b),
		logger: componentLogger(logger, "analysis_controller"),
		snap:   AnalysisSnapshot{State: AnalysisIdle, View: ViewUpload},
	}
}

// Snapshot returns a copy of the current state.
func (c *AnalysisController) Snapshot() AnalysisSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snap
	snap.Questions = append([]models.ExtractedQuestion(nil), c.snap.Questions...)
	return snap
}

// Start begins a new session for path. The event listener is live before
// analyze_pdf is invoked and stays live until a terminal event, Reset or the
// next Start. ctx only bounds the start call itself.
func (c *AnalysisController) Start(ctx context.Context, path string) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	previous := c.unlisten
	c.unlisten = nil
	c.snap = AnalysisSnapshot{State: AnalysisPreparing, View: c.snap.View, PDFPath: path}
	c.mu.Unlock()
	if previous != nil {
		previous()
	}
	c.changed()

	unlisten, err := c.bridge.Listen(context.WithoutCancel(ctx), models.AnalysisEventName, func(payload string) {
		c.handle(epoch, payload)
	})
	if err != nil {
		return c.startFailed(epoch, err)
	}

	c.mu.Lock()
	switch {
	case c.epoch != epoch:
		c.mu.Unlock()
		unlisten()
		return nil
	case c.snap.State.terminal():
		c.mu.Unlock()
		unlisten()
	default:
		c.unlisten = unlisten
		c.mu.Unlock()
	}

	c.logger.Info("Starting analysis", "path", path)
	if err := c.client.AnalyzePDF(ctx, path); err != nil {
		return c.startFailed(epoch, err)
	}
	return nil
}

func (c *AnalysisController) startFailed(epoch uint64, err error) error {
	msg := "failed to start analysis: " + bridge.Message(err)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return fmt.Errorf("failed to start analysis: %w", err)
	}
	c.snap.State = AnalysisFailed
	c.snap.Error = msg
	release := c.unlisten
	c.unlisten = nil
	c.mu.Unlock()

	if release != nil {
		release()
	}
	c.logger.Warn("Analysis did not start", "error", err)
	c.changed()
	return fmt.Errorf("failed to start analysis: %w", err)
}

func (c *AnalysisController) handle(epoch uint64, payload string) {
	ev, err := models.ParseAnalysisEvent(payload)
	if err != nil {
		c.logger.Debug("Engine output", "payload", payload, "error", err)
		return
	}
	if ev.Kind == models.AnalysisLog {
		c.logger.Info("Engine log", "message", ev.Message)
		return
	}

	c.mu.Lock()
	if epoch != c.epoch || c.snap.State.terminal() {
		c.mu.Unlock()
		return
	}

	var release bridge.Unlisten
	switch ev.Kind {
	case models.AnalysisStart:
		// Start already reset the session, so a late start keeps current.
		c.snap.State = AnalysisRunning
		if ev.Total > 0 {
			c.snap.Total = ev.Total
		}
	case models.AnalysisProgress:
		c.snap.State = AnalysisRunning
		c.snap.Current = max(c.snap.Current, ev.Current)
		if c.snap.Total == 0 {
			c.snap.Total = ev.Total
		}
		c.snap.Questions = append(c.snap.Questions, ev.Questions...)
	case models.AnalysisFinish:
		c.snap.State = AnalysisFinished
		c.snap.View = ViewResults
		release, c.unlisten = c.unlisten, nil
	case models.AnalysisError:
		c.snap.State = AnalysisFailed
		c.snap.Error = ev.Message
		release, c.unlisten = c.unlisten, nil
	}
	c.mu.Unlock()

	if release != nil {
		release()
	}
	c.changed()
}

// Reset drops the results, returns to the upload view and ignores any event
// still in flight.
func (c *AnalysisController) Reset() {
	c.mu.Lock()
	c.epoch++
	release := c.unlisten
	c.unlisten = nil
	c.snap = AnalysisSnapshot{State: AnalysisIdle, View: ViewUpload}
	c.mu.Unlock()

	if release != nil {
		release()
	}
	c.changed()
}

// Close releases the listener of a running session.
func (c *AnalysisController) Close() {
	c.mu.Lock()
	release := c.unlisten
	c.unlisten = nil
	c.mu.Unlock()
	if release != nil {
		release()
	}
}

// SaveQuestion stores one extracted question in the library.
func (c *AnalysisController) SaveQuestion(ctx context.Context, q models.ExtractedQuestion) (uint, error) {
	c.mu.Lock()
	path := c.snap.PDFPath
	c.mu.Unlock()

	id, err := c.client.SaveQuestion(ctx, q.SaveParams(path))
	if err != nil {
		return 0, fmt.Errorf("failed to save question %s: %w", q.ID, err)
	}
	return id, nil
}

// SaveAll stores every extracted question in order and stops at the first
// failure. It returns how many were saved.
func (c *AnalysisController) SaveAll(ctx context.Context) (int, error) {
	snap := c.Snapshot()
	saved := 0
	for _, q := range snap.Questions {
		if _, err := c.client.SaveQuestion(ctx, q.SaveParams(snap.PDFPath)); err != nil {
			return saved, fmt.Errorf("saved %d of %d questions: %w", saved, len(snap.Questions), err)
		}
		saved++
	}
	c.logger.Info("Saved extracted questions", "count", saved)
	return saved, nil
}
