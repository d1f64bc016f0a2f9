package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

type Settings struct {
	GeminiAPIKey string
	AIEngine     string
}

type SettingsController struct {
	notifier
	client *bridge.Client
	logger *slog.Logger

	mu       sync.Mutex
	settings Settings
}

func NewSettingsController(b bridge.Bridge, logger *slog.Logger) *SettingsController {
	return &SettingsController{
		client:   bridge.NewClient(b),
		logger:   componentLogger(logger, "settings_controller"),
		settings: Settings{AIEngine: models.AIEngineGemini},
	}
}

func (c *SettingsController) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Load reads both settings. A missing engine choice defaults to gemini.
func (c *SettingsController) Load(ctx context.Context) error {
	key, err := c.client.GetSetting(ctx, models.SettingGeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	engine, err := c.client.GetSetting(ctx, models.SettingAIEngine)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	s := Settings{AIEngine: models.AIEngineGemini}
	if key != nil {
		s.GeminiAPIKey = *key
	}
	if engine != nil && *engine != "" {
		s.AIEngine = *engine
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	c.changed()
	return nil
}

func (c *SettingsController) Save(ctx context.Context, s Settings) error {
	if s.AIEngine != models.AIEngineGemini && s.AIEngine != models.AIEngineYOLO {
		return ErrUnknownAIEngine
	}
	if err := c.client.SaveSetting(ctx, models.SettingGeminiAPIKey, s.GeminiAPIKey); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := c.client.SaveSetting(ctx, models.SettingAIEngine, s.AIEngine); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	c.logger.Info("Settings saved", "ai_engine", s.AIEngine)
	c.changed()
	return nil
}

// ClearDatabase removes questions and tests on the backend.
func (c *SettingsController) ClearDatabase(ctx context.Context) error {
	if err := c.client.ClearDatabase(ctx); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}
	c.logger.Warn("Database cleared")
	return nil
}
