package services

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// encryptedPrefix marks values sealed with the settings secret.
const encryptedPrefix = "enc:"

var ErrSettingsSecretMissing = errors.New("setting is encrypted but no settings secret is configured")

type settingService struct {
	repo      repositories.Repository
	secret    []byte
	logger    *slog.Logger
	validator *validator.Validator
}

// NewSettingService stores secret settings encrypted when secret is non-empty.
func NewSettingService(repo repositories.Repository, secret string, logger *slog.Logger, validator *validator.Validator) SettingService {
	s := &settingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
	if secret != "" {
		s.secret = []byte(secret)
	}
	return s
}

func (s *settingService) Get(ctx context.Context, key string) (*string, error) {
	if errs := s.validator.Validate(&models.KeyParams{Key: key}); len(errs) > 0 {
		return nil, errs
	}

	value, err := s.repo.Setting().Get(ctx, nil, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	if value == nil || !strings.HasPrefix(*value, encryptedPrefix) {
		return value, nil
	}

	if s.secret == nil {
		return nil, ErrSettingsSecretMissing
	}
	plain, err := decrypt(s.secret, strings.TrimPrefix(*value, encryptedPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt setting %s: %w", key, err)
	}
	return &plain, nil
}

func (s *settingService) Save(ctx context.Context, key, value string) error {
	if errs := s.validator.Validate(&models.SaveSettingParams{Key: key, Value: value}); len(errs) > 0 {
		return errs
	}
	if key == models.SettingAIEngine && value != models.AIEngineGemini && value != models.AIEngineYOLO {
		return NewValidationError("value", "must be gemini or yolo", value)
	}

	stored := value
	if s.secret != nil && models.IsSecretSetting(key) && value != "" {
		sealed, err := encrypt(s.secret, value)
		if err != nil {
			return fmt.Errorf("failed to encrypt setting %s: %w", key, err)
		}
		stored = encryptedPrefix + sealed
	}

	if err := s.repo.Setting().Save(ctx, nil, key, stored); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	s.logger.Info("Setting saved", "key", key)
	return nil
}

func (s *settingService) APIKey(ctx context.Context) (string, error) {
	value, err := s.Get(ctx, models.SettingGeminiAPIKey)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// encrypt returns base64(nonce|ciphertext).
func encrypt(key []byte, plaintext string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func decrypt(key []byte, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
