package models

// Known setting keys.
const (
	SettingGeminiAPIKey = "gemini_api_key"
	SettingAIEngine     = "ai_engine"
)

// AI engine choices stored under SettingAIEngine.
const (
	AIEngineGemini = "gemini"
	AIEngineYOLO   = "yolo"
)

type Setting struct {
	Key   string `json:"key" gorm:"primaryKey;size:255"`
	Value string `json:"value" gorm:"type:text;not null"`
}

// IsSecretSetting reports whether a setting is stored encrypted when a secret is configured.
func IsSecretSetting(key string) bool {
	return key == SettingGeminiAPIKey
}
