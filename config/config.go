package config

import (
	"github.com/pitabwire/frame/config"

	"github.com/kevsila/narrator/internal/voice"
)

// NarratorConfig holds configuration for the narrator service.
type NarratorConfig struct {
	config.ConfigurationDefault

	EngineBackend string `envDefault:"gemini"                       env:"ENGINE_BACKEND"`
	EngineModel   string `envDefault:"gemini-2.5-flash-preview-tts" env:"ENGINE_MODEL"`
	GeminiAPIKey  string `envDefault:""                             env:"GEMINI_API_KEY"`

	ProfileDir        string `envDefault:""       env:"PROFILE_DIR"`
	UsageStoreBackend string `envDefault:"file"   env:"USAGE_STORE_BACKEND"` // "file" or "database"
	UsageStoreDir     string `envDefault:"./data" env:"USAGE_STORE_DIR"`

	GeminiDailyLimit     int `envDefault:"50" env:"GEMINI_DAILY_LIMIT"`
	ElevenLabsDailyLimit int `envDefault:"20" env:"ELEVEN_LABS_DAILY_LIMIT"`
	NotebookDailyLimit   int `envDefault:"10" env:"NOTEBOOK_LM_DAILY_LIMIT"`

	PlaybackEnabled bool `envDefault:"true" env:"PLAYBACK_ENABLED"`
}

// DailyLimits maps each platform to its configured daily request budget.
func (c *NarratorConfig) DailyLimits() map[voice.Platform]int {
	return map[voice.Platform]int{
		voice.PlatformGemini:     c.GeminiDailyLimit,
		voice.PlatformElevenLabs: c.ElevenLabsDailyLimit,
		voice.PlatformNotebookLM: c.NotebookDailyLimit,
	}
}

// EngineConfig builds the backend factory config map.
func (c *NarratorConfig) EngineConfig() map[string]string {
	return map[string]string{
		"gemini_api_key": c.GeminiAPIKey,
		"model":          c.EngineModel,
	}
}
