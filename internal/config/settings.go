package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tradejournal/pkg/journal"
)

// EnvPrefix prefixes every runtime setting in the environment.
const EnvPrefix = "TRADE_JOURNAL"

// Settings are the runtime knobs read from the environment.
type Settings struct {
	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string
	AITimeout  time.Duration
	LogLevel   string
	LogFormat  string
	LogDir     string
}

// LoadSettings loads envFile into the environment when it exists, without
// overriding variables already set, then reads TRADE_JOURNAL_* settings. The
// AI key also falls back to GEMINI_API_KEY and API_KEY.
func LoadSettings(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ai_provider", "gemini")
	v.SetDefault("ai_timeout", "60s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	if err := v.BindEnv("ai_api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return Settings{}, err
	}

	timeout, err := time.ParseDuration(v.GetString("ai_timeout"))
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Settings{
		AIProvider: strings.ToLower(strings.TrimSpace(v.GetString("ai_provider"))),
		AIAPIKey:   strings.TrimSpace(v.GetString("ai_api_key")),
		AIModel:    strings.TrimSpace(v.GetString("ai_model")),
		AIBaseURL:  strings.TrimSpace(v.GetString("ai_base_url")),
		AITimeout:  timeout,
		LogLevel:   v.GetString("log_level"),
		LogFormat:  v.GetString("log_format"),
		LogDir:     v.GetString("log_dir"),
	}, nil
}

// AIConfig maps the AI settings onto the journal generator config.
func (s Settings) AIConfig() journal.AIConfig {
	return journal.AIConfig{
		Provider: s.AIProvider,
		APIKey:   s.AIAPIKey,
		Model:    s.AIModel,
		BaseURL:  s.AIBaseURL,
		Timeout:  s.AITimeout,
	}
}
