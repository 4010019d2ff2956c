package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all process configuration. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	SpeechCacheDir      string        `env:"SPEECH_CACHE_DIR" envDefault:"tts"`
	SpeechCacheMaxAge   time.Duration `env:"SPEECH_CACHE_MAX_AGE" envDefault:"720h"`
	SpeechCacheMaxBytes int64         `env:"SPEECH_CACHE_MAX_BYTES" envDefault:"536870912"`
	SpeechLanguage      string        `env:"SPEECH_LANGUAGE" envDefault:"ru-RU"`
	SpeechVoice         string        `env:"SPEECH_VOICE" envDefault:"ru-RU-Wavenet-C"`
	GoogleCredentials   string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	QueueCapacity int `env:"QUEUE_CAPACITY" envDefault:"64"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// New loads configuration from .env (if present) and the environment.
func New() (*Config, error) {
	// Missing .env is fine; system environment takes over.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.QueueCapacity < 1 {
		return nil, fmt.Errorf("QUEUE_CAPACITY must be at least 1, got %d", cfg.QueueCapacity)
	}
	if cfg.SpeechCacheMaxBytes < 0 {
		return nil, fmt.Errorf("SPEECH_CACHE_MAX_BYTES must not be negative, got %d", cfg.SpeechCacheMaxBytes)
	}

	return &cfg, nil
}
