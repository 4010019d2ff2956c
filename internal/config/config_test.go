package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if cfg.DiscordToken != "test-token" {
		t.Errorf("DiscordToken = %q, want %q", cfg.DiscordToken, "test-token")
	}
	if cfg.StoragePath != "datastore.json" {
		t.Errorf("StoragePath = %q, want %q", cfg.StoragePath, "datastore.json")
	}
	if cfg.SpeechCacheDir != "tts" {
		t.Errorf("SpeechCacheDir = %q, want %q", cfg.SpeechCacheDir, "tts")
	}
	if cfg.SpeechCacheMaxAge != 720*time.Hour {
		t.Errorf("SpeechCacheMaxAge = %v, want %v", cfg.SpeechCacheMaxAge, 720*time.Hour)
	}
	if cfg.SpeechLanguage != "ru-RU" {
		t.Errorf("SpeechLanguage = %q, want %q", cfg.SpeechLanguage, "ru-RU")
	}
	if cfg.SpeechVoice != "ru-RU-Wavenet-C" {
		t.Errorf("SpeechVoice = %q, want %q", cfg.SpeechVoice, "ru-RU-Wavenet-C")
	}
	if cfg.QueueCapacity != 64 {
		t.Errorf("QueueCapacity = %d, want 64", cfg.QueueCapacity)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("SPEECH_CACHE_DIR", "/var/cache/speech")
	t.Setenv("SPEECH_CACHE_MAX_AGE", "24h")
	t.Setenv("QUEUE_CAPACITY", "8")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if cfg.SpeechCacheDir != "/var/cache/speech" {
		t.Errorf("SpeechCacheDir = %q, want %q", cfg.SpeechCacheDir, "/var/cache/speech")
	}
	if cfg.SpeechCacheMaxAge != 24*time.Hour {
		t.Errorf("SpeechCacheMaxAge = %v, want 24h", cfg.SpeechCacheMaxAge)
	}
	if cfg.QueueCapacity != 8 {
		t.Errorf("QueueCapacity = %d, want 8", cfg.QueueCapacity)
	}
}

func TestNewInvalidQueueCapacity(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("QUEUE_CAPACITY", "0")

	if _, err := New(); err == nil {
		t.Fatal("New() accepted QUEUE_CAPACITY=0, want error")
	}
}
