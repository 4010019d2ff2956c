// Package speech turns text into audio files, memoized on local disk.
// Files are keyed by a content hash of the normalized text plus the voice
// parameters, so the same phrase is synthesized at most once per voice.
package speech

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const cacheExt = ".mp3"

// Voice selects the synthesis voice.
type Voice struct {
	Language string
	Name     string
}

// Synthesizer produces encoded audio for text. Implementations talk to an
// external provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}

// GuildVoices resolves per-guild voice overrides. Implemented by storage.
type GuildVoices interface {
	GuildVoice(guildID string) (language, name string)
}

type Cache struct {
	dir          string
	synth        Synthesizer
	defaultVoice Voice
	guildVoices  GuildVoices
	log          zerolog.Logger
}

func NewCache(dir string, synth Synthesizer, defaultVoice Voice, guildVoices GuildVoices, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create speech cache dir: %w", err)
	}
	return &Cache{
		dir:          dir,
		synth:        synth,
		defaultVoice: defaultVoice,
		guildVoices:  guildVoices,
		log:          log.With().Str("component", "speech").Logger(),
	}, nil
}

// Normalize prepares text for hashing and synthesis: trims, lower-cases and
// collapses runs of whitespace. Returns "" for effectively empty input.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Key returns the cache file name (without directory) for a normalized text
// and voice.
func Key(normalized string, voice Voice) string {
	sum := sha1.Sum([]byte(voice.Language + "\x00" + voice.Name + "\x00" + normalized))
	return fmt.Sprintf("%x%s", sum, cacheExt)
}

// SynthesizeForGuild synthesizes text with the guild's voice preference,
// falling back to the configured default voice.
func (c *Cache) SynthesizeForGuild(ctx context.Context, guildID, text string) (string, error) {
	voice := c.defaultVoice
	if c.guildVoices != nil && guildID != "" {
		lang, name := c.guildVoices.GuildVoice(guildID)
		if lang != "" {
			voice.Language = lang
		}
		if name != "" {
			voice.Name = name
		}
	}
	return c.Synthesize(ctx, text, voice)
}

// Synthesize returns the path of a cached audio file for text, calling the
// provider on a cache miss. Concurrent misses for the same text may each call
// the provider; the temp-file-then-rename publish keeps the cache file whole
// either way.
func (c *Cache) Synthesize(ctx context.Context, text string, voice Voice) (string, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", fmt.Errorf("nothing to synthesize")
	}

	path := filepath.Join(c.dir, Key(normalized, voice))
	if _, err := os.Stat(path); err == nil {
		c.log.Debug().Str("file", path).Msg("speech cache hit")
		return path, nil
	}

	audio, err := c.synth.Synthesize(ctx, normalized, voice)
	if err != nil {
		return "", fmt.Errorf("speech synthesis failed: %w", err)
	}

	if err := writeFileAtomic(c.dir, path, audio); err != nil {
		return "", err
	}

	c.log.Info().Str("file", path).Int("bytes", len(audio)).Msg("synthesized speech cached")
	return path, nil
}

// writeFileAtomic publishes data under path via a temp file in the same
// directory, so readers never observe a partial file.
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".speech-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish cache file: %w", err)
	}
	return nil
}
