package discord

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Command definition hashes persist next to the datastore so restarts only
// push definitions that actually changed.
func (b *Bot) guildCachePath(guildID string) string {
	return filepath.Join(filepath.Dir(b.cfg.StoragePath), "commands", guildID+".json")
}

func (b *Bot) loadCommandHashes(guildID string) map[string]string {
	hashes := make(map[string]string)

	file, err := os.ReadFile(b.guildCachePath(guildID))
	if err == nil {
		_ = json.Unmarshal(file, &hashes)
	}
	return hashes
}

func (b *Bot) saveCommandHashes(guildID string, hashes map[string]string) {
	path := b.guildCachePath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		b.log.Warn().Err(err).Str("guild", guildID).Msg("failed to create command cache dir")
		return
	}
	data, _ := json.MarshalIndent(hashes, "", "  ")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.log.Warn().Err(err).Str("guild", guildID).Msg("failed to write command cache")
	}
}
