package discord

import (
	"fmt"

	"github.com/uiguuna/uiguuna/internal/audio/player"
	"github.com/uiguuna/uiguuna/internal/bot"
	"github.com/uiguuna/uiguuna/internal/storage"
)

// AudioSession returns the guild's audio session, creating it on first use.
func (b *Bot) AudioSession(guildID string) *player.Session {
	return b.sessions.GetOrCreate(guildID)
}

// RemoveAudioSession forgets a guild's session after it left voice.
func (b *Bot) RemoveAudioSession(guildID string) {
	b.sessions.Remove(guildID)
}

// FindUserVoiceState reports which voice channel a user currently occupies.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*bot.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &bot.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, fmt.Errorf("user not in any voice channel")
}

// StoredGuildVoices reads per-guild speech voice overrides from storage.
type StoredGuildVoices struct {
	Store *storage.Storage
}

func (g *StoredGuildVoices) GuildVoice(guildID string) (language, name string) {
	prefs, err := g.Store.VoicePrefs(guildID)
	if err != nil {
		return "", ""
	}
	return prefs.Language, prefs.Voice
}
