package bot

import "github.com/uiguuna/uiguuna/internal/audio/player"

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}

// BotAudio is the surface the Discord bot exposes to commands for voice
// playback, kept as an interface so command packages never import discord.
type BotAudio interface {
	AudioSession(guildID string) *player.Session
	RemoveAudioSession(guildID string)
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}
