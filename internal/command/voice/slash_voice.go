package voice

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/audio/player"
	"github.com/uiguuna/uiguuna/internal/audio/sources"
	"github.com/uiguuna/uiguuna/internal/bot"
	"github.com/uiguuna/uiguuna/internal/command"
	"github.com/uiguuna/uiguuna/internal/storage"
)

type VoiceCommand struct {
	Bot bot.BotAudio
}

func (c *VoiceCommand) Name() string        { return "voice" }
func (c *VoiceCommand) Description() string { return "Voice channel playback and speech" }
func (c *VoiceCommand) Group() string       { return "voice" }
func (c *VoiceCommand) Category() string    { return "🔊 Voice" }

func (c *VoiceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "join",
				Description: "Join a voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Channel to join (defaults to yours)",
						ChannelTypes: []discordgo.ChannelType{
							discordgo.ChannelTypeGuildVoice,
						},
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leave",
				Description: "Leave the voice channel and drop the queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "say",
				Description: "Speak a phrase in the voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "text",
						Description: "What to say",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play an audio clip by name or link",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "clip",
						Description: "Clip name or direct link",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip whatever is playing right now",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "lang",
				Description: "Set the speech voice for this server",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "language",
						Description: "Language code, e.g. ru-RU or en-US (empty resets)",
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "voice",
						Description: "Voice name, e.g. ru-RU-Wavenet-C (empty resets)",
					},
				},
			},
		},
	}
}

func (c *VoiceCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	s := slash.Session
	e := slash.Event

	if len(e.ApplicationCommandData().Options) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Missing subcommand.",
		})
	}

	sub := e.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "join":
		var channelID string
		for _, opt := range sub.Options {
			if opt.Name == "channel" {
				channelID = opt.ChannelValue(nil).ID
			}
		}
		return c.runJoin(slash, channelID)
	case "leave":
		return c.runLeave(slash)
	case "say":
		var text string
		for _, opt := range sub.Options {
			if opt.Name == "text" {
				text = opt.StringValue()
			}
		}
		return c.runSay(slash, text)
	case "play":
		var clip string
		for _, opt := range sub.Options {
			if opt.Name == "clip" {
				clip = opt.StringValue()
			}
		}
		return c.runPlay(slash, clip)
	case "skip":
		return c.runSkip(slash)
	case "lang":
		var language, voiceName string
		for _, opt := range sub.Options {
			switch opt.Name {
			case "language":
				language = opt.StringValue()
			case "voice":
				voiceName = opt.StringValue()
			}
		}
		return c.runLang(slash, language, voiceName)
	default:
		return bot.RespondEmbedEphemeral(slash.Session, slash.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *VoiceCommand) runJoin(slash *command.SlashContext, channelID string) error {
	s, e := slash.Session, slash.Event

	if channelID == "" {
		state, err := c.Bot.FindUserVoiceState(e.GuildID, e.Member.User.ID)
		if err != nil {
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Title:       "🔊 Voice Error",
				Description: "Join a voice channel first, or name one explicitly.",
			})
		}
		channelID = state.ChannelID
	}

	session := c.Bot.AudioSession(e.GuildID)
	if err := session.Join(channelID); err != nil {
		if errors.Is(err, player.ErrAlreadyConnected) {
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Description: "Already in that channel.",
			})
		}
		slash.Log.Error().Err(err).Str("guild", e.GuildID).Str("channel", channelID).Msg("voice join failed")
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🔊 Voice Error",
			Description: fmt.Sprintf("Could not join the channel: %v", err),
		})
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Joined <#%s>.", channelID),
	})
}

func (c *VoiceCommand) runLeave(slash *command.SlashContext) error {
	s, e := slash.Session, slash.Event

	session := c.Bot.AudioSession(e.GuildID)
	if err := session.Leave(); err != nil {
		if errors.Is(err, player.ErrNotConnected) {
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Description: "Not in a voice channel.",
			})
		}
		slash.Log.Error().Err(err).Str("guild", e.GuildID).Msg("voice leave failed")
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🔊 Voice Error",
			Description: fmt.Sprintf("Could not leave cleanly: %v", err),
		})
	}
	c.Bot.RemoveAudioSession(e.GuildID)

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
		Description: "Left the voice channel.",
	})
}

func (c *VoiceCommand) runSay(slash *command.SlashContext, text string) error {
	s, e := slash.Session, slash.Event

	text = ScrubMentions(text)
	if text == "" {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🗣 Speech Error",
			Description: "Nothing left to say once mentions are stripped.",
		})
	}

	return c.enqueue(slash, sources.Request{
		GuildID: e.GuildID,
		Kind:    sources.KindSpeech,
		Payload: text,
	}, fmt.Sprintf("🗣 Queued: %s", text))
}

func (c *VoiceCommand) runPlay(slash *command.SlashContext, clip string) error {
	if clip == "" {
		return bot.RespondEmbedEphemeral(slash.Session, slash.Event, &discordgo.MessageEmbed{
			Title:       "🔊 Playback Error",
			Description: "Clip name or link is required.",
		})
	}

	return c.enqueue(slash, sources.Request{
		GuildID: slash.Event.GuildID,
		Kind:    sources.KindDirect,
		Payload: clip,
	}, fmt.Sprintf("🎵 Queued: %s", clip))
}

func (c *VoiceCommand) enqueue(slash *command.SlashContext, req sources.Request, confirmation string) error {
	s, e := slash.Session, slash.Event

	session := c.Bot.AudioSession(e.GuildID)
	if err := session.Enqueue(req); err != nil {
		switch {
		case errors.Is(err, player.ErrNotConnected):
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Description: "I am not in a voice channel. Use `/voice join` first.",
			})
		case errors.Is(err, player.ErrQueueFull):
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Description: "The queue is full, try again in a moment.",
			})
		default:
			slash.Log.Error().Err(err).Str("guild", e.GuildID).Msg("enqueue failed")
			return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
				Title:       "🔊 Playback Error",
				Description: fmt.Sprintf("%v", err),
			})
		}
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{Description: confirmation})
}

func (c *VoiceCommand) runSkip(slash *command.SlashContext) error {
	s, e := slash.Session, slash.Event

	session := c.Bot.AudioSession(e.GuildID)
	if !session.Skip() {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Nothing is playing.",
		})
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{Description: "⏭ Skipped."})
}

func (c *VoiceCommand) runLang(slash *command.SlashContext, language, voiceName string) error {
	s, e := slash.Session, slash.Event

	prefs := storage.VoicePrefs{Language: language, Voice: voiceName}
	if err := slash.Storage.SetVoicePrefs(e.GuildID, prefs); err != nil {
		slash.Log.Error().Err(err).Str("guild", e.GuildID).Msg("failed to store voice prefs")
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🗣 Speech Error",
			Description: fmt.Sprintf("Could not save the voice settings: %v", err),
		})
	}

	desc := "Speech voice reset to the default."
	if language != "" || voiceName != "" {
		desc = fmt.Sprintf("Speech voice set to `%s` / `%s`.", language, voiceName)
	}
	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{Description: desc})
}
