package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/uiguuna/uiguuna/internal/audio/player"
	"github.com/uiguuna/uiguuna/internal/command"
	"github.com/uiguuna/uiguuna/internal/command/core"
	"github.com/uiguuna/uiguuna/internal/command/voice"
	"github.com/uiguuna/uiguuna/internal/config"
	"github.com/uiguuna/uiguuna/internal/storage"
)

// Bot is the Discord front end. It owns the gateway session and bridges
// interactions to the command registry and the audio sessions.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	pipe     player.Pipeline
	sessions *player.Registry
	log      zerolog.Logger

	registerOnce sync.Once
}

// StartBot runs the Discord bot until ctx is cancelled. The pipeline turns
// queued requests into audio on a voice connection.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, pipe player.Pipeline, log zerolog.Logger) error {
	b := &Bot{
		cfg:     cfg,
		storage: store,
		pipe:    pipe,
		log:     log,
	}
	if err := b.run(ctx); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.sessions = player.NewRegistry(&gatewayDialer{dg: dg}, b.pipe, b.cfg.QueueCapacity, b.log)

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, disconnecting voice sessions")
	b.sessions.Shutdown()
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages
}

// registerHandlers populates the command registry. Done once, lazily, so
// reconnects do not register duplicates.
func (b *Bot) registerHandlers() {
	b.registerOnce.Do(func() {
		command.Register(command.ApplyMiddlewares(
			&voice.VoiceCommand{Bot: b},
			command.WithGuildOnly(),
			command.WithCommandLogger(),
		))
		command.Register(command.ApplyMiddlewares(
			&core.PingCommand{},
			command.WithCommandLogger(),
		))
		command.Register(&core.AboutCommand{})
		command.Register(&core.HelpCommand{})
	})
}
