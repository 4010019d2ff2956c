package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/bot"
	"github.com/uiguuna/uiguuna/internal/command"
)

// onReady is called when the gateway session is established.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.registerHandlers()

	if err := b.registerCommandsForGuilds(r.Guilds); err != nil {
		b.log.Error().Err(err).Msg("slash command registration failed")
	}

	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

// onGuildCreate fires for every guild on startup and whenever the bot is
// added to a new one.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.registerHandlers()

	if err := b.registerCommands(g.Guild.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.Guild.ID).Msg("failed to register guild commands")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx := &command.SlashContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
		Log:     b.log,
	}
	if err := cmd.Run(ctx); err != nil {
		b.log.Error().Err(err).Str("command", name).Msg("command failed")
		_ = bot.RespondEphemeral(s, i, "Something went wrong running that command.")
	}
}
