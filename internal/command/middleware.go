package command

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/storage"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if slash, ok := ctx.(*SlashContext); ok && slash.Event.GuildID == "" {
					return slash.Session.InteractionRespond(slash.Event.Interaction, &discordgo.InteractionResponse{
						Type: discordgo.InteractionResponseChannelMessageWithSource,
						Data: &discordgo.InteractionResponseData{
							Content: "You must be in a guild to use this command.",
							Flags:   discordgo.MessageFlagsEphemeral,
						},
					})
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithCommandLogger records each invocation into the guild's command
// history before running the command.
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if slash, ok := ctx.(*SlashContext); ok && slash.Storage != nil && slash.Event.Member != nil {
					rec := storage.CommandHistoryRecord{
						ChannelID: slash.Event.ChannelID,
						UserID:    slash.Event.Member.User.ID,
						Username:  slash.Event.Member.User.Username,
						Command:   cmd.Name(),
						Datetime:  time.Now(),
					}
					if ch, err := slash.Session.State.Channel(slash.Event.ChannelID); err == nil {
						rec.ChannelName = ch.Name
					}
					if g, err := slash.Session.State.Guild(slash.Event.GuildID); err == nil {
						rec.GuildName = g.Name
					}
					if err := slash.Storage.AppendCommandToHistory(slash.Event.GuildID, rec); err != nil {
						slash.Log.Warn().Err(err).Str("command", cmd.Name()).Msg("failed to record command history")
					}
				}
				return cmd.Run(ctx)
			},
		}
	}
}
