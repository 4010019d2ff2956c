package core

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/bot"
	"github.com/uiguuna/uiguuna/internal/command"
	"github.com/uiguuna/uiguuna/internal/version"
)

type AboutCommand struct{}

func (c *AboutCommand) Name() string        { return "about" }
func (c *AboutCommand) Description() string { return "Discover the origin of this bot" }
func (c *AboutCommand) Group() string       { return "core" }
func (c *AboutCommand) Category() string    { return "🕯️ Information" }

func (c *AboutCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *AboutCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	buildDate := "unknown"
	if version.BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, version.BuildDate); err == nil {
			buildDate = t.Format("2006-01-02")
		} else {
			buildDate = version.BuildDate
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("ℹ️ About %s", version.AppName),
		Description: "A talking companion for your voice channels. " +
			"It reads phrases aloud and plays audio clips on request.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: version.Version, Inline: true},
			{Name: "Built", Value: buildDate, Inline: true},
			{Name: "Go", Value: version.GoVersion, Inline: true},
		},
	}

	return bot.RespondEmbedEphemeral(slash.Session, slash.Event, embed)
}
