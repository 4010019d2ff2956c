package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/bot"
	"github.com/uiguuna/uiguuna/internal/command"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show all commands" }
func (c *HelpCommand) Group() string       { return "core" }
func (c *HelpCommand) Category() string    { return "🕯️ Information" }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HelpCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: buildHelpMessage(),
	}
	return bot.RespondEmbedEphemeral(slash.Session, slash.Event, embed)
}

func buildHelpMessage() string {
	byCategory := map[string][]command.Command{}
	for _, cmd := range command.All() {
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, cat := range categories {
		sb.WriteString("**" + cat + "**\n")
		for _, cmd := range byCategory[cat] {
			fmt.Fprintf(&sb, "`/%s` - %s\n", cmd.Name(), cmd.Description())
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
