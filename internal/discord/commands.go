package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/command"
	"github.com/uiguuna/uiguuna/pkg/util"
)

const registrationWorkers = 4

// registerCommandsForGuilds syncs slash commands for every known guild.
func (b *Bot) registerCommandsForGuilds(guilds []*discordgo.Guild) error {
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.ID)
	}
	return util.Parallel(ids, registrationWorkers, func(_ context.Context, guildID string) error {
		return b.registerCommands(guildID)
	})
}

// registerCommands syncs slash commands for one guild with Discord: deletes
// obsolete ones and creates or updates commands whose definition changed
// since the last run.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	existing, _ := b.dg.ApplicationCommands(appID, guildID)
	localHashes := b.loadCommandHashes(guildID)

	var wanted []*discordgo.ApplicationCommand
	wantedHashes := make(map[string]string)
	for _, cmd := range command.All() {
		if def := slashDefinition(cmd); def != nil {
			wanted = append(wanted, def)
			wantedHashes[def.Name] = hashCommand(def)
		}
	}

	for _, old := range existing {
		if _, ok := wantedHashes[old.Name]; !ok {
			b.log.Info().Str("guild", guildID).Str("command", old.Name).Msg("deleting obsolete command")
			if err := b.dg.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
				b.log.Error().Err(err).Str("guild", guildID).Str("command", old.Name).Msg("failed to delete command")
			}
			delete(localHashes, old.Name)
		}
	}

	var changed []*discordgo.ApplicationCommand
	for _, def := range wanted {
		if localHashes[def.Name] != wantedHashes[def.Name] {
			changed = append(changed, def)
		}
	}

	if len(changed) > 0 {
		b.log.Info().Str("guild", guildID).Int("count", len(changed)).Msg("updating changed commands")
		b.createCommandsWithRateLimit(appID, guildID, changed)
		for _, def := range changed {
			localHashes[def.Name] = wantedHashes[def.Name]
		}
	}

	b.saveCommandHashes(guildID, localHashes)
	return nil
}

func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	user, err := b.dg.User("@me")
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func slashDefinition(cmd command.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def != nil && def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// createCommandsWithRateLimit pushes definitions to Discord while staying
// under the application command rate limit.
func (b *Bot) createCommandsWithRateLimit(appID, guildID string, defs []*discordgo.ApplicationCommand) {
	ticker := time.NewTicker(time.Second / 40)
	defer ticker.Stop()

	var wg sync.WaitGroup
	for _, def := range defs {
		wg.Add(1)
		go func(def *discordgo.ApplicationCommand) {
			defer wg.Done()
			<-ticker.C

			if _, err := b.dg.ApplicationCommandCreate(appID, guildID, def); err != nil {
				b.log.Error().Err(err).Str("guild", guildID).Str("command", def.Name).Msg("failed to create command")
			} else {
				b.log.Info().Str("guild", guildID).Str("command", def.Name).Msg("command created")
			}
		}(def)
	}
	wg.Wait()
}
