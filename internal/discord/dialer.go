package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/uiguuna/uiguuna/internal/audio/player"
)

// gatewayDialer opens voice connections through the live gateway session.
type gatewayDialer struct {
	dg *discordgo.Session
}

func (d *gatewayDialer) Dial(guildID, channelID string) (player.Connection, error) {
	if !d.canSpeakIn(channelID) {
		return nil, fmt.Errorf("missing connect or speak permission in channel %s", channelID)
	}

	vc, err := d.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	return &voiceConn{vc: vc, channelID: channelID}, nil
}

func (d *gatewayDialer) canSpeakIn(channelID string) bool {
	perms, err := d.dg.UserChannelPermissions(d.dg.State.User.ID, channelID)
	if err != nil {
		// State may be cold right after connect; let the join attempt decide.
		return true
	}
	need := int64(discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak)
	return perms&need == need
}

// voiceConn adapts a discordgo voice connection to the player's interface.
type voiceConn struct {
	vc        *discordgo.VoiceConnection
	channelID string
}

func (c *voiceConn) Speaking(speaking bool) error { return c.vc.Speaking(speaking) }
func (c *voiceConn) OpusSend() chan<- []byte      { return c.vc.OpusSend }
func (c *voiceConn) ChannelID() string            { return c.channelID }
func (c *voiceConn) Disconnect() error            { return c.vc.Disconnect() }
