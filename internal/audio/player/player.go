// Package player owns the per-guild audio session: one voice connection, one
// FIFO playback queue, one worker draining it. Sessions for different guilds
// are fully independent.
package player

import (
	"context"
	"errors"

	"github.com/uiguuna/uiguuna/internal/audio/sources"
	"github.com/uiguuna/uiguuna/internal/audio/stream"
)

var (
	ErrAlreadyConnected = errors.New("already connected to this voice channel")
	ErrNotConnected     = errors.New("not connected to a voice channel")
	ErrQueueFull        = errors.New("playback queue is full")
)

// Connection is a live link to one voice channel.
type Connection interface {
	stream.Sink
	ChannelID() string
	Disconnect() error
}

// Dialer establishes voice connections. Implemented by the discord adapter.
type Dialer interface {
	Dial(guildID, channelID string) (Connection, error)
}

// Pipeline executes one playback item end to end: resolve, transcode, stream.
// It must honor ctx cancellation and leave the sink flushed on every exit.
type Pipeline interface {
	Play(ctx context.Context, req sources.Request, conn Connection) error
}
