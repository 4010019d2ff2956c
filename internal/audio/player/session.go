package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/uiguuna/uiguuna/internal/audio/sources"
)

// Session is the audio state of one guild. All methods are safe for
// concurrent use; queue items are played strictly in enqueue order by a
// single worker goroutine.
type Session struct {
	guildID string
	dialer  Dialer
	pipe    Pipeline
	log     zerolog.Logger

	// joinMu serializes Join/Leave so connection-state mutation for one
	// guild never interleaves; the dial itself runs outside the fast-path mu.
	joinMu sync.Mutex

	mu      sync.Mutex
	conn    Connection
	items   chan sources.Request
	working bool
	cancel  context.CancelFunc // non-nil iff an item is actively streaming
}

func newSession(guildID string, dialer Dialer, pipe Pipeline, capacity int, log zerolog.Logger) *Session {
	return &Session{
		guildID: guildID,
		dialer:  dialer,
		pipe:    pipe,
		items:   make(chan sources.Request, capacity),
		log:     log.With().Str("component", "player").Str("guild", guildID).Logger(),
	}
}

// Connected reports whether the session holds a live voice connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// ChannelID returns the connected voice channel, or "" when disconnected.
func (s *Session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ""
	}
	return s.conn.ChannelID()
}

// Join connects the session to a voice channel. Joining the channel it is
// already connected to returns ErrAlreadyConnected without touching the
// connection. Joining a different channel dials first, cancels the in-flight
// item (its audio belongs to the old channel) and releases the old connection
// after the swap. A failed dial leaves the previous state intact.
func (s *Session) Join(channelID string) error {
	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	s.mu.Lock()
	if s.conn != nil && s.conn.ChannelID() == channelID {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	conn, err := s.dialer.Dial(s.guildID, channelID)
	if err != nil {
		return fmt.Errorf("failed to join voice channel %s: %w", channelID, err)
	}

	s.mu.Lock()
	old := s.conn
	if s.cancel != nil {
		s.cancel()
	}
	s.conn = conn
	s.mu.Unlock()

	if old != nil {
		old.Disconnect()
		s.log.Info().Str("channel", channelID).Msg("moved to another voice channel")
	} else {
		s.log.Info().Str("channel", channelID).Msg("joined voice channel")
	}
	return nil
}

// Leave cancels any in-flight item, discards pending requests and releases
// the connection.
func (s *Session) Leave() error {
	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.conn = nil
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.discardPending()

	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	s.log.Info().Msg("left voice channel")
	return nil
}

func (s *Session) discardPending() {
	for {
		select {
		case <-s.items:
		default:
			return
		}
	}
}

// Enqueue appends a playback request. It is rejected when the session has no
// voice connection; the caller should join first. Returns immediately.
func (s *Session) Enqueue(req sources.Request) error {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.mu.Unlock()

	select {
	case s.items <- req:
	default:
		return ErrQueueFull
	}

	s.ensureWorker()
	return nil
}

// Skip cancels the item that is currently streaming. Pending items are left
// alone. Reports false when nothing is playing.
func (s *Session) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Session) ensureWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.working {
		return
	}
	s.working = true
	go s.drain()
}

// drain is the queue worker. Exactly one runs per session: the working flag
// flips only under mu, and the empty-queue exit re-checks the channel while
// holding mu so an Enqueue racing with shutdown either hands its item to this
// worker or observes working=false and spawns the next one. No request is
// ever silently dropped between the two.
func (s *Session) drain() {
	for {
		select {
		case req := <-s.items:
			s.play(req)
		default:
			s.mu.Lock()
			select {
			case req := <-s.items:
				s.mu.Unlock()
				s.play(req)
			default:
				s.working = false
				s.mu.Unlock()
				return
			}
		}
	}
}

// play runs one item under a fresh cancellation scope. Failures are isolated
// to the item; the worker always moves on.
func (s *Session) play(req sources.Request) {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		s.log.Debug().Str("kind", req.Kind.String()).Msg("dropping queued item, no voice connection")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	err := s.pipe.Play(ctx, req, conn)

	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
	cancel()

	switch {
	case err == nil:
		s.log.Debug().Str("kind", req.Kind.String()).Msg("playback finished")
	case errors.Is(err, context.Canceled):
		s.log.Info().Str("kind", req.Kind.String()).Msg("playback skipped")
	default:
		s.log.Error().Err(err).Str("kind", req.Kind.String()).Msg("playback failed, continuing with queue")
	}
}
