package player

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry maps guild IDs to their audio sessions. It is the single source
// of truth for "are we connected, and to what". Sessions carry their own
// locks, so work on one guild never blocks another.
type Registry struct {
	dialer   Dialer
	pipe     Pipeline
	capacity int
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(dialer Dialer, pipe Pipeline, queueCapacity int, log zerolog.Logger) *Registry {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	return &Registry{
		dialer:   dialer,
		pipe:     pipe,
		capacity: queueCapacity,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the guild's session, creating it on first use.
func (r *Registry) GetOrCreate(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := newSession(guildID, r.dialer, r.pipe, r.capacity, r.log)
	r.sessions[guildID] = s
	return s
}

// Get returns the guild's session if one exists.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Remove tears the guild's session down and forgets it. Safe to call for
// unknown guilds.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if ok {
		if err := s.Leave(); err != nil && err != ErrNotConnected {
			r.log.Warn().Err(err).Str("guild", guildID).Msg("failed to disconnect removed session")
		}
	}
}

// Shutdown disconnects every session. Used on process teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Leave(); err != nil && err != ErrNotConnected {
			r.log.Warn().Err(err).Msg("failed to disconnect session on shutdown")
		}
	}
}
