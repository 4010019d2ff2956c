// Package sources defines playback requests and resolves them to a location
// the transcoder can read: a synthesized speech file from the cache, or a
// direct URL/path supplied by the user.
package sources

import "errors"

var ErrSourceNotFound = errors.New("audio source not found")

type Kind int

const (
	// KindSpeech plays text through the speech synthesis cache.
	KindSpeech Kind = iota
	// KindDirect streams audio from a URL or local file path.
	KindDirect
)

func (k Kind) String() string {
	switch k {
	case KindSpeech:
		return "speech"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Request is a single queued playback item. Immutable once enqueued.
type Request struct {
	GuildID string
	Kind    Kind
	Payload string
}

// Audio is a resolved, playable location.
type Audio struct {
	Location string
	Local    bool
}
