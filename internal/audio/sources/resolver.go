package sources

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// audioSuffix is appended to direct payloads; the upload host serves files
// under this extension.
const audioSuffix = ".mp3"

// Speech synthesizes text to a local audio file. Implemented by the speech
// cache.
type Speech interface {
	SynthesizeForGuild(ctx context.Context, guildID, text string) (string, error)
}

type Resolver struct {
	speech Speech
}

func NewResolver(speech Speech) *Resolver {
	return &Resolver{speech: speech}
}

// Resolve maps a request to a playable audio location. Speech requests go
// through the synthesis cache; direct requests are validated as a local file
// or an http(s) URL.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Audio, error) {
	switch req.Kind {
	case KindSpeech:
		path, err := r.speech.SynthesizeForGuild(ctx, req.GuildID, req.Payload)
		if err != nil {
			return Audio{}, err
		}
		return Audio{Location: path, Local: true}, nil

	case KindDirect:
		return resolveDirect(req.Payload)

	default:
		return Audio{}, fmt.Errorf("unknown request kind: %d", req.Kind)
	}
}

func resolveDirect(payload string) (Audio, error) {
	location := payload
	if !strings.HasSuffix(location, audioSuffix) {
		location += audioSuffix
	}

	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return Audio{}, fmt.Errorf("%w: %s", ErrSourceNotFound, location)
		}
		return Audio{Location: location, Local: false}, nil
	}

	info, err := os.Stat(location)
	if err != nil || info.IsDir() {
		return Audio{}, fmt.Errorf("%w: %s", ErrSourceNotFound, location)
	}
	return Audio{Location: location, Local: true}, nil
}
