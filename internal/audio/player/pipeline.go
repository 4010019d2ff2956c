package player

import (
	"context"
	"fmt"

	"github.com/uiguuna/uiguuna/internal/audio/sources"
	"github.com/uiguuna/uiguuna/internal/audio/stream"
	"github.com/uiguuna/uiguuna/internal/audio/transcode"
)

// playbackPipeline is the production Pipeline: resolve the request to an
// audio location, transcode it to PCM with ffmpeg, stream it to the sink.
type playbackPipeline struct {
	resolver *sources.Resolver
}

// NewPipeline builds the playback pipeline around a source resolver.
func NewPipeline(resolver *sources.Resolver) Pipeline {
	return &playbackPipeline{resolver: resolver}
}

func (p *playbackPipeline) Play(ctx context.Context, req sources.Request, conn Connection) error {
	audio, err := p.resolver.Resolve(ctx, req)
	if err != nil {
		return err
	}

	pcm, err := transcode.Open(ctx, audio.Location)
	if err != nil {
		return fmt.Errorf("failed to open transcoder: %w", err)
	}
	defer pcm.Close()

	return stream.Send(ctx, pcm, conn)
}
