// Package transcode decodes any audio ffmpeg understands and resamples it to
// the fixed PCM format the voice sink expects: s16le, 48 kHz, stereo.
package transcode

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const (
	channels   = 2
	sampleRate = 48000
)

// Open starts an ffmpeg process reading location (URL or local path) and
// returns its PCM stdout. Cancelling ctx kills the process; Close kills and
// reaps it.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", buildArgs(location)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command start error: %w", err)
	}

	return &pcmStream{ReadCloser: stdout, cmd: cmd}, nil
}

// buildArgs assembles the ffmpeg invocation. Reconnect flags only make sense
// for network inputs; ffmpeg rejects them for plain files.
func buildArgs(location string) []string {
	var args []string
	if isRemote(location) {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
		)
	}
	return append(args,
		"-i", location,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

type pcmStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

// Close tears the pipeline down: kill ffmpeg, then reap it so no zombie is
// left between queue items.
func (s *pcmStream) Close() error {
	s.ReadCloser.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return nil
}
