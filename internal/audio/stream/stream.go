// Package stream pushes fixed-format PCM audio into a voice sink as opus
// frames. One stream writes to a sink at a time; the caller's queue worker
// enforces that.
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"layeh.com/gopus"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz

	// sendTimeout guards against a sink whose reader is gone (e.g. a
	// connection released mid-item); without it the send would block forever.
	sendTimeout = 5 * time.Second

	silenceFrames = 5
)

// opusSilence is a single opus frame of silence, sent after each item so the
// next one starts from a clean device state.
var opusSilence = []byte{0xF8, 0xFF, 0xFE}

var ErrSendStalled = errors.New("voice send stalled")

// Sink is the byte-oriented output of a voice connection.
type Sink interface {
	Speaking(bool) error
	OpusSend() chan<- []byte
}

type encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// Send streams s16le 48kHz stereo PCM from r into sink until EOF or ctx
// cancellation. On every exit path the sink is flushed with silence and
// speaking is cleared. Cancellation surfaces as ctx.Err().
func Send(ctx context.Context, r io.Reader, sink Sink) error {
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}
	return send(ctx, r, sink, enc)
}

func send(ctx context.Context, r io.Reader, sink Sink, enc encoder) error {
	sink.Speaking(true)
	defer flush(sink)

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(r, pcmBuf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		last := false
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// Pad the trailing partial frame with silence.
			for i := n; i < len(pcmBuf); i++ {
				pcmBuf[i] = 0
			}
			last = true
		} else if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}

		frame, err := enc.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sink.OpusSend() <- frame:
		case <-time.After(sendTimeout):
			return ErrSendStalled
		}

		if last {
			return nil
		}
	}
}

// flush leaves the device in a clean state between items.
func flush(sink Sink) {
	for i := 0; i < silenceFrames; i++ {
		select {
		case sink.OpusSend() <- opusSilence:
		case <-time.After(sendTimeout):
			sink.Speaking(false)
			return
		}
	}
	sink.Speaking(false)
}
