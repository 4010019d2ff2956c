package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/uiguuna/uiguuna/pkg/retrylimit"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// GoogleSynthesizer calls the Google Cloud Text-to-Speech REST API. The
// underlying service is created on first use; initialization is safe under
// concurrent first calls from multiple guild workers.
type GoogleSynthesizer struct {
	credentialsFile string

	once    sync.Once
	svc     *texttospeech.Service
	initErr error

	limiter *retrylimit.AdaptiveLimiter
}

// NewGoogleSynthesizer prepares a synthesizer. credentialsFile may be empty,
// in which case application default credentials apply.
func NewGoogleSynthesizer(credentialsFile string) *GoogleSynthesizer {
	return &GoogleSynthesizer{
		credentialsFile: credentialsFile,
		limiter:         retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

func (g *GoogleSynthesizer) service(ctx context.Context) (*texttospeech.Service, error) {
	g.once.Do(func() {
		var opts []option.ClientOption
		if g.credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
		}
		g.svc, g.initErr = texttospeech.NewService(context.WithoutCancel(ctx), opts...)
	})
	if g.initErr != nil {
		return nil, fmt.Errorf("failed to init text-to-speech client: %w", g.initErr)
	}
	return g.svc, nil
}

// Synthesize renders text as MP3 audio bytes.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: voice.Language,
			Name:         voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var resp *texttospeech.SynthesizeSpeechResponse
	err = retrylimit.WithRetryMax(callCtx, func() error {
		var callErr error
		resp, callErr = svc.Text.Synthesize(req).Context(callCtx).Do()
		return callErr
	}, g.limiter, 3)
	if err != nil {
		return nil, fmt.Errorf("synthesize request failed: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}
	return audio, nil
}
