package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uiguuna/uiguuna/internal/audio/player"
	"github.com/uiguuna/uiguuna/internal/audio/sources"
	"github.com/uiguuna/uiguuna/internal/audio/speech"
	"github.com/uiguuna/uiguuna/internal/config"
	"github.com/uiguuna/uiguuna/internal/discord"
	"github.com/uiguuna/uiguuna/internal/logging"
	"github.com/uiguuna/uiguuna/internal/storage"
	"github.com/uiguuna/uiguuna/internal/version"
	"github.com/uiguuna/uiguuna/pkg/jobmgr"
)

const pruneInterval = time.Hour

func main() {
	cfg, err := config.New()
	if err != nil {
		fallback := logging.Setup("info", "")
		fallback.Fatal().Err(err).Msg("configuration error")
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFile)
	log.Info().Str("version", version.Version).Msgf("starting %s bot", version.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	synth := speech.NewGoogleSynthesizer(cfg.GoogleCredentials)
	defaultVoice := speech.Voice{Language: cfg.SpeechLanguage, Name: cfg.SpeechVoice}
	cache, err := speech.NewCache(cfg.SpeechCacheDir, synth, defaultVoice, &discord.StoredGuildVoices{Store: store}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up speech cache")
	}

	jobs := jobmgr.NewManager(func(s string) { log.Debug().Msg(s) })
	if err := jobs.StartAsync("speech-cache-pruner", func(ctx context.Context) error {
		return cache.RunPruner(ctx, pruneInterval, cfg.SpeechCacheMaxAge, cfg.SpeechCacheMaxBytes)
	}); err != nil {
		log.Warn().Err(err).Msg("failed to start cache pruner")
	}
	defer jobs.Stop("speech-cache-pruner")

	pipe := player.NewPipeline(sources.NewResolver(cache))

	errCh := make(chan error, 1)
	go func() {
		errCh <- discord.StartBot(ctx, cfg, store, pipe, log)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	}

	log.Info().Msg("discord bot exited cleanly")
}
