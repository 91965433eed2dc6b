package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/sptx/internal/auth"
	"github.com/desertthunder/sptx/internal/metadata"
	"github.com/desertthunder/sptx/internal/repositories"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	credPath, err := auth.DefaultPath()
	if err != nil {
		logger.Fatalf("failed to resolve credential path: %v", err)
	}

	store := auth.NewStore(credPath, auth.Credentials{
		ClientID:     config.Credentials.Spotify.ClientID,
		ClientSecret: config.Credentials.Spotify.ClientSecret,
		RedirectURI:  config.Credentials.Spotify.RedirectURI,
	})

	manager, err := auth.NewManager(store, nil, logger)
	if err != nil {
		logger.Fatalf("failed to load credentials: %v", err)
	}

	spotify := services.NewSpotifyClient(manager, nil, logger)

	interval := time.Duration(config.Metadata.MusicBrainzInterval * float64(time.Second))
	enrichment := metadata.NewClient(config.Credentials.LastFM.APIKey, interval, nil, logger)

	// The lookup cache is optional; metadata falls back to the network when
	// the database is absent.
	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, dbErr := shared.NewDatabase(config.Database.Path); dbErr == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			maxAge := time.Duration(config.Metadata.CacheMaxAge) * time.Hour
			enrichment.WithCache(repositories.NewLookupRepository(db, logger), maxAge)
		} else {
			logger.Warn("lookup cache unavailable", "error", dbErr)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Auth:     manager,
		Spotify:  spotify,
		Metadata: enrichment,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "sptx",
		Usage:    "Control Spotify playback, playlists & metadata from the terminal or an agent",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
