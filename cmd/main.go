package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/engine"
	"github.com/pengyanjia146-a11y/wyy/internal/library"
	"github.com/pengyanjia146-a11y/wyy/internal/mirrors"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/plugins"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	creds := shared.NewCredentials()
	httpClient := &http.Client{Timeout: 15 * time.Second}

	piped := mirrors.DefaultPiped()
	invidious := mirrors.DefaultInvidious()
	if config.Mirrors.CustomInvidiousURL != "" {
		invidious.SetOverride(config.Mirrors.CustomInvidiousURL)
	}

	var backend *services.BackendClient
	if config.Relay.BackendURL != "" {
		backend = services.NewBackendClient(config.Relay.BackendURL, httpClient)
	}

	limit := config.Providers.SearchLimit
	netease := services.NewNeteaseService(creds, httpClient, limit)
	bilibili := services.NewBilibiliService(httpClient, limit)
	youtube := services.NewYouTubeService(backend, piped, invidious, httpClient, config.Providers.MirrorRatePerSec, limit)

	registry := plugins.NewRegistry(httpClient)

	providers := []services.Provider{netease, bilibili, youtube, plugins.NewService(registry)}

	// The library is optional; a failed open just drops the local source.
	var lib *library.Library
	if config.Library.DatabasePath != "" {
		if opened, err := library.Open(config.Library.DatabasePath, logger); err == nil {
			lib = opened
			providers = append(providers, library.NewService(lib, limit))
		} else {
			logger.Warn("library unavailable", "err", err)
		}
	}

	aggregator := engine.NewAggregator(providers, logger)
	applyBudgets(aggregator, config)
	resolver := engine.NewResolver(providers, backend, logger)
	diagnostics := engine.NewDiagnostics(creds, piped, invidious, backend, httpClient)

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Creds:       creds,
		Aggregator:  aggregator,
		Resolver:    resolver,
		Diagnostics: diagnostics,
		Netease:     netease,
		YouTube:     youtube,
		Registry:    registry,
		Library:     lib,
		Piped:       piped,
		Invidious:   invidious,
		Backend:     backend,
		HTTPClient:  httpClient,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "wyy",
		Usage:    "Search, resolve and relay music across NetEase, Bilibili, YouTube and local files",
		Version:  "0.3.0",
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

func applyBudgets(a *engine.Aggregator, config *shared.Config) {
	for src, ms := range map[string]int{
		"NETEASE":  config.Providers.NeteaseTimeoutMS,
		"BILIBILI": config.Providers.BilibiliTimeoutMS,
		"YOUTUBE":  config.Providers.YouTubeTimeoutMS,
		"PLUGIN":   config.Providers.PluginTimeoutMS,
	} {
		if ms > 0 {
			a.SetBudget(models.Source(src), time.Duration(ms)*time.Millisecond)
		}
	}
}
