package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/formatter"
	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// Search runs an aggregated search, streaming a status line per source
// and printing the merged result set in the requested format.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	cred := r.config.Credentials.Netease.Cookie

	var songs []models.Song
	for res := range r.aggregator.Search(ctx, query, cred) {
		if res.OK {
			r.logger.Info("source answered", "source", res.Source, "songs", len(res.Songs), "elapsed", res.Elapsed.Round(1e6))
		} else {
			r.logger.Warn("source failed", "source", res.Source, "err", res.Err)
		}
		songs = append(songs, res.Songs...)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(map[string]any{"songs": songs}, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.ExportToCSV(songs)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.ExportToText(songs))
	}
}

// Resolve turns (source, id) into a playable URL and prints it.
// Paywalled songs get a distinct message instead of a generic failure.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{
		ID:       cmd.String("id"),
		Source:   models.Source(cmd.String("source")),
		PluginID: cmd.String("plugin"),
	}
	quality := models.Quality(cmd.String("quality"))
	cred := r.config.Credentials.Netease.Cookie

	details, err := r.resolver.Resolve(ctx, song, quality, cred)
	if err != nil {
		if errors.Is(err, shared.ErrPaywallRequired) {
			r.writePlain("✗ This song requires a paid membership on its source\n")
			return nil
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, true)
	}
	if err := r.writePlain("%s\n", details.URL); err != nil {
		return err
	}
	if details.Lyric != "" {
		return r.writePlainln("%s", details.Lyric)
	}
	return nil
}
