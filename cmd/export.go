package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/swipearr/internal/formatter"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/services"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

// Queue lists the items still to review, starting at the current one.
func (r *Runner) Queue(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(s.Snapshot(), true)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	items := s.FilteredMedia()
	start := s.Index()
	end := len(items)
	if limit := int(cmd.Int("limit")); limit > 0 {
		end = min(start+limit, len(items))
	}
	items = items[start:end]

	var data []byte
	switch format {
	case formatter.FormatCSV:
		data, err = formatter.QueueToCSV(items, start)
	case formatter.FormatJSON:
		if items == nil {
			items = []models.MediaItem{}
		}
		data, err = shared.MarshalJSON(items, true)
	default:
		if len(items) == 0 {
			r.writePlain("✓ All done! Nothing left to review.\n")
			return nil
		}
		r.writePlainHeader(fmt.Sprintf("Queue: %d of %d left", s.RemainingCount(), s.TotalCount()))
		data, err = formatter.QueueToText(items, start)
	}
	if err != nil {
		return err
	}

	_, err = formatter.WriteExport(r.output, data, "")
	return err
}

// History exports the recorded swipe decisions.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.Session()
	if err != nil {
		return err
	}
	if s.Connected() {
		if err := s.Resume(ctx); err != nil {
			r.logger.Warn("collection names unavailable", "error", err)
		}
	}

	actions, err := s.History()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	names := map[int]string{}
	for _, c := range s.Collections() {
		names[c.ID] = c.Name
	}

	data, err := formatter.ExportHistory(format, actions, names)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(r.output, data, cmd.String("output"))
	if err != nil {
		return err
	}
	if path != "" {
		r.logger.Info("history exported", "path", path, "actions", len(actions))
		r.writePlain("✓ Exported %d actions to %s\n", len(actions), path)
	}
	return nil
}

// Poster prints the current item's poster URL, optionally opening or downloading it.
func (r *Runner) Poster(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	item := s.CurrentMedia()
	if item == nil {
		return session.ErrNoMedia
	}

	url := s.PosterURL(*item)
	if url == services.PlaceholderPoster {
		return fmt.Errorf("%w: %s has no poster", shared.ErrInvalidInput, item.Title)
	}
	r.writePlain("%s\n", url)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			return err
		}
	}

	if path := cmd.String("output"); path != "" {
		var apiKey string
		if cfg := r.backend.Config(); cfg != nil {
			apiKey = cfg.APIKey
		}

		data, err := formatter.DownloadPoster(ctx, r.httpClient, url, apiKey)
		if err != nil {
			return err
		}
		if _, err := formatter.WriteExport(r.output, data, path); err != nil {
			return err
		}
		r.writePlain("✓ Saved poster for %s to %s\n", item.Title, path)
	}
	return nil
}
