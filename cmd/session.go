package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/swipearr/internal/formatter"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolveConnection layers config defaults, a copied cURL command and explicit flags, in that order.
func (r *Runner) resolveConnection(cmd *cli.Command) (models.Config, error) {
	cfg := models.Config{BaseURL: r.config.Maintainerr.BaseURL, APIKey: r.config.Maintainerr.APIKey}

	curlCmd, curlFile := cmd.String("curl"), cmd.String("curl-file")
	if curlCmd != "" && curlFile != "" {
		return cfg, fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	if curlCmd != "" || curlFile != "" {
		var req *shared.CurlRequest
		var err error
		if curlFile != "" {
			req, err = shared.ParseCurlFile(curlFile)
		} else {
			req, err = shared.ParseCurlCommand([]byte(curlCmd))
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to parse cURL command: %w", err)
		}

		if cfg.BaseURL, cfg.APIKey, err = req.Connection(); err != nil {
			return cfg, err
		}
		r.logger.Debug("connection lifted from cURL", "url", cfg.BaseURL)
	}

	if v := cmd.String("url"); v != "" {
		cfg.BaseURL = v
	}
	if v := cmd.String("api-key"); v != "" {
		cfg.APIKey = v
	}
	return cfg.Normalized(), nil
}

// Connect validates the server and API key and stores them.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.resolveConnection(cmd)
	if err != nil {
		return err
	}

	s, err := r.Session()
	if err != nil {
		return err
	}

	r.logger.Info("connecting", "url", cfg.BaseURL)
	if err := s.Connect(ctx, cfg); err != nil {
		if !s.Connected() {
			return fmt.Errorf("connection failed: %w", err)
		}
		r.logger.Warn("connected, but failed to load libraries", "error", err)
	}

	r.writePlain("✓ Connected to %s\n", cfg.BaseURL)
	r.writePlain("  Libraries: %d\n", len(s.Libraries()))
	r.writePlainln("Next: swipearr libraries select <id>")
	return nil
}

// Disconnect clears the stored connection and all local state.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}
	if err := s.Disconnect(); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	r.writePlain("✓ Disconnected\n")
	return nil
}

// Status prints where the session stands.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}
	if s.Connected() {
		if err := s.Resume(ctx); err != nil {
			r.logger.Warn("failed to load remote data", "error", err)
		}
	}

	snap := s.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	r.writePlainHeader("swipearr status")
	if !snap.Connected {
		r.writePlain("Not connected. Run 'swipearr connect'.\n")
		return nil
	}

	if r.configPath != "" {
		r.writePlain("Config:     %s\n", r.configPath)
	}
	r.writePlain("Server:     %s\n", snap.BaseURL)
	r.writePlain("Step:       %s\n", snap.Step)
	switch {
	case snap.SelectedLibrary != nil:
		r.writePlain("Library:    %s (%s)\n", snap.SelectedLibrary.Name, snap.SelectedLibrary.ID)
	case snap.SelectedLibraryID != "":
		r.writePlain("Library:    %s\n", snap.SelectedLibraryID)
	default:
		r.writePlain("Library:    none\n")
	}
	r.writePlain("Collection: %s\n", collectionName(snap.SelectedCollection))
	r.writePlain("Filters:    %s, %s\n", snap.Filters.MediaType, snap.Filters.SortBy)
	if snap.SelectedLibraryID != "" {
		r.writePlain("Progress:   %d of %d reviewed (%d left)\n", snap.Index, snap.Total, snap.Remaining)
	}
	return nil
}

func collectionName(c *models.Collection) string {
	if c == nil {
		return "Browse only"
	}
	return fmt.Sprintf("%s (%d)", c.Name, c.ID)
}

// Libraries lists the Plex libraries.
func (r *Runner) Libraries(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	libraries := s.Libraries()
	if cmd.Bool("json") {
		if libraries == nil {
			libraries = []models.Library{}
		}
		return r.writeJSON(libraries, true)
	}

	selected := s.Snapshot().SelectedLibraryID
	r.writePlainHeader(fmt.Sprintf("Libraries (%d)", len(libraries)))
	for _, lib := range libraries {
		marker := " "
		if lib.ID == selected {
			marker = "✓"
		}
		r.writePlain("%s %-4s %-30s %s\n", marker, lib.ID, lib.Name, lib.Type)
	}
	return nil
}

// LibrariesSelect selects a library and loads its media.
func (r *Runner) LibrariesSelect(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: library id", shared.ErrMissingArgument)
	}

	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("loading library", "library", id)
	if err := s.SelectLibrary(ctx, id); err != nil {
		return fmt.Errorf("failed to select library: %w", err)
	}

	snap := s.Snapshot()
	name := id
	if snap.SelectedLibrary != nil {
		name = snap.SelectedLibrary.Name
	}
	r.writePlain("✓ Selected %s: %d items\n", name, snap.Loaded)
	r.writePlainln("Next: swipearr collections select <id>, or swipearr collections none")
	return nil
}

// LibrariesBack deselects the library.
func (r *Runner) LibrariesBack(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}
	if err := s.GoBackToLibrary(); err != nil {
		return err
	}
	r.writePlain("✓ Library deselected\n")
	return nil
}

// Collections lists collections compatible with the selected library.
func (r *Runner) Collections(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	all := s.Collections()
	collections := s.CompatibleCollections()
	if cmd.Bool("all") {
		collections = all
	}

	if cmd.Bool("json") {
		if collections == nil {
			collections = []models.Collection{}
		}
		return r.writeJSON(collections, true)
	}

	selected := s.Snapshot().SelectedCollectionID
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return " "
	}

	r.writePlainHeader(fmt.Sprintf("Collections (%d)", len(collections)))
	r.writePlain("%s %-4s %s\n", mark(selected == nil), "-", "Browse only")
	for _, c := range collections {
		state := ""
		if !c.IsActive {
			state = " (inactive)"
		}
		r.writePlain("%s %-4d %-30s %d items%s\n", mark(selected != nil && *selected == c.ID), c.ID, c.Name, c.MediaCount, state)
	}
	if hidden := len(all) - len(s.CompatibleCollections()); hidden > 0 && !cmd.Bool("all") {
		r.writePlainln("%d collection(s) from other libraries hidden (use --all)", hidden)
	}
	return nil
}

// CollectionsSelect targets right swipes at a collection and moves to swiping.
func (r *Runner) CollectionsSelect(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("id")
	if raw == "" {
		return fmt.Errorf("%w: collection id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: collection id %q is not a number", shared.ErrInvalidArgument, raw)
	}

	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	var target *models.Collection
	for _, c := range s.Collections() {
		if c.ID == id {
			target = &c
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: no collection with id %d", shared.ErrInvalidArgument, id)
	}

	compatible := false
	for _, c := range s.CompatibleCollections() {
		compatible = compatible || c.ID == id
	}
	if !compatible {
		return fmt.Errorf("%w: %s", session.ErrLibraryMismatch, target.Name)
	}

	if err := s.SetSelectedCollectionID(&id); err != nil {
		return err
	}
	if err := s.GoToSwipe(); err != nil {
		return err
	}
	r.writePlain("✓ Right swipes will add to %s\n", target.Name)
	return nil
}

// CollectionsNone switches to browse-only and moves to swiping.
func (r *Runner) CollectionsNone(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}
	if err := s.SetSelectedCollectionID(nil); err != nil {
		return err
	}
	if err := s.GoToSwipe(); err != nil {
		return err
	}
	r.writePlain("✓ Browsing only\n")
	return nil
}

// Filters shows or updates the filters. Changing them restarts from the first item.
func (r *Runner) Filters(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}

	filters := s.Filters()
	changed := false
	if v := cmd.String("type"); v != "" {
		filters.MediaType = models.MediaTypeFilter(v)
		changed = true
	}
	if v := cmd.String("sort"); v != "" {
		filters.SortBy = models.SortKey(v)
		changed = true
	}

	if changed {
		if err := s.SetFilters(filters); err != nil {
			return err
		}
		r.writePlain("✓ Filters updated, progress restarted\n")
	}
	r.writePlain("Media type: %s\nSort by:    %s\n", filters.MediaType, filters.SortBy)
	return nil
}

// Swipe applies a decision to the current item.
func (r *Runner) Swipe(ctx context.Context, cmd *cli.Command) error {
	dir, err := models.ParseSwipeDirection(cmd.StringArg("direction"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	s, err := r.connected(ctx)
	if err != nil {
		return err
	}

	action, err := s.HandleSwipe(ctx, dir)
	if action == nil {
		if errors.Is(err, session.ErrNoMedia) {
			r.writePlain("✓ All done! Nothing left to review.\n")
			return nil
		}
		return err
	}

	switch {
	case dir == models.SwipeRight && action.CollectionID != nil:
		r.writePlain("✓ Added %s to %s\n", action.Title, collectionName(s.SelectedCollection()))
	case dir == models.SwipeRight:
		r.writePlain("✓ Kept %s\n", action.Title)
	case dir == models.SwipeDown:
		r.writePlain("✓ Excluded %s\n", action.Title)
	default:
		r.writePlain("✓ Skipped %s\n", action.Title)
	}

	if err != nil {
		r.logger.Warn("swipe recorded, server call failed", "title", action.Title, "error", err)
		return fmt.Errorf("%s was recorded but the server call failed: %w", action.Title, err)
	}

	if next := s.CurrentMedia(); next != nil {
		r.writePlain("Next: %s (%d)", next.Title, next.Year)
		if detail := formatter.MediaDetail(*next); detail != "" {
			r.writePlain(" • %s", detail)
		}
		r.writePlain(" • %d left\n", s.RemainingCount())
	} else {
		r.writePlain("✓ All done! Nothing left to review.\n")
	}
	return nil
}

// ProgressReset restarts review from the first item.
func (r *Runner) ProgressReset(ctx context.Context, cmd *cli.Command) error {
	s, err := r.Session()
	if err != nil {
		return err
	}
	if err := s.ResetProgress(); err != nil {
		return err
	}
	r.writePlain("✓ Progress reset\n")
	return nil
}

// Refresh refetches remote data for the selected library.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	s, err := r.connected(ctx)
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	r.writePlain("✓ %d items, %d collections\n", snap.Loaded, len(snap.Collections))
	return nil
}
