package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/services"
	"github.com/desertthunder/swipearr/internal/shared"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy            = errors.New("a swipe is already being processed")
	ErrNoMedia         = errors.New("no media left to review")
	ErrNoLibrary       = errors.New("no library selected")
	ErrWrongStep       = errors.New("swiping starts from collection selection")
	ErrLibraryMismatch = errors.New("collection belongs to a different library")
)

// Store persists session state. [repositories.StateStore] implements it.
type Store interface {
	LoadConfig() (*models.Config, error)
	SaveConfig(cfg models.Config) error
	LoadIndex() (int, error)
	SaveIndex(idx int) error
	LoadSelectedCollection() (*int, error)
	SaveSelectedCollection(id *int) error
	LoadFilters() (models.FilterOptions, error)
	SaveFilters(f models.FilterOptions) error
	LoadStep() (models.AppStep, error)
	SaveStep(step models.AppStep) error
	LoadSelectedLibrary() (string, error)
	SaveSelectedLibrary(id string) error
	AppendHistory(action *models.SwipeAction) error
	History() ([]models.SwipeAction, error)
	ResetProgress() error
	Clear() error
}

// Options configures a [Session].
type Options struct {
	Backend services.Backend
	Store   Store
	Logger  *log.Logger
	Clock   func() time.Time
}

// Session is the curation state machine. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	backend services.Backend
	store   Store
	logger  *log.Logger
	now     func() time.Time

	connected            bool
	step                 models.AppStep
	libraries            []models.Library
	selectedLibraryID    string
	collections          []models.Collection
	media                []models.MediaItem
	filters              models.FilterOptions
	selectedCollectionID *int
	index                int
	processing           bool
}

// New creates a session in the setup step. Call [Session.Hydrate] to restore persisted state.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		backend: opts.Backend,
		store:   opts.Store,
		logger:  shared.WithLogger(logger, "component", "session"),
		now:     clock,
		step:    models.StepSetup,
		filters: models.DefaultFilters(),
	}
}

// Hydrate restores persisted state.
//
// A stored config marks the session connected; without one the session starts at setup.
// A collection or swipe step with an invalid stored library id is reset to the library step.
func (s *Session) Hydrate() error {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return err
	}
	step, err := s.store.LoadStep()
	if err != nil {
		return err
	}
	libraryID, err := s.store.LoadSelectedLibrary()
	if err != nil {
		return err
	}
	index, err := s.store.LoadIndex()
	if err != nil {
		return err
	}
	collectionID, err := s.store.LoadSelectedCollection()
	if err != nil {
		return err
	}
	filters, err := s.store.LoadFilters()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = index
	s.selectedCollectionID = collectionID
	s.filters = filters
	s.selectedLibraryID = ""
	if models.IsValidLibraryID(libraryID) {
		s.selectedLibraryID = libraryID
	}

	if cfg == nil {
		s.connected = false
		s.step = models.StepSetup
		s.backend.SetConfig(nil)
		return nil
	}

	s.connected = true
	s.backend.SetConfig(cfg)

	switch {
	case step == models.StepSetup:
		step = models.StepLibrary
	case step.NeedsLibrary() && s.selectedLibraryID == "":
		s.logger.Warn("stored library is invalid, returning to library selection", "step", step, "library", libraryID)
		step = models.StepLibrary
		if err := s.store.SaveSelectedLibrary(""); err != nil {
			return err
		}
		if err := s.store.SaveStep(step); err != nil {
			return err
		}
	}
	s.step = step
	return nil
}

// Resume loads whatever the current step needs: libraries once connected, and
// media plus collections when a library is selected.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	connected, hasLibrary := s.connected, s.selectedLibraryID != ""
	s.mu.Unlock()

	if !connected {
		return nil
	}
	if err := s.LoadLibraries(ctx); err != nil {
		return err
	}
	if hasLibrary {
		return s.RefreshData(ctx)
	}
	return nil
}

// Connect validates cfg against the backend, persists it and moves to the library step.
// Any previously selected library, its media and the cursor are cleared.
//
// Libraries and collections are then fetched concurrently. A fetch failure is returned
// but leaves the session connected.
func (s *Session) Connect(ctx context.Context, cfg models.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	cfg = cfg.Normalized()

	previous := s.backend.Config()
	s.backend.SetConfig(&cfg)
	if err := s.backend.TestConnection(ctx); err != nil {
		s.backend.SetConfig(previous)
		return err
	}

	if err := s.store.SaveConfig(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.connected = true
	s.step = models.StepLibrary
	s.selectedLibraryID = ""
	s.media = nil
	s.index = 0
	err := errors.Join(
		s.store.SaveSelectedLibrary(""),
		s.store.SaveIndex(0),
		s.store.SaveStep(models.StepLibrary),
	)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("connected", "url", cfg.BaseURL)

	var (
		libraries   []models.Library
		collections []models.Collection
		g           errgroup.Group
	)
	g.Go(func() (err error) {
		libraries, err = s.backend.ListLibraries(ctx)
		return err
	})
	g.Go(func() (err error) {
		collections, err = s.backend.ListCollections(ctx)
		return err
	})
	err = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if libraries != nil {
		s.libraries = libraries
	}
	if collections != nil {
		s.setCollectionsLocked(collections)
	}
	return err
}

// Disconnect clears all persisted state and returns to setup.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.backend.SetConfig(nil)
	s.connected = false
	s.step = models.StepSetup
	s.libraries = nil
	s.selectedLibraryID = ""
	s.collections = nil
	s.media = nil
	s.filters = models.DefaultFilters()
	s.selectedCollectionID = nil
	s.index = 0

	return s.store.Clear()
}

// LoadLibraries fetches the library list.
func (s *Session) LoadLibraries(ctx context.Context) error {
	if !s.Connected() {
		return shared.ErrNotAuthenticated
	}

	libraries, err := s.backend.ListLibraries(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.libraries = libraries
	s.mu.Unlock()
	return nil
}

// SelectLibrary resets media and cursor, persists id, moves to the collection step
// and fetches the library's media.
func (s *Session) SelectLibrary(ctx context.Context, id string) error {
	if !models.IsValidLibraryID(id) {
		return s.rejectLibrary(id)
	}
	if !s.Connected() {
		return shared.ErrNotAuthenticated
	}

	s.mu.Lock()
	s.selectedLibraryID = id
	s.media = nil
	s.index = 0
	s.step = models.StepCollection
	err := errors.Join(
		s.store.SaveSelectedLibrary(id),
		s.store.SaveIndex(0),
		s.store.SaveStep(models.StepCollection),
	)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("library selected", "library", id)

	media, err := s.backend.ListLibraryMedia(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedLibraryID == id {
		s.setMediaLocked(media)
	}
	return nil
}

// GoBackToLibrary deselects the library, clearing media and cursor.
func (s *Session) GoBackToLibrary() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedLibraryID = ""
	s.media = nil
	s.index = 0
	s.step = models.StepLibrary

	return errors.Join(
		s.store.SaveSelectedLibrary(""),
		s.store.SaveIndex(0),
		s.store.SaveStep(models.StepLibrary),
	)
}

// rejectLibrary falls back to the library step when an invalid id is met
// past it.
func (s *Session) rejectLibrary(id string) error {
	s.mu.Lock()
	step := s.step
	s.mu.Unlock()

	if step == models.StepCollection || step == models.StepSwipe {
		s.logger.Warn("invalid library id, returning to library selection", "library", id)
		if err := s.GoBackToLibrary(); err != nil {
			s.logger.Error("failed to persist library reset", "error", err)
		}
	}
	return fmt.Errorf("%w: %q", services.ErrInvalidLibrary, id)
}

// GoToSwipe moves to the swipe step from collection selection.
func (s *Session) GoToSwipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedLibraryID == "" {
		return ErrNoLibrary
	}
	if s.step != models.StepCollection && s.step != models.StepSwipe {
		return fmt.Errorf("%w: at %s", ErrWrongStep, s.step)
	}
	s.step = models.StepSwipe
	return s.store.SaveStep(models.StepSwipe)
}

// SetSelectedCollectionID selects the target collection for right swipes. nil browses only.
func (s *Session) SetSelectedCollectionID(id *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		v := *id
		id = &v
	}
	s.selectedCollectionID = id
	return s.store.SaveSelectedCollection(id)
}

// SetFilters replaces the filters and resets the cursor to 0.
func (s *Session) SetFilters(opts models.FilterOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = opts
	s.index = 0
	return errors.Join(s.store.SaveFilters(opts), s.store.SaveIndex(0))
}

// AdvanceToNext moves the cursor forward by one, never past the end of the view.
func (s *Session) AdvanceToNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.filteredLocked())
	next := min(clamp(s.index, total)+1, total)
	s.index = next
	return s.store.SaveIndex(next)
}

// ResetProgress zeroes the cursor and clears the swipe history.
func (s *Session) ResetProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = 0
	return s.store.ResetProgress()
}

// RefreshData re-fetches media for the selected library and all collections.
// It does nothing when disconnected or without a library.
func (s *Session) RefreshData(ctx context.Context) error {
	s.mu.Lock()
	connected, libraryID := s.connected, s.selectedLibraryID
	s.mu.Unlock()

	if !connected || libraryID == "" {
		return nil
	}
	if !models.IsValidLibraryID(libraryID) {
		return s.rejectLibrary(libraryID)
	}

	var (
		media       []models.MediaItem
		collections []models.Collection
		g           errgroup.Group
	)
	g.Go(func() (err error) {
		media, err = s.backend.ListLibraryMedia(ctx, libraryID)
		return err
	})
	g.Go(func() (err error) {
		collections, err = s.backend.ListCollections(ctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if collections != nil {
		s.setCollectionsLocked(collections)
	}
	if media != nil && s.selectedLibraryID == libraryID {
		s.setMediaLocked(media)
	}

	s.logger.Debug("data refreshed", "library", libraryID, "media", len(s.media), "collections", len(s.collections))
	return err
}

// History returns the retained swipe actions, oldest first.
func (s *Session) History() ([]models.SwipeAction, error) {
	return s.store.History()
}

// PosterURL returns the proxied poster URL for item.
func (s *Session) PosterURL(item models.MediaItem) string {
	return s.backend.PosterURL(item.PosterPath)
}

func (s *Session) setMediaLocked(media []models.MediaItem) {
	s.media = attachCollections(media, s.collections)
}

func (s *Session) setCollectionsLocked(collections []models.Collection) {
	s.collections = collections
	s.media = attachCollections(s.media, collections)
}

// attachCollections sets each item's Collections from collection membership.
func attachCollections(media []models.MediaItem, collections []models.Collection) []models.MediaItem {
	if media == nil {
		return nil
	}

	out := make([]models.MediaItem, len(media))
	for i, item := range media {
		item.Collections = []models.Collection{}
		for _, c := range collections {
			if c.HasMember(item.PlexID) {
				c.MemberIDs = nil
				item.Collections = append(item.Collections, c)
			}
		}
		out[i] = item
	}
	return out
}

// librarySectionLocked returns the section id of the loaded library, from its media or its id.
func (s *Session) librarySectionLocked() *int {
	for _, item := range s.media {
		if item.LibrarySectionID != nil {
			return item.LibrarySectionID
		}
	}
	if id, err := strconv.Atoi(s.selectedLibraryID); err == nil {
		return &id
	}
	return nil
}
