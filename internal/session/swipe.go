package session

import (
	"context"
	"fmt"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
)

// HandleSwipe applies a decision to the item under the cursor.
//
// Right adds the item to the selected collection, or only browses past it when no
// collection is selected. Down excludes it. Left makes no backend call.
//
// Backend failures do not block progress: the action is still recorded, the cursor
// still advances, and the error is returned alongside the action.
// A second call while one is in flight fails with [ErrBusy].
func (s *Session) HandleSwipe(ctx context.Context, dir models.SwipeDirection) (*models.SwipeAction, error) {
	switch dir {
	case models.SwipeLeft, models.SwipeRight, models.SwipeDown:
	default:
		return nil, fmt.Errorf("%w: swipe direction %q", shared.ErrInvalidArgument, dir)
	}

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	items := s.filteredLocked()
	idx := clamp(s.index, len(items))
	if idx >= len(items) {
		s.mu.Unlock()
		return nil, ErrNoMedia
	}
	item := items[idx]

	var collection *models.Collection
	if dir == models.SwipeRight {
		collection = s.selectedCollectionLocked()
		if collection != nil && collection.LibrarySectionID != nil && item.LibrarySectionID != nil &&
			*collection.LibrarySectionID != *item.LibrarySectionID {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %q is in library %d, %q only accepts library %d", ErrLibraryMismatch,
				item.Title, *item.LibrarySectionID, collection.Name, *collection.LibrarySectionID)
		}
	}
	s.processing = true
	s.mu.Unlock()

	action := &models.SwipeAction{
		MediaID:   item.ID,
		PlexID:    item.PlexID,
		Title:     item.Title,
		Direction: dir,
		Timestamp: s.now(),
	}

	var callErr error
	switch dir {
	case models.SwipeRight:
		if collection != nil {
			id := collection.ID
			action.CollectionID = &id
			callErr = s.backend.AddToCollection(ctx, item.PlexID, id)
		}
	case models.SwipeDown:
		callErr = s.backend.ExcludeMedia(ctx, item.PlexID, nil)
	}

	logger := s.logger.With("action", dir.Action(), "media", item.Title, "plexId", item.PlexID)
	if callErr != nil {
		logger.Warn("swipe action failed", "error", callErr)
	} else {
		logger.Info("swipe recorded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false

	if err := s.store.AppendHistory(action); err != nil {
		logger.Error("failed to record swipe", "error", err)
	}

	items = s.filteredLocked()
	if clamp(s.index, len(items)) == idx {
		s.index = min(idx+1, len(items))
		if err := s.store.SaveIndex(s.index); err != nil {
			logger.Error("failed to save cursor", "error", err)
		}
	}
	return action, callErr
}
