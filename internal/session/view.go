package session

import (
	"cmp"
	"slices"

	"github.com/desertthunder/swipearr/internal/models"
)

// filteredLocked derives the view: membership exclusion, then the media-type filter, then the sort.
func (s *Session) filteredLocked() []models.MediaItem {
	var members map[string]struct{}
	if c := s.selectedCollectionLocked(); c != nil && len(c.MemberIDs) > 0 {
		members = c.MemberIDs
	}

	items := make([]models.MediaItem, 0, len(s.media))
	for _, item := range s.media {
		if _, ok := members[item.PlexID]; ok {
			continue
		}
		if !s.filters.Matches(item) {
			continue
		}
		items = append(items, item)
	}

	sortMedia(items, s.filters.SortBy)
	return items
}

func sortMedia(items []models.MediaItem, key models.SortKey) {
	switch key {
	case models.SortOldest:
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			return a.AddedAt.Compare(b.AddedAt)
		})
	case models.SortLastWatched:
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			switch {
			case a.LastWatchedAt == nil && b.LastWatchedAt == nil:
				return 0
			case a.LastWatchedAt == nil:
				return 1
			case b.LastWatchedAt == nil:
				return -1
			}
			return a.LastWatchedAt.Compare(*b.LastWatchedAt)
		})
	case models.SortUncollected:
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			return cmp.Compare(len(a.Collections), len(b.Collections))
		})
	}
}

func clamp(idx, total int) int {
	return max(0, min(idx, total))
}

func (s *Session) selectedCollectionLocked() *models.Collection {
	if s.selectedCollectionID == nil {
		return nil
	}
	for i := range s.collections {
		if s.collections[i].ID == *s.selectedCollectionID {
			return &s.collections[i]
		}
	}
	return nil
}

// FilteredMedia returns the derived view.
func (s *Session) FilteredMedia() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredLocked()
}

// CurrentMedia returns the item under the cursor, or nil when the view is exhausted.
func (s *Session) CurrentMedia() *models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return at(s.filteredLocked(), s.index)
}

// NextMedia returns the item after the cursor, or nil.
func (s *Session) NextMedia() *models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.filteredLocked()
	return at(items, clamp(s.index, len(items))+1)
}

func at(items []models.MediaItem, idx int) *models.MediaItem {
	if idx < 0 || idx >= len(items) {
		return nil
	}
	item := items[idx]
	return &item
}

// Index returns the cursor clamped to [0, TotalCount].
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clamp(s.index, len(s.filteredLocked()))
}

// TotalCount returns the length of the derived view.
func (s *Session) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filteredLocked())
}

// RemainingCount returns TotalCount minus Index.
func (s *Session) RemainingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.filteredLocked())
	return max(0, total-clamp(s.index, total))
}

// Connected reports whether a validated config is active.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Step returns the current workflow step.
func (s *Session) Step() models.AppStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Libraries returns the loaded libraries.
func (s *Session) Libraries() []models.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.libraries)
}

// Collections returns every loaded collection.
func (s *Session) Collections() []models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.collections)
}

// CompatibleCollections returns collections that accept media from the selected library.
func (s *Session) CompatibleCollections() []models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	section := s.librarySectionLocked()
	var out []models.Collection
	for _, c := range s.collections {
		if c.CompatibleWith(section) {
			out = append(out, c)
		}
	}
	return out
}

// SelectedCollection returns the selected collection, or nil when browsing only
// or when the selected id is not among the loaded collections.
func (s *Session) SelectedCollection() *models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.selectedCollectionLocked(); c != nil {
		cp := *c
		return &cp
	}
	return nil
}

// Filters returns the active filters.
func (s *Session) Filters() models.FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Snapshot is a consistent read of the whole session.
type Snapshot struct {
	Step                 models.AppStep       `json:"step"`
	Connected            bool                 `json:"connected"`
	BaseURL              string               `json:"baseUrl,omitempty"`
	Libraries            []models.Library     `json:"libraries"`
	SelectedLibraryID    string               `json:"selectedLibraryId,omitempty"`
	SelectedLibrary      *models.Library      `json:"selectedLibrary,omitempty"`
	Collections          []models.Collection  `json:"collections"`
	SelectedCollectionID *int                 `json:"selectedCollectionId,omitempty"`
	SelectedCollection   *models.Collection   `json:"selectedCollection,omitempty"`
	Filters              models.FilterOptions `json:"filters"`
	Index                int                  `json:"index"`
	Total                int                  `json:"total"`
	Remaining            int                  `json:"remaining"`
	Loaded               int                  `json:"loaded"`
	Current              *models.MediaItem    `json:"current,omitempty"`
	Next                 *models.MediaItem    `json:"next,omitempty"`
	Processing           bool                 `json:"processing"`
}

// Snapshot returns the session state under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.filteredLocked()
	idx := clamp(s.index, len(items))

	snap := Snapshot{
		Step:                 s.step,
		Connected:            s.connected,
		Libraries:            slices.Clone(s.libraries),
		SelectedLibraryID:    s.selectedLibraryID,
		Collections:          slices.Clone(s.collections),
		SelectedCollectionID: s.selectedCollectionID,
		Filters:              s.filters,
		Index:                idx,
		Total:                len(items),
		Remaining:            len(items) - idx,
		Loaded:               len(s.media),
		Current:              at(items, idx),
		Next:                 at(items, idx+1),
		Processing:           s.processing,
	}
	if cfg := s.backend.Config(); cfg != nil {
		snap.BaseURL = cfg.BaseURL
	}
	for i := range s.libraries {
		if s.libraries[i].ID == s.selectedLibraryID {
			lib := s.libraries[i]
			snap.SelectedLibrary = &lib
		}
	}
	if c := s.selectedCollectionLocked(); c != nil {
		cp := *c
		snap.SelectedCollection = &cp
	}
	return snap
}
