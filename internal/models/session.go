package models

import (
	"fmt"
	"time"
)

// AppStep is the coarse workflow position.
type AppStep string

const (
	StepSetup      AppStep = "setup"
	StepLibrary    AppStep = "library"
	StepCollection AppStep = "collection"
	StepSwipe      AppStep = "swipe"
)

// ParseAppStep maps a stored value to an [AppStep], falling back to [StepSetup].
func ParseAppStep(s string) AppStep {
	switch step := AppStep(s); step {
	case StepSetup, StepLibrary, StepCollection, StepSwipe:
		return step
	}
	return StepSetup
}

// NeedsLibrary reports whether the step only makes sense with a library selected.
func (s AppStep) NeedsLibrary() bool {
	return s == StepCollection || s == StepSwipe
}

// MediaTypeFilter restricts the view to one kind of media.
type MediaTypeFilter string

const (
	FilterAll   MediaTypeFilter = "all"
	FilterMovie MediaTypeFilter = "movie"
	FilterTV    MediaTypeFilter = "tv"
)

// SortKey orders the filtered view.
type SortKey string

const (
	SortOldest      SortKey = "oldest"      // ascending added time
	SortLastWatched SortKey = "lastWatched" // least recently watched first, never-watched last
	SortUncollected SortKey = "uncollected" // fewest collection memberships first
)

// FilterOptions is the active view filter and sort.
type FilterOptions struct {
	MediaType MediaTypeFilter `json:"mediaType"`
	SortBy    SortKey         `json:"sortBy"`
}

// DefaultFilters returns {all, oldest}.
func DefaultFilters() FilterOptions {
	return FilterOptions{MediaType: FilterAll, SortBy: SortOldest}
}

// Validate rejects unknown filter or sort values.
func (f FilterOptions) Validate() error {
	switch f.MediaType {
	case FilterAll, FilterMovie, FilterTV:
	default:
		return fmt.Errorf("unknown media type filter %q", f.MediaType)
	}
	switch f.SortBy {
	case SortOldest, SortLastWatched, SortUncollected:
	default:
		return fmt.Errorf("unknown sort key %q", f.SortBy)
	}
	return nil
}

// Matches reports whether the item passes the media-type filter.
func (f FilterOptions) Matches(item MediaItem) bool {
	return f.MediaType == FilterAll || string(item.Type) == string(f.MediaType)
}

// SwipeDirection is a swipe decision. The zero value means no decision.
type SwipeDirection string

const (
	SwipeNone  SwipeDirection = ""
	SwipeLeft  SwipeDirection = "left"  // skip
	SwipeRight SwipeDirection = "right" // add to collection
	SwipeDown  SwipeDirection = "down"  // exclude
)

// ParseSwipeDirection accepts direction names and their action aliases (skip, add, exclude).
func ParseSwipeDirection(s string) (SwipeDirection, error) {
	switch s {
	case "left", "skip":
		return SwipeLeft, nil
	case "right", "add":
		return SwipeRight, nil
	case "down", "exclude":
		return SwipeDown, nil
	}
	return SwipeNone, fmt.Errorf("unknown swipe direction %q", s)
}

// Action returns the user-facing verb for the direction.
func (d SwipeDirection) Action() string {
	switch d {
	case SwipeLeft:
		return "skip"
	case SwipeRight:
		return "add"
	case SwipeDown:
		return "exclude"
	}
	return "none"
}

// SwipeAction is an audit record of a completed decision.
type SwipeAction struct {
	ID           string         `json:"id"`
	MediaID      int            `json:"mediaId"`
	PlexID       string         `json:"plexId,omitempty"`
	Title        string         `json:"title,omitempty"`
	Direction    SwipeDirection `json:"direction"`
	CollectionID *int           `json:"collectionId,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
