package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds Maintainerr connection credentials.
type Config struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

// Normalized returns a copy with surrounding whitespace and a trailing slash removed.
func (c Config) Normalized() Config {
	return Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"),
		APIKey:  strings.TrimSpace(c.APIKey),
	}
}

// Validate checks that the base URL is an absolute http(s) URL and an API key is present.
func (c Config) Validate() error {
	n := c.Normalized()
	if n.BaseURL == "" {
		return fmt.Errorf("please enter your Maintainerr server URL")
	}
	if n.APIKey == "" {
		return fmt.Errorf("please enter your API key")
	}
	u, err := url.Parse(n.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("please enter a valid URL (e.g., http://192.168.1.100:6246)")
	}
	return nil
}

// LibraryType is the Plex section kind.
type LibraryType string

const (
	LibraryMovie LibraryType = "movie"
	LibraryShow  LibraryType = "show"
)

// Library is a Plex library section as exposed through Maintainerr.
type Library struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type LibraryType `json:"type"`
}

// IsValidLibraryID reports whether id can be sent to the backend.
//
// Empty ids and the literal strings "undefined"/"null" come from stale or corrupt persisted state.
func IsValidLibraryID(id string) bool {
	switch strings.TrimSpace(id) {
	case "", "undefined", "null":
		return false
	}
	return true
}

// Collection is a Maintainerr collection the user can add media to.
type Collection struct {
	ID               int                 `json:"id"`
	Name             string              `json:"name"`
	Description      string              `json:"description,omitempty"`
	MediaCount       int                 `json:"mediaCount"`
	IsActive         bool                `json:"isActive"`
	LibrarySectionID *int                `json:"librarySectionId,omitempty"`
	MemberIDs        map[string]struct{} `json:"-"`
}

// HasMember reports whether the Plex id is a known member of the collection.
func (c Collection) HasMember(plexID string) bool {
	_, ok := c.MemberIDs[plexID]
	return ok
}

// CompatibleWith reports whether media from the library section may be added.
// Collections without a section affinity, or an unknown section, are always compatible.
func (c Collection) CompatibleWith(sectionID *int) bool {
	if c.LibrarySectionID == nil || sectionID == nil {
		return true
	}
	return *c.LibrarySectionID == *sectionID
}

// MediaType is the normalized kind of a [MediaItem].
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// MediaItem is a normalized movie or show record.
type MediaItem struct {
	ID               int          `json:"id"`
	PlexID           string       `json:"plexId"`
	Title            string       `json:"title"`
	Year             int          `json:"year"`
	Type             MediaType    `json:"type"`
	Overview         string       `json:"overview"`
	PosterPath       string       `json:"posterPath,omitempty"`
	BackdropPath     string       `json:"backdropPath,omitempty"`
	TMDBID           *int         `json:"tmdbId,omitempty"`
	Genres           []string     `json:"genres"`
	Runtime          *int         `json:"runtime,omitempty"`
	Seasons          *int         `json:"seasons,omitempty"`
	AddedAt          time.Time    `json:"addedAt"`
	LastWatchedAt    *time.Time   `json:"lastWatchedAt,omitempty"`
	Collections      []Collection `json:"collections"`
	IsExcluded       bool         `json:"isExcluded"`
	LibrarySectionID *int         `json:"librarySectionId,omitempty"`
}
