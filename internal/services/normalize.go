package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/swipearr/internal/models"
)

const tmdbPrefix = "tmdb://"

// flexID decodes ids the API sends as either JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type plexLibrary struct {
	Key   flexID `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type plexTag struct {
	Tag string `json:"tag"`
}

type plexGUID struct {
	ID string `json:"id"`
}

type plexMediaItem struct {
	RatingKey        flexID     `json:"ratingKey"`
	Title            string     `json:"title"`
	Year             int        `json:"year"`
	Type             string     `json:"type"`
	Thumb            string     `json:"thumb"`
	Art              string     `json:"art"`
	Summary          string     `json:"summary"`
	AddedAt          int64      `json:"addedAt"`
	LastViewedAt     int64      `json:"lastViewedAt"`
	Duration         int64      `json:"duration"`
	ChildCount       int        `json:"childCount"`
	LibrarySectionID *int       `json:"librarySectionID"`
	Genre            []plexTag  `json:"Genre"`
	GUID             []plexGUID `json:"Guid"`
}

type plexLibraryContent struct {
	TotalSize int             `json:"totalSize"`
	Items     []plexMediaItem `json:"items"`
}

type collectionMember struct {
	ID     int    `json:"id"`
	PlexID flexID `json:"plexId"`
}

type maintainerrCollection struct {
	ID               int                `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	IsActive         bool               `json:"isActive"`
	LibrarySectionID *int               `json:"librarySectionId"`
	Media            []collectionMember `json:"media"`
}

func normalizeLibrary(r plexLibrary) models.Library {
	return models.Library{ID: string(r.Key), Name: r.Title, Type: models.LibraryType(r.Type)}
}

// extractTMDBID returns the numeric suffix of the first tmdb:// guid.
func extractTMDBID(guids []plexGUID) *int {
	for _, g := range guids {
		if !strings.HasPrefix(g.ID, tmdbPrefix) {
			continue
		}
		if id, err := strconv.Atoi(strings.TrimPrefix(g.ID, tmdbPrefix)); err == nil {
			return &id
		}
	}
	return nil
}

func normalizeMediaType(t string) models.MediaType {
	if t == "show" {
		return models.MediaTV
	}
	return models.MediaMovie
}

func epochToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func normalizeMediaItem(r plexMediaItem) models.MediaItem {
	plexID := string(r.RatingKey)
	id, _ := strconv.Atoi(plexID)

	item := models.MediaItem{
		ID:               id,
		PlexID:           plexID,
		Title:            r.Title,
		Year:             r.Year,
		Type:             normalizeMediaType(r.Type),
		Overview:         r.Summary,
		PosterPath:       r.Thumb,
		BackdropPath:     r.Art,
		TMDBID:           extractTMDBID(r.GUID),
		Genres:           make([]string, 0, len(r.Genre)),
		AddedAt:          epochToTime(r.AddedAt),
		Collections:      []models.Collection{},
		LibrarySectionID: r.LibrarySectionID,
	}

	for _, g := range r.Genre {
		item.Genres = append(item.Genres, g.Tag)
	}

	if r.LastViewedAt > 0 {
		t := epochToTime(r.LastViewedAt)
		item.LastWatchedAt = &t
	}

	switch item.Type {
	case models.MediaMovie:
		if r.Duration > 0 {
			minutes := int(r.Duration / 60000)
			item.Runtime = &minutes
		}
	case models.MediaTV:
		if r.ChildCount > 0 {
			seasons := r.ChildCount
			item.Seasons = &seasons
		}
	}
	return item
}

func normalizeCollection(r maintainerrCollection) models.Collection {
	c := models.Collection{
		ID:               r.ID,
		Name:             r.Title,
		Description:      r.Description,
		MediaCount:       len(r.Media),
		IsActive:         r.IsActive,
		LibrarySectionID: r.LibrarySectionID,
		MemberIDs:        make(map[string]struct{}, len(r.Media)),
	}
	for _, m := range r.Media {
		if m.PlexID != "" {
			c.MemberIDs[string(m.PlexID)] = struct{}{}
		}
	}
	return c
}

// decodeCollections accepts a bare array or an {"items": [...]} envelope.
func decodeCollections(raw json.RawMessage) ([]maintainerrCollection, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var records []maintainerrCollection
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var envelope struct {
		Items []maintainerrCollection `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}
