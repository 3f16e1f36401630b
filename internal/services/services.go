// package services defines the [Backend] interface for the Maintainerr REST API
package services

import (
	"context"

	"github.com/desertthunder/swipearr/internal/models"
)

// Backend is the set of Maintainerr operations the session drives.
//
// Every call fails with [shared.ErrNotConfigured] until a config is set.
type Backend interface {
	// SetConfig replaces the active connection config. nil clears it.
	SetConfig(cfg *models.Config)

	// Config returns a copy of the active config, or nil.
	Config() *models.Config

	// TestConnection probes the status endpoint with the active API key.
	TestConnection(ctx context.Context) error

	// ListLibraries returns the Plex library sections.
	ListLibraries(ctx context.Context) ([]models.Library, error)

	// ListLibraryMedia returns every item in the library, fetched page by page.
	ListLibraryMedia(ctx context.Context, libraryID string) ([]models.MediaItem, error)

	// ListCollections returns all collections with their known member ids.
	ListCollections(ctx context.Context) ([]models.Collection, error)

	// AddToCollection manually adds the Plex item to the collection.
	AddToCollection(ctx context.Context, plexID string, collectionID int) error

	// ExcludeMedia creates an exclusion for the Plex item, scoped to ruleID when set.
	ExcludeMedia(ctx context.Context, plexID string, ruleID *int) error

	// PosterURL builds the proxied thumbnail URL for a poster path.
	PosterURL(path string) string
}
