// Maintainerr REST client implementation of [Backend]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
	"golang.org/x/time/rate"
)

const (
	apiKeyHeader = "X-Api-Key"

	// PageSize is the fixed server-side page size of the library content endpoint.
	PageSize = 100

	// PlaceholderPoster is returned by [MaintainerrService.PosterURL] when no poster can be built.
	PlaceholderPoster = "/placeholder.svg"
)

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrConnectionFailed = errors.New("connection failed")
	ErrInvalidLibrary   = errors.New("invalid library ID")
)

// StatusError is returned for non-2xx responses and carries the raw body text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: status %d %s", shared.ErrAPIRequest, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// Unwrap exposes [shared.ErrAPIRequest], plus [ErrInvalidAPIKey] and [shared.ErrAuthFailed]
// for 401 and 403, and [shared.ErrServiceUnavailable] for gateway and availability failures.
func (e *StatusError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.IsAuth() {
		errs = append(errs, ErrInvalidAPIKey, shared.ErrAuthFailed)
	}
	if e.IsUnavailable() {
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// IsAuth reports whether the server rejected the API key.
func (e *StatusError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnavailable reports whether the server or a proxy in front of it is down.
func (e *StatusError) IsUnavailable() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// MaintainerrService implements [Backend] against a Maintainerr server.
type MaintainerrService struct {
	mu         sync.RWMutex
	config     *models.Config
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *log.Logger
}

// NewMaintainerrService creates an unconfigured client. A nil client uses [http.DefaultClient].
func NewMaintainerrService(client *http.Client, logger *log.Logger) *MaintainerrService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MaintainerrService{
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "maintainerr"),
	}
}

// SetPageRate limits library page requests to perSecond. Zero or less disables pacing.
func (m *MaintainerrService) SetPageRate(perSecond float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if perSecond <= 0 {
		m.limiter = nil
		return
	}
	m.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// SetConfig replaces the active config with a normalized copy. nil clears it.
func (m *MaintainerrService) SetConfig(cfg *models.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg == nil {
		m.config = nil
		return
	}
	n := cfg.Normalized()
	m.config = &n
}

// Config returns a copy of the active config, or nil.
func (m *MaintainerrService) Config() *models.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return nil
	}
	c := *m.config
	return &c
}

func (m *MaintainerrService) pageLimiter() *rate.Limiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limiter
}

// doRequest sends an authenticated JSON request and decodes a 2xx body into result when non-nil.
func (m *MaintainerrService) doRequest(ctx context.Context, method, endpoint string, payload, result any) error {
	cfg := m.Config()
	if cfg == nil {
		return shared.ErrNotConfigured
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(apiKeyHeader, cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// TestConnection probes GET /api/app/status.
//
// 401 and 403 map to [ErrInvalidAPIKey], other non-2xx codes to [ErrConnectionFailed].
// Transport errors are returned unchanged.
func (m *MaintainerrService) TestConnection(ctx context.Context) error {
	err := m.doRequest(ctx, http.MethodGet, "/api/app/status", nil, nil)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.IsAuth() {
			return ErrInvalidAPIKey
		}
		if statusErr.IsUnavailable() {
			return fmt.Errorf("%w: %w (%s)", ErrConnectionFailed, shared.ErrServiceUnavailable, http.StatusText(statusErr.StatusCode))
		}
		return fmt.Errorf("%w: %s", ErrConnectionFailed, http.StatusText(statusErr.StatusCode))
	}
	return err
}

// ListLibraries calls GET /api/plex/libraries.
func (m *MaintainerrService) ListLibraries(ctx context.Context) ([]models.Library, error) {
	var raw []plexLibrary
	if err := m.doRequest(ctx, http.MethodGet, "/api/plex/libraries", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	libraries := make([]models.Library, 0, len(raw))
	for _, r := range raw {
		libraries = append(libraries, normalizeLibrary(r))
	}
	return libraries, nil
}

// ListLibraryMedia pages through GET /api/plex/library/{id}/content/{page}.
//
// Invalid ids fail with [ErrInvalidLibrary] before any request is made.
// Paging stops when the fetched count reaches totalSize, a page is empty, or
// ceil(totalSize/[PageSize]) pages have been requested.
func (m *MaintainerrService) ListLibraryMedia(ctx context.Context, libraryID string) ([]models.MediaItem, error) {
	if !models.IsValidLibraryID(libraryID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLibrary, libraryID)
	}
	if m.Config() == nil {
		return nil, shared.ErrNotConfigured
	}

	libraryID = strings.TrimSpace(libraryID)
	limiter := m.pageLimiter()
	items := []models.MediaItem{}
	maxPages := 1

	for page := 0; page < maxPages; page++ {
		content, err := m.fetchPage(ctx, limiter, libraryID, page)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("failed to list library %s: %w", libraryID, err)
			}
			m.logger.Warn("library listing truncated", "library", libraryID, "page", page, "fetched", len(items), "error", err)
			break
		}

		for _, raw := range content.Items {
			items = append(items, normalizeMediaItem(raw))
		}

		if len(content.Items) == 0 || content.TotalSize <= 0 || len(items) >= content.TotalSize {
			break
		}
		if page == 0 {
			maxPages = (content.TotalSize + PageSize - 1) / PageSize
		}
	}

	m.logger.Debug("library listed", "library", libraryID, "items", len(items))
	return items, nil
}

func (m *MaintainerrService) fetchPage(ctx context.Context, limiter *rate.Limiter, libraryID string, page int) (*plexLibraryContent, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var content plexLibraryContent
	endpoint := fmt.Sprintf("/api/plex/library/%s/content/%d", url.PathEscape(libraryID), page)
	if err := m.doRequest(ctx, http.MethodGet, endpoint, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// ListCollections calls GET /api/collections.
//
// Accepts both a bare array and an {"items": [...]} envelope.
func (m *MaintainerrService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var raw json.RawMessage
	if err := m.doRequest(ctx, http.MethodGet, "/api/collections", nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	records, err := decodeCollections(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}

	collections := make([]models.Collection, 0, len(records))
	for _, r := range records {
		collections = append(collections, normalizeCollection(r))
	}
	return collections, nil
}

type addToCollectionRequest struct {
	CollectionID int  `json:"collectionId"`
	PlexID       int  `json:"plexId"`
	IsManual     bool `json:"isManual"`
}

// AddToCollection calls POST /api/collections/add.
func (m *MaintainerrService) AddToCollection(ctx context.Context, plexID string, collectionID int) error {
	id, err := parsePlexID(plexID)
	if err != nil {
		return err
	}

	payload := addToCollectionRequest{CollectionID: collectionID, PlexID: id, IsManual: true}
	if err := m.doRequest(ctx, http.MethodPost, "/api/collections/add", payload, nil); err != nil {
		return fmt.Errorf("failed to add to collection: %w", err)
	}
	return nil
}

type excludeRequest struct {
	PlexID int  `json:"plexId"`
	RuleID *int `json:"ruleId"`
}

// ExcludeMedia calls POST /api/rules/exclusion. A nil ruleID excludes from every rule.
func (m *MaintainerrService) ExcludeMedia(ctx context.Context, plexID string, ruleID *int) error {
	id, err := parsePlexID(plexID)
	if err != nil {
		return err
	}

	payload := excludeRequest{PlexID: id, RuleID: ruleID}
	if err := m.doRequest(ctx, http.MethodPost, "/api/rules/exclusion", payload, nil); err != nil {
		return fmt.Errorf("failed to exclude media: %w", err)
	}
	return nil
}

// PosterURL returns {base}/api/plex/thumb?url={path}, or [PlaceholderPoster]
// when path is empty or no config is set.
func (m *MaintainerrService) PosterURL(path string) string {
	cfg := m.Config()
	if path == "" || cfg == nil {
		return PlaceholderPoster
	}
	return cfg.BaseURL + "/api/plex/thumb?url=" + url.QueryEscape(path)
}

func parsePlexID(plexID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(plexID))
	if err != nil {
		return 0, fmt.Errorf("%w: plex id %q is not numeric", shared.ErrInvalidInput, plexID)
	}
	return id, nil
}
