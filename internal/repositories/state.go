package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
)

// StateStore is the typed persistence facade for session state.
//
// Corrupt values degrade to their defaults and are logged; only storage failures are returned as errors.
type StateStore struct {
	settings *SettingsRepository
	history  *HistoryRepository
	logger   *log.Logger
}

// NewStateStore creates a [StateStore] over db. A nil logger writes to stderr.
func NewStateStore(db *sql.DB, logger *log.Logger) *StateStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StateStore{
		settings: NewSettingsRepository(db),
		history:  NewHistoryRepository(db),
		logger:   shared.WithLogger(logger, "component", "state"),
	}
}

// lookup returns ("", false, nil) for missing keys.
func (s *StateStore) lookup(key string) (string, bool, error) {
	value, err := s.settings.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *StateStore) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.settings.Set(key, string(data))
}

// LoadConfig returns the stored connection config, or nil when none is stored.
func (s *StateStore) LoadConfig() (*models.Config, error) {
	raw, ok, err := s.lookup(KeyConfig)
	if err != nil || !ok {
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Warn("discarding corrupt stored config", "error", err)
		return nil, nil
	}
	return &cfg, nil
}

// SaveConfig stores the connection config.
func (s *StateStore) SaveConfig(cfg models.Config) error {
	return s.setJSON(KeyConfig, cfg)
}

// LoadIndex returns the stored cursor, defaulting to 0.
func (s *StateStore) LoadIndex() (int, error) {
	raw, ok, err := s.lookup(KeyCurrentIndex)
	if err != nil || !ok {
		return 0, err
	}

	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 {
		s.logger.Warn("discarding corrupt stored index", "value", raw)
		return 0, nil
	}
	return idx, nil
}

// SaveIndex stores the cursor.
func (s *StateStore) SaveIndex(idx int) error {
	return s.settings.Set(KeyCurrentIndex, strconv.Itoa(idx))
}

// LoadSelectedCollection returns the stored collection id, or nil.
func (s *StateStore) LoadSelectedCollection() (*int, error) {
	raw, ok, err := s.lookup(KeySelectedCollection)
	if err != nil || !ok {
		return nil, err
	}

	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("discarding corrupt stored collection", "value", raw)
		return nil, nil
	}
	return &id, nil
}

// SaveSelectedCollection stores id; nil removes the selection.
func (s *StateStore) SaveSelectedCollection(id *int) error {
	if id == nil {
		return s.settings.Delete(KeySelectedCollection)
	}
	return s.settings.Set(KeySelectedCollection, strconv.Itoa(*id))
}

// LoadFilters returns the stored filters, or [models.DefaultFilters].
func (s *StateStore) LoadFilters() (models.FilterOptions, error) {
	raw, ok, err := s.lookup(KeyFilters)
	if err != nil || !ok {
		return models.DefaultFilters(), err
	}

	var f models.FilterOptions
	if err := json.Unmarshal([]byte(raw), &f); err != nil || f.Validate() != nil {
		s.logger.Warn("discarding corrupt stored filters", "value", raw)
		return models.DefaultFilters(), nil
	}
	return f, nil
}

// SaveFilters stores the filters.
func (s *StateStore) SaveFilters(f models.FilterOptions) error {
	return s.setJSON(KeyFilters, f)
}

// LoadStep returns the stored step, defaulting to [models.StepSetup].
func (s *StateStore) LoadStep() (models.AppStep, error) {
	raw, ok, err := s.lookup(KeyAppStep)
	if err != nil || !ok {
		return models.StepSetup, err
	}
	return models.ParseAppStep(raw), nil
}

// SaveStep stores the step.
func (s *StateStore) SaveStep(step models.AppStep) error {
	return s.settings.Set(KeyAppStep, string(step))
}

// LoadSelectedLibrary returns the stored library id, "" when none.
//
// The raw value is returned even when it is not a valid id so the caller can apply its own corruption guard.
func (s *StateStore) LoadSelectedLibrary() (string, error) {
	raw, _, err := s.lookup(KeySelectedLibrary)
	return raw, err
}

// SaveSelectedLibrary stores id; "" removes the selection.
func (s *StateStore) SaveSelectedLibrary(id string) error {
	if id == "" {
		return s.settings.Delete(KeySelectedLibrary)
	}
	return s.settings.Set(KeySelectedLibrary, id)
}

// AppendHistory records a completed swipe action.
func (s *StateStore) AppendHistory(action *models.SwipeAction) error {
	return s.history.Append(action)
}

// History returns the retained swipe actions, oldest first.
func (s *StateStore) History() ([]models.SwipeAction, error) {
	return s.history.List()
}

// ResetProgress clears the cursor and the swipe history.
func (s *StateStore) ResetProgress() error {
	if err := s.settings.Delete(KeyCurrentIndex); err != nil {
		return err
	}
	return s.history.Clear()
}

// Clear removes every stored key and the swipe history.
func (s *StateStore) Clear() error {
	if err := s.settings.Clear(AllKeys...); err != nil {
		return err
	}
	return s.history.Clear()
}
