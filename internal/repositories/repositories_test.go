package repositories

import (
	"database/sql"
	"fmt"
	"io"
	"testing"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func intPtr(i int) *int { return &i }

func TestSettingsRepository(t *testing.T) {
	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		if _, err := repo.Get(KeyConfig); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		if err := repo.Set(KeyAppStep, "library"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := repo.Set(KeyAppStep, "swipe"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, err := repo.Get(KeyAppStep)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if value != "swipe" {
			t.Errorf("expected swipe, got %s", value)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewSettingsRepository(db).Delete("nope"); err != nil {
			t.Errorf("deleting a missing key should not fail: %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingsRepository(db)
		for _, key := range AllKeys {
			if err := repo.Set(key, "x"); err != nil {
				t.Fatalf("failed to set %s: %v", key, err)
			}
		}
		if err := repo.Set("unrelated", "keep"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		if err := repo.Clear(AllKeys...); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		for _, key := range AllKeys {
			if _, err := repo.Get(key); err != ErrNotFound {
				t.Errorf("expected %s to be cleared, got %v", key, err)
			}
		}
		if v, err := repo.Get("unrelated"); err != nil || v != "keep" {
			t.Errorf("unrelated key should survive, got %q, %v", v, err)
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	t.Run("AppendAssignsID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		action := &models.SwipeAction{MediaID: 1, PlexID: "1", Direction: models.SwipeLeft}
		if err := repo.Append(action); err != nil {
			t.Fatalf("failed to append: %v", err)
		}

		if action.ID == "" {
			t.Error("action ID should be set after append")
		}
		if action.Timestamp.IsZero() {
			t.Error("action timestamp should be set after append")
		}
	})

	t.Run("ListPreservesFields", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		actions := []*models.SwipeAction{
			{MediaID: 1, PlexID: "101", Title: "Alpha", Direction: models.SwipeRight, CollectionID: intPtr(7)},
			{MediaID: 2, PlexID: "102", Title: "Beta", Direction: models.SwipeDown},
		}
		for _, a := range actions {
			if err := repo.Append(a); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
		}

		got, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 actions, got %d", len(got))
		}

		if got[0].Title != "Alpha" || got[0].CollectionID == nil || *got[0].CollectionID != 7 {
			t.Errorf("unexpected first action: %+v", got[0])
		}
		if got[1].Direction != models.SwipeDown || got[1].CollectionID != nil {
			t.Errorf("unexpected second action: %+v", got[1])
		}
	})

	t.Run("EvictsOldest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		for i := 1; i <= MaxHistory+1; i++ {
			action := &models.SwipeAction{MediaID: i, PlexID: fmt.Sprint(i), Direction: models.SwipeLeft}
			if err := repo.Append(action); err != nil {
				t.Fatalf("failed to append %d: %v", i, err)
			}
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != MaxHistory {
			t.Errorf("expected %d retained actions, got %d", MaxHistory, count)
		}

		got, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if got[0].MediaID != 2 {
			t.Errorf("expected oldest retained media 2, got %d", got[0].MediaID)
		}
		if got[len(got)-1].MediaID != MaxHistory+1 {
			t.Errorf("expected newest media %d, got %d", MaxHistory+1, got[len(got)-1].MediaID)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		if err := repo.Append(&models.SwipeAction{MediaID: 1, Direction: models.SwipeLeft}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if count, _ := repo.Count(); count != 0 {
			t.Errorf("expected empty history, got %d", count)
		}
	})
}

func TestStateStore(t *testing.T) {
	newStore := func(t *testing.T) (*StateStore, *sql.DB) {
		t.Helper()
		db := setupTestDB(t)
		return NewStateStore(db, shared.NewLogger(io.Discard)), db
	}

	t.Run("Defaults", func(t *testing.T) {
		store, db := newStore(t)
		defer db.Close()

		if cfg, err := store.LoadConfig(); err != nil || cfg != nil {
			t.Errorf("expected nil config, got %v, %v", cfg, err)
		}
		if idx, err := store.LoadIndex(); err != nil || idx != 0 {
			t.Errorf("expected index 0, got %d, %v", idx, err)
		}
		if id, err := store.LoadSelectedCollection(); err != nil || id != nil {
			t.Errorf("expected nil collection, got %v, %v", id, err)
		}
		if f, err := store.LoadFilters(); err != nil || f != models.DefaultFilters() {
			t.Errorf("expected default filters, got %+v, %v", f, err)
		}
		if step, err := store.LoadStep(); err != nil || step != models.StepSetup {
			t.Errorf("expected setup step, got %s, %v", step, err)
		}
		if lib, err := store.LoadSelectedLibrary(); err != nil || lib != "" {
			t.Errorf("expected no library, got %q, %v", lib, err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store, db := newStore(t)
		defer db.Close()

		cfg := models.Config{BaseURL: "http://localhost:6246", APIKey: "secret"}
		filters := models.FilterOptions{MediaType: models.FilterTV, SortBy: models.SortLastWatched}

		for _, err := range []error{
			store.SaveConfig(cfg),
			store.SaveIndex(12),
			store.SaveSelectedCollection(intPtr(3)),
			store.SaveFilters(filters),
			store.SaveStep(models.StepSwipe),
			store.SaveSelectedLibrary("2"),
		} {
			if err != nil {
				t.Fatalf("failed to save: %v", err)
			}
		}

		gotCfg, _ := store.LoadConfig()
		if gotCfg == nil || *gotCfg != cfg {
			t.Errorf("expected config %+v, got %+v", cfg, gotCfg)
		}
		if idx, _ := store.LoadIndex(); idx != 12 {
			t.Errorf("expected index 12, got %d", idx)
		}
		if id, _ := store.LoadSelectedCollection(); id == nil || *id != 3 {
			t.Errorf("expected collection 3, got %v", id)
		}
		if f, _ := store.LoadFilters(); f != filters {
			t.Errorf("expected filters %+v, got %+v", filters, f)
		}
		if step, _ := store.LoadStep(); step != models.StepSwipe {
			t.Errorf("expected swipe step, got %s", step)
		}
		if lib, _ := store.LoadSelectedLibrary(); lib != "2" {
			t.Errorf("expected library 2, got %q", lib)
		}

		if err := store.SaveSelectedCollection(nil); err != nil {
			t.Fatalf("failed to clear collection: %v", err)
		}
		if id, _ := store.LoadSelectedCollection(); id != nil {
			t.Errorf("expected cleared collection, got %v", *id)
		}
	})

	t.Run("CorruptValuesDegrade", func(t *testing.T) {
		store, db := newStore(t)
		defer db.Close()

		settings := NewSettingsRepository(db)
		settings.Set(KeyConfig, "{not json")
		settings.Set(KeyCurrentIndex, "abc")
		settings.Set(KeySelectedCollection, "xyz")
		settings.Set(KeyFilters, `{"mediaType":"music","sortBy":"oldest"}`)
		settings.Set(KeyAppStep, "bogus")

		if cfg, err := store.LoadConfig(); err != nil || cfg != nil {
			t.Errorf("expected corrupt config to load as nil, got %v, %v", cfg, err)
		}
		if idx, err := store.LoadIndex(); err != nil || idx != 0 {
			t.Errorf("expected corrupt index to load as 0, got %d, %v", idx, err)
		}
		if id, err := store.LoadSelectedCollection(); err != nil || id != nil {
			t.Errorf("expected corrupt collection to load as nil, got %v, %v", id, err)
		}
		if f, err := store.LoadFilters(); err != nil || f != models.DefaultFilters() {
			t.Errorf("expected corrupt filters to load as default, got %+v, %v", f, err)
		}
		if step, err := store.LoadStep(); err != nil || step != models.StepSetup {
			t.Errorf("expected corrupt step to load as setup, got %s, %v", step, err)
		}
	})

	t.Run("ResetProgress", func(t *testing.T) {
		store, db := newStore(t)
		defer db.Close()

		store.SaveIndex(4)
		store.SaveStep(models.StepSwipe)
		store.AppendHistory(&models.SwipeAction{MediaID: 1, Direction: models.SwipeLeft})

		if err := store.ResetProgress(); err != nil {
			t.Fatalf("failed to reset: %v", err)
		}

		if idx, _ := store.LoadIndex(); idx != 0 {
			t.Errorf("expected index 0, got %d", idx)
		}
		if history, _ := store.History(); len(history) != 0 {
			t.Errorf("expected empty history, got %d", len(history))
		}
		if step, _ := store.LoadStep(); step != models.StepSwipe {
			t.Errorf("reset should keep the step, got %s", step)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store, db := newStore(t)
		defer db.Close()

		store.SaveConfig(models.Config{BaseURL: "http://x", APIKey: "k"})
		store.SaveSelectedLibrary("1")
		store.AppendHistory(&models.SwipeAction{MediaID: 1, Direction: models.SwipeLeft})

		if err := store.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		if cfg, _ := store.LoadConfig(); cfg != nil {
			t.Errorf("expected config cleared, got %+v", cfg)
		}
		if lib, _ := store.LoadSelectedLibrary(); lib != "" {
			t.Errorf("expected library cleared, got %q", lib)
		}
		if history, _ := store.History(); len(history) != 0 {
			t.Errorf("expected empty history, got %d", len(history))
		}
	})
}
