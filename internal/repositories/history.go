package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
)

// MaxHistory is the number of swipe actions retained; older entries are evicted first.
const MaxHistory = 50

// HistoryRepository persists [models.SwipeAction] records.
type HistoryRepository struct {
	db    *sql.DB
	limit int
}

// NewHistoryRepository creates a new [HistoryRepository] retaining [MaxHistory] entries.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, limit: MaxHistory}
}

// Append inserts action and evicts the oldest rows beyond the retention limit.
//
// An empty action ID is replaced with a generated UUID.
func (r *HistoryRepository) Append(action *models.SwipeAction) error {
	if action.ID == "" {
		action.ID = shared.GenerateID()
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextSequence(tx, "swipe_history")
	if err != nil {
		return err
	}

	var collectionID sql.NullInt64
	if action.CollectionID != nil {
		collectionID = sql.NullInt64{Int64: int64(*action.CollectionID), Valid: true}
	}

	query := `
		INSERT INTO swipe_history (id, sequence, media_id, plex_id, title, direction, collection_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, action.ID, sequence, action.MediaID, action.PlexID, action.Title,
		string(action.Direction), collectionID, action.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert swipe action: %w", err)
	}

	evict := `
		DELETE FROM swipe_history
		WHERE sequence NOT IN (SELECT sequence FROM swipe_history ORDER BY sequence DESC LIMIT ?)
	`
	if _, err := tx.Exec(evict, r.limit); err != nil {
		return fmt.Errorf("failed to trim swipe history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swipe action: %w", err)
	}
	return nil
}

// List returns the retained actions, oldest first.
func (r *HistoryRepository) List() ([]models.SwipeAction, error) {
	query := `
		SELECT id, media_id, plex_id, title, direction, collection_id, created_at
		FROM swipe_history
		ORDER BY sequence ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query swipe history: %w", err)
	}
	defer rows.Close()

	var actions []models.SwipeAction
	for rows.Next() {
		var (
			action       models.SwipeAction
			direction    string
			collectionID sql.NullInt64
		)
		if err := rows.Scan(&action.ID, &action.MediaID, &action.PlexID, &action.Title, &direction, &collectionID, &action.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan swipe action: %w", err)
		}
		action.Direction = models.SwipeDirection(direction)
		if collectionID.Valid {
			id := int(collectionID.Int64)
			action.CollectionID = &id
		}
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating swipe history: %w", err)
	}
	return actions, nil
}

// Count returns the number of retained actions.
func (r *HistoryRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM swipe_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count swipe history: %w", err)
	}
	return count, nil
}

// Clear deletes all history.
func (r *HistoryRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM swipe_history"); err != nil {
		return fmt.Errorf("failed to clear swipe history: %w", err)
	}
	return nil
}
