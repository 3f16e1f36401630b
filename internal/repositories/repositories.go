// package repositories provides the persistence layer for session state.
package repositories

import (
	"database/sql"
	"fmt"
)

// Setting keys stored in the settings table.
const (
	KeyConfig             = "config"
	KeyCurrentIndex       = "current_index"
	KeySelectedCollection = "selected_collection"
	KeyFilters            = "filters"
	KeyAppStep            = "app_step"
	KeySelectedLibrary    = "selected_library"
)

// AllKeys lists every setting key, in the order they are cleared on disconnect.
var AllKeys = []string{
	KeyConfig,
	KeyCurrentIndex,
	KeySelectedCollection,
	KeyFilters,
	KeyAppStep,
	KeySelectedLibrary,
}

// nextSequence returns the next insertion sequence for table inside tx.
func nextSequence(tx *sql.Tx, table string) (int64, error) {
	var sequence int64
	err := tx.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(sequence), 0) + 1 FROM %s", table)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return sequence, nil
}
