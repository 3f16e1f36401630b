// Package repositories implements SQLite persistence for the client's session state.
//
// Key Implementations:
//   - [SettingsRepository] : whole-value key/value writes (config, cursor, selections, filters, step)
//   - [HistoryRepository] : bounded swipe history with FIFO eviction
//   - [StateStore] : typed facade over both, used by the session state machine
//
// Sequence numbers give history rows a stable insertion order independent of their UUIDs and timestamps,
// which is what eviction and listing sort by.
package repositories
