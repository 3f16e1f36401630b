// Package models defines the domain entities shared by the Maintainerr client, the session state machine and the UI.
//
// The package contains two categories of types:
//
// 1. Backend entities, normalized from Maintainerr/Plex responses
//   - [Config] : Connection credentials (base URL + API key)
//   - [Library] : A Plex library section
//   - [Collection] : A Maintainerr collection with optional member set
//   - [MediaItem] : A normalized movie or show
//
// 2. Session entities, owned and persisted by the client
//   - [FilterOptions] : Active media-type filter and sort key
//   - [SwipeAction] : Audit record of a completed swipe decision
//   - [AppStep] : Coarse workflow position (setup → library → collection → swipe)
package models
