// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks the curation flow of a [session.Session]:
//  1. [SetupView] : Enter the Maintainerr URL and API key
//  2. [LibraryView] : Pick a Plex library
//  3. [CollectionView] : Pick a target collection, or browse only
//  4. [SwipeView] : Review items one card at a time
//  5. [FilterView] : Change the media type filter and sort order
//  6. [DetailView] : Read the full overview of the current item
//
// Cards respond to the keyboard (←/h skip, →/l add, ↓/x exclude) and to left-button mouse drags.
// Drags are fed through a [gesture.Tracker] into a [gesture.Card], which animates the card with
// harmonica springs on a [gesture.FPS] tick and hands the decision to [session.Session.HandleSwipe].
//
// Contextual help is displayed via charmbracelet/bubbles/help.
package ui
