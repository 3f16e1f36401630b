package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/swipearr/internal/models"
)

var (
	_ list.Item = libraryItem{}
	_ list.Item = collectionItem{}
)

// libraryItem wraps [models.Library] to implement [list.Item].
type libraryItem struct {
	library models.Library
}

func (i libraryItem) FilterValue() string { return i.library.Name }
func (i libraryItem) Title() string       { return i.library.Name }
func (i libraryItem) Description() string {
	if i.library.Type == models.LibraryShow {
		return "TV shows"
	}
	return "Movies"
}

// collectionItem wraps [models.Collection] to implement [list.Item].
// A nil collection is the browse-only entry.
type collectionItem struct {
	collection *models.Collection
	selected   bool
}

func (i collectionItem) FilterValue() string {
	if i.collection == nil {
		return "Browse only"
	}
	return i.collection.Name
}

func (i collectionItem) Title() string {
	title := i.FilterValue()
	if i.selected {
		title = "✓ " + title
	}
	return title
}

func (i collectionItem) Description() string {
	if i.collection == nil {
		return "Swipe without adding to a collection"
	}
	desc := fmt.Sprintf("%d items", i.collection.MediaCount)
	if !i.collection.IsActive {
		desc += " • inactive"
	}
	if i.collection.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.collection.Description)
	}
	return desc
}

func libraryItems(libraries []models.Library) []list.Item {
	items := make([]list.Item, len(libraries))
	for i, lib := range libraries {
		items[i] = libraryItem{library: lib}
	}
	return items
}

func collectionItems(collections []models.Collection, selected *int) []list.Item {
	items := []list.Item{collectionItem{selected: selected == nil}}
	for i := range collections {
		c := collections[i]
		items = append(items, collectionItem{collection: &c, selected: selected != nil && *selected == c.ID})
	}
	return items
}
