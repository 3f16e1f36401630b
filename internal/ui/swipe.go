package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/swipearr/internal/gesture"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
)

// newCard replaces the card gesture state, as happens whenever the current item changes.
func (m *Model) newCard() {
	m.card = gesture.NewCard(func(dir models.SwipeDirection) { m.committed = dir })
	m.committed = models.SwipeNone
	m.tracker.Cancel()
}

func frameTick() tea.Cmd {
	return tea.Tick(time.Second/gesture.FPS, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) canSwipe() bool {
	return !m.swiping && !m.card.Locked() && m.session.CurrentMedia() != nil
}

// commit starts the exit animation for a keyboard decision.
func (m *Model) commit(dir models.SwipeDirection) tea.Cmd {
	if !m.canSwipe() || !m.card.Commit(dir) {
		return nil
	}
	return frameTick()
}

func (m *Model) handleSwipeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.skip):
		return m, m.commit(models.SwipeLeft)
	case key.Matches(msg, m.keys.add):
		return m, m.commit(models.SwipeRight)
	case key.Matches(msg, m.keys.exclude):
		return m, m.commit(models.SwipeDown)
	case key.Matches(msg, m.keys.back):
		if m.swiping {
			return m, nil
		}
		if err := m.session.GoBackToLibrary(); err != nil {
			return m, m.notify(err.Error(), true)
		}
		m.syncView()
		return m, nil
	case key.Matches(msg, m.keys.detail):
		if m.session.CurrentMedia() != nil {
			m.view = DetailView
		}
	case key.Matches(msg, m.keys.filters):
		m.filterDraft = m.session.Filters()
		m.filterRow = 0
		m.view = FilterView
	case key.Matches(msg, m.keys.collection):
		m.refreshLists()
		m.view = CollectionView
	case key.Matches(msg, m.keys.refresh):
		if m.swiping || m.loading != "" {
			return m, nil
		}
		return m, m.startLoading("Refreshing", m.refresh())
	case key.Matches(msg, m.keys.reset):
		if err := m.session.ResetProgress(); err != nil {
			return m, m.notify(err.Error(), true)
		}
		m.newCard()
		return m, m.notify("Progress reset", false)
	case key.Matches(msg, m.keys.open):
		return m, m.openPoster()
	case key.Matches(msg, m.keys.disconnect):
		return m.disconnect()
	}
	return m, nil
}

// handleMouse feeds left-button drags through the tracker into the card.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	if !m.canSwipe() {
		m.tracker.Cancel()
		return m, nil
	}

	now := m.now()
	x, y := float64(msg.X), float64(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		m.tracker.Begin(x, y, now)
	case tea.MouseActionMotion:
		if !m.tracker.Active() {
			return m, nil
		}
		m.card.Drag(m.tracker.Move(x, y, now))
	case tea.MouseActionRelease:
		if !m.tracker.Active() {
			return m, nil
		}
		m.card.Release(m.tracker.End(x, y, now))
		if m.card.Animating() {
			return m, frameTick()
		}
	}
	return m, nil
}

func (m *Model) handleFrame() (tea.Model, tea.Cmd) {
	running := m.card.Step()
	if dir := m.committed; dir != models.SwipeNone {
		m.committed = models.SwipeNone
		m.swiping = true
		return m, m.swipe(dir)
	}
	if running {
		return m, frameTick()
	}
	return m, nil
}

func (m *Model) swipe(dir models.SwipeDirection) tea.Cmd {
	return func() tea.Msg {
		action, err := m.session.HandleSwipe(m.ctx, dir)
		return swipeDoneMsg{action: action, err: err}
	}
}

func (m *Model) handleSwipeDone(msg swipeDoneMsg) (tea.Model, tea.Cmd) {
	m.swiping = false
	m.newCard()

	switch {
	case msg.action != nil && errors.Is(msg.err, shared.ErrAuthFailed):
		return m, m.notify(fmt.Sprintf("%s was recorded but the API key was rejected, press D to reconnect", msg.action.Title), true)
	case msg.err != nil && msg.action != nil:
		return m, m.notify(fmt.Sprintf("%s was recorded but the server call failed: %v", msg.action.Title, msg.err), true)
	case errors.Is(msg.err, session.ErrLibraryMismatch):
		return m, m.notify("That collection belongs to a different library", true)
	case msg.err != nil:
		if isQuietError(msg.err) {
			return m, nil
		}
		return m, m.notify(msg.err.Error(), true)
	case msg.action == nil:
		return m, nil
	}
	return m, m.notify(m.swipeMessage(msg.action), false)
}

func (m *Model) swipeMessage(a *models.SwipeAction) string {
	switch a.Direction {
	case models.SwipeRight:
		if c := m.session.SelectedCollection(); c != nil && a.CollectionID != nil {
			return fmt.Sprintf("Added %s to %s", a.Title, c.Name)
		}
		return fmt.Sprintf("Kept %s", a.Title)
	case models.SwipeDown:
		return fmt.Sprintf("Excluded %s", a.Title)
	default:
		return fmt.Sprintf("Skipped %s", a.Title)
	}
}
