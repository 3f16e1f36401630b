package ui

import "github.com/desertthunder/swipearr/internal/models"

// connectedMsg reports the result of [session.Session.Connect].
type connectedMsg struct{ err error }

// librariesLoadedMsg reports the result of [session.Session.LoadLibraries].
type librariesLoadedMsg struct{ err error }

// libraryOpenedMsg reports the result of [session.Session.SelectLibrary].
type libraryOpenedMsg struct{ err error }

// refreshedMsg reports the result of [session.Session.RefreshData] or [session.Session.Resume].
type refreshedMsg struct{ err error }

// swipeDoneMsg reports a completed swipe decision.
type swipeDoneMsg struct {
	action *models.SwipeAction
	err    error
}

// frameMsg drives card animations.
type frameMsg struct{}

// clearToastMsg expires the toast with the given id.
type clearToastMsg struct{ id int }

// openedMsg reports the result of opening a poster in the browser.
type openedMsg struct{ err error }
