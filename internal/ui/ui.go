package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipearr/internal/gesture"
	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SetupView ViewState = iota
	LibraryView
	CollectionView
	SwipeView
	FilterView
	DetailView
)

const toastDuration = 3 * time.Second

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	session *session.Session
	logger  *log.Logger
	open    func(string) error
	now     func() time.Time

	view   ViewState
	width  int
	height int

	inputs []textinput.Model
	focus  int

	libraryList    list.Model
	collectionList list.Model

	filterDraft models.FilterOptions
	filterRow   int

	card      *gesture.Card
	tracker   *gesture.Tracker
	committed models.SwipeDirection
	swiping   bool

	loading  string
	spinner  spinner.Model
	progress progress.Model

	toast    string
	toastErr bool
	toastID  int

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model over a hydrated session.
func NewModel(ctx context.Context, s *session.Session, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.warn

	m := &Model{
		ctx:         ctx,
		session:     s,
		logger:      shared.WithLogger(logger, "component", "ui"),
		open:        shared.OpenBrowser,
		now:         time.Now,
		inputs:      newSetupInputs(s.Snapshot().BaseURL),
		filterDraft: s.Filters(),
		tracker:     gesture.NewTracker(gesture.DefaultCellWidth, gesture.DefaultCellHeight),
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.libraryList = newList("Libraries", nil)
	m.collectionList = newList("Collection", nil)
	m.newCard()
	m.syncView()
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

func newSetupInputs(baseURL string) []textinput.Model {
	url := textinput.New()
	url.Placeholder = "http://localhost:6246"
	url.Prompt = "Server URL › "
	url.CharLimit = 256
	url.SetValue(baseURL)
	url.Focus()

	apiKey := textinput.New()
	apiKey.Placeholder = "API key"
	apiKey.Prompt = "API key    › "
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.CharLimit = 256

	return []textinput.Model{url, apiKey}
}

// Init restores remote data for a persisted session.
func (m *Model) Init() tea.Cmd {
	if m.view == SetupView {
		return textinput.Blink
	}
	return m.startLoading("Loading libraries", m.resume())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SetupView:
			return m.handleSetupKeys(msg)
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case CollectionView:
			return m.handleCollectionKeys(msg)
		case SwipeView:
			return m.handleSwipeKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case tea.MouseMsg:
		if m.view == SwipeView {
			return m.handleMouse(msg)
		}

	case spinner.TickMsg:
		if m.loading == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case connectedMsg:
		m.loading = ""
		if msg.err != nil {
			return m, m.notify(fmt.Sprintf("Connection failed: %v", msg.err), true)
		}
		m.refreshLists()
		m.syncView()
		return m, m.notify("Connected", false)

	case librariesLoadedMsg:
		m.loading = ""
		if msg.err != nil {
			return m, m.notify(fmt.Sprintf("Failed to load libraries: %v", msg.err), true)
		}
		m.refreshLists()
		return m, nil

	case libraryOpenedMsg:
		m.loading = ""
		if msg.err != nil {
			return m, m.notify(fmt.Sprintf("Failed to load library: %v", msg.err), true)
		}
		m.refreshLists()
		m.syncView()
		return m, nil

	case refreshedMsg:
		m.loading = ""
		m.refreshLists()
		m.syncView()
		m.newCard()
		if msg.err != nil {
			return m, m.notify(fmt.Sprintf("Refresh failed: %v", msg.err), true)
		}
		return m, nil

	case frameMsg:
		return m.handleFrame()

	case swipeDoneMsg:
		return m.handleSwipeDone(msg)

	case openedMsg:
		if msg.err != nil {
			return m, m.notify(fmt.Sprintf("Could not open poster: %v", msg.err), true)
		}
		return m, nil

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil
	}

	return m.updateActive(msg)
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.libraryList.SetSize(w-4, h-8)
	m.collectionList.SetSize(w-4, h-10)
	m.progress.Width = min(max(w-20, 10), 60)
	for i := range m.inputs {
		m.inputs[i].Width = min(max(w-20, 20), 60)
	}
}

// syncView moves to the screen for the session's step.
func (m *Model) syncView() {
	switch m.session.Step() {
	case models.StepSetup:
		m.view = SetupView
	case models.StepLibrary:
		m.view = LibraryView
	case models.StepCollection:
		m.view = CollectionView
	case models.StepSwipe:
		m.view = SwipeView
	}
}

func (m *Model) refreshLists() {
	m.libraryList.SetItems(libraryItems(m.session.Libraries()))

	snap := m.session.Snapshot()
	if snap.SelectedLibrary != nil {
		m.collectionList.Title = fmt.Sprintf("Collection for %s", snap.SelectedLibrary.Name)
	}
	m.collectionList.SetItems(collectionItems(m.session.CompatibleCollections(), snap.SelectedCollectionID))
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SetupView:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case LibraryView:
		m.libraryList, cmd = m.libraryList.Update(msg)
	case CollectionView:
		m.collectionList, cmd = m.collectionList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startLoading(label string, cmd tea.Cmd) tea.Cmd {
	m.loading = label
	return tea.Batch(m.spinner.Tick, cmd)
}

// notify shows a transient status line.
func (m *Model) notify(text string, isErr bool) tea.Cmd {
	m.toastID++
	m.toast = text
	m.toastErr = isErr
	if isErr {
		m.logger.Warn(text)
	}
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })
}

func (m *Model) handleSetupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab), msg.String() == "up", msg.String() == "down":
		step := 1
		if msg.String() == "shift+tab" || msg.String() == "up" {
			step = -1
		}
		m.focusInput((m.focus + step + len(m.inputs)) % len(m.inputs))
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.focus < len(m.inputs)-1 {
			m.focusInput(m.focus + 1)
			return m, nil
		}
		if m.loading != "" {
			return m, nil
		}
		cfg := models.Config{BaseURL: m.inputs[0].Value(), APIKey: m.inputs[1].Value()}.Normalized()
		if err := cfg.Validate(); err != nil {
			return m, m.notify(err.Error(), true)
		}
		return m, m.startLoading("Connecting", m.connect(cfg))
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusInput(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.libraryList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.libraryList, cmd = m.libraryList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.disconnect):
		return m.disconnect()
	case key.Matches(msg, m.keys.refresh):
		return m, m.startLoading("Loading libraries", m.loadLibraries())
	case key.Matches(msg, m.keys.enter):
		if m.loading != "" {
			return m, nil
		}
		if item, ok := m.libraryList.SelectedItem().(libraryItem); ok {
			return m, m.startLoading(fmt.Sprintf("Loading %s", item.library.Name), m.selectLibrary(item.library.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.libraryList, cmd = m.libraryList.Update(msg)
	return m, cmd
}

func (m *Model) handleCollectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.collectionList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.collectionList, cmd = m.collectionList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.session.Step() == models.StepSwipe {
			m.view = SwipeView
			return m, nil
		}
		if err := m.session.GoBackToLibrary(); err != nil {
			return m, m.notify(err.Error(), true)
		}
		m.syncView()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.collectionList.SelectedItem().(collectionItem)
		if !ok {
			return m, nil
		}
		var id *int
		if item.collection != nil {
			id = &item.collection.ID
		}
		if err := m.session.SetSelectedCollectionID(id); err != nil {
			return m, m.notify(err.Error(), true)
		}
		if err := m.session.GoToSwipe(); err != nil {
			return m, m.notify(err.Error(), true)
		}
		m.refreshLists()
		m.syncView()
		m.newCard()
		return m, nil
	}

	var cmd tea.Cmd
	m.collectionList, cmd = m.collectionList.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.filters):
		m.filterDraft = m.session.Filters()
		m.view = SwipeView
	case key.Matches(msg, m.keys.up):
		m.filterRow = (m.filterRow + 1) % 2
	case key.Matches(msg, m.keys.down):
		m.filterRow = (m.filterRow + 1) % 2
	case key.Matches(msg, m.keys.left):
		m.cycleFilter(-1)
	case key.Matches(msg, m.keys.right):
		m.cycleFilter(1)
	case key.Matches(msg, m.keys.enter):
		if err := m.session.SetFilters(m.filterDraft); err != nil {
			return m, m.notify(err.Error(), true)
		}
		m.view = SwipeView
		m.newCard()
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

var (
	mediaTypeChoices = []models.MediaTypeFilter{models.FilterAll, models.FilterMovie, models.FilterTV}
	sortChoices      = []models.SortKey{models.SortOldest, models.SortLastWatched, models.SortUncollected}
)

func cycle[T comparable](choices []T, current T, step int) T {
	idx := 0
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	return choices[(idx+step+len(choices))%len(choices)]
}

func (m *Model) cycleFilter(step int) {
	if m.filterRow == 0 {
		m.filterDraft.MediaType = cycle(mediaTypeChoices, m.filterDraft.MediaType, step)
		return
	}
	m.filterDraft.SortBy = cycle(sortChoices, m.filterDraft.SortBy, step)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.detail):
		m.view = SwipeView
	case key.Matches(msg, m.keys.open):
		return m, m.openPoster()
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) disconnect() (tea.Model, tea.Cmd) {
	if err := m.session.Disconnect(); err != nil {
		return m, m.notify(err.Error(), true)
	}
	m.inputs = newSetupInputs("")
	m.focus = 0
	m.refreshLists()
	m.syncView()
	return m, m.notify("Disconnected", false)
}

func (m *Model) connect(cfg models.Config) tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: m.session.Connect(m.ctx, cfg)}
	}
}

func (m *Model) resume() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.session.Resume(m.ctx)}
	}
}

func (m *Model) loadLibraries() tea.Cmd {
	return func() tea.Msg {
		return librariesLoadedMsg{err: m.session.LoadLibraries(m.ctx)}
	}
}

func (m *Model) selectLibrary(id string) tea.Cmd {
	return func() tea.Msg {
		return libraryOpenedMsg{err: m.session.SelectLibrary(m.ctx, id)}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.session.RefreshData(m.ctx)}
	}
}

func (m *Model) openPoster() tea.Cmd {
	item := m.session.CurrentMedia()
	if item == nil {
		return nil
	}
	url := m.session.PosterURL(*item)
	open := m.open
	return func() tea.Msg {
		return openedMsg{err: open(url)}
	}
}

func isQuietError(err error) bool {
	return errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNoMedia)
}
