package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/swipearr/internal/formatter"
	"github.com/desertthunder/swipearr/internal/gesture"
	"github.com/desertthunder/swipearr/internal/models"
)

const (
	maxCardWidth = 60
	dateLayout   = "Jan 2, 2006"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SetupView:
		body = m.renderSetup()
	case LibraryView:
		body = m.renderLibraries()
	case CollectionView:
		body = m.renderCollections()
	case SwipeView:
		body = m.renderSwipe()
	case FilterView:
		body = m.renderFilters()
	case DetailView:
		body = m.renderDetail()
	}

	if m.loading != "" {
		body = fmt.Sprintf("%s\n\n%s %s...", body, m.spinner.View(), m.loading)
	}
	if m.toast != "" {
		style := styles.ok
		if m.toastErr {
			style = styles.err
		}
		body = fmt.Sprintf("%s\n\n%s", body, style.Render(m.toast))
	}
	return body
}

func (m *Model) renderSetup() string {
	title := styles.title.Render("Connect to Maintainerr")
	intro := styles.muted.Render("Enter your server URL and the API key from Settings → General.")

	fields := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		fields[i] = in.View()
	}

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect"))
	quit := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.tab, submit, quit})

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, intro, strings.Join(fields, "\n"), helpView)
}

func (m *Model) renderLibraries() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.disconnect, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.libraryList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCollections() string {
	var note string
	if hidden := len(m.session.Collections()) - len(m.session.CompatibleCollections()); hidden > 0 {
		note = styles.muted.Render(fmt.Sprintf("%d collection(s) from other libraries hidden", hidden)) + "\n"
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", m.collectionList.View(), note, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderHeader() string {
	snap := m.session.Snapshot()

	target := styles.muted.Render("Browse only")
	if snap.SelectedCollection != nil {
		target = "Adding to " + styles.ok.Render(snap.SelectedCollection.Name)
	}
	library := ""
	if snap.SelectedLibrary != nil {
		library = styles.title.UnsetMarginBottom().Render(snap.SelectedLibrary.Name) + "  "
	}

	percent := 0.0
	if snap.Total > 0 {
		percent = float64(min(snap.Index, snap.Total)) / float64(snap.Total)
	}
	counts := fmt.Sprintf("%d of %d • %d left • %s, %s", min(snap.Index+1, snap.Total), snap.Total,
		snap.Remaining, snap.Filters.MediaType, snap.Filters.SortBy)

	return fmt.Sprintf("%s%s\n%s %s", library, target, m.progress.ViewAs(percent), styles.muted.Render(counts))
}

func (m *Model) renderSwipe() string {
	header := m.renderHeader()
	current := m.session.CurrentMedia()
	if current == nil {
		return fmt.Sprintf("%s\n\n%s", header, m.renderDone())
	}

	card := m.renderCard(*current)
	var next string
	if n := m.session.NextMedia(); n != nil {
		next = styles.muted.Render("Up next: " + n.Title)
	}

	helpKeys := []key.Binding{m.keys.skip, m.keys.add, m.keys.exclude, m.keys.detail, m.keys.filters,
		m.keys.collection, m.keys.refresh, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", header, card, next, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDone() string {
	title := styles.ok.Render("✓ All done!")
	text := "You've reviewed everything that matches the current filters."
	helpKeys := []key.Binding{m.keys.reset, m.keys.refresh, m.keys.filters, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", title, text, m.help.ShortHelpView(helpKeys))
}

func (m *Model) cardWidth() int {
	if m.width <= 0 {
		return maxCardWidth
	}
	return max(min(m.width-8, maxCardWidth), 24)
}

// hint returns the decision a drag in progress is leaning toward.
func hint(p gesture.Pose) models.SwipeDirection {
	switch {
	case p.Y > gesture.SwipeThreshold/2 && p.Y > math.Abs(p.X):
		return models.SwipeDown
	case p.X > gesture.SwipeThreshold/2:
		return models.SwipeRight
	case p.X < -gesture.SwipeThreshold/2:
		return models.SwipeLeft
	}
	return models.SwipeNone
}

func (m *Model) directionColor(dir models.SwipeDirection) lipgloss.Color {
	switch dir {
	case models.SwipeRight:
		return styles.success
	case models.SwipeLeft:
		return styles.caution
	case models.SwipeDown:
		return styles.danger
	}
	return styles.dim
}

func (m *Model) renderCard(item models.MediaItem) string {
	pose := m.card.Pose()
	dir := m.card.Decision()
	if dir == models.SwipeNone {
		dir = hint(pose)
	}

	lines := []string{styles.title.UnsetMarginBottom().Render(item.Title)}

	meta := []string{}
	if item.Year > 0 {
		meta = append(meta, fmt.Sprint(item.Year))
	}
	if detail := formatter.MediaDetail(item); detail != "" {
		meta = append(meta, detail)
	}
	meta = append(meta, string(item.Type))
	lines = append(lines, styles.muted.Render(strings.Join(meta, " • ")))

	if len(item.Genres) > 0 {
		lines = append(lines, strings.Join(item.Genres, ", "))
	}
	lines = append(lines, "")
	if !item.AddedAt.IsZero() {
		lines = append(lines, "Added "+item.AddedAt.Local().Format(dateLayout))
	}
	if item.LastWatchedAt != nil {
		lines = append(lines, "Last watched "+item.LastWatchedAt.Local().Format(dateLayout))
	} else {
		lines = append(lines, styles.muted.Render("Never watched"))
	}
	if len(item.Collections) > 0 {
		names := make([]string, len(item.Collections))
		for i, c := range item.Collections {
			names[i] = c.Name
		}
		lines = append(lines, "In "+strings.Join(names, ", "))
	}
	if item.Overview != "" {
		lines = append(lines, "", truncate(item.Overview, 3*m.cardWidth()))
	}

	if dir != models.SwipeNone {
		lines = append([]string{styles.badgeOn(strings.ToUpper(dir.Action()), m.directionColor(dir))}, lines...)
	}

	style := styles.card.Width(m.cardWidth()).BorderForeground(m.directionColor(dir))
	if pose.Scale > 1 {
		style = style.Border(lipgloss.ThickBorder())
	}
	card := style.Render(strings.Join(lines, "\n"))

	// The card follows the pose in whole cells; rotation has no terminal equivalent.
	shiftX := int(pose.X / gesture.DefaultCellWidth)
	shiftY := max(int(pose.Y/gesture.DefaultCellHeight), 0)
	left := max((m.width-lipgloss.Width(card))/2+shiftX, 0)
	return lipgloss.NewStyle().MarginLeft(left).MarginTop(shiftY).Render(card)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func (m *Model) renderFilters() string {
	title := styles.title.Render("Filters")

	row := func(i int, label string, value string) string {
		cursor := "  "
		if m.filterRow == i {
			cursor = styles.ok.Render("› ")
		}
		return fmt.Sprintf("%s%-14s ‹ %s ›", cursor, label, value)
	}

	rows := []string{
		row(0, "Media type", string(m.filterDraft.MediaType)),
		row(1, "Sort by", sortLabel(m.filterDraft.SortBy)),
	}

	apply := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply"))
	helpKeys := []key.Binding{m.keys.up, m.keys.left, m.keys.right, apply, m.keys.back}
	return styles.overlay.Render(fmt.Sprintf("%s\n%s\n\n%s", title, strings.Join(rows, "\n"), m.help.ShortHelpView(helpKeys)))
}

func sortLabel(k models.SortKey) string {
	switch k {
	case models.SortLastWatched:
		return "least recently watched"
	case models.SortUncollected:
		return "fewest collections"
	default:
		return "oldest added"
	}
}

func (m *Model) renderDetail() string {
	item := m.session.CurrentMedia()
	if item == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%s (%d)", item.Title, item.Year)))
	b.WriteString("\n")
	if detail := formatter.MediaDetail(*item); detail != "" {
		fmt.Fprintf(&b, "%s\n", detail)
	}
	if len(item.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(item.Genres, ", "))
	}
	if item.TMDBID != nil {
		fmt.Fprintf(&b, "TMDB: %d\n", *item.TMDBID)
	}
	fmt.Fprintf(&b, "Plex ID: %s\n", item.PlexID)
	fmt.Fprintf(&b, "Poster: %s\n", m.session.PosterURL(*item))
	if item.Overview != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(m.cardWidth()).Render(item.Overview))
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.open, m.keys.back}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return styles.overlay.Render(b.String())
}
