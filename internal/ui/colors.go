package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF4672", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	muted lipgloss.Style

	card    lipgloss.Style
	badge   lipgloss.Style
	overlay lipgloss.Style

	accent, success, danger, caution, dim lipgloss.Color
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		muted: NewStyle(h),

		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(h)).
			Padding(1, 2),
		badge: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#FFFFFF")),
		overlay: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(t)).
			Padding(1, 2),

		accent:  lipgloss.Color(t),
		success: lipgloss.Color(s),
		danger:  lipgloss.Color(e),
		caution: lipgloss.Color(w),
		dim:     lipgloss.Color(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// badge renders a filled label in color c.
func (p *Palette) badgeOn(label string, c lipgloss.Color) string {
	return p.badge.Background(c).Render(label)
}
