package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(Colors{
	Title:   "#7D56F4",
	OK:      "#04B575",
	Err:     "#FF4D4F",
	Warn:    "#FFA500",
	Help:    "#626262",
	Current: "#F25D94",
})

// Colors names the hex colors a [Palette] is built from.
type Colors struct {
	Title, OK, Err, Warn, Help, Current string
}

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	current lipgloss.Style
	header  lipgloss.Style
}

func NewPalette(c Colors) *Palette {
	return &Palette{
		title:   NewBold(c.Title).MarginBottom(1),
		ok:      NewBold(c.OK),
		err:     NewBold(c.Err),
		warn:    NewStyle(c.Warn),
		help:    NewEm(c.Help),
		current: NewBold(c.Current),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color(c.Title)).
			Padding(0, 1),
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
