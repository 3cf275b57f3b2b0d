package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/releasetour/internal/tour"
)

// Theme is one editor palette. Names are what gets persisted.
type Theme struct {
	Name    string
	Base    lipgloss.Color
	Surface lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Subtext lipgloss.Color
	Accent  lipgloss.Color
	Brand   lipgloss.Color
	Focus   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color
}

// Catppuccin palettes, https://catppuccin.com/palette
var themes = []Theme{
	{
		Name:    "mocha",
		Base:    "#1e1e2e",
		Surface: "#585b70",
		Muted:   "#7f849c",
		Text:    "#cdd6f4",
		Subtext: "#a6adc8",
		Accent:  "#f5c2e7",
		Brand:   "#cba6f7",
		Focus:   "#b4befe",
		Success: "#a6e3a1",
		Error:   "#f38ba8",
		Warning: "#f9e2af",
		Info:    "#94e2d5",
	},
	{
		Name:    "latte",
		Base:    "#eff1f5",
		Surface: "#acb0be",
		Muted:   "#8c8fa1",
		Text:    "#4c4f69",
		Subtext: "#6c6f85",
		Accent:  "#ea76cb",
		Brand:   "#8839ef",
		Focus:   "#7287fd",
		Success: "#40a02b",
		Error:   "#d20f39",
		Warning: "#df8e1d",
		Info:    "#179299",
	},
	{
		Name:    "frappe",
		Base:    "#303446",
		Surface: "#626880",
		Muted:   "#838ba7",
		Text:    "#c6d0f5",
		Subtext: "#a5adce",
		Accent:  "#f4b8e4",
		Brand:   "#ca9ee6",
		Focus:   "#babbf1",
		Success: "#a6d189",
		Error:   "#e78284",
		Warning: "#e5c890",
		Info:    "#81c8be",
	},
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// themeByName falls back to the first theme for unknown names.
func themeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

func nextTheme(name string) Theme {
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	text     lipgloss.Style
	muted    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	stars    lipgloss.Style
	edited   lipgloss.Style
	success  lipgloss.Style
	error    lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	pane     lipgloss.Style
	focused  lipgloss.Style
	modal    lipgloss.Style
	status   lipgloss.Style
	helpKey  lipgloss.Style
	helpDesc lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Foreground(t.Brand).Bold(true),
		subtitle: lipgloss.NewStyle().Foreground(t.Subtext).Italic(true),
		text:     lipgloss.NewStyle().Foreground(t.Text),
		muted:    lipgloss.NewStyle().Foreground(t.Muted),
		cursor:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		selected: lipgloss.NewStyle().Foreground(t.Focus).Bold(true),
		stars:    lipgloss.NewStyle().Foreground(t.Warning),
		edited:   lipgloss.NewStyle().Foreground(t.Accent),
		success:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		error:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		warning:  lipgloss.NewStyle().Foreground(t.Warning),
		info:     lipgloss.NewStyle().Foreground(t.Info),
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Surface).
			Padding(0, 1),
		focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Focus).
			Padding(0, 1),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(1, 2),
		status:   lipgloss.NewStyle().Foreground(t.Subtext),
		helpKey:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		helpDesc: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

func (t Theme) badgeColor(b tour.Badge) lipgloss.Color {
	switch b {
	case tour.BadgeLatest:
		return t.Success
	case tour.BadgeStable, tour.BadgeNew:
		return t.Info
	case tour.BadgeFoundation:
		return t.Focus
	case tour.BadgeImprovement:
		return t.Accent
	case tour.BadgeExperimental:
		return t.Warning
	case tour.BadgeBreakthrough:
		return t.Brand
	}
	return t.Muted
}
