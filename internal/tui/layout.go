package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// placeWithFooter pins the status and help lines to the bottom of the screen.
func (a *App) placeWithFooter(body, statusLine, footer string) string {
	if a.height == 0 {
		return body + "\n\n" + statusLine + "\n" + footer
	}
	contentHeight := max(1, a.height-2)
	if lipgloss.Height(body) >= contentHeight {
		return body + "\n" + statusLine + "\n" + footer
	}
	main := lipgloss.Place(a.width, contentHeight, lipgloss.Left, lipgloss.Top, body)
	// Full-width lines keep stale cells from the previous frame from showing.
	lines := splitLines(main)
	for i, line := range lines {
		lines[i] = padRight(line, a.width)
	}
	return strings.Join(lines, "\n") + "\n" + statusLine + "\n" + footer
}

// composeOverlay renders content as a centered modal over the base view.
func (a *App) composeOverlay(base, statusLine, footer, content string) string {
	baseView := a.placeWithFooter(base, statusLine, footer)
	if a.height == 0 || a.width == 0 {
		return baseView + "\n\n" + a.st.modal.Render(content)
	}
	inner := lipgloss.NewStyle().Width(min(60, max(20, a.width-10))).Render(content)
	modal := a.st.modal.Render(inner)
	lines := splitLines(modal)
	targetHeight := max(1, a.height-2)
	x := max(0, (a.width-maxLineWidth(lines))/2)
	y := max(0, (targetHeight-len(lines))/2)
	return overlayAt(baseView, modal, x, y, a.width, targetHeight)
}
