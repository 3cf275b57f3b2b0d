package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/session"
	"github.com/jask/releasetour/internal/tour"
)

const appName = "Go Release Tour"

func (a *App) View() string {
	snap := a.machine.Snapshot()
	var body string
	if snap.State.Kind == session.KindWelcome {
		body = a.renderWelcome(snap)
	} else {
		body = a.renderTour(snap)
	}
	status := a.renderStatus(snap)
	footer := a.renderFooter(snap)
	switch a.modal {
	case modalVersions:
		return a.composeOverlay(body, status, footer, a.renderVersionPicker(snap))
	case modalFinder:
		return a.composeOverlay(body, status, footer, a.renderFinder(snap))
	}
	return a.placeWithFooter(body, status, footer)
}

func (a *App) renderWelcome(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(a.st.title.Render(appName) + "\n")
	b.WriteString(a.st.subtitle.Render("Hands-on lessons for every Go release since generics.") + "\n\n")
	for i, v := range snap.Versions {
		marker := "  "
		label := a.st.text.Render(v.Label)
		if i == a.cursor {
			marker = a.st.cursor.Render("▸ ")
			label = a.st.selected.Render(v.Label)
		}
		badge := lipgloss.NewStyle().Foreground(a.theme.badgeColor(v.Badge)).Render("[" + string(v.Badge) + "]")
		b.WriteString(marker + label + " " + badge + "\n")
		if i != a.cursor {
			continue
		}
		for _, h := range v.Highlights {
			b.WriteString("    " + a.st.stars.Render(tour.StarBar(h.Stars)) + " " + a.st.muted.Render(h.Title) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderTour(snap session.Snapshot) string {
	header := a.st.title.Render(fmt.Sprintf("%s · Go %s", appName, snap.State.Version))
	if snap.Loading {
		header += " " + a.spinner.View()
	}
	list := a.renderLessonList(snap)
	detail := a.renderDetail(snap)
	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
}

func (a *App) renderLessonList(snap session.Snapshot) string {
	width := a.listWidth()
	var b strings.Builder
	switch {
	case snap.Lessons == nil && snap.Loading:
		b.WriteString(a.st.muted.Render("Loading lessons…"))
	case len(snap.Lessons) == 0:
		b.WriteString(a.st.muted.Render("No lessons to show."))
	}
	for i, l := range snap.Lessons {
		marker := "  "
		title := fmt.Sprintf("%2d. %s", l.ID, l.Title)
		edited := " "
		if snap.Edited[l.ID] {
			edited = a.st.edited.Render("●")
		}
		stars := a.st.stars.Render(tour.StarBar(l.Stars))
		room := width - 4 - 2 - 2 - tour.MaxStars
		line := padRight(truncate(title, room), room)
		switch {
		case i == a.cursor && a.focus == focusList:
			marker = a.st.cursor.Render("▸ ")
			line = a.st.selected.Render(line)
		case snap.State.Kind == session.KindViewing && l.ID == snap.State.LessonID:
			line = a.st.selected.Render(line)
		default:
			line = a.st.text.Render(line)
		}
		b.WriteString(marker + line + edited + " " + stars)
		if i < len(snap.Lessons)-1 {
			b.WriteString("\n")
		}
	}
	style := a.st.pane
	if a.focus == focusList {
		style = a.st.focused
	}
	return style.Width(width).Render(b.String())
}

func (a *App) renderDetail(snap session.Snapshot) string {
	width := a.detailWidth()
	if snap.Lesson == nil {
		msg := "Pick a lesson to start."
		if snap.Loading {
			msg = a.spinner.View() + " Fetching the Go " + snap.State.Version + " catalog…"
		}
		return a.st.pane.Width(width).Render(a.st.muted.Render(msg))
	}
	l := snap.Lesson
	var b strings.Builder
	b.WriteString(a.st.title.Render(l.Title) + "  " + a.st.stars.Render(tour.StarBar(l.Stars)) + "\n")
	if l.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(width-4).Render(a.st.subtitle.Render(l.Description)) + "\n")
	}
	for _, p := range l.EnvPresets {
		line := a.st.info.Render(p.Name+"="+p.Value) + " " + a.st.muted.Render(p.Description)
		b.WriteString(truncate(line, width-4) + "\n")
	}
	if snap.Edited[l.ID] {
		b.WriteString(a.st.edited.Render("edited · ctrl+x restores the original") + "\n")
	}
	b.WriteString("\n")

	editorStyle := a.st.pane
	if a.focus == focusEditor {
		editorStyle = a.st.focused
	}
	b.WriteString(editorStyle.Render(a.editor.View()) + "\n")
	b.WriteString(a.renderResult(snap))
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (a *App) renderResult(snap session.Snapshot) string {
	if snap.Running {
		return a.spinner.View() + " " + a.st.muted.Render("Running…")
	}
	switch r := snap.Result.(type) {
	case service.Success:
		meta := []string{}
		if r.UsedVersion != "" {
			meta = append(meta, "Go "+r.UsedVersion)
		}
		if r.DetectedVersion != "" && r.DetectedVersion != r.UsedVersion {
			meta = append(meta, "detected "+r.DetectedVersion)
		}
		if r.ExecutionTime != "" {
			meta = append(meta, "exec "+r.ExecutionTime)
		}
		meta = append(meta, "round trip "+r.RoundTrip.String())
		return a.st.success.Render("Output") + " " + a.st.muted.Render(strings.Join(meta, " · ")) + "\n" +
			a.st.text.Render(strings.TrimRight(r.Output, "\n"))
	case service.Failure:
		out := a.st.error.Render("Error") + "\n" + a.st.text.Render(strings.TrimRight(r.ErrorMessage, "\n"))
		if r.PartialOutput != "" {
			out += "\n" + a.st.muted.Render("Output before the error:") + "\n" + a.st.text.Render(strings.TrimRight(r.PartialOutput, "\n"))
		}
		return out
	}
	return a.st.muted.Render("Press ctrl+r to run this lesson.")
}

func (a *App) renderVersionPicker(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(a.st.title.Render("Switch Go version") + "\n\n")
	for i, v := range snap.Versions {
		line := fmt.Sprintf("%-22s", v.Label)
		if v.Version == snap.Selector {
			line += " (current)"
		}
		if i == a.modalCursor {
			b.WriteString(a.st.cursor.Render("▸ ") + a.st.selected.Render(line) + "\n")
		} else {
			b.WriteString("  " + a.st.text.Render(line) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderFinder(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(a.st.title.Render("Find lesson") + "\n")
	b.WriteString(a.st.cursor.Render("> ") + a.st.text.Render(a.query) + a.st.muted.Render("_") + "\n\n")
	results := a.finderResults(snap)
	if len(results) == 0 {
		b.WriteString(a.st.muted.Render("No matches."))
		return b.String()
	}
	for i, l := range results {
		line := fmt.Sprintf("%2d. %s", l.ID, l.Title)
		if i == a.modalCursor {
			b.WriteString(a.st.cursor.Render("▸ ") + a.st.selected.Render(line))
		} else {
			b.WriteString("  " + a.st.text.Render(line))
		}
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a *App) renderStatus(snap session.Snapshot) string {
	switch {
	case snap.Banner != "":
		return a.st.warning.Render(snap.Banner)
	case a.status != "":
		return a.st.status.Render(a.status)
	}
	return a.st.status.Render(fmt.Sprintf("Go %s selected · theme %s", snap.Selector, a.theme.Name))
}

func (a *App) renderFooter(snap session.Snapshot) string {
	switch {
	case a.modal != modalNone:
		return a.help.ShortHelpView(a.keys.picker())
	case a.focus == focusEditor:
		return a.help.ShortHelpView(a.keys.editor())
	case snap.State.Kind == session.KindWelcome:
		return a.help.ShortHelpView(a.keys.welcome())
	}
	return a.help.ShortHelpView(a.keys.lessons())
}
