// Package tui renders the tour in the terminal and turns key presses into
// session actions.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/releasetour/internal/logger"
	"github.com/jask/releasetour/internal/prefs"
	"github.com/jask/releasetour/internal/service"
	"github.com/jask/releasetour/internal/session"
	"github.com/jask/releasetour/internal/tour"
)

const finderLimit = 8

type focusArea int

const (
	focusList focusArea = iota
	focusEditor
)

type modalState string

const (
	modalNone     modalState = ""
	modalVersions modalState = "versions"
	modalFinder   modalState = "finder"
)

// actionMsg carries the completion of a session command back into Update.
type actionMsg struct{ action session.Action }

type themeMsg string

type statusMsg string

type errMsg struct{ error }

type Options struct {
	Machine *session.Machine
	Prefs   *prefs.Prefs
	Logger  *logger.Logger
	// Theme is used until the saved preference has loaded.
	Theme string
}

// App is the bubbletea model.
type App struct {
	ctx     context.Context
	machine *session.Machine
	prefs   *prefs.Prefs
	log     *logger.Logger

	keys    keyMap
	help    help.Model
	editor  textarea.Model
	spinner spinner.Model
	theme   Theme
	st      styles

	width  int
	height int
	focus  focusArea
	cursor int
	shown  session.State
	code   string // last code pushed into the editor
	status string

	modal       modalState
	modalCursor int
	query       string
}

func New(ctx context.Context, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Prompt = ""
	editor.Cursor.SetMode(cursor.CursorStatic)
	editor.Blur()

	a := &App{
		ctx:     ctx,
		machine: opts.Machine,
		prefs:   opts.Prefs,
		log:     log.With("component", "tui"),
		keys:    newKeyMap(),
		help:    help.New(),
		editor:  editor,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		shown:   opts.Machine.State(),
	}
	a.applyTheme(opts.Theme)
	a.resize()
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.lift(a.machine.Init()), a.loadTheme(), a.spinner.Tick)
}

func (a *App) loadTheme() tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	fallback := a.theme.Name
	return func() tea.Msg {
		name, err := a.prefs.Theme(a.ctx, fallback)
		if err != nil {
			return errMsg{err}
		}
		return themeMsg(name)
	}
}

// lift wraps session commands so their actions come back through Update.
func (a *App) lift(cmds []session.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	out := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, func() tea.Msg { return actionMsg{c()} })
	}
	return tea.Batch(out...)
}

func (a *App) dispatch(action session.Action) tea.Cmd {
	cmd := a.lift(a.machine.Handle(action))
	a.sync()
	return cmd
}

// sync realigns the editor and the cursors with the machine after a transition.
func (a *App) sync() {
	snap := a.machine.Snapshot()
	if snap.State == a.shown {
		if snap.Code != a.code {
			a.setEditor(snap.Code)
		}
		a.cursor = min(a.cursor, max(0, a.listLen(snap)-1))
		return
	}
	a.shown = snap.State
	a.setEditor(snap.Code)
	a.cursor = 0
	switch snap.State.Kind {
	case session.KindWelcome:
		a.blurEditor()
		for i, v := range snap.Versions {
			if v.Version == snap.Selector {
				a.cursor = i
			}
		}
	case session.KindBrowsing:
		a.blurEditor()
	case session.KindViewing:
		for i, l := range snap.Lessons {
			if l.ID == snap.State.LessonID {
				a.cursor = i
			}
		}
	}
}

func (a *App) setEditor(code string) {
	a.code = code
	a.editor.SetValue(code)
}

func (a *App) listLen(snap session.Snapshot) int {
	if snap.State.Kind == session.KindWelcome {
		return len(snap.Versions)
	}
	return len(snap.Lessons)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.resize()
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case actionMsg:
		return a, a.dispatch(m.action)
	case themeMsg:
		a.applyTheme(string(m))
		return a, nil
	case statusMsg:
		a.status = string(m)
		return a, nil
	case errMsg:
		a.log.Warn("ui command failed", "error", m.error)
		a.status = m.Error()
		return a, nil
	case tea.KeyMsg:
		if key.Matches(m, a.keys.Interrupt) {
			return a, tea.Quit
		}
		if a.modal != modalNone {
			return a, a.handleModalKey(m)
		}
		if a.focus == focusEditor {
			return a, a.handleEditorKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.machine.Snapshot()
	a.status = ""
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.cursor < a.listLen(snap)-1 {
			a.cursor++
		}
	case key.Matches(m, a.keys.Select):
		return a, a.openAtCursor(snap)
	case key.Matches(m, a.keys.Home):
		return a, a.dispatch(session.ReturnToCatalog{})
	case key.Matches(m, a.keys.Versions):
		a.openModal(modalVersions, snap)
	case key.Matches(m, a.keys.Find):
		if snap.State.Kind != session.KindWelcome {
			a.openModal(modalFinder, snap)
		}
	case key.Matches(m, a.keys.Theme):
		return a, a.cycleTheme()
	case key.Matches(m, a.keys.Reload):
		return a, a.dispatch(session.Reload{})
	case key.Matches(m, a.keys.Run):
		return a, a.dispatch(session.Run{})
	case key.Matches(m, a.keys.Reset):
		return a, a.dispatch(session.ResetCode{})
	case key.Matches(m, a.keys.Focus):
		if snap.State.Kind == session.KindViewing {
			a.focus = focusEditor
			return a, a.editor.Focus()
		}
	}
	return a, nil
}

func (a *App) openAtCursor(snap session.Snapshot) tea.Cmd {
	if snap.State.Kind == session.KindWelcome {
		if a.cursor >= len(snap.Versions) {
			return nil
		}
		return a.dispatch(session.StartVersion{Version: snap.Versions[a.cursor].Version})
	}
	if a.cursor >= len(snap.Lessons) {
		return nil
	}
	return a.dispatch(session.SelectLesson{Version: snap.State.Version, LessonID: snap.Lessons[a.cursor].ID})
}

func (a *App) handleEditorKey(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, a.keys.Close), key.Matches(m, a.keys.Focus):
		a.blurEditor()
		return nil
	case key.Matches(m, a.keys.Run):
		return a.dispatch(session.Run{})
	case key.Matches(m, a.keys.Reset):
		return a.dispatch(session.ResetCode{})
	case key.Matches(m, a.keys.Reload):
		return a.dispatch(session.Reload{})
	}
	before := a.editor.Value()
	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(m)
	if v := a.editor.Value(); v != before {
		a.code = v
		return tea.Batch(cmd, a.dispatch(session.EditCode{Code: v}))
	}
	return cmd
}

func (a *App) blurEditor() {
	a.focus = focusList
	a.editor.Blur()
}

func (a *App) openModal(kind modalState, snap session.Snapshot) {
	a.modal = kind
	a.modalCursor = 0
	a.query = ""
	if kind == modalVersions {
		for i, v := range snap.Versions {
			if v.Version == snap.Selector {
				a.modalCursor = i
			}
		}
	}
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.modalCursor = 0
	a.query = ""
}

func (a *App) handleModalKey(m tea.KeyMsg) tea.Cmd {
	snap := a.machine.Snapshot()
	count := len(snap.Versions)
	if a.modal == modalFinder {
		count = len(a.finderResults(snap))
	}
	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
		return nil
	case tea.KeyUp, tea.KeyCtrlP:
		if a.modalCursor > 0 {
			a.modalCursor--
		}
		return nil
	case tea.KeyDown, tea.KeyCtrlN:
		if a.modalCursor < count-1 {
			a.modalCursor++
		}
		return nil
	case tea.KeyEnter:
		return a.chooseModal(snap)
	}

	if a.modal == modalVersions {
		switch m.String() {
		case "k":
			if a.modalCursor > 0 {
				a.modalCursor--
			}
		case "j":
			if a.modalCursor < count-1 {
				a.modalCursor++
			}
		}
		return nil
	}
	switch m.Type {
	case tea.KeyBackspace:
		if r := []rune(a.query); len(r) > 0 {
			a.query = string(r[:len(r)-1])
		}
		a.modalCursor = 0
	case tea.KeyRunes, tea.KeySpace:
		a.query += string(m.Runes)
		a.modalCursor = 0
	}
	return nil
}

func (a *App) chooseModal(snap session.Snapshot) tea.Cmd {
	defer a.closeModal()
	if a.modal == modalVersions {
		if a.modalCursor >= len(snap.Versions) {
			return nil
		}
		v := snap.Versions[a.modalCursor].Version
		if snap.State.Kind == session.KindWelcome {
			return a.dispatch(session.StartVersion{Version: v})
		}
		return a.dispatch(session.SwitchVersion{Version: v})
	}
	results := a.finderResults(snap)
	if a.modalCursor >= len(results) {
		return nil
	}
	l := results[a.modalCursor]
	return a.dispatch(session.SelectLesson{Version: l.Version, LessonID: l.ID})
}

func (a *App) finderResults(snap session.Snapshot) []tour.Lesson {
	return service.SearchLessons(snap.Lessons, strings.TrimSpace(a.query), finderLimit)
}

func (a *App) cycleTheme() tea.Cmd {
	next := nextTheme(a.theme.Name)
	a.applyTheme(next.Name)
	a.status = "theme: " + next.Name
	if a.prefs == nil {
		return nil
	}
	return func() tea.Msg {
		if err := a.prefs.SetTheme(a.ctx, next.Name); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) applyTheme(name string) {
	a.theme = themeByName(name)
	a.st = newStyles(a.theme)
	a.spinner.Style = a.st.cursor
	a.help.Styles.ShortKey = a.st.helpKey
	a.help.Styles.ShortDesc = a.st.helpDesc
	a.help.Styles.ShortSeparator = a.st.muted
	a.editor.FocusedStyle.Text = a.st.text
	a.editor.FocusedStyle.LineNumber = a.st.muted
	a.editor.FocusedStyle.CursorLine = a.st.text.Bold(true)
	a.editor.BlurredStyle.Text = a.st.subtitle.Italic(false)
	a.editor.BlurredStyle.LineNumber = a.st.muted
}

func (a *App) resize() {
	if a.width == 0 || a.height == 0 {
		a.editor.SetWidth(72)
		a.editor.SetHeight(14)
		return
	}
	a.help.Width = a.width
	a.editor.SetWidth(max(20, a.detailWidth()-4))
	a.editor.SetHeight(max(5, a.height/2-4))
}

func (a *App) listWidth() int {
	if a.width == 0 {
		return 36
	}
	return min(40, max(24, a.width/3))
}

func (a *App) detailWidth() int {
	if a.width == 0 {
		return 80
	}
	return max(30, a.width-a.listWidth()-1)
}
