package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Home      key.Binding
	Versions  key.Binding
	Find      key.Binding
	Theme     key.Binding
	Focus     key.Binding
	Run       key.Binding
	Reset     key.Binding
	Reload    key.Binding
	Close     key.Binding
	Interrupt key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Interrupt: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Home:      key.NewBinding(key.WithKeys("h", "ctrl+h"), key.WithHelp("h", "home")),
		Versions:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "version")),
		Find:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "editor")),
		Run:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "run")),
		Reset:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "reset code")),
		Reload:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "reload")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (k keyMap) welcome() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Versions, k.Theme, k.Reload, k.Quit}
}

func (k keyMap) lessons() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Focus, k.Run, k.Find, k.Versions, k.Home, k.Reload, k.Quit}
}

func (k keyMap) editor() []key.Binding {
	leave := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc/tab", "leave editor"))
	return []key.Binding{k.Run, k.Reset, leave, k.Interrupt}
}

func (k keyMap) picker() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		k.Select,
		k.Close,
	}
}
