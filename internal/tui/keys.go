package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Edit   key.Binding
	Delete key.Binding
	Next   key.Binding
	Prev   key.Binding
	Toggle key.Binding
	Save   key.Binding
	Close  key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Toggle: key.NewBinding(key.WithKeys("left", "right", " "), key.WithHelp("←/→", "connection")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Back:   key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "delete char")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// listKeys is the help shown under the machine list.
type listKeys struct{ keyMap }

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Edit, k.Delete, k.Quit}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// dialogKeys is the help shown under the editor.
type dialogKeys struct{ keyMap }

func (k dialogKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Enter, k.Toggle, k.Save, k.Close}
}

func (k dialogKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
