// Package tui drives the machine selection screen from a terminal. Keys and
// mouse clicks become ui events; the screen's state is rendered with lipgloss.
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/ui"
)

// control is one focusable element of the editor, in form order.
type control int

const (
	ctlName control = iota
	ctlConnection
	ctlSSID
	ctlPassword
	ctlHost
	ctlPort
	ctlSave
	ctlCancel
	controlCount
)

// field returns the text input behind c, if any.
func (c control) field() (ui.Field, bool) {
	switch c {
	case ctlName:
		return ui.FieldName, true
	case ctlSSID:
		return ui.FieldSSID, true
	case ctlPassword:
		return ui.FieldPassword, true
	case ctlHost:
		return ui.FieldHost, true
	case ctlPort:
		return ui.FieldPort, true
	}
	return 0, false
}

// Model is the bubbletea model over a shown ui.Screen.
type Model struct {
	screen *ui.Screen
	keys   keyMap
	help   help.Model

	cursor int
	focus  control
	status string

	width, height int
}

// New returns a model for screen. The caller calls screen.Show first.
func New(screen *ui.Screen) Model {
	return Model{
		screen: screen,
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.MouseMsg:
		// The terminal has no hit testing against the dialog's text inputs, so
		// every click counts as a tap on the dialog body and dismisses the
		// keyboard. Inputs are focused from the keyboard instead.
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft &&
			m.screen.State() == ui.StateEditDialog {
			m.handle(ui.TapBody{})
		}
		return m, nil

	case tea.KeyMsg:
		switch m.screen.State() {
		case ui.StateList:
			return m.updateList(msg)
		case ui.StateEditDialog:
			if m.screen.Keyboard() == ui.KeyboardShown {
				return m.updateKeyboard(msg)
			}
			return m.updateDialog(msg)
		}
		return m, tea.Quit
	}
	return m, nil
}

// handle sends ev to the screen. Only validation problems reach the status
// line; the screen logs everything else.
func (m *Model) handle(ev ui.Event) {
	err := m.screen.Handle(ev)
	m.status = ""
	if errors.Is(err, ui.ErrNameRequired) {
		if e := m.screen.Editor(); e != nil {
			m.status = e.Problem()
		}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.screen.Hide()
	return m, tea.Quit
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.screen.Rows()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		row := rows[m.cursor]
		if !row.Configured {
			m.openEditor(ui.AddSlot{Slot: row.Slot})
			break
		}
		m.handle(ui.SelectSlot{Slot: row.Slot})
		if m.screen.State() == ui.StateClosed {
			return m, tea.Quit
		}
	case key.Matches(msg, m.keys.Edit):
		if row := rows[m.cursor]; row.Configured {
			m.openEditor(ui.EditSlot{Slot: row.Slot})
		}
	case key.Matches(msg, m.keys.Delete):
		if row := rows[m.cursor]; row.Configured {
			m.handle(ui.DeleteSlot{Slot: row.Slot})
		}
	}
	return m, nil
}

func (m *Model) openEditor(ev ui.Event) {
	m.handle(ev)
	m.focus = ctlName
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m.quit()
	case key.Matches(msg, m.keys.Close):
		m.handle(ui.CancelDialog{})
	case key.Matches(msg, m.keys.Save):
		m.handle(ui.SaveDialog{})
	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(-1)
	case m.focus == ctlConnection && key.Matches(msg, m.keys.Toggle):
		m.toggleConnection()
	case key.Matches(msg, m.keys.Enter):
		m.activate()
	case msg.Type == tea.KeyRunes:
		// Typing into a text input opens the keyboard on it.
		if f, ok := m.focus.field(); ok {
			m.handle(ui.FocusField{Field: f})
			if m.screen.Keyboard() == ui.KeyboardShown {
				m.pressRunes(msg.Runes)
			}
		}
	}
	return m, nil
}

func (m Model) updateKeyboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m.quit()
	case key.Matches(msg, m.keys.Close):
		m.handle(ui.PressKey{Key: ui.Key{Kind: ui.KeyCancel}})
	case key.Matches(msg, m.keys.Enter):
		m.handle(ui.PressKey{Key: ui.Key{Kind: ui.KeyEnter}})
	case key.Matches(msg, m.keys.Back):
		m.handle(ui.PressKey{Key: ui.Key{Kind: ui.KeyBackspace}})
	case key.Matches(msg, m.keys.Save):
		m.handle(ui.SaveDialog{})
	case msg.Type == tea.KeyTab:
		m.moveFocus(1)
	case msg.Type == tea.KeyShiftTab:
		m.moveFocus(-1)
	case msg.Type == tea.KeySpace:
		m.pressRunes([]rune{' '})
	case msg.Type == tea.KeyRunes:
		m.pressRunes(msg.Runes)
	}
	return m, nil
}

func (m *Model) pressRunes(runes []rune) {
	for _, r := range runes {
		m.handle(ui.PressKey{Key: ui.Char(r)})
	}
}

// moveFocus steps to the next enabled control. With the keyboard shown it
// follows the focus to text inputs and is dismissed on anything else.
func (m *Model) moveFocus(dir int) {
	e := m.screen.Editor()
	next := m.focus
	for range controlCount {
		next = (next + control(dir) + controlCount) % controlCount
		if f, ok := next.field(); ok && e.Input(f).Disabled() {
			continue
		}
		break
	}
	m.focus = next

	if m.screen.Keyboard() != ui.KeyboardShown {
		return
	}
	if f, ok := next.field(); ok {
		m.handle(ui.FocusField{Field: f})
		return
	}
	m.handle(ui.TapBody{})
}

func (m *Model) toggleConnection() {
	next := models.Wired
	if m.screen.Editor().Connection() == models.Wired {
		next = models.Wireless
	}
	m.handle(ui.ChooseConnection{Connection: next})
}

func (m *Model) activate() {
	if f, ok := m.focus.field(); ok {
		m.handle(ui.FocusField{Field: f})
		return
	}
	switch m.focus {
	case ctlConnection:
		m.toggleConnection()
	case ctlSave:
		m.handle(ui.SaveDialog{})
	case ctlCancel:
		m.handle(ui.CancelDialog{})
	}
}
