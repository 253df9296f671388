package tui_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tphummel/crowpanel/internal/db"
	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
	"github.com/tphummel/crowpanel/internal/tui"
	"github.com/tphummel/crowpanel/internal/ui"
)

type recordingHost struct {
	slot    int
	profile *models.MachineProfile
}

func (h *recordingHost) Activate(slot int, p models.MachineProfile) {
	h.slot = slot
	h.profile = &p
}

func newTestModel(t *testing.T) (tui.Model, *ui.Screen, *profiles.Store, *recordingHost) {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	store := profiles.New(d.Prefs("crowpanel"))
	host := &recordingHost{}
	screen := ui.NewScreen(store, host)
	if err := screen.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	return tui.New(screen), screen, store, host
}

func send(m tui.Model, msgs ...tea.Msg) (tui.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(tui.Model)
	}
	return m, cmd
}

func keyType(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestListView(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	view := m.View()

	for _, want := range []string{"Select Machine", "V1E LowRider 3", "Pen Plotter", "Yeagbot", "Test Wired Machine", "Add Machine"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestSelect_QuitsAndActivates(t *testing.T) {
	m, screen, store, host := newTestModel(t)

	_, cmd := send(m, keyType(tea.KeyDown), keyType(tea.KeyEnter))

	if !isQuit(cmd) {
		t.Error("selecting a machine should quit")
	}
	if screen.State() != ui.StateClosed {
		t.Errorf("state: got %v, want closed", screen.State())
	}
	if host.profile == nil || host.slot != 1 || host.profile.Name != "Pen Plotter" {
		t.Errorf("activated: slot %d profile %+v", host.slot, host.profile)
	}
	if idx, _ := store.SelectedIndex(); idx != 1 {
		t.Errorf("selected index: got %d, want 1", idx)
	}
}

func TestEditAndSave(t *testing.T) {
	m, screen, store, _ := newTestModel(t)

	m, _ = send(m, keyType(tea.KeyDown), keyType(tea.KeyDown), runes("e"))
	if screen.State() != ui.StateEditDialog {
		t.Fatalf("state: got %v, want edit_dialog", screen.State())
	}

	// Enter on the name input shows the keyboard.
	m, _ = send(m, keyType(tea.KeyEnter))
	if screen.Keyboard() != ui.KeyboardShown {
		t.Fatal("keyboard not shown")
	}
	for range "Yeagbot" {
		m, _ = send(m, keyType(tea.KeyBackspace))
	}
	m, _ = send(m, runes("Router"), keyType(tea.KeyEnter))
	if screen.Keyboard() != ui.KeyboardHidden {
		t.Fatal("enter should dismiss the keyboard")
	}

	// Down to the connection dropdown, toggle to wired, save.
	_, _ = send(m, keyType(tea.KeyTab), keyType(tea.KeyRight), keyType(tea.KeyCtrlS))

	if screen.State() != ui.StateList {
		t.Fatalf("state after save: got %v, want list", screen.State())
	}
	got, _ := store.Slot(2)
	if got.Name != "Router" || got.Connection != models.Wired || !got.Configured {
		t.Errorf("slot 2: got %+v", got)
	}
}

func TestAdd_EmptyNameShowsProblem(t *testing.T) {
	m, screen, _, _ := newTestModel(t)

	m, _ = send(m,
		keyType(tea.KeyDown), keyType(tea.KeyDown), keyType(tea.KeyDown), keyType(tea.KeyDown),
		keyType(tea.KeyEnter),
	)
	if screen.State() != ui.StateEditDialog || !screen.Editor().IsNew() {
		t.Fatalf("expected the add dialog, state %v", screen.State())
	}
	if !strings.Contains(m.View(), "Add Machine") {
		t.Error("dialog title missing")
	}

	m, _ = send(m, keyType(tea.KeyCtrlS))
	if screen.State() != ui.StateEditDialog {
		t.Fatal("dialog closed with an empty name")
	}
	if !strings.Contains(m.View(), "Name is required") {
		t.Error("validation problem not shown")
	}

	// Typing on the focused name input opens the keyboard and clears the problem.
	m, _ = send(m, runes("Z"))
	if screen.Keyboard() != ui.KeyboardShown {
		t.Error("typing should show the keyboard")
	}
	if strings.Contains(m.View(), "Name is required") {
		t.Error("problem still shown after editing")
	}
}

func TestCancel(t *testing.T) {
	m, screen, store, _ := newTestModel(t)
	before, _ := store.LoadAll()

	m, _ = send(m, runes("e"), runes("xyz"))
	if screen.Keyboard() != ui.KeyboardShown {
		t.Fatal("keyboard not shown")
	}
	// Escape dismisses the keyboard first, then the dialog.
	_, _ = send(m, keyType(tea.KeyEsc), keyType(tea.KeyEsc))

	if screen.State() != ui.StateList {
		t.Errorf("state: got %v, want list", screen.State())
	}
	after, _ := store.LoadAll()
	if before != after {
		t.Error("cancel persisted changes")
	}
}

func TestMouseClickDismissesKeyboard(t *testing.T) {
	m, screen, _, _ := newTestModel(t)

	m, _ = send(m, runes("e"), keyType(tea.KeyEnter))
	if screen.Keyboard() != ui.KeyboardShown {
		t.Fatal("keyboard not shown")
	}
	_, _ = send(m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 1, Y: 1})
	if screen.Keyboard() != ui.KeyboardHidden {
		t.Error("click should dismiss the keyboard")
	}
}

func TestMouseOnlyLeftPressTapsBody(t *testing.T) {
	m, screen, _, _ := newTestModel(t)

	m, _ = send(m, runes("e"), keyType(tea.KeyEnter))
	for _, msg := range []tea.MouseMsg{
		{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
		{Action: tea.MouseActionPress, Button: tea.MouseButtonRight},
		{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone},
	} {
		m, _ = send(m, msg)
		if screen.Keyboard() != ui.KeyboardShown {
			t.Fatalf("%+v dismissed the keyboard", msg)
		}
	}
}

func TestTabSkipsDisabledInputs(t *testing.T) {
	m, screen, _, _ := newTestModel(t)

	// Slot 3 is the wired machine.
	m, _ = send(m, keyType(tea.KeyDown), keyType(tea.KeyDown), keyType(tea.KeyDown), runes("e"))
	if screen.Editor().Connection() != models.Wired {
		t.Fatal("slot 3 should be wired")
	}
	// name -> connection -> host (ssid and password are disabled)
	m, _ = send(m, keyType(tea.KeyTab), keyType(tea.KeyTab), keyType(tea.KeyEnter))
	kb := screen.Editor().Keyboard()
	if kb == nil || kb.Target().Field != ui.FieldHost {
		t.Fatalf("keyboard target: got %+v", kb)
	}

	// Tab to the port input rebinds the same keyboard with the numeric layout.
	_, _ = send(m, keyType(tea.KeyTab))
	if screen.Editor().Keyboard() != kb || kb.Layout() != ui.LayoutNumeric {
		t.Error("port should reuse the keyboard with the numeric layout")
	}
}

func TestQuit(t *testing.T) {
	m, screen, _, _ := newTestModel(t)
	_, cmd := send(m, runes("q"))
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if screen.State() != ui.StateClosed {
		t.Errorf("state: got %v, want closed", screen.State())
	}
}
