// Package ui is the headless machine selection workflow: a list of profile
// slots, a modal editor over one slot, and an on-screen keyboard inside the
// editor. Front ends feed it Events and render its state.
package ui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
)

var (
	// ErrModalOpen is returned for a list event while the editor is open.
	ErrModalOpen = errors.New("editor dialog is open")
	// ErrNoDialog is returned for an editor event while the list is shown.
	ErrNoDialog = errors.New("no editor dialog is open")
	// ErrClosed is returned for any event before Show or after the session ends.
	ErrClosed = errors.New("selection screen is not active")
	// ErrActionUnavailable is returned when a row does not offer the action.
	ErrActionUnavailable = errors.New("action not available for this slot")
)

const (
	Title    = "Select Machine"
	Subtitle = "Choose or configure a CNC machine"
)

// State is the screen's top-level state.
type State int

const (
	StateIdle State = iota
	StateList
	StateEditDialog
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateList:
		return "list"
	case StateEditDialog:
		return "edit_dialog"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// KeyboardState is nested inside StateEditDialog.
type KeyboardState int

const (
	KeyboardHidden KeyboardState = iota
	KeyboardShown
)

// Store is the profile persistence the screen drives.
type Store interface {
	HasAnyConfigured() (bool, error)
	SeedDefaults() error
	LoadAll() (profiles.Slots, error)
	SaveSlot(i int, p models.MachineProfile) error
	DeleteSlot(i int) error
	SetSelectedIndex(i int) error
}

// Host takes over once a profile is chosen.
type Host interface {
	Activate(slot int, p models.MachineProfile)
}

// Observer is told about every state change.
type Observer interface {
	Transition(from, to string)
}

// Action is something a row offers.
type Action int

const (
	ActionSelect Action = iota
	ActionEdit
	ActionDelete
	ActionAdd
)

// Row is one rendered slot of the list.
type Row struct {
	Slot       int
	Label      string
	Configured bool
	Actions    []Action
}

// Offers reports whether the row has action a.
func (r Row) Offers(a Action) bool {
	for _, x := range r.Actions {
		if x == a {
			return true
		}
	}
	return false
}

const (
	symbolWireless = "\U0001F4F6"
	symbolWired    = "\U0001F50C"
	symbolAdd      = "+"
)

// ConnectionSymbol returns the row glyph for t.
func ConnectionSymbol(t models.ConnectionType) string {
	if t == models.Wired {
		return symbolWired
	}
	return symbolWireless
}

func buildRows(reg *Registry) []Row {
	rows := make([]Row, 0, reg.Len())
	for i := 0; i < reg.Len(); i++ {
		p, _ := reg.Slot(i)
		if p.Configured {
			rows = append(rows, Row{
				Slot:       i,
				Label:      ConnectionSymbol(p.Connection) + " " + p.Name,
				Configured: true,
				Actions:    []Action{ActionSelect, ActionEdit, ActionDelete},
			})
			continue
		}
		rows = append(rows, Row{
			Slot:    i,
			Label:   symbolAdd + " Add Machine",
			Actions: []Action{ActionAdd},
		})
	}
	return rows
}

// session is everything owned by one Show..Hide cycle.
type session struct {
	id       string
	registry *Registry
	rows     []Row
	editor   *Editor
}

// Screen is the machine selection state machine. It is not safe for
// concurrent use.
type Screen struct {
	store    Store
	host     Host
	observer Observer
	log      *slog.Logger

	state State
	sess  *session
}

// Option configures a Screen.
type Option func(*Screen)

// WithObserver reports state changes to o.
func WithObserver(o Observer) Option {
	return func(s *Screen) { s.observer = o }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Screen) { s.log = l }
}

// NewScreen returns an idle screen.
func NewScreen(store Store, host Host, opts ...Option) *Screen {
	s := &Screen{
		store: store,
		host:  host,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current top-level state.
func (s *Screen) State() State { return s.state }

// Keyboard returns the nested keyboard state.
func (s *Screen) Keyboard() KeyboardState {
	if s.sess != nil && s.sess.editor != nil && s.sess.editor.Keyboard() != nil {
		return KeyboardShown
	}
	return KeyboardHidden
}

// SessionID returns the id of the current session, empty when none.
func (s *Screen) SessionID() string {
	if s.sess == nil {
		return ""
	}
	return s.sess.id
}

// Rows returns the list as last rendered.
func (s *Screen) Rows() []Row {
	if s.sess == nil {
		return nil
	}
	return s.sess.rows
}

// Editor returns the open editor, nil outside StateEditDialog.
func (s *Screen) Editor() *Editor {
	if s.sess == nil {
		return nil
	}
	return s.sess.editor
}

// Registry returns the session's slots, nil when no session is active.
func (s *Screen) Registry() *Registry {
	if s.sess == nil {
		return nil
	}
	return s.sess.registry
}

func (s *Screen) setState(next State) {
	prev := s.state
	s.state = next
	if s.observer != nil && prev != next {
		s.observer.Transition(prev.String(), next.String())
	}
}

// Show starts a session: it seeds the built-in profiles into an empty store,
// loads every slot and renders the list.
func (s *Screen) Show() error {
	if s.sess != nil {
		s.release()
	}
	sess := &session{id: uuid.NewString()}
	log := s.log.With("session", sess.id)

	configured, err := s.store.HasAnyConfigured()
	if err != nil {
		log.Error("check configured slots", "error", err)
		return fmt.Errorf("check configured slots: %w", err)
	}
	if !configured {
		log.Info("seeding default profiles")
		if err := s.store.SeedDefaults(); err != nil {
			log.Error("seed default profiles", "error", err)
			return fmt.Errorf("seed defaults: %w", err)
		}
	}

	if err := s.reload(sess); err != nil {
		return err
	}
	s.sess = sess
	log.Info("selection screen shown")
	s.setState(StateList)
	return nil
}

// Hide ends the session and releases the registry, dialog and keyboard. It
// is safe in any state.
func (s *Screen) Hide() {
	s.release()
	if s.state != StateIdle {
		s.setState(StateClosed)
	}
}

func (s *Screen) release() {
	if s.sess == nil {
		return
	}
	if s.sess.editor != nil {
		s.sess.editor.Close()
	}
	s.sess = nil
}

func (s *Screen) reload(sess *session) error {
	slots, err := s.store.LoadAll()
	if err != nil {
		s.logger(sess).Error("load profiles", "error", err)
		return fmt.Errorf("load profiles: %w", err)
	}
	sess.registry = newRegistry(slots)
	sess.rows = buildRows(sess.registry)
	return nil
}

func (s *Screen) logger(sess *session) *slog.Logger {
	return s.log.With("session", sess.id)
}

// Handle dispatches one event.
func (s *Screen) Handle(ev Event) error {
	switch s.state {
	case StateIdle, StateClosed:
		return ErrClosed
	case StateList:
		if dialogEvent(ev) {
			return ErrNoDialog
		}
		return s.handleList(s.sess, ev)
	case StateEditDialog:
		if !dialogEvent(ev) {
			return ErrModalOpen
		}
		return s.handleDialog(s.sess, ev)
	}
	return ErrClosed
}

func (sess *session) row(slot int, a Action) (Row, error) {
	if !models.ValidSlot(slot) {
		return Row{}, fmt.Errorf("%w: %d", profiles.ErrSlotOutOfRange, slot)
	}
	r := sess.rows[slot]
	if !r.Offers(a) {
		return r, fmt.Errorf("%w: slot %d", ErrActionUnavailable, slot)
	}
	return r, nil
}

func (s *Screen) handleList(sess *session, ev Event) error {
	switch ev := ev.(type) {
	case SelectSlot:
		return s.selectSlot(sess, ev.Slot)
	case EditSlot:
		return s.openEditor(sess, ev.Slot, ActionEdit)
	case AddSlot:
		return s.openEditor(sess, ev.Slot, ActionAdd)
	case DeleteSlot:
		return s.deleteSlot(sess, ev.Slot)
	}
	return fmt.Errorf("unhandled event %T", ev)
}

func (s *Screen) selectSlot(sess *session, slot int) error {
	if _, err := sess.row(slot, ActionSelect); err != nil {
		return err
	}
	p, _ := sess.registry.Slot(slot)
	log := s.logger(sess)
	if err := s.store.SetSelectedIndex(slot); err != nil {
		log.Error("save selection", "slot", slot, "error", err)
		return err
	}
	log.Info("machine selected", "slot", slot, "name", p.Name)
	if s.host != nil {
		s.host.Activate(slot, p)
	}
	s.release()
	s.setState(StateClosed)
	return nil
}

func (s *Screen) openEditor(sess *session, slot int, a Action) error {
	if _, err := sess.row(slot, a); err != nil {
		return err
	}
	p, _ := sess.registry.Slot(slot)
	sess.editor = NewEditor(slot, p, !p.Configured)
	s.logger(sess).Debug("editor opened", "slot", slot, "new", !p.Configured)
	s.setState(StateEditDialog)
	return nil
}

func (s *Screen) deleteSlot(sess *session, slot int) error {
	if _, err := sess.row(slot, ActionDelete); err != nil {
		return err
	}
	log := s.logger(sess)
	if err := s.store.DeleteSlot(slot); err != nil {
		log.Error("delete profile", "slot", slot, "error", err)
		return err
	}
	log.Info("machine deleted", "slot", slot)
	return s.reload(sess)
}

func (s *Screen) handleDialog(sess *session, ev Event) error {
	e := sess.editor
	switch ev := ev.(type) {
	case FocusField:
		return e.Focus(ev.Field)
	case PressKey:
		return e.Press(ev.Key)
	case ChooseConnection:
		e.SetConnection(ev.Connection)
		return nil
	case TapBody:
		e.TapBody()
		return nil
	case SaveDialog:
		return s.save(sess)
	case CancelDialog:
		s.closeEditor(sess)
		return nil
	}
	return fmt.Errorf("unhandled event %T", ev)
}

func (s *Screen) save(sess *session) error {
	e := sess.editor
	p, err := e.Commit()
	if err != nil {
		return err
	}
	log := s.logger(sess)
	if err := s.store.SaveSlot(e.Slot(), p); err != nil {
		log.Error("save profile", "slot", e.Slot(), "error", err)
		return err
	}
	log.Info("machine saved", "slot", e.Slot(), "name", p.Name, "new", e.IsNew())
	s.closeEditor(sess)
	return s.reload(sess)
}

func (s *Screen) closeEditor(sess *session) {
	sess.editor.Close()
	sess.editor = nil
	s.setState(StateList)
}
