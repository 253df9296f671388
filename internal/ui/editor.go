package ui

import (
	"errors"
	"strconv"

	"github.com/tphummel/crowpanel/internal/models"
)

var (
	// ErrNameRequired is returned by Commit when the name input is empty.
	ErrNameRequired = errors.New("name is required")
	// ErrInputDisabled is returned when focusing a disabled input.
	ErrInputDisabled = errors.New("input is disabled")
	// ErrNotShown is returned for a key press with no keyboard shown.
	ErrNotShown = errors.New("keyboard is not shown")
)

// Field identifies one editor text input.
type Field int

const (
	FieldName Field = iota
	FieldSSID
	FieldPassword
	FieldHost
	FieldPort
	fieldCount
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldSSID:
		return "ssid"
	case FieldPassword:
		return "password"
	case FieldHost:
		return "host"
	case FieldPort:
		return "port"
	}
	return "unknown"
}

// Fields lists every input in form order.
func Fields() []Field {
	return []Field{FieldName, FieldSSID, FieldPassword, FieldHost, FieldPort}
}

// Input is a one-line text input with a length bound and an optional
// character filter.
type Input struct {
	Field  Field
	Label  string
	Secret bool

	value    []rune
	max      int
	accept   func(rune) bool
	disabled bool
	node     *Node
}

// Value returns the current text verbatim.
func (in *Input) Value() string { return string(in.value) }

// Max returns the length bound in characters.
func (in *Input) Max() int { return in.max }

// Disabled reports whether the input can take focus.
func (in *Input) Disabled() bool { return in.disabled }

// Node returns the input's layout node.
func (in *Input) Node() *Node { return in.node }

// SetValue replaces the text, dropping rejected characters and anything past
// the length bound.
func (in *Input) SetValue(s string) {
	in.value = in.value[:0]
	for _, r := range s {
		in.Insert(r)
	}
}

// Insert appends r if it is accepted and the bound leaves room.
func (in *Input) Insert(r rune) bool {
	if len(in.value) >= in.max {
		return false
	}
	if in.accept != nil && !in.accept(r) {
		return false
	}
	in.value = append(in.value, r)
	return true
}

// Backspace removes the last character.
func (in *Input) Backspace() bool {
	if len(in.value) == 0 {
		return false
	}
	in.value = in.value[:len(in.value)-1]
	return true
}

func digitsOnly(r rune) bool { return r >= '0' && r <= '9' }

// Editor is the modal add/edit form over one slot.
type Editor struct {
	slot       int
	isNew      bool
	connection models.ConnectionType
	inputs     [fieldCount]*Input
	content    *Node
	viewport   Viewport
	keyboard   *Overlay
	problem    string
}

// NewEditor returns an editor for slot. A new slot starts from the add-form
// defaults; otherwise the inputs hold p.
func NewEditor(slot int, p models.MachineProfile, isNew bool) *Editor {
	content, nodes := dialogLayout()
	e := &Editor{
		slot:     slot,
		isNew:    isNew,
		content:  content,
		viewport: restingViewport(),
	}
	e.inputs[FieldName] = &Input{Field: FieldName, Label: "Name:", max: models.MaxNameLen}
	e.inputs[FieldSSID] = &Input{Field: FieldSSID, Label: "WiFi SSID:", max: models.MaxSSIDLen}
	e.inputs[FieldPassword] = &Input{Field: FieldPassword, Label: "Password:", max: models.MaxPasswordLen, Secret: true}
	e.inputs[FieldHost] = &Input{Field: FieldHost, Label: "FluidNC URL:", max: models.MaxHostLen}
	e.inputs[FieldPort] = &Input{Field: FieldPort, Label: "Port:", max: 5, accept: digitsOnly}
	for f, in := range e.inputs {
		in.node = nodes[Field(f)]
	}

	if isNew {
		p = models.Default()
		p.RemoteHost = models.DefaultHost
	}
	e.inputs[FieldName].SetValue(p.Name)
	e.inputs[FieldSSID].SetValue(p.SSID)
	e.inputs[FieldPassword].SetValue(p.Password)
	e.inputs[FieldHost].SetValue(p.RemoteHost)
	e.inputs[FieldPort].SetValue(strconv.FormatUint(uint64(p.RemotePort), 10))
	e.SetConnection(p.Connection)
	return e
}

// Slot returns the slot being edited.
func (e *Editor) Slot() int { return e.slot }

// IsNew reports whether the slot was empty when the editor opened.
func (e *Editor) IsNew() bool { return e.isNew }

// Title is the dialog heading.
func (e *Editor) Title() string {
	if e.isNew {
		return "Add Machine"
	}
	return "Edit Machine"
}

// Input returns the input for f.
func (e *Editor) Input(f Field) *Input { return e.inputs[f] }

// Connection returns the dropdown selection.
func (e *Editor) Connection() models.ConnectionType { return e.connection }

// Content returns the root of the dialog's layout tree.
func (e *Editor) Content() *Node { return e.content }

// Viewport returns the dialog content's scroll state.
func (e *Editor) Viewport() Viewport { return e.viewport }

// Keyboard returns the shown keyboard, nil when hidden.
func (e *Editor) Keyboard() *Overlay { return e.keyboard }

// Problem returns the last validation message, empty when there is none.
func (e *Editor) Problem() string { return e.problem }

// SetConnection sets the dropdown and enables the credential inputs only for
// wireless. Their text is kept either way.
func (e *Editor) SetConnection(t models.ConnectionType) {
	e.connection = t
	wired := t == models.Wired
	e.inputs[FieldSSID].disabled = wired
	e.inputs[FieldPassword].disabled = wired
	if e.keyboard != nil && e.keyboard.target.disabled {
		e.dismissKeyboard()
	}
}

// Focus binds the keyboard to f, creating it on first use, and scrolls the
// input above it.
func (e *Editor) Focus(f Field) error {
	if f < 0 || f >= fieldCount {
		return errors.New("unknown input")
	}
	in := e.inputs[f]
	if in.disabled {
		return ErrInputDisabled
	}
	if e.keyboard == nil {
		e.keyboard = &Overlay{}
		e.viewport.Scrollable = true
		e.viewport.BottomPad = KeyboardHeight + KeyboardPadMargin
	}
	e.keyboard.bind(in)
	e.viewport.Scroll = scrollFor(in.node, e.content)
	return nil
}

// Press sends k to the keyboard. Enter and Cancel dismiss it.
func (e *Editor) Press(k Key) error {
	if e.keyboard == nil {
		return ErrNotShown
	}
	sig, changed := e.keyboard.press(k)
	if changed {
		e.problem = ""
	}
	if sig != SignalNone {
		e.dismissKeyboard()
	}
	return nil
}

// TapBody dismisses the keyboard, if shown.
func (e *Editor) TapBody() {
	e.dismissKeyboard()
}

func (e *Editor) dismissKeyboard() {
	e.keyboard = nil
	e.viewport = restingViewport()
}

// Close releases the keyboard. The editor is not used afterwards.
func (e *Editor) Close() {
	e.dismissKeyboard()
}

// Commit reads the form into a profile. Text is taken as entered, including
// credentials of a wired profile.
func (e *Editor) Commit() (models.MachineProfile, error) {
	name := e.inputs[FieldName].Value()
	if name == "" {
		e.problem = "Name is required"
		return models.MachineProfile{}, ErrNameRequired
	}
	e.problem = ""
	return models.MachineProfile{
		Name:       name,
		Connection: e.connection,
		SSID:       e.inputs[FieldSSID].Value(),
		Password:   e.inputs[FieldPassword].Value(),
		RemoteHost: e.inputs[FieldHost].Value(),
		RemotePort: ParsePort(e.inputs[FieldPort].Value()),
		Configured: true,
	}, nil
}

// ParsePort parses s as a decimal port. Anything that is not a number in
// 1..65535 yields models.DefaultPort.
func ParsePort(s string) uint16 {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil || v == 0 {
		return models.DefaultPort
	}
	return uint16(v)
}
