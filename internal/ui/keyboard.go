package ui

import "unicode"

// On-screen keyboard geometry.
const (
	KeyboardHeight       = 220
	KeyboardPadMargin    = 20
	VisibleAboveKeyboard = DialogHeight - KeyboardHeight
	ScrollMargin         = 15
)

// KeyKind distinguishes character keys from the control keys.
type KeyKind int

const (
	KeyChar KeyKind = iota
	KeyBackspace
	KeyEnter
	KeyCancel
)

// Key is one press on the keyboard. Rune is set for KeyChar only.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Char returns the character key for r.
func Char(r rune) Key { return Key{Kind: KeyChar, Rune: r} }

// Layout is the key set shown by the keyboard.
type Layout int

const (
	LayoutText Layout = iota
	LayoutNumeric
)

func (l Layout) String() string {
	if l == LayoutNumeric {
		return "numeric"
	}
	return "text"
}

// Rows returns the character keys of the layout, row by row.
func (l Layout) Rows() []string {
	if l == LayoutNumeric {
		return []string{"123", "456", "789", "0"}
	}
	return []string{"1234567890", "qwertyuiop", "asdfghjkl", "zxcvbnm.-_"}
}

func (l Layout) accepts(r rune) bool {
	if l == LayoutNumeric {
		return r >= '0' && r <= '9'
	}
	return unicode.IsPrint(r)
}

// Signal is what a key press asks of the dialog.
type Signal int

const (
	SignalNone Signal = iota
	SignalReady
	SignalCancel
)

// Overlay is the on-screen keyboard, bound to one input at a time.
type Overlay struct {
	layout Layout
	target *Input
}

// Layout returns the key set currently shown.
func (o *Overlay) Layout() Layout { return o.layout }

// Target returns the input that receives key presses.
func (o *Overlay) Target() *Input { return o.target }

func (o *Overlay) bind(in *Input) {
	o.target = in
	o.layout = LayoutText
	if in.Field == FieldPort {
		o.layout = LayoutNumeric
	}
}

// press applies k to the bound input. changed reports whether the text was
// modified.
func (o *Overlay) press(k Key) (sig Signal, changed bool) {
	switch k.Kind {
	case KeyEnter:
		return SignalReady, false
	case KeyCancel:
		return SignalCancel, false
	case KeyBackspace:
		return SignalNone, o.target.Backspace()
	case KeyChar:
		if !o.layout.accepts(k.Rune) {
			return SignalNone, false
		}
		return SignalNone, o.target.Insert(k.Rune)
	}
	return SignalNone, false
}

// Viewport is the scroll state of the dialog content.
type Viewport struct {
	Scroll     int
	Scrollable bool
	BottomPad  int
}

func restingViewport() Viewport {
	return Viewport{BottomPad: DialogPad}
}

// scrollFor returns the scroll that puts field just above the keyboard.
func scrollFor(field, content *Node) int {
	target := VisibleAboveKeyboard - field.H - ScrollMargin
	scroll := field.OffsetWithin(content) - target
	if scroll < 0 {
		return 0
	}
	return scroll
}
