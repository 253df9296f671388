package ui

import "github.com/tphummel/crowpanel/internal/models"

// Event is one discrete operator action. Events that target a slot carry
// the slot index.
type Event interface {
	event()
}

// SelectSlot activates a configured slot and ends the session.
type SelectSlot struct{ Slot int }

// EditSlot opens the editor on a configured slot.
type EditSlot struct{ Slot int }

// AddSlot opens the editor on an empty slot.
type AddSlot struct{ Slot int }

// DeleteSlot resets a configured slot to the empty profile.
type DeleteSlot struct{ Slot int }

// FocusField gives focus to one of the editor inputs.
type FocusField struct{ Field Field }

// PressKey is a key on the on-screen keyboard.
type PressKey struct{ Key Key }

// ChooseConnection is a change of the connection type dropdown.
type ChooseConnection struct{ Connection models.ConnectionType }

// TapBody is a pointer action on the dialog body outside any text input.
type TapBody struct{}

// SaveDialog is the editor's Save button.
type SaveDialog struct{}

// CancelDialog is the editor's Cancel button.
type CancelDialog struct{}

func (SelectSlot) event()       {}
func (EditSlot) event()         {}
func (AddSlot) event()          {}
func (DeleteSlot) event()       {}
func (FocusField) event()       {}
func (PressKey) event()         {}
func (ChooseConnection) event() {}
func (TapBody) event()          {}
func (SaveDialog) event()       {}
func (CancelDialog) event()     {}

// dialogEvent reports whether ev is only meaningful while the editor is open.
func dialogEvent(ev Event) bool {
	switch ev.(type) {
	case FocusField, PressKey, ChooseConnection, TapBody, SaveDialog, CancelDialog:
		return true
	}
	return false
}
