package ui

import (
	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
)

// Registry is the in-memory copy of every slot for one screen session.
// Rows are built from it and it is reloaded after each store mutation.
type Registry struct {
	slots profiles.Slots
}

func newRegistry(slots profiles.Slots) *Registry {
	return &Registry{slots: slots}
}

// Slot returns slot i. ok is false when i is outside the slot range.
func (r *Registry) Slot(i int) (p models.MachineProfile, ok bool) {
	if !models.ValidSlot(i) {
		return models.MachineProfile{}, false
	}
	return r.slots[i], true
}

// Len is always models.MaxSlots.
func (r *Registry) Len() int {
	return len(r.slots)
}
