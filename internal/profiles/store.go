// Package profiles persists the fixed set of machine profile slots and the
// selected-slot pointer in a typed key-value store.
//
// Single-slot mutations load the whole array, replace one slot, and write the
// whole array back. That is only correct with a single writer. Writes are
// not transactional: a failure part way through SaveAll leaves the earlier
// keys written and the later ones stale.
package profiles

import (
	"errors"
	"fmt"

	"github.com/tphummel/crowpanel/internal/metrics"
	"github.com/tphummel/crowpanel/internal/models"
)

// ErrSlotOutOfRange is returned for any slot index outside [0, MaxSlots).
var ErrSlotOutOfRange = errors.New("slot index out of range")

// NoSelection is the selected index when no profile is active.
const NoSelection = -1

const selectedKey = "sel_machine"

// Slots is the full fixed-size profile array.
type Slots = [models.MaxSlots]models.MachineProfile

// KV is the persistent key-value store. Reads of absent keys return def.
type KV interface {
	GetBool(key string, def bool) (bool, error)
	GetString(key, def string) (string, error)
	GetUint8(key string, def uint8) (uint8, error)
	GetUint16(key string, def uint16) (uint16, error)
	GetInt32(key string, def int32) (int32, error)

	PutBool(key string, v bool) error
	PutString(key, v string) error
	PutUint8(key string, v uint8) error
	PutUint16(key string, v uint16) error
	PutInt32(key string, v int32) error
}

// Store reads and writes profiles through a KV. It holds no state of its own.
type Store struct {
	kv KV
}

// New returns a Store over kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func slotKey(i int, field string) string {
	return fmt.Sprintf("m%d_%s", i, field)
}

func checkSlot(i int) error {
	if !models.ValidSlot(i) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	return nil
}

// LoadAll reads every slot. An unconfigured slot is returned as
// models.Default() without reading its other keys.
func (s *Store) LoadAll() (Slots, error) {
	slots, err := s.loadAll()
	metrics.ObserveStoreOp("load_all", err)
	return slots, err
}

func (s *Store) loadAll() (Slots, error) {
	var slots Slots
	for i := range slots {
		p, err := s.loadSlot(i)
		if err != nil {
			return slots, fmt.Errorf("load slot %d: %w", i, err)
		}
		slots[i] = p
	}
	return slots, nil
}

func (s *Store) loadSlot(i int) (models.MachineProfile, error) {
	p := models.Default()

	cfg, err := s.kv.GetBool(slotKey(i, "cfg"), false)
	if err != nil || !cfg {
		return p, err
	}
	p.Configured = true

	if p.Name, err = s.kv.GetString(slotKey(i, "name"), ""); err != nil {
		return p, err
	}
	conn, err := s.kv.GetUint8(slotKey(i, "type"), uint8(models.Wireless))
	if err != nil {
		return p, err
	}
	p.Connection = models.ConnectionFromUint8(conn)
	if p.SSID, err = s.kv.GetString(slotKey(i, "ssid"), ""); err != nil {
		return p, err
	}
	if p.Password, err = s.kv.GetString(slotKey(i, "pwd"), ""); err != nil {
		return p, err
	}
	if p.RemoteHost, err = s.kv.GetString(slotKey(i, "url"), ""); err != nil {
		return p, err
	}
	if p.RemotePort, err = s.kv.GetUint16(slotKey(i, "port"), models.DefaultPort); err != nil {
		return p, err
	}
	return p, nil
}

// SaveAll writes every field of every slot, key by key. It stops at the
// first failed write.
func (s *Store) SaveAll(slots Slots) error {
	err := s.saveAll(slots)
	metrics.ObserveStoreOp("save_all", err)
	return err
}

func (s *Store) saveAll(slots Slots) error {
	for i, p := range slots {
		if err := s.saveSlot(i, p); err != nil {
			return fmt.Errorf("save slot %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) saveSlot(i int, p models.MachineProfile) error {
	if err := s.kv.PutBool(slotKey(i, "cfg"), p.Configured); err != nil {
		return err
	}
	if err := s.kv.PutString(slotKey(i, "name"), p.Name); err != nil {
		return err
	}
	if err := s.kv.PutUint8(slotKey(i, "type"), uint8(p.Connection)); err != nil {
		return err
	}
	if err := s.kv.PutString(slotKey(i, "ssid"), p.SSID); err != nil {
		return err
	}
	if err := s.kv.PutString(slotKey(i, "pwd"), p.Password); err != nil {
		return err
	}
	if err := s.kv.PutString(slotKey(i, "url"), p.RemoteHost); err != nil {
		return err
	}
	return s.kv.PutUint16(slotKey(i, "port"), p.RemotePort)
}

// Slot returns slot i, configured or not.
func (s *Store) Slot(i int) (models.MachineProfile, error) {
	if err := checkSlot(i); err != nil {
		metrics.ObserveStoreOp("get_slot", err)
		return models.MachineProfile{}, err
	}
	slots, err := s.loadAll()
	metrics.ObserveStoreOp("get_slot", err)
	if err != nil {
		return models.MachineProfile{}, err
	}
	return slots[i], nil
}

// SaveSlot replaces slot i with p and marks it configured, whatever
// p.Configured says. Text fields are cut to their bounds.
func (s *Store) SaveSlot(i int, p models.MachineProfile) error {
	err := s.mutate(i, func(slots *Slots) {
		p = p.Normalize()
		p.Configured = true
		slots[i] = p
	})
	metrics.ObserveStoreOp("save_slot", err)
	return err
}

// DeleteSlot resets slot i to the default, unconfigured profile.
func (s *Store) DeleteSlot(i int) error {
	err := s.mutate(i, func(slots *Slots) {
		slots[i] = models.Default()
	})
	metrics.ObserveStoreOp("delete_slot", err)
	return err
}

func (s *Store) mutate(i int, apply func(*Slots)) error {
	if err := checkSlot(i); err != nil {
		return err
	}
	slots, err := s.loadAll()
	if err != nil {
		return err
	}
	apply(&slots)
	return s.saveAll(slots)
}

// SelectedIndex returns the persisted selection, NoSelection when unset.
func (s *Store) SelectedIndex() (int, error) {
	v, err := s.kv.GetInt32(selectedKey, NoSelection)
	metrics.ObserveStoreOp("get_selected", err)
	if err != nil {
		return NoSelection, fmt.Errorf("load selection: %w", err)
	}
	return int(v), nil
}

// SetSelectedIndex persists i as the selection. i is not checked against
// the slot range.
func (s *Store) SetSelectedIndex(i int) error {
	err := s.kv.PutInt32(selectedKey, int32(i))
	metrics.ObserveStoreOp("set_selected", err)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// SelectedProfile returns the profile at the selected index. The slot may
// be unconfigured if the selection is stale.
func (s *Store) SelectedProfile() (models.MachineProfile, error) {
	i, err := s.SelectedIndex()
	if err != nil {
		return models.MachineProfile{}, err
	}
	return s.Slot(i)
}

// HasAnyConfigured reports whether at least one slot is configured.
func (s *Store) HasAnyConfigured() (bool, error) {
	slots, err := s.LoadAll()
	if err != nil {
		return false, err
	}
	for _, p := range slots {
		if p.Configured {
			return true, nil
		}
	}
	return false, nil
}

// CountByConnection counts configured slots by connection type and
// unconfigured slots under "empty".
func (s *Store) CountByConnection() (map[string]int, error) {
	slots, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{
		models.Wireless.String(): 0,
		models.Wired.String():    0,
		"empty":                  0,
	}
	for _, p := range slots {
		if !p.Configured {
			counts["empty"]++
			continue
		}
		counts[p.Connection.String()]++
	}
	return counts, nil
}
