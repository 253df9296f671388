package profiles

import (
	"github.com/tphummel/crowpanel/internal/metrics"
	"github.com/tphummel/crowpanel/internal/models"
)

// DefaultSlots is the built-in set written on first use. The last slot is
// left empty.
func DefaultSlots() Slots {
	wireless := func(name string) models.MachineProfile {
		return models.MachineProfile{
			Name:       name,
			Connection: models.Wireless,
			RemoteHost: models.DefaultHost,
			RemotePort: models.DefaultPort,
			Configured: true,
		}
	}

	var slots Slots
	slots[0] = wireless("V1E LowRider 3")
	slots[1] = wireless("Pen Plotter")
	slots[2] = wireless("Yeagbot")
	slots[3] = models.MachineProfile{
		Name:       "Test Wired Machine",
		Connection: models.Wired,
		RemotePort: models.DefaultPort,
		Configured: true,
	}
	slots[4] = models.Default()
	return slots
}

// SeedDefaults overwrites every slot with DefaultSlots. Callers gate it on
// HasAnyConfigured so it runs once per store.
func (s *Store) SeedDefaults() error {
	err := s.saveAll(DefaultSlots())
	metrics.ObserveStoreOp("seed_defaults", err)
	return err
}
