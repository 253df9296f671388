package models

import (
	"fmt"
	"strings"
)

// MaxSlots is the fixed number of machine profile slots.
const MaxSlots = 5

// Field bounds, in characters.
const (
	MaxNameLen     = 31
	MaxSSIDLen     = 32
	MaxPasswordLen = 63
	MaxHostLen     = 127
)

const (
	// DefaultPort is the remote port used when none (or 0) is given.
	DefaultPort uint16 = 81
	// DefaultHost is offered for newly added profiles.
	DefaultHost = "fluidnc.local"
)

// ConnectionType is how the panel reaches the controlled machine.
// The numeric values are the persisted encoding.
type ConnectionType uint8

const (
	Wireless ConnectionType = 0
	Wired    ConnectionType = 1
)

// ConnectionFromUint8 decodes a persisted enum value. Anything other than
// Wired decodes as Wireless.
func ConnectionFromUint8(v uint8) ConnectionType {
	if ConnectionType(v) == Wired {
		return Wired
	}
	return Wireless
}

func (c ConnectionType) String() string {
	if c == Wired {
		return "wired"
	}
	return "wireless"
}

// MarshalText implements encoding.TextMarshaler.
func (c ConnectionType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ConnectionType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "wireless", "wifi":
		*c = Wireless
	case "wired", "usb":
		*c = Wired
	default:
		return fmt.Errorf("invalid connection type %q", string(b))
	}
	return nil
}

// MachineProfile is one slot's connection configuration. When Configured is
// false the remaining fields carry no meaning.
type MachineProfile struct {
	Name       string         `json:"name" toml:"name"`
	Connection ConnectionType `json:"connection_type" toml:"connection_type"`
	SSID       string         `json:"ssid" toml:"ssid"`
	Password   string         `json:"-" toml:"password,omitempty"`
	RemoteHost string         `json:"remote_host" toml:"remote_host"`
	RemotePort uint16         `json:"remote_port" toml:"remote_port"`
	Configured bool           `json:"configured" toml:"configured"`
}

// Default returns the type-default profile of an empty slot.
func Default() MachineProfile {
	return MachineProfile{
		Connection: Wireless,
		RemotePort: DefaultPort,
	}
}

// Normalize truncates the text fields to their bounds and replaces a zero
// port with DefaultPort.
func (p MachineProfile) Normalize() MachineProfile {
	p.Name = Truncate(p.Name, MaxNameLen)
	p.SSID = Truncate(p.SSID, MaxSSIDLen)
	p.Password = Truncate(p.Password, MaxPasswordLen)
	p.RemoteHost = Truncate(p.RemoteHost, MaxHostLen)
	if p.RemotePort == 0 {
		p.RemotePort = DefaultPort
	}
	return p
}

// IsWireless reports whether the SSID and password fields apply.
func (p MachineProfile) IsWireless() bool {
	return p.Connection == Wireless
}

// Truncate returns s cut to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ValidSlot reports whether i addresses one of the MaxSlots slots.
func ValidSlot(i int) bool {
	return i >= 0 && i < MaxSlots
}
