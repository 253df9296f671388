package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MaxKeyLen is the longest key the preference store accepts. It matches the
// NVS key limit on the panel hardware so the key layout stays portable.
const MaxKeyLen = 15

// ErrKeyTooLong is returned when a key exceeds MaxKeyLen.
var ErrKeyTooLong = errors.New("preference key too long")

// kind tags the type a value was written with. A typed read of a key stored
// under another kind yields the caller's default.
type kind string

const (
	kindBool   kind = "bool"
	kindUint8  kind = "u8"
	kindUint16 kind = "u16"
	kindInt32  kind = "i32"
	kindString kind = "str"
)

// Prefs is a namespaced, typed key-value store backed by the prefs table.
type Prefs struct {
	conn      *sql.DB
	namespace string
}

// Namespace returns the namespace this view reads and writes.
func (p *Prefs) Namespace() string {
	return p.namespace
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("empty preference key")
	}
	if len(key) > MaxKeyLen {
		return fmt.Errorf("%w: %q", ErrKeyTooLong, key)
	}
	return nil
}

// get returns the raw value for key, and ok=false when the key is absent or
// was stored with a different kind.
func (p *Prefs) get(key string, want kind) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	var k, value string
	err := p.conn.QueryRow(
		`SELECT kind, value FROM prefs WHERE namespace = ? AND key = ?`,
		p.namespace, key,
	).Scan(&k, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", p.namespace, key, err)
	}
	if kind(k) != want {
		return "", false, nil
	}
	return value, true, nil
}

func (p *Prefs) put(key string, k kind, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := p.conn.Exec(`
		INSERT INTO prefs (namespace, key, kind, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE
		SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`,
		p.namespace, key, string(k), value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", p.namespace, key, err)
	}
	return nil
}

func (p *Prefs) getInt(key string, k kind, bits int, def int64) (int64, error) {
	raw, ok, err := p.get(key, k)
	if err != nil || !ok {
		return def, err
	}
	var n int64
	if k == kindInt32 {
		n, err = strconv.ParseInt(raw, 10, bits)
	} else {
		var u uint64
		u, err = strconv.ParseUint(raw, 10, bits)
		n = int64(u)
	}
	if err != nil {
		return def, fmt.Errorf("decode %s/%s: %w", p.namespace, key, err)
	}
	return n, nil
}

// GetBool returns the bool stored at key, or def.
func (p *Prefs) GetBool(key string, def bool) (bool, error) {
	raw, ok, err := p.get(key, kindBool)
	if err != nil || !ok {
		return def, err
	}
	return raw == "1", nil
}

// PutBool stores v at key.
func (p *Prefs) PutBool(key string, v bool) error {
	value := "0"
	if v {
		value = "1"
	}
	return p.put(key, kindBool, value)
}

// GetString returns the string stored at key, or def.
func (p *Prefs) GetString(key, def string) (string, error) {
	raw, ok, err := p.get(key, kindString)
	if err != nil || !ok {
		return def, err
	}
	return raw, nil
}

// PutString stores v at key.
func (p *Prefs) PutString(key, v string) error {
	return p.put(key, kindString, v)
}

// GetUint8 returns the uint8 stored at key, or def.
func (p *Prefs) GetUint8(key string, def uint8) (uint8, error) {
	n, err := p.getInt(key, kindUint8, 8, int64(def))
	return uint8(n), err
}

// PutUint8 stores v at key.
func (p *Prefs) PutUint8(key string, v uint8) error {
	return p.put(key, kindUint8, strconv.FormatUint(uint64(v), 10))
}

// GetUint16 returns the uint16 stored at key, or def.
func (p *Prefs) GetUint16(key string, def uint16) (uint16, error) {
	n, err := p.getInt(key, kindUint16, 16, int64(def))
	return uint16(n), err
}

// PutUint16 stores v at key.
func (p *Prefs) PutUint16(key string, v uint16) error {
	return p.put(key, kindUint16, strconv.FormatUint(uint64(v), 10))
}

// GetInt32 returns the int32 stored at key, or def.
func (p *Prefs) GetInt32(key string, def int32) (int32, error) {
	n, err := p.getInt(key, kindInt32, 32, int64(def))
	return int32(n), err
}

// PutInt32 stores v at key.
func (p *Prefs) PutInt32(key string, v int32) error {
	return p.put(key, kindInt32, strconv.FormatInt(int64(v), 10))
}

// Clear removes every key in the namespace.
func (p *Prefs) Clear() error {
	_, err := p.conn.Exec(`DELETE FROM prefs WHERE namespace = ?`, p.namespace)
	return err
}
