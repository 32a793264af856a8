// Package kv is the local persistent key-value store behind the recents list
// and the last-loaded session record.
//
// Values are opaque byte slices. Callers always read and write whole values;
// there is no partial update.
package kv

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been set or has been
// deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is a flat string-keyed byte store. Implementations are safe for
// concurrent use.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open opens the store at path with the named driver. An empty driver selects
// bolt.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverBolt:
		return OpenBolt(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}
