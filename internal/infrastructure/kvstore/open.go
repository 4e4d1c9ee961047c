package kvstore

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/harpa/backend/internal/domain"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Store is a KeyValueStore that owns resources.
type Store interface {
	domain.KeyValueStore
	io.Closer
}

// Open returns the store for driver. path is the SQLite file or the Badger
// directory and is ignored for memory.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case DriverBadger:
		return NewBadger(path)
	default:
		return nil, eris.Errorf("kvstore: unknown driver %q", driver)
	}
}
