package kvstore

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/rotisserie/eris"

	"github.com/harpa/backend/internal/domain"
)

// Badger stores keys in an embedded Badger database.
type Badger struct {
	db *badger.DB
}

// NewBadger opens a Badger database in dir. An empty dir keeps the data in
// memory only.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, eris.Wrap(err, "badger: open")
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(ctx context.Context, key string) (string, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "badger: get %s", key)
	}
	return string(value), nil
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return eris.Wrapf(err, "badger: set %s", key)
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return eris.Wrapf(err, "badger: delete %s", key)
}

func (b *Badger) Close() error {
	return b.db.Close()
}
