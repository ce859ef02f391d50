package store

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// badgerDB is the third KVDB backend: an LSM engine tuned for SSD-backed
// deployments that want value-log separation instead of Pebble's sstables.
type badgerDB struct {
	path string
	db   *badger.DB
}

func NewBadgerDB(path string) (KVDB, error) {
	if path == "" {
		path = "./data/names"
	}
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerDB{path: path, db: db}, nil
}

func (b *badgerDB) Read(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	return val, err
}

func (b *badgerDB) Write(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerDB) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}

func (b *badgerDB) DropPrefix(prefix []byte) error {
	return b.db.DropPrefix(prefix)
}

func (b *badgerDB) DropAll() error {
	return b.db.DropAll()
}

func (b *badgerDB) iter(prefix, start []byte, reverse bool, r func(k, v []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := start
		if len(seek) == 0 {
			seek = prefix
		}
		if len(seek) > 0 {
			it.Seek(seek)
		} else {
			it.Rewind()
		}
		for ; it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			if len(prefix) > 0 && !bytes.HasPrefix(k, prefix) {
				if !reverse {
					break
				}
				continue
			}
			err := item.Value(func(v []byte) error {
				return r(k, append([]byte{}, v...))
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerDB) BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error {
	return b.iter(prefix, nil, reverse, r)
}

func (b *badgerDB) BatchReadV2(prefix, seekKey []byte, reverse bool, r func(k, v []byte) error) error {
	return b.iter(prefix, seekKey, reverse, r)
}

type badgerReadBatch struct {
	txn *badger.Txn
}

func (r *badgerReadBatch) Get(key []byte) ([]byte, error) {
	item, err := r.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	var val []byte
	err = item.Value(func(v []byte) error {
		val = append([]byte{}, v...)
		return nil
	})
	return val, err
}

func (r *badgerReadBatch) MultiGet(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := r.Get(k)
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *badgerDB) View(fn func(ReadBatch) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&badgerReadBatch{txn: txn})
	})
}

type badgerWriteBatch struct {
	wb     *badger.WriteBatch
	closed bool
}

func (w *badgerWriteBatch) Put(key, value []byte) error {
	return w.wb.Set(key, value)
}

func (w *badgerWriteBatch) Delete(key []byte) error {
	return w.wb.Delete(key)
}

func (w *badgerWriteBatch) Flush() error {
	return w.wb.Flush()
}

func (w *badgerWriteBatch) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.wb.Cancel()
}

func (b *badgerDB) NewWriteBatch() WriteBatch {
	return &badgerWriteBatch{wb: b.db.NewWriteBatch()}
}
