// Package store provides the pluggable key-value abstraction the name
// database is built on. Every backend implements the same KVDB contract so
// the layers above (names.NameView, the mempool index, the consistency
// verifier) never depend on which engine actually holds the bytes.
package store

import "errors"

var ErrKeyNotFound = errors.New("key not found")

// ReadBatch is a point-in-time read handle, e.g. a snapshot or a
// transaction, obtained from KVDB.View.
type ReadBatch interface {
	Get(key []byte) ([]byte, error)
	MultiGet(keys [][]byte) ([][]byte, error)
}

// WriteBatch batches mutations for a single atomic flush.
type WriteBatch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Flush() error
	Close()
}

// KVDB is the storage contract every backend (Pebble, LevelDB, Badger)
// must satisfy. Each direct Read/Write/Delete call is its own transaction;
// callers needing atomicity across multiple keys use NewWriteBatch.
type KVDB interface {
	Read(key []byte) ([]byte, error)
	Write(key, value []byte) error
	Delete(key []byte) error
	Close() error

	DropPrefix(prefix []byte) error
	DropAll() error

	NewWriteBatch() WriteBatch

	// BatchRead walks all keys sharing prefix in lexicographic (or
	// reverse) order, invoking r for each. Returning a non-nil error from
	// r stops the walk and is propagated to the caller.
	BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error

	// BatchReadV2 is BatchRead with an explicit seek position, used to
	// resume a scan from a specific key rather than the start of the
	// prefix range.
	BatchReadV2(prefix, seekKey []byte, reverse bool, r func(k, v []byte) error) error

	// View opens a consistent read-only snapshot for a batch of point
	// lookups. The snapshot is released when fn returns.
	View(fn func(ReadBatch) error) error
}

// Backend names accepted by Open.
const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendBadger  = "badger"
)

// Open constructs a KVDB backed by the requested engine, defaulting to
// Pebble when backend is empty.
func Open(backend, path string) (KVDB, error) {
	switch backend {
	case "", BackendPebble:
		return NewPebbleDB(path)
	case BackendLevelDB:
		return NewLevelDB(path)
	case BackendBadger:
		return NewBadgerDB(path)
	default:
		return nil, errors.New("store: unknown backend " + backend)
	}
}
