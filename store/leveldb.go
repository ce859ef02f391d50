package store

import (
	"bytes"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelDB is the secondary KVDB backend, useful for smaller deployments or
// where Pebble's memory footprint is unwanted.
type levelDB struct {
	path string
	db   *leveldb.DB
}

func NewLevelDB(path string) (KVDB, error) {
	if path == "" {
		path = "./data/names"
	}
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &levelDB{path: path, db: db}, nil
}

func (l *levelDB) Read(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return append([]byte{}, val...), nil
}

func (l *levelDB) Write(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *levelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *levelDB) Close() error {
	return l.db.Close()
}

func (l *levelDB) iterForward(prefix, start []byte, r func(k, v []byte) error) error {
	var rng *util.Range
	if len(prefix) > 0 {
		rng = util.BytesPrefix(prefix)
	}
	it := l.db.NewIterator(rng, nil)
	defer it.Release()

	switch {
	case len(start) > 0:
		it.Seek(start)
	case len(prefix) > 0:
		it.Seek(prefix)
	default:
		it.First()
	}
	for ; it.Valid(); it.Next() {
		k := it.Key()
		if len(prefix) > 0 && !bytes.HasPrefix(k, prefix) {
			break
		}
		if err := r(append([]byte{}, k...), append([]byte{}, it.Value()...)); err != nil {
			return err
		}
	}
	return it.Error()
}

func (l *levelDB) DropPrefix(prefix []byte) error {
	wb := l.NewWriteBatch()
	defer wb.Close()
	err := l.iterForward(prefix, nil, func(k, _ []byte) error {
		return wb.Delete(k)
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

func (l *levelDB) DropAll() error {
	return l.DropPrefix(nil)
}

func (l *levelDB) BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error {
	if !reverse {
		return l.iterForward(prefix, nil, r)
	}
	var kvs [][2][]byte
	if err := l.iterForward(prefix, nil, func(k, v []byte) error {
		kvs = append(kvs, [2][]byte{k, v})
		return nil
	}); err != nil {
		return err
	}
	for i := len(kvs) - 1; i >= 0; i-- {
		if err := r(kvs[i][0], kvs[i][1]); err != nil {
			return err
		}
	}
	return nil
}

func (l *levelDB) BatchReadV2(prefix, seekKey []byte, reverse bool, r func(k, v []byte) error) error {
	if !reverse {
		start := seekKey
		if len(start) == 0 {
			start = prefix
		}
		return l.iterForward(prefix, start, r)
	}
	var kvs [][2][]byte
	if err := l.iterForward(prefix, nil, func(k, v []byte) error {
		if len(seekKey) == 0 || bytes.Compare(k, seekKey) <= 0 {
			kvs = append(kvs, [2][]byte{k, v})
		}
		return nil
	}); err != nil {
		return err
	}
	for i := len(kvs) - 1; i >= 0; i-- {
		if err := r(kvs[i][0], kvs[i][1]); err != nil {
			return err
		}
	}
	return nil
}

type levelReadBatch struct {
	snap *leveldb.Snapshot
}

func (b *levelReadBatch) Get(key []byte) ([]byte, error) {
	val, err := b.snap.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return append([]byte{}, val...), nil
}

func (b *levelReadBatch) MultiGet(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		if err != nil && err != ErrKeyNotFound {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (l *levelDB) View(fn func(ReadBatch) error) error {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	return fn(&levelReadBatch{snap: snap})
}

type levelWriteBatch struct {
	db     *leveldb.DB
	batch  *leveldb.Batch
	closed bool
}

func (b *levelWriteBatch) Put(key, value []byte) error {
	if b.closed {
		return leveldb.ErrClosed
	}
	b.batch.Put(key, value)
	return nil
}

func (b *levelWriteBatch) Delete(key []byte) error {
	if b.closed {
		return leveldb.ErrClosed
	}
	b.batch.Delete(key)
	return nil
}

func (b *levelWriteBatch) Flush() error {
	if b.closed {
		return leveldb.ErrClosed
	}
	return b.db.Write(b.batch, nil)
}

func (b *levelWriteBatch) Close() {
	b.closed = true
	b.batch = nil
}

func (l *levelDB) NewWriteBatch() WriteBatch {
	return &levelWriteBatch{db: l.db, batch: &leveldb.Batch{}}
}
