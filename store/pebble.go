package store

import (
	"bytes"
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

const (
	maxBatchSize = 128 << 20 // flush a write batch before it grows past this
	maxItemSize  = 32 << 20  // oversized single record bypasses the batch
)

// buildOptions favors point-lookup latency over compaction throughput: a
// large block cache, a small L0 threshold and a single compaction worker,
// which suits a database that is mostly random reads by name and
// append-only writes per block.
func buildOptions() *pebble.Options {
	cache := pebble.NewCache(4 << 30)

	return &pebble.Options{
		Cache:                       cache,
		MaxOpenFiles:                10000,
		MemTableSize:                32 << 20,
		MemTableStopWritesThreshold: 3,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
		LBaseMaxBytes:               1 << 30,
		MaxConcurrentCompactions:    func() int { return 1 },
		Levels: func() []pebble.LevelOptions {
			lvls := make([]pebble.LevelOptions, 7)
			for i := range lvls {
				lvls[i] = pebble.LevelOptions{
					TargetFileSize: 64 << 20,
					BlockSize:      8 << 10,
					FilterPolicy:   bloom.FilterPolicy(10),
					FilterType:     pebble.TableFilter,
				}
			}
			return lvls
		}(),
	}
}

type pebbleDB struct {
	path string
	db   *pebble.DB
}

// NewPebbleDB opens (creating if absent) a Pebble-backed KVDB at path.
func NewPebbleDB(path string) (KVDB, error) {
	if path == "" {
		path = "./data/names"
	}
	db, err := pebble.Open(path, buildOptions())
	if err != nil {
		return nil, err
	}
	return &pebbleDB{path: path, db: db}, nil
}

func (p *pebbleDB) Read(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, val...), nil
}

func (p *pebbleDB) Write(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *pebbleDB) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

func (p *pebbleDB) DropPrefix(prefix []byte) error {
	wb := p.NewWriteBatch()
	defer wb.Close()
	err := p.BatchRead(prefix, false, func(k, _ []byte) error {
		return wb.Delete(k)
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

func (p *pebbleDB) DropAll() error {
	return p.DropPrefix(nil)
}

// nextPrefix increments tagPrefix as a big-endian integer, giving the
// smallest key that no longer shares it — an exclusive range upper
// bound. Every prefix this package ever scans with is one of its own key
// families (store.EntryKey's bare tag byte, store.ExpireHeightPrefix's
// tag-plus-height, store.UndoHeightPrefix's tag-plus-height), each
// starting with an ASCII tag byte, so none consists only of 0xFF bytes
// and the "no successor" case below only matters as a defensive fallback
// to an unbounded scan.
func nextPrefix(tagPrefix []byte) []byte {
	if len(tagPrefix) == 0 {
		return nil
	}
	out := append([]byte{}, tagPrefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// boundsFor clamps a pebble iterator to exactly the range one of the
// name database's key families occupies, e.g. every 'x'-tagged
// expire-index entry at a given height (store.ExpireHeightPrefix) or
// every 'n'-tagged current record (store.EntryKey's tag alone).
func boundsFor(tagPrefix []byte) (lower, upper []byte) {
	if len(tagPrefix) == 0 {
		return nil, nil
	}
	return tagPrefix, nextPrefix(tagPrefix)
}

// seekWithin positions cursor at the first entry a scan over
// [tagPrefix, resumeAt) should yield, clamping resumeAt into [lower,
// upper) if it was supplied out of range (WalkNames/WalkExpiration
// resuming from a caller-supplied key). It returns the step function
// the caller should use to advance and whether an entry was found.
func seekWithin(cursor *pebble.Iterator, tagPrefix, resumeAt, lower, upper []byte, reverse bool) (step func() bool, found bool) {
	if reverse {
		if len(resumeAt) == 0 {
			return cursor.Prev, cursor.Last()
		}
		if len(lower) > 0 && bytes.Compare(resumeAt, lower) < 0 {
			resumeAt = lower
		}
		if upper != nil && bytes.Compare(resumeAt, upper) >= 0 {
			resumeAt = upper
		}
		if cursor.SeekLT(resumeAt) {
			return cursor.Prev, true
		}
		return cursor.Prev, cursor.Last()
	}

	switch {
	case len(resumeAt) > 0:
		found = cursor.SeekGE(resumeAt)
	case len(tagPrefix) > 0:
		found = cursor.SeekGE(tagPrefix)
	default:
		found = cursor.First()
	}
	return cursor.Next, found
}

// iter drives one prefix scan (forward or reverse, optionally resuming
// from resumeAt) over the name database's key space, calling visit for
// each entry until it returns an error or the prefix is exhausted.
func (p *pebbleDB) iter(tagPrefix, resumeAt []byte, reverse bool, visit func(k, v []byte) error) error {
	lower, upper := boundsFor(tagPrefix)

	cursor, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer cursor.Close()

	// upper is only nil when tagPrefix itself is empty (no bound needed)
	// or in the defensive nextPrefix "no successor" case; either way the
	// pebble-level bound can't be trusted alone and HasPrefix must gate
	// each entry by hand.
	needsPrefixCheck := len(tagPrefix) > 0 && upper == nil

	step, found := seekWithin(cursor, tagPrefix, resumeAt, lower, upper, reverse)
	for ; found; found = step() {
		key := cursor.Key()
		if needsPrefixCheck && !bytes.HasPrefix(key, tagPrefix) {
			break
		}
		if err := visit(append([]byte{}, key...), append([]byte{}, cursor.Value()...)); err != nil {
			return err
		}
	}
	return cursor.Error()
}

func (p *pebbleDB) BatchRead(prefix []byte, reverse bool, r func(k, v []byte) error) error {
	return p.iter(prefix, nil, reverse, r)
}

func (p *pebbleDB) BatchReadV2(prefix, seekKey []byte, reverse bool, r func(k, v []byte) error) error {
	return p.iter(prefix, seekKey, reverse, r)
}

type pebbleReadBatch struct {
	snap *pebble.Snapshot
}

func (b *pebbleReadBatch) Get(key []byte) ([]byte, error) {
	val, closer, err := b.snap.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, val...), nil
}

func (b *pebbleReadBatch) MultiGet(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p *pebbleDB) View(fn func(ReadBatch) error) error {
	snap := p.db.NewSnapshot()
	defer snap.Close()
	return fn(&pebbleReadBatch{snap: snap})
}

type pebbleWriteBatch struct {
	db     *pebble.DB
	batch  *pebble.Batch
	closed bool
}

func (b *pebbleWriteBatch) Put(key, value []byte) error {
	if b.closed {
		return errors.New("store: write batch closed")
	}
	if len(key)+len(value) >= maxItemSize {
		single := b.db.NewBatch()
		defer single.Close()
		if err := single.Set(key, value, nil); err != nil {
			return err
		}
		return single.Commit(pebble.Sync)
	}
	if err := b.ensureCapacity(len(key) + len(value)); err != nil {
		return err
	}
	return b.batch.Set(key, value, nil)
}

func (b *pebbleWriteBatch) Delete(key []byte) error {
	if b.closed {
		return errors.New("store: write batch closed")
	}
	if err := b.ensureCapacity(len(key)); err != nil {
		return err
	}
	return b.batch.Delete(key, nil)
}

func (b *pebbleWriteBatch) ensureCapacity(extra int) error {
	if b.batch.Len()+extra < maxBatchSize {
		return nil
	}
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	b.batch.Close()
	b.batch = b.db.NewBatch()
	return nil
}

func (b *pebbleWriteBatch) Flush() error {
	if b.closed {
		return errors.New("store: write batch closed")
	}
	return b.batch.Commit(pebble.Sync)
}

func (b *pebbleWriteBatch) Close() {
	if b.closed {
		return
	}
	b.closed = true
	_ = b.batch.Close()
}

func (p *pebbleDB) NewWriteBatch() WriteBatch {
	return &pebbleWriteBatch{db: p.db, batch: p.db.NewBatch()}
}
