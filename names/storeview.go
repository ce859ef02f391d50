package names

import (
	"context"

	"github.com/namecore/nschain/common"
	"github.com/namecore/nschain/store"
)

// StoreView is the persistent-store-backed NameView: the bottom of every
// cache stack, reading directly from the 'n'/'h'/'x' key families spec.md
// §6 defines.
type StoreView struct {
	db store.KVDB
}

func NewStoreView(db store.KVDB) *StoreView {
	return &StoreView{db: db}
}

// LoadStats reads the database's NameStats record, initializing one at
// the current NameStatsVersion if none exists yet. A version mismatch
// means this build cannot safely interpret the on-disk records and is
// treated as fatal, mirroring the teacher's own initStatusFromDB check.
func (v *StoreView) LoadStats() (*NameStats, error) {
	var stats NameStats
	err := store.GetGob(v.db, store.StatusKey(), &stats)
	if err == store.ErrKeyNotFound {
		stats = NameStats{Version: NameStatsVersion}
	} else if err != nil {
		return nil, common.Wrapf(err, "store view load stats")
	}

	if stats.Version != NameStatsVersion {
		common.Log.Panicf("names: on-disk stats version %q does not match binary version %q", stats.Version, NameStatsVersion)
	}
	return &stats, nil
}

// SaveStats persists stats into wb under the fixed status key.
func (v *StoreView) SaveStats(wb store.WriteBatch, stats *NameStats) error {
	enc, err := store.EncodeGob(stats)
	if err != nil {
		return common.Wrapf(err, "store view encode stats")
	}
	return wb.Put(store.StatusKey(), enc)
}

func (v *StoreView) GetName(name []byte) (*NameData, error) {
	var d NameData
	err := store.GetGob(v.db, store.EntryKey(name), &d)
	if err != nil {
		if err == store.ErrKeyNotFound {
			return nil, ErrNameNotFound
		}
		return nil, common.Wrapf(err, "store view get %q", name)
	}
	return &d, nil
}

func (v *StoreView) GetHistory(name []byte) (NameHistory, error) {
	var h NameHistory
	err := store.GetGob(v.db, store.HistoryKey(name), &h)
	if err != nil {
		if err == store.ErrKeyNotFound {
			return NameHistory{}, nil
		}
		return nil, common.Wrapf(err, "store view history %q", name)
	}
	return h, nil
}

func (v *StoreView) NamesAtHeight(h uint32) ([]string, error) {
	var names []string
	prefix := store.ExpireHeightPrefix(h)
	err := v.db.BatchRead(prefix, false, func(k, _ []byte) error {
		_, name, ok := store.ParseExpireKey(k)
		if ok {
			names = append(names, string(name))
		}
		return nil
	})
	if err != nil {
		return nil, common.Wrapf(err, "store view names at height %d", h)
	}
	return names, nil
}

func (v *StoreView) WalkNames(ctx context.Context, start []byte, consumer NameConsumer) error {
	var seekKey []byte
	if len(start) > 0 {
		seekKey = store.EntryKey(start)
	}
	var stopped error
	err := v.db.BatchReadV2([]byte{'n'}, seekKey, false, func(k, val []byte) error {
		if err := ctx.Err(); err != nil {
			stopped = err
			return err
		}
		var d NameData
		if err := store.DecodeGob(val, &d); err != nil {
			return err
		}
		cont, err := consumer(store.NameFromEntryKey(k), &d)
		if err != nil {
			stopped = err
			return err
		}
		if !cont {
			return errStopWalk
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return err
	}
	return stopped
}

func (v *StoreView) WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(ExpireKey) (bool, error)) error {
	var stopped error
	err := v.db.BatchReadV2(store.ExpireIndexPrefix(), store.ExpireHeightPrefix(fromHeight), false, func(k, _ []byte) error {
		if err := ctx.Err(); err != nil {
			stopped = err
			return err
		}
		height, name, ok := store.ParseExpireKey(k)
		if !ok {
			return nil
		}
		cont, err := consumer(ExpireKey{Height: height, Name: string(name)})
		if err != nil {
			stopped = err
			return err
		}
		if !cont {
			return errStopWalk
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return err
	}
	return stopped
}

// errStopWalk is a private sentinel used to unwind BatchRead's callback
// loop early without treating early termination as a real error.
var errStopWalk = &stopWalkErr{}

type stopWalkErr struct{}

func (*stopWalkErr) Error() string { return "names: walk stopped" }

// Snapshot runs fn against a point-in-time view: GetName/GetHistory reads
// inside fn are all answered from the same store.ReadBatch, so concurrent
// writer flushes cannot produce a torn read across multiple lookups
// (spec.md §5's "read paths ... must obtain a snapshot of the underlying
// view"). Walks still run against the live store, mirroring
// store.KVDB.View's own scope (a snapshot for point lookups, not for
// iteration).
func (v *StoreView) Snapshot(fn func(NameView) error) error {
	return v.db.View(func(rb store.ReadBatch) error {
		return fn(&snapshotView{parent: v, rb: rb})
	})
}

// snapshotView answers point lookups from a held store.ReadBatch and
// delegates range operations to the enclosing StoreView.
type snapshotView struct {
	parent *StoreView
	rb     store.ReadBatch
}

func (v *snapshotView) GetName(name []byte) (*NameData, error) {
	val, err := v.rb.Get(store.EntryKey(name))
	if err != nil {
		if err == store.ErrKeyNotFound {
			return nil, ErrNameNotFound
		}
		return nil, common.Wrapf(err, "snapshot get %q", name)
	}
	var d NameData
	if err := store.DecodeGob(val, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (v *snapshotView) GetHistory(name []byte) (NameHistory, error) {
	val, err := v.rb.Get(store.HistoryKey(name))
	if err != nil {
		if err == store.ErrKeyNotFound {
			return NameHistory{}, nil
		}
		return nil, common.Wrapf(err, "snapshot history %q", name)
	}
	var h NameHistory
	if err := store.DecodeGob(val, &h); err != nil {
		return nil, err
	}
	return h, nil
}

func (v *snapshotView) NamesAtHeight(h uint32) ([]string, error) {
	return v.parent.NamesAtHeight(h)
}

func (v *snapshotView) WalkNames(ctx context.Context, start []byte, consumer NameConsumer) error {
	return v.parent.WalkNames(ctx, start, consumer)
}

func (v *snapshotView) WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(ExpireKey) (bool, error)) error {
	return v.parent.WalkExpiration(ctx, fromHeight, consumer)
}
