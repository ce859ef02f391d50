package names

import (
	"context"
	"errors"
)

// ErrNameNotFound is returned by NameView.GetName when the name has no
// current record — not a fatal condition, callers branch on it constantly
// (FIRSTUPDATE collision checks, mempool consistency checks, RPC lookups).
var ErrNameNotFound = errors.New("names: name not found")

// NameConsumer is the duck-typed walker capability spec.md's Design Notes
// calls for in place of a virtual callback object: a plain function that
// receives one record and decides whether the walk continues.
type NameConsumer func(name []byte, data *NameData) (cont bool, err error)

// NameView is the read-only interface every layer above the persistent
// store programs against: the store itself, and every NameCache stacked
// on top of it, satisfy this same interface, so a cache can be handed to
// code expecting a plain view.
type NameView interface {
	// GetName returns the current record for name, or ErrNameNotFound.
	GetName(name []byte) (*NameData, error)

	// GetHistory returns the full prior-record history for name. An
	// empty, non-nil slice and a nil error both mean "no history".
	GetHistory(name []byte) (NameHistory, error)

	// NamesAtHeight returns every name whose expire-index entry is
	// exactly height h, used by the expire engine's window scan.
	NamesAtHeight(h uint32) ([]string, error)

	// WalkNames visits current records in name order starting at start
	// (or from the beginning if start is nil), stopping when consumer
	// returns cont=false, an error, or ctx is cancelled.
	WalkNames(ctx context.Context, start []byte, consumer NameConsumer) error

	// WalkExpiration visits expire-index entries in (height, name) order
	// starting at fromHeight, stopping when consumer returns
	// cont=false, an error, or ctx is cancelled.
	WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(ExpireKey) (bool, error)) error
}

// CountNames walks view end to end and returns the number of current
// records, used to refresh NameStats.NameCount at startup.
func CountNames(ctx context.Context, view NameView) (uint64, error) {
	var count uint64
	err := view.WalkNames(ctx, nil, func(name []byte, data *NameData) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
