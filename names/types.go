// Package names implements the name-registration consensus subsystem: the
// commit-reveal-update protocol, its transaction validator and mutator,
// the layered cache stacked over a persistent store, expiration, and the
// full-database consistency check.
package names

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
)

// MempoolHeight is the sentinel height meaning "not yet confirmed".
const MempoolHeight = 0x7FFFFFFF

// NameData is the current record for one active name.
type NameData struct {
	Value       []byte
	Height      uint32
	Outpoint    wire.OutPoint
	OwnerScript []byte
}

// Clone returns a deep copy; callers that hand a NameData to a cache or
// undo record must not alias the byte slices of a value still owned by
// the caller.
func (d NameData) Clone() NameData {
	return NameData{
		Value:       append([]byte(nil), d.Value...),
		Height:      d.Height,
		Outpoint:    d.Outpoint,
		OwnerScript: append([]byte(nil), d.OwnerScript...),
	}
}

// Equal compares two records field-by-field, used by the round-trip test
// property (P1) to check that undo restores the exact pre-image.
func (d NameData) Equal(o NameData) bool {
	return bytes.Equal(d.Value, o.Value) &&
		d.Height == o.Height &&
		d.Outpoint == o.Outpoint &&
		bytes.Equal(d.OwnerScript, o.OwnerScript)
}

// IsExpired reports whether this record is expired at height h, given the
// expiration depth schedule's value at h.
func (d NameData) IsExpired(h uint32, depth uint32) bool {
	return h >= d.Height+depth
}

// NameHistory is the append-only sequence of prior NameData values for a
// name, oldest first. An empty history means the key does not exist on
// disk (spec.md §6): flush must delete rather than write an empty slice.
type NameHistory []NameData

// ExpireKey addresses one entry in the expire index: it is present iff
// name's current record has that exact height.
type ExpireKey struct {
	Height uint32
	Name   string
}

// Less orders ExpireKeys the same way their on-disk encoding does: by
// height first, then lexicographically by name.
func (k ExpireKey) Less(o ExpireKey) bool {
	if k.Height != o.Height {
		return k.Height < o.Height
	}
	return k.Name < o.Name
}

// NameUndoRecord captures the pre-image needed to reverse one mutation of
// current[name]: either the name did not exist (WasAbsent) or it held
// Prior.
type NameUndoRecord struct {
	Name      string
	WasAbsent bool
	Prior     NameData
}

// BlockUndo is the ordered list of undo records produced while connecting
// one block, in the exact order needed to reverse them (spec.md §5:
// disconnect walks transactions and expirations in reverse of connect).
type BlockUndo struct {
	TxUndo     []NameUndoRecord // one entry per mutated output, output order
	ExpireUndo []ExpiredName    // names the expire engine spent, in expiry order
}

// ExpiredName is one entry of the expire engine's spend list: enough to
// reinstate the UTXO and NameData on disconnect.
type ExpiredName struct {
	Name string
	Data NameData
}

// NameStatsVersion is the current on-disk schema version for NameStats.
// Bumping it without a migration path is intentional: an old database
// opened by a build expecting a different version must fail loudly at
// startup rather than silently misinterpret its records.
const NameStatsVersion = "1"

// NameStats is the single fixed diagnostic record the database carries:
// a schema version, checked at startup, and a live-name count kept for
// operators rather than for consensus.
type NameStats struct {
	Version   string
	NameCount uint64
}

// Clone returns a copy independent of the receiver.
func (s NameStats) Clone() NameStats {
	return NameStats{Version: s.Version, NameCount: s.NameCount}
}
