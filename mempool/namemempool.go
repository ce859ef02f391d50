// Package mempool implements NameMemPool, the auxiliary name-conflict index
// a host mempool consults alongside its usual UTXO conflict checks. It is
// advisory and never persisted: on restart it is rebuilt from whatever
// transactions the host mempool still holds.
package mempool

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/namecore/nschain/config"
	"github.com/namecore/nschain/names"
)

// entry records which transaction currently owns a pending name op, so
// remove(tx) can tell whether it actually owns the slot it is clearing.
type entry struct {
	txid chainhash.Hash
}

// NameMemPool tracks at-most-one pending registration and at-most-one
// pending update per name across the transactions the host mempool holds.
// Callers must hold the host mempool's lock around every method here
// (spec.md §5): this type does no locking of its own beyond guarding its
// own maps against concurrent readers.
type NameMemPool struct {
	mu sync.RWMutex

	pendingReg map[string]entry // name -> owning FIRSTUPDATE
	pendingUpd map[string]entry // name -> owning UPDATE

	// pendingNew is the optional NEW-hash map (spec.md §9 Open Question):
	// kept only to tolerate duplicate NEW broadcasts of the same tx: it is
	// not consulted by any consensus-relevant check.
	pendingNew map[string]entry

	trackPendingNew bool
}

func NewNameMemPool(cfg config.NameConfig) *NameMemPool {
	return &NameMemPool{
		pendingReg:      make(map[string]entry),
		pendingUpd:      make(map[string]entry),
		pendingNew:      make(map[string]entry),
		trackPendingNew: cfg.TrackPendingNew,
	}
}

// classify extracts the name and slot classification for tx's tagged
// output, per spec.md §4.6. A transaction with no name output classifies
// as OpNone and this index does not track it.
func classify(tx *wire.MsgTx) (names.NameOpKind, []byte, []byte) {
	for _, txout := range tx.TxOut {
		op, err := names.ParseNameScript(txout.PkScript)
		if err != nil || op.Kind == names.OpNone {
			continue
		}
		switch op.Kind {
		case names.OpNew:
			return op.Kind, nil, op.Hash
		case names.OpFirstUpdate, names.OpUpdate:
			return op.Kind, op.Name, nil
		}
	}
	return names.OpNone, nil, nil
}

// AddUnchecked inserts tx's pending name op without checking for a
// conflict; callers must have already called CheckTx and confirmed it
// returns true. It panics on a slot collision, since that means a caller
// skipped the check (spec.md §4.6: "asserts the respective map has no
// entry for that name").
func (p *NameMemPool) AddUnchecked(txid chainhash.Hash, tx *wire.MsgTx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kind, name, hash := classify(tx)
	switch kind {
	case names.OpFirstUpdate:
		key := string(name)
		if _, exists := p.pendingReg[key]; exists {
			panic("mempool: AddUnchecked called on a name already pending registration")
		}
		p.pendingReg[key] = entry{txid: txid}
	case names.OpUpdate:
		key := string(name)
		if _, exists := p.pendingUpd[key]; exists {
			panic("mempool: AddUnchecked called on a name already pending update")
		}
		p.pendingUpd[key] = entry{txid: txid}
	case names.OpNew:
		if !p.trackPendingNew {
			return
		}
		p.pendingNew[string(hash)] = entry{txid: txid}
	}
}

// Remove drops tx's entries from every map it owns. Removing a
// transaction that owns nothing (or that is not the current owner of its
// slot, e.g. it lost a race) is a no-op.
func (p *NameMemPool) Remove(txid chainhash.Hash, tx *wire.MsgTx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kind, name, hash := classify(tx)
	switch kind {
	case names.OpFirstUpdate:
		key := string(name)
		if e, ok := p.pendingReg[key]; ok && e.txid == txid {
			delete(p.pendingReg, key)
		}
	case names.OpUpdate:
		key := string(name)
		if e, ok := p.pendingUpd[key]; ok && e.txid == txid {
			delete(p.pendingUpd, key)
		}
	case names.OpNew:
		if !p.trackPendingNew {
			return
		}
		key := string(hash)
		if e, ok := p.pendingNew[key]; ok && e.txid == txid {
			delete(p.pendingNew, key)
		}
	}
}

// CheckTx reports whether tx may be admitted without violating either
// exclusivity invariant (spec.md §4.6, P5/S6): no two mempool entries may
// share a pending registration or pending update name.
func (p *NameMemPool) CheckTx(tx *wire.MsgTx) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	kind, name, _ := classify(tx)
	switch kind {
	case names.OpFirstUpdate:
		_, exists := p.pendingReg[string(name)]
		return !exists
	case names.OpUpdate:
		_, exists := p.pendingUpd[string(name)]
		return !exists
	default:
		return true
	}
}

// RemoveConflicts evicts the pending registration for name when a
// FIRSTUPDATE confirms in a block, since that name's commit-reveal cycle
// is now settled on-chain (spec.md §4.6).
func (p *NameMemPool) RemoveConflicts(name []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pendingReg, string(name))
}

// RemoveUnexpireConflicts evicts pending registrations for names a block
// disconnect just un-expired: they are no longer free to register.
func (p *NameMemPool) RemoveUnexpireConflicts(unexpired []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range unexpired {
		delete(p.pendingReg, n)
	}
}

// RemoveExpireConflicts evicts pending updates for names the expire engine
// just retired: there is no longer a live name to update (S2).
func (p *NameMemPool) RemoveExpireConflicts(expired []names.ExpiredName) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range expired {
		delete(p.pendingUpd, e.Name)
	}
}

// Check runs the full mempool-vs-view consistency check (spec.md §4.6):
// every pending registration must target a name absent from view, or
// expired at h+1; every pending update must target a name present and
// not expired at h+1.
func (p *NameMemPool) Check(view names.NameView, h uint32, params *config.Params) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	nextHeight := h + 1
	depth := params.ExpirationDepth(nextHeight)

	for name := range p.pendingReg {
		data, err := view.GetName([]byte(name))
		if err == names.ErrNameNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if !data.IsExpired(nextHeight, depth) {
			return &ConsistencyError{Name: name, Reason: "pending registration targets a live name"}
		}
	}

	for name := range p.pendingUpd {
		data, err := view.GetName([]byte(name))
		if err == names.ErrNameNotFound {
			return &ConsistencyError{Name: name, Reason: "pending update targets a nonexistent name"}
		}
		if err != nil {
			return err
		}
		if data.IsExpired(nextHeight, depth) {
			return &ConsistencyError{Name: name, Reason: "pending update targets an expired name"}
		}
	}
	return nil
}

// ConsistencyError reports a mempool entry that no longer matches the
// current view, surfaced by Check.
type ConsistencyError struct {
	Name   string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "mempool: " + e.Name + ": " + e.Reason
}
