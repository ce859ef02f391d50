package names

import (
	"sort"

	"github.com/btcsuite/btcd/wire"

	"github.com/namecore/nschain/common"
	"github.com/namecore/nschain/config"
	"github.com/namecore/nschain/store"
)

// ApplyNameTransaction mutates cache for one already-validated transaction
// at height h, returning the undo records needed to reverse it. Precondition:
// h != MempoolHeight and CheckNameTransaction has already accepted tx.
func ApplyNameTransaction(tx *wire.MsgTx, h uint32, cache *NameCache, utxo UTXOSource, params *config.Params) ([]NameUndoRecord, error) {
	if h == MempoolHeight {
		common.Log.Panicf("names: ApplyNameTransaction called with MempoolHeight")
	}

	txHash := tx.TxHash()
	if mode, ok := params.IsHistoricBug(txHash, h); ok && mode != config.BugFullyApply {
		// Neither bypass mode touches the name database. BugFullyIgnore
		// additionally spends every update output's coin so it becomes
		// immediately unspendable; BugInUTXO leaves the coin alone so a
		// later transaction can still spend it (spec.md §4.3).
		if mode == config.BugFullyIgnore {
			for i, txout := range tx.TxOut {
				op, err := ParseNameScript(txout.PkScript)
				if err != nil {
					return nil, err
				}
				if op.Kind.IsAnyUpdate() {
					if err := utxo.SpendCoins(wire.OutPoint{Hash: txHash, Index: uint32(i)}); err != nil {
						return nil, err
					}
				}
			}
		}
		return nil, nil
	}

	var undo []NameUndoRecord
	for i, txout := range tx.TxOut {
		op, err := ParseNameScript(txout.PkScript)
		if err != nil {
			return nil, err
		}
		if !op.Kind.IsAnyUpdate() {
			continue
		}

		prior, err := cache.GetName(op.Name)
		wasAbsent := err == ErrNameNotFound
		if err != nil && !wasAbsent {
			return nil, err
		}

		rec := NameUndoRecord{Name: string(op.Name), WasAbsent: wasAbsent}
		if !wasAbsent {
			rec.Prior = prior.Clone()
			if err := cache.AppendHistory(op.Name, *prior); err != nil {
				return nil, err
			}
			cache.RemoveExpire(op.Name, prior.Height)
		}
		undo = append(undo, rec)

		cache.Set(op.Name, NameData{
			Value:       append([]byte(nil), op.Value...),
			Height:      h,
			Outpoint:    wire.OutPoint{Hash: txHash, Index: uint32(i)},
			OwnerScript: append([]byte(nil), op.OwnerScript...),
		})
		cache.AddExpire(op.Name, h)
	}
	return undo, nil
}

// UndoApplyNameTransaction reverses ApplyNameTransaction's effect on cache,
// given the undo records it produced and the height the transaction was
// applied at. Any inconsistency here means the store has been corrupted
// out from under the mutator, which is a fatal condition (spec.md §7).
func UndoApplyNameTransaction(h uint32, undo []NameUndoRecord, cache *NameCache) {
	for i := len(undo) - 1; i >= 0; i-- {
		u := undo[i]
		name := []byte(u.Name)
		cache.RemoveExpire(name, h)
		if u.WasAbsent {
			cache.Remove(name)
			continue
		}
		cache.Set(name, u.Prior)
		cache.AddExpire(name, u.Prior.Height)
		if err := cache.PopHistory(name); err != nil {
			common.Log.Panicf("names: undo failed to pop history for %q: %v", u.Name, err)
		}
	}
}

// ExpireNames implements the block-connect expire engine (spec.md §4.4):
// it retires every name whose expire-index entry falls in the window that
// just became eligible, spends its UTXO, and returns the list needed to
// reverse the pass on disconnect.
func ExpireNames(h uint32, cache *NameCache, utxo UTXOSource, params *config.Params) ([]ExpiredName, error) {
	if h == 0 {
		return nil, nil
	}

	dOld := int64(params.ExpirationDepth(h - 1))
	dNew := int64(params.ExpirationDepth(h))
	if dNew > int64(h) {
		return nil, nil
	}

	from := int64(h) - dOld
	to := int64(h) - dNew
	if from < 0 {
		from = 0
	}

	candidates := map[string]bool{}
	for y := from; y <= to; y++ {
		names, err := cache.NamesAtHeight(uint32(y))
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			candidates[n] = true
		}
	}

	sorted := make([]string, 0, len(candidates))
	for n := range candidates {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var expired []ExpiredName
	for _, name := range sorted {
		if params.IsPostmortemException(h, name) {
			continue
		}
		data, err := cache.GetName([]byte(name))
		if err == ErrNameNotFound {
			continue // defensive: index/current drifted, nothing to spend
		}
		if err != nil {
			return nil, err
		}
		if !data.IsExpired(h, uint32(dNew)) {
			continue // defensive re-check per spec.md §4.4
		}

		if err := utxo.SpendCoins(data.Outpoint); err != nil {
			return nil, common.Wrapf(err, "expire %q: spend outpoint", name)
		}

		if err := cache.AppendHistory([]byte(name), *data); err != nil {
			return nil, err
		}
		cache.Remove([]byte(name))
		cache.RemoveExpire([]byte(name), data.Height)
		expired = append(expired, ExpiredName{Name: name, Data: *data})
	}
	return expired, nil
}

// UnexpireNames reverses one block's ExpireNames pass on disconnect,
// reinstating each expired record in the reverse order it was retired.
func UnexpireNames(h uint32, expireUndo []ExpiredName, cache *NameCache, params *config.Params) ([]string, error) {
	seen := map[string]bool{}
	unexpired := make([]string, 0, len(expireUndo))

	for i := len(expireUndo) - 1; i >= 0; i-- {
		e := expireUndo[i]
		if seen[e.Name] {
			common.Log.Panicf("names: double-unexpire of %q at height %d", e.Name, h)
		}
		seen[e.Name] = true

		if _, err := cache.GetName([]byte(e.Name)); err != ErrNameNotFound {
			common.Log.Panicf("names: unexpire %q found a live current record at height %d", e.Name, h)
		}
		if h > 0 {
			depthPrev := params.ExpirationDepth(h - 1)
			if e.Data.IsExpired(h-1, depthPrev) {
				common.Log.Panicf("names: unexpire %q was already expired at height %d", e.Name, h-1)
			}
		}

		cache.Set([]byte(e.Name), e.Data)
		cache.AddExpire([]byte(e.Name), e.Data.Height)
		if err := cache.PopHistory([]byte(e.Name)); err != nil {
			return nil, err
		}
		unexpired = append(unexpired, e.Name)
	}
	return unexpired, nil
}

// blockUndoKey addresses the one BlockUndo blob recorded for height h. It
// coincides with store.UndoHeightPrefix(h): passing a nil txid to UndoKey
// yields the bare tag+height prefix, so the block-level record and the
// per-height scan bound share the same bytes.
func blockUndoKey(h uint32) []byte {
	return store.UndoKey(h, nil)
}

// ApplyBlock is the block processor's connect-side entry point (spec.md
// §6): it walks txs in order, applies every name transaction among them,
// then runs the expire engine, and returns the combined BlockUndo needed
// to reverse the block. If wb is non-nil and the block produced any undo
// records, the undo blob is staged into wb under the 'u' key family, so
// the caller can flush it atomically with cache.Flush and the UTXO batch
// (spec.md §5 forbids a partial flush). A block with no name changes
// stages nothing.
func ApplyBlock(h uint32, txs []*wire.MsgTx, cache *NameCache, utxo UTXOSource, params *config.Params, wb store.WriteBatch) (*BlockUndo, error) {
	if h == MempoolHeight {
		common.Log.Panicf("names: ApplyBlock called with MempoolHeight")
	}

	block := &BlockUndo{}
	for _, tx := range txs {
		if !IsNameTx(tx) {
			continue
		}
		txUndo, err := ApplyNameTransaction(tx, h, cache, utxo, params)
		if err != nil {
			return nil, common.Wrapf(err, "apply block %d: tx %s", h, tx.TxHash())
		}
		block.TxUndo = append(block.TxUndo, txUndo...)
	}

	expireUndo, err := ExpireNames(h, cache, utxo, params)
	if err != nil {
		return nil, common.Wrapf(err, "apply block %d: expire", h)
	}
	block.ExpireUndo = expireUndo

	if wb != nil && (len(block.TxUndo) > 0 || len(block.ExpireUndo) > 0) {
		enc, err := store.EncodeGob(block)
		if err != nil {
			return nil, common.Wrapf(err, "apply block %d: encode undo", h)
		}
		if err := wb.Put(blockUndoKey(h), enc); err != nil {
			return nil, common.Wrapf(err, "apply block %d: stage undo", h)
		}
	}
	return block, nil
}

// UndoBlock is the block processor's disconnect-side entry point,
// reversing exactly one ApplyBlock call. Per spec.md §5 the disconnect
// order is the tx undo list in reverse, then the expire-undo list in
// reverse; it is not simply the mirror image of the connect order, and
// callers must not reorder these two passes.
func UndoBlock(h uint32, block *BlockUndo, cache *NameCache, params *config.Params, wb store.WriteBatch) ([]string, error) {
	UndoApplyNameTransaction(h, block.TxUndo, cache)

	unexpired, err := UnexpireNames(h, block.ExpireUndo, cache, params)
	if err != nil {
		return nil, common.Wrapf(err, "undo block %d: unexpire", h)
	}

	if wb != nil {
		if err := wb.Delete(blockUndoKey(h)); err != nil {
			return nil, common.Wrapf(err, "undo block %d: clear undo", h)
		}
	}
	return unexpired, nil
}

// LoadBlockUndo reads back the BlockUndo persisted by ApplyBlock, for a
// block processor reconnecting after a restart before it can disconnect.
func LoadBlockUndo(db store.KVDB, h uint32) (*BlockUndo, error) {
	var block BlockUndo
	if err := store.GetGob(db, blockUndoKey(h), &block); err != nil {
		return nil, err
	}
	return &block, nil
}
