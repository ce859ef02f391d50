package names

import "github.com/btcsuite/btcd/wire"

// UTXOSource is the external collaborator this subsystem consumes but
// never implements — the base UTXO store is out of scope (spec.md §1).
// The validator uses GetCoins to inspect a name input's script and
// confirmation height; the mutator and expire engine use SpendCoins to
// keep invariant I1 intact when a name transitions or expires.
type UTXOSource interface {
	// GetCoins returns the output at op, the height it confirmed at, and
	// whether it is still unspent. A zero TxOut and false mean the coin
	// does not exist or has already been spent.
	GetCoins(op wire.OutPoint) (*wire.TxOut, uint32, bool)

	// SpendCoins marks op as spent. Called by the mutator for the update
	// outputs of a BugFullyIgnore historic-bug transaction, and by the
	// expire engine when it retires an expired name's coin.
	SpendCoins(op wire.OutPoint) error

	// BestBlockHeight reports the tip height. Nothing in this module
	// calls it: the mempool consistency check takes the tip height as
	// an argument.
	BestBlockHeight() uint32
}
