package names

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/namecore/nschain/config"
)

// CheckFlags controls the handful of context-dependent relaxations
// check_name_tx applies for mempool admission versus block connection.
type CheckFlags struct {
	// Mempool means tx is being considered for mempool admission, not
	// block connection: the FIRSTUPDATE maturity check is bypassed
	// (spec.md S5) since the NEW may still be confirming.
	Mempool bool
}

// nameInput is one transaction input whose prevout parses as a name op.
type nameInput struct {
	index  int
	op     *NameOp
	height uint32
}

// nameOutput is one transaction output whose script parses as a name op,
// paired with the coin value that output would create.
type nameOutput struct {
	index int
	op    *NameOp
	value int64
}

// locateNameIO scans tx's inputs and outputs for name operations, per
// spec.md §4.2: at most one name input, at most one name output.
func locateNameIO(tx *wire.MsgTx, utxo UTXOSource) (*nameInput, []*nameOutput, error) {
	var inputs []*nameInput
	for i, txin := range tx.TxIn {
		out, height, found := utxo.GetCoins(txin.PreviousOutPoint)
		if !found {
			continue
		}
		op, err := ParseNameScript(out.PkScript)
		if err != nil {
			return nil, nil, err
		}
		if op.Kind == OpNone {
			continue
		}
		inputs = append(inputs, &nameInput{index: i, op: op, height: height})
	}

	var outputs []*nameOutput
	for i, txout := range tx.TxOut {
		op, err := ParseNameScript(txout.PkScript)
		if err != nil {
			return nil, nil, err
		}
		if op.Kind != OpNone {
			outputs = append(outputs, &nameOutput{index: i, op: op, value: txout.Value})
		}
	}

	if len(inputs) > 1 {
		return nil, nil, newErr(MultipleNameInputs, "")
	}
	if len(outputs) > 1 {
		return nil, nil, newErr(MultipleNameOutputs, "")
	}

	var in *nameInput
	if len(inputs) == 1 {
		in = inputs[0]
	}
	return in, outputs, nil
}

// nameTxFlag marks a transaction as participating in the naming protocol.
// Real deployments overlay this on an unused high bit of nVersion; the
// exact bit position is a chain-parameter concern this package does not
// own, so it is exposed as a variable a node wires up at startup.
var IsNameTx = func(tx *wire.MsgTx) bool {
	const nameTxVersionBit = int32(1) << 16
	return tx.Version&nameTxVersionBit != 0
}

// CheckNameTransaction is the pure validator: given a transaction, the
// target height (possibly MempoolHeight), a read-only view of name state,
// the UTXO collaborator, chain parameters and flags, it returns nil if tx
// is consensus-valid with respect to the naming protocol, or a
// *ValidationError otherwise. It never panics and never mutates.
func CheckNameTransaction(tx *wire.MsgTx, h uint32, view NameView, utxo UTXOSource, params *config.Params, flags CheckFlags) error {
	txHash := tx.TxHash()
	if _, ok := params.IsHistoricBug(txHash, h); ok {
		return nil
	}

	nameIn, outputs, err := locateNameIO(tx, utxo)
	if err != nil {
		return err
	}

	flagged := IsNameTx(tx)
	nameOutCount := len(outputs)
	nameInCount := 0
	if nameIn != nil {
		nameInCount = 1
	}

	if !flagged {
		if nameInCount != 0 || nameOutCount != 0 {
			return newErr(NonNameTxHasNameIO, "")
		}
		return nil
	}
	if nameOutCount == 0 {
		return newErr(NameTxWithoutNameOutput, "")
	}

	out := outputs[0]
	if out.value < params.MinNameCoinAmount(h) {
		return newErr(GreedyName, "")
	}

	switch out.op.Kind {
	case OpNew:
		if nameInCount != 0 {
			return newErr(NonNameTxHasNameIO, "NEW must not spend a name input")
		}
		if len(out.op.Hash) != 20 {
			return newErr(BadNewHashSize, "")
		}
		return nil

	case OpFirstUpdate:
		return checkFirstUpdate(nameIn, out.op, h, view, params, flags)

	case OpUpdate:
		return checkUpdate(nameIn, out.op, h, params)
	}

	return newErr(NameTxWithoutNameOutput, "unrecognized name op")
}

func checkFirstUpdate(nameIn *nameInput, out *NameOp, h uint32, view NameView, params *config.Params, flags CheckFlags) error {
	if len(out.Name) > config.MaxNameLength {
		return newErr(NameTooLong, "")
	}
	if len(out.Value) > config.MaxValueLength {
		return newErr(ValueTooLong, "")
	}
	if len(out.Rand) > 20 {
		return newErr(RandTooLong, "")
	}

	if nameIn == nil || nameIn.op.Kind != OpNew {
		return newErr(FirstUpdateWithoutMatureNew, "no NEW input")
	}
	if !flags.Mempool {
		if nameIn.height+config.MinFirstUpdateDepth > h {
			return newErr(FirstUpdateWithoutMatureNew, "insufficient confirmations")
		}
	}

	commitment := btcutil.Hash160(append(append([]byte(nil), out.Rand...), out.Name...))
	if string(commitment) != string(nameIn.op.Hash) {
		return newErr(FirstUpdateCommitmentMismatch, "")
	}

	existing, err := view.GetName(out.Name)
	if err != nil && err != ErrNameNotFound {
		return err
	}
	if err == nil {
		depth := params.ExpirationDepth(h)
		if !existing.IsExpired(h, depth) {
			return newErr(FirstUpdateOnLiveName, "")
		}
	}
	return nil
}

func checkUpdate(nameIn *nameInput, out *NameOp, h uint32, params *config.Params) error {
	if len(out.Name) > config.MaxNameLength {
		return newErr(NameTooLong, "")
	}
	if len(out.Value) > config.MaxValueLength {
		return newErr(ValueTooLong, "")
	}
	if nameIn == nil || !nameIn.op.Kind.IsAnyUpdate() {
		return newErr(UpdatePrevNotUpdate, "")
	}
	if string(nameIn.op.Name) != string(out.Name) {
		return newErr(UpdateNameMismatch, "")
	}

	depth := params.ExpirationDepth(h)
	if nameIn.height+depth <= h {
		return newErr(UpdateOnExpiredName, "")
	}
	return nil
}
