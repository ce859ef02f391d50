package names

import (
	"context"

	"github.com/btcsuite/btcd/wire"
)

// memView is a minimal in-memory NameView used by tests that need a
// preloaded current-name state without a real store behind them.
type memView struct {
	current map[string]NameData
	history map[string]NameHistory
}

func newMemView() *memView {
	return &memView{current: map[string]NameData{}, history: map[string]NameHistory{}}
}

func (v *memView) GetName(name []byte) (*NameData, error) {
	d, ok := v.current[string(name)]
	if !ok {
		return nil, ErrNameNotFound
	}
	clone := d.Clone()
	return &clone, nil
}

func (v *memView) GetHistory(name []byte) (NameHistory, error) {
	return v.history[string(name)], nil
}

func (v *memView) NamesAtHeight(h uint32) ([]string, error) {
	var out []string
	for n, d := range v.current {
		if d.Height == h {
			out = append(out, n)
		}
	}
	return out, nil
}

func (v *memView) WalkNames(ctx context.Context, start []byte, consumer NameConsumer) error {
	for n, d := range v.current {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := d
		cont, err := consumer([]byte(n), &data)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (v *memView) WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(ExpireKey) (bool, error)) error {
	for n, d := range v.current {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Height < fromHeight {
			continue
		}
		cont, err := consumer(ExpireKey{Height: d.Height, Name: n})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// fakeUTXO is a minimal in-memory UTXOSource: a map of outpoint to (txout,
// height), with SpendCoins deleting the entry.
type fakeUTXO struct {
	coins map[wire.OutPoint]fakeCoin
	tip   uint32
}

type fakeCoin struct {
	out    *wire.TxOut
	height uint32
}

func newFakeUTXO() *fakeUTXO {
	return &fakeUTXO{coins: map[wire.OutPoint]fakeCoin{}}
}

func (u *fakeUTXO) add(op wire.OutPoint, out *wire.TxOut, height uint32) {
	u.coins[op] = fakeCoin{out: out, height: height}
}

func (u *fakeUTXO) GetCoins(op wire.OutPoint) (*wire.TxOut, uint32, bool) {
	c, ok := u.coins[op]
	if !ok {
		return nil, 0, false
	}
	return c.out, c.height, true
}

func (u *fakeUTXO) SpendCoins(op wire.OutPoint) error {
	delete(u.coins, op)
	return nil
}

func (u *fakeUTXO) BestBlockHeight() uint32 {
	return u.tip
}

// taggedTx builds a wire.MsgTx flagged as a name transaction (the high
// version bit IsNameTx checks), with a single output carrying script.
func taggedTx(script []byte, value int64, prevOut *wire.OutPoint) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.Version = tx.Version | (1 << 16)
	if prevOut != nil {
		tx.AddTxIn(wire.NewTxIn(prevOut, nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(value, script))
	return tx
}
