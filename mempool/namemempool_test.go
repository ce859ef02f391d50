package mempool

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namecore/nschain/config"
	"github.com/namecore/nschain/names"
)

func firstUpdateTx(name []byte) *wire.MsgTx {
	script, err := names.BuildNameScript(&names.NameOp{Kind: names.OpFirstUpdate, Name: name, Value: []byte("v")})
	if err != nil {
		panic(err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(0, script))
	return tx
}

func updateTx(name []byte) *wire.MsgTx {
	script, err := names.BuildNameScript(&names.NameOp{Kind: names.OpUpdate, Name: name, Value: []byte("v2")})
	if err != nil {
		panic(err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(0, script))
	return tx
}

func TestNameMemPool_ExclusivityRegistration(t *testing.T) {
	pool := NewNameMemPool(config.NameConfig{})
	name := []byte("d/test")

	tx1 := firstUpdateTx(name)
	txid1 := tx1.TxHash()
	require.True(t, pool.CheckTx(tx1))
	pool.AddUnchecked(txid1, tx1)

	tx2 := firstUpdateTx(name)
	assert.False(t, pool.CheckTx(tx2), "second FIRSTUPDATE for the same name must be rejected (P5/S6)")

	pool.Remove(txid1, tx1)
	assert.True(t, pool.CheckTx(tx2), "removing the first frees the slot")
}

func TestNameMemPool_ExclusivityUpdate(t *testing.T) {
	pool := NewNameMemPool(config.NameConfig{})
	name := []byte("d/test")

	tx1 := updateTx(name)
	txid1 := tx1.TxHash()
	pool.AddUnchecked(txid1, tx1)

	tx2 := updateTx(name)
	assert.False(t, pool.CheckTx(tx2))
}

func TestNameMemPool_RemoveConflicts(t *testing.T) {
	pool := NewNameMemPool(config.NameConfig{})
	name := []byte("d/test")

	tx1 := firstUpdateTx(name)
	pool.AddUnchecked(tx1.TxHash(), tx1)
	require.False(t, pool.CheckTx(firstUpdateTx(name)))

	pool.RemoveConflicts(name)
	assert.True(t, pool.CheckTx(firstUpdateTx(name)))
}

func TestNameMemPool_RemoveExpireConflicts(t *testing.T) {
	pool := NewNameMemPool(config.NameConfig{})
	name := "d/test"

	tx1 := updateTx([]byte(name))
	pool.AddUnchecked(tx1.TxHash(), tx1)
	require.False(t, pool.CheckTx(updateTx([]byte(name))))

	pool.RemoveExpireConflicts([]names.ExpiredName{{Name: name}})
	assert.True(t, pool.CheckTx(updateTx([]byte(name))))
}

func TestNameMemPool_RemoveUnexpireConflicts(t *testing.T) {
	pool := NewNameMemPool(config.NameConfig{})
	name := []byte("d/test")

	tx1 := firstUpdateTx(name)
	pool.AddUnchecked(tx1.TxHash(), tx1)
	require.False(t, pool.CheckTx(firstUpdateTx(name)))

	pool.RemoveUnexpireConflicts([]string{"d/test"})
	assert.True(t, pool.CheckTx(firstUpdateTx(name)))
}

// fakeView is a minimal names.NameView used just for the Check consistency
// pass: it answers GetName from a fixed map and is not otherwise walked.
type fakeView struct {
	entries map[string]names.NameData
}

func (v *fakeView) GetName(name []byte) (*names.NameData, error) {
	d, ok := v.entries[string(name)]
	if !ok {
		return nil, names.ErrNameNotFound
	}
	return &d, nil
}
func (v *fakeView) GetHistory(name []byte) (names.NameHistory, error) { return nil, nil }
func (v *fakeView) NamesAtHeight(h uint32) ([]string, error)          { return nil, nil }
func (v *fakeView) WalkNames(ctx context.Context, start []byte, consumer names.NameConsumer) error {
	return nil
}
func (v *fakeView) WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(names.ExpireKey) (bool, error)) error {
	return nil
}

func TestNameMemPool_CheckConsistency(t *testing.T) {
	params := config.RegressionNetParams() // depth 30
	pool := NewNameMemPool(config.NameConfig{})

	pool.pendingReg["d/free"] = entry{txid: chainhash.Hash{}}
	pool.pendingUpd["d/live"] = entry{txid: chainhash.Hash{}}

	view := &fakeView{entries: map[string]names.NameData{
		"d/live": {Value: []byte("v"), Height: 90},
	}}

	err := pool.Check(view, 100, params)
	assert.NoError(t, err)

	pool.pendingUpd["d/gone"] = entry{txid: chainhash.Hash{}}
	err = pool.Check(view, 100, params)
	assert.Error(t, err)
}
