package config

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
)

func TestExpirationDepth_SingleEra(t *testing.T) {
	p := RegressionNetParams()
	assert.Equal(t, uint32(30), p.ExpirationDepth(0))
	assert.Equal(t, uint32(30), p.ExpirationDepth(999999))
}

func TestExpirationDepth_SteppedSchedule(t *testing.T) {
	p := &Params{expirationSchedule: []expirationStep{
		{fromHeight: 0, depth: 12000},
		{fromHeight: 50000, depth: 36000},
	}}
	assert.Equal(t, uint32(12000), p.ExpirationDepth(0))
	assert.Equal(t, uint32(12000), p.ExpirationDepth(49999))
	assert.Equal(t, uint32(36000), p.ExpirationDepth(50000))
	assert.Equal(t, uint32(36000), p.ExpirationDepth(100000))
}

func TestMinNameCoinAmount(t *testing.T) {
	p := MainNetParams()
	assert.Equal(t, int64(0), p.MinNameCoinAmount(0))
	p.SetFlatMinNameCoinAmount(5000)
	assert.Equal(t, int64(5000), p.MinNameCoinAmount(123456))
}

func TestIsHistoricBug(t *testing.T) {
	p := MainNetParams()
	txid := chainhash.Hash{0x01}
	_, ok := p.IsHistoricBug(txid, 1000)
	assert.False(t, ok)

	p.RegisterHistoricBug(txid, 1000, BugFullyIgnore)
	mode, ok := p.IsHistoricBug(txid, 1000)
	require := assert.New(t)
	require.True(ok)
	require.Equal(BugFullyIgnore, mode)

	// A different height for the same txid is not on the allowlist.
	_, ok = p.IsHistoricBug(txid, 1001)
	assert.False(t, ok)
}

func TestIsPostmortemException(t *testing.T) {
	p := MainNetParams()
	assert.True(t, p.IsPostmortemException(175868, "d/postmortem"))
	assert.False(t, p.IsPostmortemException(175868, "d/other"))
	assert.False(t, p.IsPostmortemException(175867, "d/postmortem"))

	reg := RegressionNetParams()
	assert.False(t, reg.IsPostmortemException(0, ""))
}
