package names

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameScript_NonNameScript(t *testing.T) {
	b := txscript.NewScriptBuilder().AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160)
	script, err := b.Script()
	require.NoError(t, err)

	op, err := ParseNameScript(script)
	require.NoError(t, err)
	assert.Equal(t, OpNone, op.Kind)
}

func TestNameScript_RoundTrip_New(t *testing.T) {
	owner, err := txscript.NewScriptBuilder().AddOp(txscript.OP_TRUE).Script()
	require.NoError(t, err)
	want := &NameOp{Kind: OpNew, Hash: make([]byte, 20), OwnerScript: owner}

	script, err := BuildNameScript(want)
	require.NoError(t, err)

	got, err := ParseNameScript(script)
	require.NoError(t, err)
	assert.Equal(t, OpNew, got.Kind)
	assert.Equal(t, want.Hash, got.Hash)
	assert.Equal(t, want.OwnerScript, got.OwnerScript)
}

func TestNameScript_RoundTrip_FirstUpdate(t *testing.T) {
	want := &NameOp{
		Kind:  OpFirstUpdate,
		Name:  []byte("d/test"),
		Rand:  []byte("saltsaltsaltsaltsalt"),
		Value: []byte(`{"ip":"1.2.3.4"}`),
	}
	script, err := BuildNameScript(want)
	require.NoError(t, err)

	got, err := ParseNameScript(script)
	require.NoError(t, err)
	assert.Equal(t, OpFirstUpdate, got.Kind)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Rand, got.Rand)
	assert.Equal(t, want.Value, got.Value)
}

func TestNameScript_RoundTrip_Update(t *testing.T) {
	want := &NameOp{Kind: OpUpdate, Name: []byte("d/test"), Value: []byte("v2")}
	script, err := BuildNameScript(want)
	require.NoError(t, err)

	got, err := ParseNameScript(script)
	require.NoError(t, err)
	assert.Equal(t, OpUpdate, got.Kind)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Value, got.Value)
}

func TestParseNameScript_TruncatedScript(t *testing.T) {
	b := txscript.NewScriptBuilder().AddOp(tagFirstUpdate).AddData([]byte("d/test"))
	script, err := b.Script()
	require.NoError(t, err)

	_, err = ParseNameScript(script)
	assert.Error(t, err)
}

func TestNameOpKind_IsAnyUpdate(t *testing.T) {
	assert.False(t, OpNone.IsAnyUpdate())
	assert.False(t, OpNew.IsAnyUpdate())
	assert.True(t, OpFirstUpdate.IsAnyUpdate())
	assert.True(t, OpUpdate.IsAnyUpdate())
}
