package names

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namecore/nschain/config"
)

func TestValidateNameDB_Clean(t *testing.T) {
	params := config.RegressionNetParams() // depth 30
	view := newMemView()
	view.current["d/live"] = NameData{Value: []byte("v"), Height: 90}

	scan := func(consume func(name string) (bool, error)) error {
		_, err := consume("d/live")
		return err
	}

	mismatches, err := ValidateNameDB(context.Background(), view, scan, 100, params)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestValidateNameDB_UTXODrift(t *testing.T) {
	params := config.RegressionNetParams()
	view := newMemView()
	view.current["d/live"] = NameData{Value: []byte("v"), Height: 90}

	// utxo set knows nothing about d/live: a genuine drift outside the
	// tolerated historic window.
	scan := func(consume func(name string) (bool, error)) error { return nil }

	mismatches, err := ValidateNameDB(context.Background(), view, scan, 100, params)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, MismatchUTXOSetDrift, mismatches[0].Kind)
}

func TestValidateNameDB_ToleratesHistoricWindow(t *testing.T) {
	params := config.RegressionNetParams()
	view := newMemView()
	// Still live at tip 150000 (149990+30 > 150000) with no UTXO behind
	// it: outside the window this would be a UTXO drift.
	view.current["d/live"] = NameData{Value: []byte("v"), Height: 149990}

	scan := func(consume func(name string) (bool, error)) error { return nil }

	mismatches, err := ValidateNameDB(context.Background(), view, scan, 150000, params)
	require.NoError(t, err)
	assert.Empty(t, mismatches, "mismatches inside [139000,180000] must be tolerated")
}
