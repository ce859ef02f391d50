package config

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// BugTableEntry is the serializable form of one historic-bug allowlist
// row, suitable for loading from a checked-in data file rather than
// hardcoding transaction hashes into source.
type BugTableEntry struct {
	TxID   string
	Height uint32
	Mode   BugMode
}

// LoadHistoricBugs parses a table of (txid, height, mode) rows and
// registers each on params, for adding allowlist entries supplied as data.
// MainNetParams does not use it: its six entries are registered directly
// from literals in params.go.
func LoadHistoricBugs(params *Params, entries []BugTableEntry) error {
	for _, e := range entries {
		h, err := chainhash.NewHashFromStr(e.TxID)
		if err != nil {
			return err
		}
		params.RegisterHistoricBug(*h, e.Height, e.Mode)
	}
	return nil
}
