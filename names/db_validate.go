package names

import (
	"context"
	"fmt"

	"github.com/namecore/nschain/common"
	"github.com/namecore/nschain/config"
)

// UTXONameScanner enumerates every name mentioned by a name-update script
// in a currently unspent output. Providing this is a base-UTXO-layer
// concern out of scope for this package (spec.md §1); a node wires it up
// from whatever index it keeps over its coin set.
type UTXONameScanner func(consume func(name string) (cont bool, err error)) error

// MismatchKind classifies one consistency-verifier failure.
type MismatchKind int

const (
	MismatchHeightDrift MismatchKind = iota
	MismatchUTXOSetDrift
	MismatchDuplicateName
)

func (k MismatchKind) String() string {
	switch k {
	case MismatchHeightDrift:
		return "height drift between current and expire index"
	case MismatchUTXOSetDrift:
		return "current/expired set disagrees with UTXO name set"
	case MismatchDuplicateName:
		return "duplicate name in a table that must be unique"
	default:
		return "unknown mismatch"
	}
}

// Mismatch is one finding of ValidateNameDB.
type Mismatch struct {
	Kind MismatchKind
	Name string
	Detail string
}

// ValidateNameDB performs the full forward scan of §4.7: it walks every
// current record and every expire-index entry, cross-checks them against
// each other and against the caller's UTXO name set, and reports every
// disagreement it finds — except within the curated historic
// name-stealing window, where mismatches are expected and tolerated.
//
// tipHeight is the height "current" is evaluated against for the
// UTXO-vs-current comparison ({n : ¬current[n].isExpired(tip)}).
func ValidateNameDB(ctx context.Context, view NameView, scanUTXO UTXONameScanner, tipHeight uint32, params *config.Params) ([]Mismatch, error) {
	heightsCurrent := map[string]uint32{}
	if err := view.WalkNames(ctx, nil, func(name []byte, data *NameData) (bool, error) {
		key := string(name)
		if _, dup := heightsCurrent[key]; dup {
			return false, fmt.Errorf("names: duplicate current entry for %q", key)
		}
		heightsCurrent[key] = data.Height
		return true, nil
	}); err != nil {
		return nil, common.Wrapf(err, "validate: walk current")
	}

	heightsIndex := map[string]uint32{}
	seenIndex := map[string]bool{}
	if err := view.WalkExpiration(ctx, 0, func(k ExpireKey) (bool, error) {
		if seenIndex[k.Name] {
			return false, fmt.Errorf("names: duplicate expire-index entry for %q", k.Name)
		}
		seenIndex[k.Name] = true
		heightsIndex[k.Name] = k.Height
		return true, nil
	}); err != nil {
		return nil, common.Wrapf(err, "validate: walk expire index")
	}

	utxoNames := map[string]bool{}
	if scanUTXO != nil {
		if err := scanUTXO(func(name string) (bool, error) {
			if utxoNames[name] {
				return false, fmt.Errorf("names: duplicate utxo entry for %q", name)
			}
			utxoNames[name] = true
			return true, nil
		}); err != nil {
			return nil, common.Wrapf(err, "validate: scan utxo names")
		}
	}

	tolerated := func(name string) bool {
		return isNameStealingEraCandidate(heightsCurrent[name], heightsIndex[name], tipHeight)
	}

	var mismatches []Mismatch

	for name, h := range heightsCurrent {
		if idx, ok := heightsIndex[name]; !ok || idx != h {
			if tolerated(name) {
				continue
			}
			mismatches = append(mismatches, Mismatch{
				Kind: MismatchHeightDrift, Name: name,
				Detail: "current height disagrees with (or is absent from) the expire index",
			})
		}
	}
	for name, idx := range heightsIndex {
		if h, ok := heightsCurrent[name]; !ok || h != idx {
			if tolerated(name) {
				continue
			}
			mismatches = append(mismatches, Mismatch{
				Kind: MismatchHeightDrift, Name: name,
				Detail: "expire index entry has no matching current record",
			})
		}
	}

	if scanUTXO != nil {
		expected := map[string]bool{}
		for name, h := range heightsCurrent {
			depth := params.ExpirationDepth(tipHeight)
			if tipHeight < h+depth {
				expected[name] = true
			}
		}
		for name := range expected {
			if !utxoNames[name] {
				if inHistoricWindow(tipHeight) {
					continue
				}
				mismatches = append(mismatches, Mismatch{
					Kind: MismatchUTXOSetDrift, Name: name,
					Detail: "live name has no matching unspent name-update output",
				})
			}
		}
		for name := range utxoNames {
			if !expected[name] {
				if inHistoricWindow(tipHeight) {
					continue
				}
				mismatches = append(mismatches, Mismatch{
					Kind: MismatchUTXOSetDrift, Name: name,
					Detail: "unspent name-update output has no matching live current record",
				})
			}
		}
	}

	return mismatches, nil
}

// inHistoricWindow reports whether height falls in the curated
// name-stealing era, where mismatches are expected and tolerated
// (spec.md §4.7).
func inHistoricWindow(height uint32) bool {
	return height >= 139000 && height <= 180000
}

func isNameStealingEraCandidate(currentHeight, indexHeight, tipHeight uint32) bool {
	if inHistoricWindow(tipHeight) {
		return true
	}
	if inHistoricWindow(currentHeight) || inHistoricWindow(indexHeight) {
		return true
	}
	return false
}
