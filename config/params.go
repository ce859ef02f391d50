package config

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Consensus constants (spec.md §6). These never vary by chain parameter set.
const (
	MaxNameLength      = 255
	MaxValueLength     = 1023
	MaxValueLengthUI   = 520
	MinFirstUpdateDepth = 12
	MempoolHeight      = 0x7FFFFFFF
)

// BugMode selects how apply_name_tx treats a transaction on the historic
// bug allowlist.
type BugMode int

const (
	// BugFullyApply means treat the transaction as if it were never on
	// the list — the normal validation and mutation path runs.
	BugFullyApply BugMode = iota
	// BugInUTXO means the name database is left untouched, but unlike
	// BugFullyIgnore the update output's coin is left alone in the UTXO
	// set rather than spent — used for a stealing output that itself
	// becomes the input to a later stealing bug and so must stay
	// spendable, while still never appearing in the name database.
	BugInUTXO
	// BugFullyIgnore means the name database is left untouched, and every
	// update output the transaction carries is additionally marked spent
	// in the UTXO set so invariant I1 does not drift.
	BugFullyIgnore
)

// expirationStep is one entry of a height-indexed expiration_depth(h)
// schedule; chains that never hard-fork the depth carry a single entry
// starting at height 0.
type expirationStep struct {
	fromHeight uint32
	depth      uint32
}

// bugEntry is one row of the curated historic-bug allowlist: at exactly
// height, transaction txid is exempted from (or partially exempted from)
// normal validation/mutation per mode.
type bugEntry struct {
	txid   chainhash.Hash
	height uint32
	mode   BugMode
}

// Params bundles every chain-specific knob the name subsystem consults.
// It is built once at startup (MainNetParams / RegressionNetParams) and
// passed by reference — never mutated after construction.
type Params struct {
	Name string

	// expirationSchedule is walked back-to-front: the first entry whose
	// fromHeight <= h wins. It must always contain a height-0 entry.
	expirationSchedule []expirationStep

	// minNameCoinAmount mirrors the expiration schedule's shape: a
	// height-indexed floor for the name output's coin value.
	minNameCoinAmount []minAmountStep

	// historicBugs is empty on every chain except the production replay
	// target; it exists purely to reproduce legacy anomalies bit-exactly.
	historicBugs map[bugKey]BugMode

	// postmortemHeight/postmortemName encode the single hardcoded
	// expire-engine exception (spec.md §4.4): at this height, this name
	// is skipped by the expire scan because its coin was already spent
	// by the historic bug being replayed.
	postmortemHeight uint32
	postmortemName   string
}

type minAmountStep struct {
	fromHeight uint32
	amount     int64 // satoshis
}

type bugKey struct {
	txid   chainhash.Hash
	height uint32
}

// ExpirationDepth returns expiration_depth(h): the number of blocks after
// registration/update at which a name becomes eligible for expiry.
func (p *Params) ExpirationDepth(h uint32) uint32 {
	for i := len(p.expirationSchedule) - 1; i >= 0; i-- {
		if p.expirationSchedule[i].fromHeight <= h {
			return p.expirationSchedule[i].depth
		}
	}
	return p.expirationSchedule[0].depth
}

// MinNameCoinAmount returns the greedy-name floor at height h, resolving
// spec.md's Open Question 2 in favor of a chain-parameter schedule rather
// than a single NAME_LOCKED_AMOUNT constant — the schedule subsumes the
// constant as a one-entry table.
func (p *Params) MinNameCoinAmount(h uint32) int64 {
	for i := len(p.minNameCoinAmount) - 1; i >= 0; i-- {
		if p.minNameCoinAmount[i].fromHeight <= h {
			return p.minNameCoinAmount[i].amount
		}
	}
	return p.minNameCoinAmount[0].amount
}

// IsHistoricBug reports whether (txid, height) is on the curated allowlist
// and, if so, which bypass mode applies. It is consulted from both
// check_name_tx and apply_name_tx and must never be bypassed itself.
func (p *Params) IsHistoricBug(txid chainhash.Hash, height uint32) (BugMode, bool) {
	mode, ok := p.historicBugs[bugKey{txid: txid, height: height}]
	return mode, ok
}

// IsPostmortemException reports the single codified expire-engine
// exception: at postmortemHeight, postmortemName is skipped by the expire
// scan because the historic bug already spent its coin. A parameter set
// with an empty postmortemName carries no exception at all.
func (p *Params) IsPostmortemException(height uint32, name string) bool {
	return p.postmortemName != "" && height == p.postmortemHeight && name == p.postmortemName
}

// mustHash parses a hex txid known at compile time to be well-formed; used
// only for the historic-bug allowlist literals below, where a parse
// failure would mean the table itself was typed wrong.
func mustHash(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("config: invalid historic-bug txid " + s + ": " + err.Error())
	}
	return *h
}

// MainNetParams mirrors the production chain's parameter set: a single
// expiration-depth era (36000 blocks, i.e. roughly 250 days at ten-minute
// blocks), a fixed
// name-coin floor, and the historic-bug allowlist required to replay the
// chain bit-exactly. The allowlist is non-empty only here, per spec.md
// §9: every other parameter set (regtest, tests) carries none. The six
// entries mirror the source chain's addBug calls one-for-one; a
// deployment adding further curated anomalies would still do so via
// RegisterHistoricBug/LoadHistoricBugs rather than editing this literal
// table.
func MainNetParams() *Params {
	p := &Params{
		Name: "mainnet",
		expirationSchedule: []expirationStep{
			{fromHeight: 0, depth: 36000},
		},
		minNameCoinAmount: []minAmountStep{
			{fromHeight: 0, amount: 0},
		},
		historicBugs:     map[bugKey]BugMode{},
		postmortemHeight: 175868,
		postmortemName:   "d/postmortem",
	}

	// Non-Namecoin-version transactions carrying NAME_FIRSTUPDATE outputs
	// that were never interpreted as name operations by the reference
	// client; the reference client also never spent their coins.
	p.RegisterHistoricBug(mustHash("bff3ed6873e5698b97bf0c28c29302b59588590b747787c7d1ef32decdabe0d1"), 98423, BugFullyIgnore)
	p.RegisterHistoricBug(mustHash("e9b211007e5cac471769212ca0f47bb066b81966a8e541d44acf0f8a1bd24976"), 98424, BugFullyIgnore)
	p.RegisterHistoricBug(mustHash("8aa2b0fc7d1033de28e0192526765a72e9df0c635f7305bdc57cb451ed01a4ca"), 98425, BugFullyIgnore)

	// Accepted despite mixing a NAME_NEW and a NAME_FIRSTUPDATE as inputs
	// via an argument-concatenation bug; safe to apply normally since
	// NAME_NEW carries no side effect of its own.
	p.RegisterHistoricBug(mustHash("774d4c446cecfc40b1c02fdc5a13be6d2007233f9d91daefab6b3c2e70042f05"), 99381, BugFullyApply)

	// libcoin's name-stealing bugs: the "d/bitcoin" steal must remain in
	// the UTXO set because it is later spent as input to the "d/wav"
	// steal, but neither should ever surface in the name database; the
	// "d/wav" steal output is never spent again, so it is fully ignored.
	p.RegisterHistoricBug(mustHash("2f034f2499c136a2c5a922ca4be65c1292815c753bbb100a2a26d5ad532c3919"), 139872, BugInUTXO)
	p.RegisterHistoricBug(mustHash("c3e76d5384139228221cce60250397d1b87adf7366086bc8d6b5e6eee03c55c7"), 139936, BugFullyIgnore)

	return p
}

// RegressionNetParams is used by tests and local development: a short
// expiration window so lifecycle tests do not need to mine tens of
// thousands of blocks, and no historic-bug entries.
func RegressionNetParams() *Params {
	return &Params{
		Name: "regtest",
		expirationSchedule: []expirationStep{
			{fromHeight: 0, depth: 30},
		},
		minNameCoinAmount: []minAmountStep{
			{fromHeight: 0, amount: 0},
		},
		historicBugs:     map[bugKey]BugMode{},
		postmortemHeight: 0,
		postmortemName:   "",
	}
}

// SetFlatMinNameCoinAmount overrides the minNameCoinAmount schedule with a
// single height-0 entry, letting a deployment (or a test) tune the
// greedy-name floor without a full hard-fork schedule.
func (p *Params) SetFlatMinNameCoinAmount(amount int64) {
	p.minNameCoinAmount = []minAmountStep{{fromHeight: 0, amount: amount}}
}

// RegisterHistoricBug adds one allowlist entry. Exposed so a generated
// table (extracted from the source chain's block history) can populate
// MainNetParams at init time without editing this file.
func (p *Params) RegisterHistoricBug(txid chainhash.Hash, height uint32, mode BugMode) {
	if p.historicBugs == nil {
		p.historicBugs = map[bugKey]BugMode{}
	}
	p.historicBugs[bugKey{txid: txid, height: height}] = mode
}
