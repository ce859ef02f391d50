package names

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// NameOpKind classifies a parsed name script.
type NameOpKind int

const (
	OpNone NameOpKind = iota
	OpNew
	OpFirstUpdate
	OpUpdate
)

func (k NameOpKind) String() string {
	switch k {
	case OpNew:
		return "NAME_NEW"
	case OpFirstUpdate:
		return "NAME_FIRSTUPDATE"
	case OpUpdate:
		return "NAME_UPDATE"
	default:
		return "NONE"
	}
}

// IsAnyUpdate reports whether kind creates or mutates a name record, as
// opposed to only announcing a future one.
func (k NameOpKind) IsAnyUpdate() bool {
	return k == OpFirstUpdate || k == OpUpdate
}

// NameOp is the parsed view of a name script: opcode plus per-kind fields,
// and the owner script — everything after the name-op prefix, which is
// the script that actually locks the coin. Consensus code never inspects
// raw script bytes again once this is produced.
type NameOp struct {
	Kind        NameOpKind
	Hash        []byte // NEW: 20-byte commitment
	Name        []byte // FIRSTUPDATE, UPDATE
	Value       []byte // FIRSTUPDATE, UPDATE
	Rand        []byte // FIRSTUPDATE
	OwnerScript []byte
}

// Name script tag opcodes. Three otherwise-unused small-integer pushes
// serve as the operation tag; everything pushed after the tag is
// operation data, consumed by a run of OP_DROP/OP_2DROP, after which the
// owner's spending script begins.
const (
	tagNew         = txscript.OP_1
	tagFirstUpdate = txscript.OP_2
	tagUpdate      = txscript.OP_3
)

var argCount = map[NameOpKind]int{
	OpNew:         1,
	OpFirstUpdate: 3,
	OpUpdate:      2,
}

// ParseNameScript inspects a scriptPubKey for a name-operation prefix. A
// script with no such prefix parses as {Kind: OpNone}, which is not an
// error — most outputs in the system are ordinary payments.
func ParseNameScript(script []byte) (*NameOp, error) {
	tok := txscript.MakeScriptTokenizer(0, script)
	if !tok.Next() {
		return &NameOp{Kind: OpNone}, nil
	}

	var kind NameOpKind
	switch tok.Opcode() {
	case tagNew:
		kind = OpNew
	case tagFirstUpdate:
		kind = OpFirstUpdate
	case tagUpdate:
		kind = OpUpdate
	default:
		return &NameOp{Kind: OpNone}, nil
	}

	nArgs := argCount[kind]
	args := make([][]byte, 0, nArgs)
	for i := 0; i < nArgs; i++ {
		if !tok.Next() {
			return nil, fmt.Errorf("names: truncated name script (%s arg %d)", kind, i)
		}
		args = append(args, append([]byte(nil), tok.Data()...))
	}

	// The tag itself plus its arguments were all pushed onto the stack;
	// the interpreter drops exactly that many items in 2-at-a-time
	// groups with a trailing single drop for an odd count.
	toDrop := 1 + nArgs
	for toDrop >= 2 {
		if !tok.Next() || tok.Opcode() != txscript.OP_2DROP {
			return nil, fmt.Errorf("names: malformed %s drop sequence", kind)
		}
		toDrop -= 2
	}
	if toDrop == 1 {
		if !tok.Next() || tok.Opcode() != txscript.OP_DROP {
			return nil, fmt.Errorf("names: malformed %s drop sequence", kind)
		}
	}

	owner := append([]byte(nil), script[tok.ByteIndex():]...)

	op := &NameOp{Kind: kind, OwnerScript: owner}
	switch kind {
	case OpNew:
		op.Hash = args[0]
	case OpFirstUpdate:
		op.Name, op.Rand, op.Value = args[0], args[1], args[2]
	case OpUpdate:
		op.Name, op.Value = args[0], args[1]
	}
	return op, nil
}

// BuildNameScript re-encodes op as a scriptPubKey, the inverse of
// ParseNameScript. Used by tests to construct fixtures without hand
// assembling opcode bytes.
func BuildNameScript(op *NameOp) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	switch op.Kind {
	case OpNew:
		b.AddOp(tagNew).AddData(op.Hash).AddOp(txscript.OP_2DROP)
	case OpFirstUpdate:
		b.AddOp(tagFirstUpdate).AddData(op.Name).AddData(op.Rand).AddData(op.Value).
			AddOp(txscript.OP_2DROP).AddOp(txscript.OP_2DROP)
	case OpUpdate:
		b.AddOp(tagUpdate).AddData(op.Name).AddData(op.Value).
			AddOp(txscript.OP_2DROP).AddOp(txscript.OP_DROP)
	default:
		return append([]byte(nil), op.OwnerScript...), nil
	}
	prefix, err := b.Script()
	if err != nil {
		return nil, err
	}
	return append(prefix, op.OwnerScript...), nil
}
