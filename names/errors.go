package names

import "fmt"

// ErrKind enumerates every distinguishable validation failure check_name_tx
// can return (spec.md §7). Callers surface the Kind, not just an error
// string, so a block/tx rejection can be logged or metriced by cause.
type ErrKind int

const (
	NonNameTxHasNameIO ErrKind = iota
	MultipleNameInputs
	MultipleNameOutputs
	NameTxWithoutNameOutput
	GreedyName
	BadNewHashSize
	FirstUpdateWithoutMatureNew
	FirstUpdateCommitmentMismatch
	FirstUpdateOnLiveName
	UpdateOnExpiredName
	UpdateNameMismatch
	UpdatePrevNotUpdate
	NameTooLong
	ValueTooLong
	RandTooLong
)

func (k ErrKind) String() string {
	switch k {
	case NonNameTxHasNameIO:
		return "NonNameTxHasNameIO"
	case MultipleNameInputs:
		return "MultipleNameInputs"
	case MultipleNameOutputs:
		return "MultipleNameOutputs"
	case NameTxWithoutNameOutput:
		return "NameTxWithoutNameOutput"
	case GreedyName:
		return "GreedyName"
	case BadNewHashSize:
		return "BadNewHashSize"
	case FirstUpdateWithoutMatureNew:
		return "FirstUpdateWithoutMatureNew"
	case FirstUpdateCommitmentMismatch:
		return "FirstUpdateCommitmentMismatch"
	case FirstUpdateOnLiveName:
		return "FirstUpdateOnLiveName"
	case UpdateOnExpiredName:
		return "UpdateOnExpiredName"
	case UpdateNameMismatch:
		return "UpdateNameMismatch"
	case UpdatePrevNotUpdate:
		return "UpdatePrevNotUpdate"
	case NameTooLong:
		return "NameTooLong"
	case ValueTooLong:
		return "ValueTooLong"
	case RandTooLong:
		return "RandTooLong"
	default:
		return "UnknownNameValidationError"
	}
}

// ValidationError is the typed, non-fatal failure check_name_tx returns.
// The validator never panics; every rejection path returns one of these.
type ValidationError struct {
	Kind   ErrKind
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newErr(kind ErrKind, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Detail: detail}
}

// AsValidationError unwraps err into a *ValidationError if it is (or
// wraps) one, mirroring pkg/errors.Cause for this taxonomy specifically.
func AsValidationError(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}
