// Package chainerr defines the chain-state-engine error taxonomy
// (spec.md §7): a fixed set of kinds, not types, so callers can switch on
// behavior without string-matching messages. Modeled on the single concrete
// error type + reason string shape of the teacher's
// sharechain.ValidationError, generalized with a Kind so errors.Is works
// across the whole taxonomy.
package chainerr

import "fmt"

// Kind identifies which row of spec.md §7's error table an Error belongs to.
type Kind string

const (
	InvalidTransaction  Kind = "invalid_transaction"
	InvalidBlock        Kind = "invalid_block"
	InvalidBlockHeader  Kind = "invalid_block_header"
	InvalidMerkleRoot   Kind = "invalid_merkle_root"
	InvalidHash         Kind = "invalid_hash"
	InvalidSignature    Kind = "invalid_signature"
	InvalidPublicKey    Kind = "invalid_public_key"
	InvalidPrivateKey   Kind = "invalid_private_key"
)

// fixedMessage holds the short, fixed string spec.md §7 requires for each
// kind's user-visible behavior ("fails with a short, fixed string per
// kind").
var fixedMessage = map[Kind]string{
	InvalidTransaction: "invalid transaction",
	InvalidBlock:       "invalid block",
	InvalidBlockHeader: "invalid block header",
	InvalidMerkleRoot:  "invalid merkle root",
	InvalidHash:        "invalid hash",
	InvalidSignature:   "invalid signature",
	InvalidPublicKey:   "invalid public key",
	InvalidPrivateKey:  "invalid private key",
}

// Error is the one concrete error type for every chain-state-engine
// validation failure. Reason carries the specific, human-readable detail;
// Kind carries the taxonomy row so callers can branch on it.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fixedMessage[e.Kind]
	}
	return fmt.Sprintf("%s: %s", fixedMessage[e.Kind], e.Reason)
}

// Is lets errors.Is(err, chainerr.InvalidBlock.Sentinel()) work; more
// commonly callers use errors.As(err, &chainErr) and switch on Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// New constructs an *Error of the given kind with a specific reason.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf is New with a formatted reason.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Sentinel returns a bare *Error of kind k with no reason, suitable for
// errors.Is comparisons against a specific taxonomy row.
func (k Kind) Sentinel() *Error {
	return &Error{Kind: k}
}
