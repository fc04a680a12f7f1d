package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash is a 256-bit digest produced by canonically serializing an entity
// (pkg/chainhash.Marshal) and running it through SHA-256.
type Hash [32]byte

// Zero is the all-zero hash used as the genesis block's prev-hash.
var Zero = Hash{}

// Of canonically serializes entity and returns its SHA-256 digest.
func Of(entity interface{}) (Hash, error) {
	data, err := Marshal(entity)
	if err != nil {
		return Hash{}, fmt.Errorf("chainhash: canonical encode: %w", err)
	}
	return Hash(sha256.Sum256(data)), nil
}

// MustOf is Of but panics on encode failure. Only safe for types whose
// encoding cannot fail (no unsupported field types).
func MustOf(entity interface{}) Hash {
	h, err := Of(entity)
	if err != nil {
		panic(err)
	}
	return h
}

// MatchesTarget reports whether h, interpreted as a big-endian 256-bit
// unsigned integer, is less than or equal to target.
func (h Hash) MatchesTarget(target U256) bool {
	return AsU256(h).Cmp(target) <= 0
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String renders the hash as lowercase hex, most-significant byte first.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex parses a 64-character hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("chainhash: invalid hex: %w", err)
	}
	if len(b) != 32 {
		return Hash{}, fmt.Errorf("chainhash: expected 32 bytes, got %d", len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// MarshalCBOR encodes h as a 32-byte CBOR byte string, regardless of how the
// generic array-encoding rules would otherwise treat a [32]byte value.
func (h Hash) MarshalCBOR() ([]byte, error) {
	return Marshal(h[:])
}

// UnmarshalCBOR decodes a 32-byte CBOR byte string into h.
func (h *Hash) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("chainhash: hash must be 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return nil
}
