// Package walletcrypto provides the secp256k1 ECDSA keypairs and signatures
// used to authorize spending a transaction output. Key generation/storage
// tooling beyond this in-memory interface is an external collaborator
// (spec.md §1 Non-goals); only the signature-verification contract matters
// to the chain state engine.
package walletcrypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/maxmynter/nanochain/internal/chainerr"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// PrivateKey is a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is a secp256k1 public key, always handled in its SEC1-compressed
// 33-byte form on the wire (spec.md §6).
type PublicKey struct {
	key *secp256k1.PublicKey
}

// Signature is a secp256k1 ECDSA signature, always handled in its
// DER-encoded form on the wire (spec.md §6).
type Signature struct {
	sig *ecdsa.Signature
}

// GeneratePrivateKey creates a new random private key.
func GeneratePrivateKey() (PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return PrivateKey{}, fmt.Errorf("walletcrypto: generate key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// PublicKey returns the public key corresponding to priv.
func (priv PrivateKey) PublicKey() PublicKey {
	return PublicKey{key: priv.key.PubKey()}
}

// Sign produces a signature over a 32-byte digest. Per spec.md §3, a
// Signature is always computed over a Hash, never over raw entity bytes.
func (priv PrivateKey) Sign(h chainhash.Hash) Signature {
	return Signature{sig: ecdsa.Sign(priv.key, h[:])}
}

// IsZero reports whether priv is the zero value (uninitialized).
func (priv PrivateKey) IsZero() bool {
	return priv.key == nil
}

// SEC1Compressed returns the 33-byte SEC1-compressed encoding of pub.
func (pub PublicKey) SEC1Compressed() []byte {
	if pub.key == nil {
		return nil
	}
	return pub.key.SerializeCompressed()
}

// PublicKeyFromSEC1 parses a 33-byte SEC1-compressed public key.
func PublicKeyFromSEC1(b []byte) (PublicKey, error) {
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, chainerr.Newf(chainerr.InvalidPublicKey, "%v", err)
	}
	return PublicKey{key: key}, nil
}

// Equal reports whether two public keys are the same point.
func (pub PublicKey) Equal(other PublicKey) bool {
	if pub.key == nil || other.key == nil {
		return pub.key == other.key
	}
	return pub.key.IsEqual(other.key)
}

// IsZero reports whether pub is the zero value (uninitialized).
func (pub PublicKey) IsZero() bool {
	return pub.key == nil
}

// MarshalCBOR encodes pub as its SEC1-compressed byte string.
func (pub PublicKey) MarshalCBOR() ([]byte, error) {
	return chainhash.Marshal(pub.SEC1Compressed())
}

// UnmarshalCBOR decodes a SEC1-compressed byte string into pub.
func (pub *PublicKey) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := chainhash.Unmarshal(data, &b); err != nil {
		return err
	}
	parsed, err := PublicKeyFromSEC1(b)
	if err != nil {
		return err
	}
	*pub = parsed
	return nil
}

// DER returns the DER encoding of sig.
func (sig Signature) DER() []byte {
	if sig.sig == nil {
		return nil
	}
	return sig.sig.Serialize()
}

// SignatureFromDER parses a DER-encoded ECDSA signature.
func SignatureFromDER(b []byte) (Signature, error) {
	sig, err := ecdsa.ParseDERSignature(b)
	if err != nil {
		return Signature{}, chainerr.Newf(chainerr.InvalidSignature, "%v", err)
	}
	return Signature{sig: sig}, nil
}

// Verify reports whether sig is a valid signature over h under pub, per
// spec.md §3: "A Signature over a Hash h under public key P verifies iff
// the ECDSA verification of (h, sig, P) succeeds."
func (sig Signature) Verify(h chainhash.Hash, pub PublicKey) bool {
	if sig.sig == nil || pub.key == nil {
		return false
	}
	return sig.sig.Verify(h[:], pub.key)
}

// MarshalCBOR encodes sig as its DER byte string.
func (sig Signature) MarshalCBOR() ([]byte, error) {
	return chainhash.Marshal(sig.DER())
}

// UnmarshalCBOR decodes a DER byte string into sig.
func (sig *Signature) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := chainhash.Unmarshal(data, &b); err != nil {
		return err
	}
	parsed, err := SignatureFromDER(b)
	if err != nil {
		return err
	}
	*sig = parsed
	return nil
}
