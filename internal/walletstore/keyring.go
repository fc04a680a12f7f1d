// Package walletstore is a minimal in-memory keyring standing in for the
// spec's explicitly-external key generation/storage tooling: just enough
// surface for cmd/wallet to generate, list, and sign with keys end to end.
// No persistent keystore format is implemented.
package walletstore

import (
	"fmt"
	"sync"

	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// Keyring holds a process-local set of private keys, indexed by the
// SEC1-compressed form of their public key.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]walletcrypto.PrivateKey
}

// New returns an empty Keyring.
func New() *Keyring {
	return &Keyring{keys: make(map[string]walletcrypto.PrivateKey)}
}

// Generate creates a new keypair, stores it, and returns its public half.
func (k *Keyring) Generate() (walletcrypto.PublicKey, error) {
	priv, err := walletcrypto.GeneratePrivateKey()
	if err != nil {
		return walletcrypto.PublicKey{}, fmt.Errorf("walletstore: generate: %w", err)
	}
	pub := priv.PublicKey()
	k.mu.Lock()
	k.keys[string(pub.SEC1Compressed())] = priv
	k.mu.Unlock()
	return pub, nil
}

// Load stores an already-generated private key under its public key and
// returns the public half, so callers can reuse a key across process
// restarts by regenerating it from an external secret.
func (k *Keyring) Load(priv walletcrypto.PrivateKey) walletcrypto.PublicKey {
	pub := priv.PublicKey()
	k.mu.Lock()
	k.keys[string(pub.SEC1Compressed())] = priv
	k.mu.Unlock()
	return pub
}

// PublicKeys returns every public key currently held.
func (k *Keyring) PublicKeys() []walletcrypto.PublicKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]walletcrypto.PublicKey, 0, len(k.keys))
	for _, priv := range k.keys {
		out = append(out, priv.PublicKey())
	}
	return out
}

// Sign signs h with the private key corresponding to pub. Returns an error
// if pub is not held by this keyring.
func (k *Keyring) Sign(pub walletcrypto.PublicKey, h chainhash.Hash) (walletcrypto.Signature, error) {
	k.mu.RLock()
	priv, ok := k.keys[string(pub.SEC1Compressed())]
	k.mu.RUnlock()
	if !ok {
		return walletcrypto.Signature{}, fmt.Errorf("walletstore: no key held for given public key")
	}
	return priv.Sign(h), nil
}
