// Package entity defines the wire/hash shape of the chain's data model:
// transactions, their inputs and outputs, block headers, and blocks.
// Grounded on internal/types/share.go's header/hash modeling, generalized
// from a single Bitcoin-style header to this spec's richer UTXO model.
package entity

import (
	"github.com/google/uuid"

	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// TransactionOutput is a spendable amount paid to a public key. UniqueID
// exists solely so that two outputs with identical (Value, Pubkey) still
// hash differently — UTXOs are indexed by the hash of the output itself,
// so colliding hashes would silently merge two distinct outputs.
type TransactionOutput struct {
	Value    uint64             `cbor:"1,keyasint"`
	UniqueID uuid.UUID          `cbor:"2,keyasint"`
	Pubkey   walletcrypto.PublicKey `cbor:"3,keyasint"`
}

// NewTransactionOutput builds an output with a fresh random UUIDv4.
func NewTransactionOutput(value uint64, pub walletcrypto.PublicKey) TransactionOutput {
	return TransactionOutput{
		Value:    value,
		UniqueID: uuid.New(),
		Pubkey:   pub,
	}
}

// Hash returns the canonical hash of the output. UTXOs are keyed by this
// hash (spec.md §3).
func (o TransactionOutput) Hash() (chainhash.Hash, error) {
	return chainhash.Of(o)
}

// TransactionInput spends a prior output by referencing its hash and
// proving ownership with a signature over that same hash.
type TransactionInput struct {
	PrevTransactionOutputHash chainhash.Hash        `cbor:"1,keyasint"`
	Signature                 walletcrypto.Signature `cbor:"2,keyasint"`
}

// Transaction is an ordered list of inputs spending existing outputs and an
// ordered list of new outputs it creates. A Transaction with zero inputs is
// a coinbase; only transactions[0] of a block may be one (spec.md §3).
type Transaction struct {
	Inputs  []TransactionInput  `cbor:"1,keyasint"`
	Outputs []TransactionOutput `cbor:"2,keyasint"`
}

// Hash returns SHA-256 of the transaction's canonical serialization
// (spec.md §3), satisfying chainhash.Hasher for Merkle reduction.
func (tx Transaction) Hash() (chainhash.Hash, error) {
	return chainhash.Of(tx)
}

// IsCoinbase reports whether tx has no inputs.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// OutputSum returns the sum of tx's output values.
func (tx Transaction) OutputSum() uint64 {
	var sum uint64
	for _, out := range tx.Outputs {
		sum += out.Value
	}
	return sum
}
