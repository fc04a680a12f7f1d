package entity

import (
	"errors"
	"time"

	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// BlockHeader is the part of a Block that gets hashed and mined. Timestamp
// is stored as Unix milliseconds (UTC) rather than time.Time so that the
// canonical CBOR encoding used for hashing is an explicit, deterministic
// integer instead of depending on however the CBOR library chooses to
// represent a time.Time value.
type BlockHeader struct {
	Timestamp     int64          `cbor:"1,keyasint"`
	Nonce         uint64         `cbor:"2,keyasint"`
	PrevBlockHash chainhash.Hash `cbor:"3,keyasint"`
	MerkleRoot    chainhash.Hash `cbor:"4,keyasint"`
	Target        chainhash.U256 `cbor:"5,keyasint"`
}

// Hash returns the canonical hash of the header (the block's identity).
func (h BlockHeader) Hash() (chainhash.Hash, error) {
	return chainhash.Of(h)
}

// Time returns the header's timestamp as a UTC time.Time.
func (h BlockHeader) Time() time.Time {
	return time.UnixMilli(h.Timestamp).UTC()
}

// TimestampFromTime converts t to the millisecond-precision UTC form
// BlockHeader.Timestamp expects.
func TimestampFromTime(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// Block is a mined header plus its ordered transaction list.
// Transactions[0] is always the coinbase (spec.md §3).
type Block struct {
	Header       BlockHeader   `cbor:"1,keyasint"`
	Transactions []Transaction `cbor:"2,keyasint"`
}

// Hash returns the block's identity, which is its header's hash.
func (b Block) Hash() (chainhash.Hash, error) {
	return b.Header.Hash()
}

// ErrNoTransactions is returned by Coinbase when a block has an empty
// transaction list.
var ErrNoTransactions = errors.New("entity: block has no transactions")

// Coinbase returns the block's first (coinbase) transaction.
func (b Block) Coinbase() (Transaction, error) {
	if len(b.Transactions) == 0 {
		return Transaction{}, ErrNoTransactions
	}
	return b.Transactions[0], nil
}

// NonCoinbaseTransactions returns every transaction after the coinbase.
func (b Block) NonCoinbaseTransactions() []Transaction {
	if len(b.Transactions) <= 1 {
		return nil
	}
	return b.Transactions[1:]
}

// MerkleHashers adapts b.Transactions to the chainhash.Hasher slice
// chainhash.Calculate expects.
func (b Block) MerkleHashers() []chainhash.Hasher {
	out := make([]chainhash.Hasher, len(b.Transactions))
	for i, tx := range b.Transactions {
		out[i] = tx
	}
	return out
}
