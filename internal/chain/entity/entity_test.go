package entity

import (
	"testing"
	"time"

	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

func testPubkey(t *testing.T) walletcrypto.PublicKey {
	t.Helper()
	priv, err := walletcrypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	return priv.PublicKey()
}

func TestTransactionOutput_UniqueIDDistinguishesIdenticalOutputs(t *testing.T) {
	pub := testPubkey(t)

	o1 := NewTransactionOutput(100, pub)
	o2 := NewTransactionOutput(100, pub)

	h1, err := o1.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := o2.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Error("two outputs with identical value/pubkey but different UUIDs should hash differently")
	}
}

func TestTransaction_IsCoinbase(t *testing.T) {
	pub := testPubkey(t)
	coinbase := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(5000000000, pub)}}
	if !coinbase.IsCoinbase() {
		t.Error("transaction with no inputs should be a coinbase")
	}

	spending := Transaction{
		Inputs:  []TransactionInput{{PrevTransactionOutputHash: chainhash.Hash{1}}},
		Outputs: []TransactionOutput{NewTransactionOutput(100, pub)},
	}
	if spending.IsCoinbase() {
		t.Error("transaction with inputs should not be a coinbase")
	}
}

func TestTransaction_OutputSum(t *testing.T) {
	pub := testPubkey(t)
	tx := Transaction{Outputs: []TransactionOutput{
		NewTransactionOutput(30, pub),
		NewTransactionOutput(12, pub),
	}}
	if got := tx.OutputSum(); got != 42 {
		t.Errorf("OutputSum = %d, want 42", got)
	}
}

func TestBlockHeader_TimestampRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	h := BlockHeader{Timestamp: TimestampFromTime(now)}
	if !h.Time().Equal(now) {
		t.Errorf("Time() = %v, want %v", h.Time(), now)
	}
}

func TestBlock_Coinbase(t *testing.T) {
	pub := testPubkey(t)
	cb := Transaction{Outputs: []TransactionOutput{NewTransactionOutput(1, pub)}}
	other := Transaction{Inputs: []TransactionInput{{PrevTransactionOutputHash: chainhash.Hash{9}}}}

	b := Block{Transactions: []Transaction{cb, other}}

	got, err := b.Coinbase()
	if err != nil {
		t.Fatalf("Coinbase: %v", err)
	}
	gotHash, _ := got.Hash()
	wantHash, _ := cb.Hash()
	if gotHash != wantHash {
		t.Error("Coinbase() should return transactions[0]")
	}

	rest := b.NonCoinbaseTransactions()
	if len(rest) != 1 {
		t.Fatalf("NonCoinbaseTransactions length = %d, want 1", len(rest))
	}
}

func TestBlock_Coinbase_Empty(t *testing.T) {
	var b Block
	if _, err := b.Coinbase(); err != ErrNoTransactions {
		t.Errorf("Coinbase on empty block: got %v, want ErrNoTransactions", err)
	}
}

func TestBlockHeader_CBORRoundTrip(t *testing.T) {
	h := BlockHeader{
		Timestamp:     1234567890123,
		Nonce:         99,
		PrevBlockHash: chainhash.Hash{1, 2, 3},
		MerkleRoot:    chainhash.Hash{4, 5, 6},
		Target:        chainhash.MaxU256(),
	}

	data, err := chainhash.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded BlockHeader
	if err := chainhash.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Timestamp != h.Timestamp || decoded.Nonce != h.Nonce ||
		decoded.PrevBlockHash != h.PrevBlockHash || decoded.MerkleRoot != h.MerkleRoot ||
		decoded.Target.Cmp(h.Target) != 0 {
		t.Error("block header cbor round trip mismatch")
	}
}
