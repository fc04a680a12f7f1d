// Package testutil provides fixture builders shared across this module's
// test suites, mirroring the teacher's testutil/fixtures.go: sample
// keypairs, transactions, blocks, and an easy mining target.
package testutil

import (
	"testing"
	"time"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// SampleKeypair generates a fresh keypair or fails the test.
func SampleKeypair(t *testing.T) (walletcrypto.PrivateKey, walletcrypto.PublicKey) {
	t.Helper()
	priv, err := walletcrypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	return priv, priv.PublicKey()
}

// EasyTarget returns the maximum representable U256, so any block header
// hash satisfies it — used to skip proof-of-work search in tests that
// aren't exercising mining itself.
func EasyTarget() chainhash.U256 {
	return chainhash.MaxU256()
}

// SampleCoinbase builds a single-output coinbase transaction paying value
// to pub.
func SampleCoinbase(value uint64, pub walletcrypto.PublicKey) entity.Transaction {
	return entity.Transaction{
		Outputs: []entity.TransactionOutput{entity.NewTransactionOutput(value, pub)},
	}
}

// SampleBlock builds a block containing only coinbase, with a correctly
// computed merkle root, linked to prevHash at the given target.
func SampleBlock(t *testing.T, coinbase entity.Transaction, prevHash chainhash.Hash, target chainhash.U256, when time.Time) entity.Block {
	t.Helper()
	b := entity.Block{
		Header: entity.BlockHeader{
			Timestamp:     entity.TimestampFromTime(when),
			PrevBlockHash: prevHash,
			Target:        target,
		},
		Transactions: []entity.Transaction{coinbase},
	}
	root, err := chainhash.Calculate(b.MerkleHashers())
	if err != nil {
		t.Fatalf("Calculate merkle root: %v", err)
	}
	b.Header.MerkleRoot = root
	return b
}

// SampleChain builds a linear chain of count blocks, each paying the exact
// height-appropriate coinbase reward to pub, starting from a zero-prev-hash
// genesis, under an easy target, so the result passes Blockchain.AddBlock
// unmodified. Timestamps advance by one second per block.
func SampleChain(t *testing.T, count int, pub walletcrypto.PublicKey) []entity.Block {
	t.Helper()
	target := EasyTarget()
	blocks := make([]entity.Block, 0, count)
	var prevHash chainhash.Hash
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		coinbase := SampleCoinbase(chain.BlockReward(uint64(i)), pub)
		b := SampleBlock(t, coinbase, prevHash, target, when)
		blocks = append(blocks, b)

		h, err := b.Hash()
		if err != nil {
			t.Fatalf("Hash: %v", err)
		}
		prevHash = h
		when = when.Add(time.Second)
	}
	return blocks
}
