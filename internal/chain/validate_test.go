package chain

import (
	"testing"
	"time"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/chainerr"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
	"github.com/maxmynter/nanochain/testutil"
)

// mustPub returns a fresh public key, discarding the private half; most of
// this package's tests only need a destination to pay.
func mustPub(t *testing.T) walletcrypto.PublicKey {
	t.Helper()
	_, pub := testutil.SampleKeypair(t)
	return pub
}

// buildBlock assembles a block whose merkle root matches its transactions,
// leaving PrevBlockHash/Target/Timestamp/Nonce for the caller to set.
func buildBlock(t *testing.T, txs []entity.Transaction, header entity.BlockHeader) entity.Block {
	t.Helper()
	b := entity.Block{Header: header, Transactions: txs}
	root, err := chainhash.Calculate(b.MerkleHashers())
	if err != nil {
		t.Fatalf("Calculate merkle root: %v", err)
	}
	b.Header.MerkleRoot = root
	return b
}

func easyTarget() chainhash.U256 {
	return testutil.EasyTarget()
}

func TestAddBlock_GenesisAccept(t *testing.T) {
	bc := NewBlockchain(easyTarget())
	pub := mustPub(t)

	coinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(InitialReward*SatoshisPerCoin, pub),
	}}
	b := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
		Timestamp: entity.TimestampFromTime(time.Unix(1000, 0)),
		Target:    easyTarget(),
	})

	if err := bc.AddBlock(b); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if bc.Height() != 1 {
		t.Errorf("Height() = %d, want 1", bc.Height())
	}
}

func TestAddBlock_GenesisRejection(t *testing.T) {
	bc := NewBlockchain(easyTarget())
	pub := mustPub(t)

	coinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(InitialReward*SatoshisPerCoin, pub),
	}}
	b := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Unix(1000, 0)),
		Target:        easyTarget(),
		PrevBlockHash: chainhash.Hash{1},
	})

	err := bc.AddBlock(b)
	if err == nil {
		t.Fatal("expected genesis block with nonzero prev hash to be rejected")
	}
	var chErr *chainerr.Error
	if !asChainErr(err, &chErr) || chErr.Kind != chainerr.InvalidBlock {
		t.Errorf("got %v, want InvalidBlock", err)
	}
	if bc.Height() != 0 {
		t.Errorf("Height() = %d, want 0", bc.Height())
	}
}

func asChainErr(err error, target **chainerr.Error) bool {
	e, ok := err.(*chainerr.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

// chainAtHeight builds a valid genesis-rooted chain of n blocks, each with
// a solo coinbase paying the exact reward for its height, spaced one
// second apart. Returns only the chain; the key paying every coinbase
// output is discarded.
func chainAtHeight(t *testing.T, n int) *Blockchain {
	t.Helper()
	bc := NewBlockchain(easyTarget())
	pub := mustPub(t)

	for h := 0; h < n; h++ {
		prev, err := bc.LastBlockHash()
		if err != nil {
			t.Fatalf("LastBlockHash: %v", err)
		}
		reward := BlockReward(uint64(h))
		coinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
			entity.NewTransactionOutput(reward, pub),
		}}
		b := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
			Timestamp:     entity.TimestampFromTime(time.Unix(int64(1000+h), 0)),
			Target:        easyTarget(),
			PrevBlockHash: prev,
		})
		if err := bc.AddBlock(b); err != nil {
			t.Fatalf("AddBlock at height %d: %v", h, err)
		}
	}
	return bc
}

func TestAddBlock_Halving(t *testing.T) {
	bc := chainAtHeight(t, int(HalvingInterval))
	pub := mustPub(t)

	prev, err := bc.LastBlockHash()
	if err != nil {
		t.Fatalf("LastBlockHash: %v", err)
	}

	halved := (InitialReward * SatoshisPerCoin) / 2
	goodCoinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(halved, pub),
	}}
	good := buildBlock(t, []entity.Transaction{goodCoinbase}, entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Unix(int64(1000+HalvingInterval), 0)),
		Target:        easyTarget(),
		PrevBlockHash: prev,
	})
	if err := bc.AddBlock(good); err != nil {
		t.Fatalf("expected halved-reward coinbase to be accepted, got %v", err)
	}

	unhalvedCoinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(InitialReward*SatoshisPerCoin, pub),
	}}
	prev2, _ := bc.LastBlockHash()
	bad := buildBlock(t, []entity.Transaction{unhalvedCoinbase}, entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Unix(int64(2000+HalvingInterval), 0)),
		Target:        easyTarget(),
		PrevBlockHash: prev2,
	})
	err = bc.AddBlock(bad)
	var chErr *chainerr.Error
	if !asChainErr(err, &chErr) || chErr.Kind != chainerr.InvalidTransaction {
		t.Errorf("got %v, want InvalidTransaction", err)
	}
}

func TestBlockReward_HalvingSchedule(t *testing.T) {
	cases := []struct {
		height uint64
		want   uint64
	}{
		{0, 50 * SatoshisPerCoin},
		{HalvingInterval - 1, 50 * SatoshisPerCoin},
		{HalvingInterval, 25 * SatoshisPerCoin},
		{2 * HalvingInterval, 1250000000},
	}
	for _, c := range cases {
		if got := BlockReward(c.height); got != c.want {
			t.Errorf("BlockReward(%d) = %d, want %d", c.height, got, c.want)
		}
	}
}

func TestAddBlock_RejectsBadPoW(t *testing.T) {
	bc := NewBlockchain(chainhash.ZeroU256())
	pub := mustPub(t)

	coinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(InitialReward*SatoshisPerCoin, pub),
	}}
	// Genesis has no PoW check, so accept it first.
	genesis := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
		Timestamp: entity.TimestampFromTime(time.Unix(1000, 0)),
		Target:    chainhash.ZeroU256(),
	})
	if err := bc.AddBlock(genesis); err != nil {
		t.Fatalf("genesis AddBlock: %v", err)
	}

	prev, _ := bc.LastBlockHash()
	next := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Unix(1001, 0)),
		Target:        chainhash.ZeroU256(), // impossible to satisfy
		PrevBlockHash: prev,
	})
	err := bc.AddBlock(next)
	var chErr *chainerr.Error
	if !asChainErr(err, &chErr) || chErr.Kind != chainerr.InvalidBlock {
		t.Errorf("got %v, want InvalidBlock (PoW failure)", err)
	}
}

func TestAddBlock_RejectsNonMonotonicTimestamp(t *testing.T) {
	bc := chainAtHeight(t, 1)
	pub := mustPub(t)
	prev, _ := bc.LastBlockHash()

	coinbase := entity.Transaction{Outputs: []entity.TransactionOutput{
		entity.NewTransactionOutput(BlockReward(1), pub),
	}}
	stale := buildBlock(t, []entity.Transaction{coinbase}, entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Unix(900, 0)),
		Target:        easyTarget(),
		PrevBlockHash: prev,
	})
	err := bc.AddBlock(stale)
	var chErr *chainerr.Error
	if !asChainErr(err, &chErr) || chErr.Kind != chainerr.InvalidBlock {
		t.Errorf("got %v, want InvalidBlock (non-monotonic timestamp)", err)
	}
}

func TestRebuildUTXOs_Idempotent(t *testing.T) {
	bc := chainAtHeight(t, 3)

	if err := bc.RebuildUTXOs(); err != nil {
		t.Fatalf("RebuildUTXOs: %v", err)
	}
	first := len(bc.utxos)

	if err := bc.RebuildUTXOs(); err != nil {
		t.Fatalf("RebuildUTXOs (second): %v", err)
	}
	if len(bc.utxos) != first {
		t.Errorf("RebuildUTXOs is not idempotent: %d vs %d", first, len(bc.utxos))
	}
	if first != 3 {
		t.Errorf("expected 3 unspent coinbase outputs, got %d", first)
	}
}
