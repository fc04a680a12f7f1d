package chain

import (
	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/chainerr"
	"github.com/maxmynter/nanochain/internal/metrics"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// BlockReward returns the coinbase subsidy (in satoshis) for a block at the
// given height, per spec.md §4.3: INITIAL_REWARD·10^8 / 2^(height /
// HALVING_INTERVAL), integer division throughout.
func BlockReward(height uint64) uint64 {
	halvings := height / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return (InitialReward * SatoshisPerCoin) >> halvings
}

// AddBlock runs the full acceptance pipeline of spec.md §4.3 and, on
// success, appends b, prunes the mempool of any transaction it includes,
// and invokes the retarget check. The UTXO set itself is not incrementally
// updated here (spec.md §9 Open Questions) — callers rebuild it via
// RebuildUTXOs after bulk ingestion such as chain sync.
func (bc *Blockchain) AddBlock(b entity.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var err error
	if len(bc.blocks) == 0 {
		err = bc.addGenesisLocked(b)
	} else {
		err = bc.addBlockLocked(b)
	}

	if err != nil {
		if chErr, ok := err.(*chainerr.Error); ok {
			metrics.BlocksRejected.WithLabelValues(string(chErr.Kind)).Inc()
		}
		return err
	}
	metrics.BlocksAccepted.Inc()
	metrics.ChainHeight.Set(float64(len(bc.blocks)))
	return nil
}

func (bc *Blockchain) addGenesisLocked(b entity.Block) error {
	if !b.Header.PrevBlockHash.IsZero() {
		return chainerr.New(chainerr.InvalidBlock, "genesis block must have a zero prev_block_hash")
	}
	bc.blocks = append(bc.blocks, b)
	return nil
}

func (bc *Blockchain) addBlockLocked(b entity.Block) error {
	last := bc.blocks[len(bc.blocks)-1]

	headerHash, err := b.Header.Hash()
	if err != nil {
		return chainerr.Newf(chainerr.InvalidBlockHeader, "%v", err)
	}
	if !headerHash.MatchesTarget(b.Header.Target) {
		return chainerr.New(chainerr.InvalidBlock, "header hash does not satisfy its target")
	}

	lastHash, err := last.Hash()
	if err != nil {
		return chainerr.Newf(chainerr.InvalidBlockHeader, "%v", err)
	}
	if b.Header.PrevBlockHash != lastHash {
		return chainerr.New(chainerr.InvalidBlock, "prev_block_hash does not match the chain tip")
	}

	root, err := chainhash.Calculate(b.MerkleHashers())
	if err != nil {
		return chainerr.Newf(chainerr.InvalidMerkleRoot, "%v", err)
	}
	if root != b.Header.MerkleRoot {
		return chainerr.New(chainerr.InvalidMerkleRoot, "computed root does not match header")
	}

	if !b.Header.Time().After(last.Header.Time()) {
		return chainerr.New(chainerr.InvalidBlock, "timestamp does not advance past the chain tip")
	}

	if err := bc.verifyTransactionsLocked(b, uint64(len(bc.blocks))); err != nil {
		return err
	}

	bc.pruneMempoolOfLocked(b)
	bc.blocks = append(bc.blocks, b)
	bc.tryAdjustTargetLocked()
	return nil
}

// verifyTransactionsLocked implements spec.md §4.3 step 5 against the
// current UTXO snapshot. Must be called with bc.mu held.
func (bc *Blockchain) verifyTransactionsLocked(b entity.Block, height uint64) error {
	if len(b.Transactions) == 0 {
		return chainerr.New(chainerr.InvalidTransaction, "block has no transactions")
	}

	coinbase, err := b.Coinbase()
	if err != nil {
		return chainerr.Newf(chainerr.InvalidTransaction, "%v", err)
	}
	if !coinbase.IsCoinbase() {
		return chainerr.New(chainerr.InvalidTransaction, "transactions[0] must have zero inputs")
	}
	if len(coinbase.Outputs) == 0 {
		return chainerr.New(chainerr.InvalidTransaction, "coinbase must have at least one output")
	}

	rest := b.NonCoinbaseTransactions()
	spent := make(map[chainhash.Hash]bool, len(rest))
	var totalFees uint64

	for _, tx := range rest {
		var inputSum uint64
		seen := make(map[chainhash.Hash]bool, len(tx.Inputs))
		for _, in := range tx.Inputs {
			if seen[in.PrevTransactionOutputHash] {
				return chainerr.New(chainerr.InvalidTransaction, "duplicate input within transaction")
			}
			seen[in.PrevTransactionOutputHash] = true

			if spent[in.PrevTransactionOutputHash] {
				return chainerr.New(chainerr.InvalidTransaction, "input spent twice within block")
			}
			spent[in.PrevTransactionOutputHash] = true

			entry, ok := bc.utxos[in.PrevTransactionOutputHash]
			if !ok {
				return chainerr.New(chainerr.InvalidTransaction, "referenced UTXO does not exist")
			}
			if !in.Signature.Verify(in.PrevTransactionOutputHash, entry.Output.Pubkey) {
				return chainerr.New(chainerr.InvalidSignature, "input signature does not verify")
			}
			inputSum += entry.Output.Value
		}

		outputSum := tx.OutputSum()
		if inputSum < outputSum {
			return chainerr.New(chainerr.InvalidTransaction, "transaction is insolvent")
		}
		totalFees += inputSum - outputSum
	}

	reward := BlockReward(height)
	if coinbase.OutputSum() != reward+totalFees {
		return chainerr.Newf(chainerr.InvalidTransaction,
			"coinbase pays %d, want block_reward(%d)+fees(%d)=%d",
			coinbase.OutputSum(), reward, totalFees, reward+totalFees)
	}

	return nil
}

// pruneMempoolOfLocked removes any mempool entry whose transaction hash
// appears among b's transactions (spec.md §4.3 "On success"). Must be
// called with bc.mu held.
func (bc *Blockchain) pruneMempoolOfLocked(b entity.Block) {
	included := make(map[chainhash.Hash]bool, len(b.Transactions))
	for _, tx := range b.Transactions {
		if h, err := tx.Hash(); err == nil {
			included[h] = true
		}
	}

	kept := bc.mempool[:0]
	for _, entry := range bc.mempool {
		h, err := entry.Tx.Hash()
		if err == nil && included[h] {
			continue
		}
		kept = append(kept, entry)
	}
	bc.mempool = kept
}

// RebuildUTXOs replays every block's transactions from genesis to derive
// the UTXO set from scratch: for each transaction, consumed inputs are
// removed and new outputs are inserted unreserved. Reservation state
// tracked by the mempool is not touched here — callers should re-run
// mempool admission bookkeeping separately if needed.
func (bc *Blockchain) RebuildUTXOs() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.rebuildUTXOsLocked()
}

func (bc *Blockchain) rebuildUTXOsLocked() error {
	utxos := make(map[chainhash.Hash]utxoEntry)

	for _, b := range bc.blocks {
		for _, tx := range b.Transactions {
			for _, in := range tx.Inputs {
				delete(utxos, in.PrevTransactionOutputHash)
			}
			for _, out := range tx.Outputs {
				h, err := out.Hash()
				if err != nil {
					return chainerr.Newf(chainerr.InvalidHash, "%v", err)
				}
				utxos[h] = utxoEntry{Output: out}
			}
		}
	}

	bc.utxos = utxos
	return nil
}
