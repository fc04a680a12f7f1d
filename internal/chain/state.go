package chain

import (
	"sync"
	"time"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// utxoEntry is a UTXO plus the reservation flag spec.md §3 requires:
// Reserved marks an output claimed by an accepted-but-unconfirmed mempool
// transaction.
type utxoEntry struct {
	Reserved bool
	Output   entity.TransactionOutput
}

// mempoolEntry pairs a pending transaction with the time it was admitted,
// used both for fee ordering and for MaxMempoolTransactionAge eviction.
type mempoolEntry struct {
	AdmittedAt time.Time
	Tx         entity.Transaction
}

// Blockchain is the process's one chain-state handle (spec.md §9: "thread a
// Node handle... instead of globals"). Every field below is guarded by mu;
// callers never touch them directly. Grounded on sharechain's in-memory
// share-chain plus boltstore persistence, generalized to the richer
// block/UTXO/mempool model this spec describes.
type Blockchain struct {
	mu sync.RWMutex

	blocks  []entity.Block
	utxos   map[chainhash.Hash]utxoEntry
	mempool []mempoolEntry
	target  chainhash.U256
}

// NewBlockchain creates an empty chain with the given starting difficulty
// target (typically chainhash.MaxU256() — the easiest possible target —
// for a fresh deployment).
func NewBlockchain(genesisTarget chainhash.U256) *Blockchain {
	return &Blockchain{
		utxos:  make(map[chainhash.Hash]utxoEntry),
		target: genesisTarget,
	}
}

// Height returns the number of accepted blocks.
func (bc *Blockchain) Height() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Target returns the current difficulty target.
func (bc *Blockchain) Target() chainhash.U256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.target
}

// Block returns the block at index i and whether it exists.
func (bc *Blockchain) Block(i int) (entity.Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if i < 0 || i >= len(bc.blocks) {
		return entity.Block{}, false
	}
	return bc.blocks[i], true
}

// LastBlockHash returns the hash of the most recently accepted block, or
// the zero hash if the chain is empty.
func (bc *Blockchain) LastBlockHash() (chainhash.Hash, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return chainhash.Hash{}, nil
	}
	return bc.blocks[len(bc.blocks)-1].Hash()
}

// UTXO is a TransactionOutput paired with its reservation flag, returned to
// wallet clients answering FetchUTXOs.
type UTXO struct {
	Output   entity.TransactionOutput
	Reserved bool
}

// UTXOsForKey returns every UTXO payable to pub, alongside its reservation
// state.
func (bc *Blockchain) UTXOsForKey(pub walletcrypto.PublicKey) []UTXO {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var out []UTXO
	for _, entry := range bc.utxos {
		if entry.Output.Pubkey.Equal(pub) {
			out = append(out, UTXO{Output: entry.Output, Reserved: entry.Reserved})
		}
	}
	return out
}

// MempoolSize returns the number of pending mempool transactions.
func (bc *Blockchain) MempoolSize() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.mempool)
}
