package chain

import (
	"sort"
	"time"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/chainerr"
	"github.com/maxmynter/nanochain/internal/metrics"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// feeLocked computes Σ(inputs) − Σ(outputs) for tx against the current UTXO
// snapshot. Must be called with bc.mu held.
func (bc *Blockchain) feeLocked(tx entity.Transaction) uint64 {
	var inputSum uint64
	for _, in := range tx.Inputs {
		if entry, ok := bc.utxos[in.PrevTransactionOutputHash]; ok {
			inputSum += entry.Output.Value
		}
	}
	outputSum := tx.OutputSum()
	if inputSum < outputSum {
		return 0
	}
	return inputSum - outputSum
}

// AddToMempool runs the five-step admission pipeline of spec.md §4.4.
func (bc *Blockchain) AddToMempool(tx entity.Transaction, now time.Time) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	err := bc.addToMempoolLocked(tx, now)
	if err != nil {
		if chErr, ok := err.(*chainerr.Error); ok {
			metrics.TransactionsRejected.WithLabelValues(string(chErr.Kind)).Inc()
		}
		return err
	}
	metrics.TransactionsAdmitted.Inc()
	metrics.MempoolSize.Set(float64(len(bc.mempool)))
	return nil
}

func (bc *Blockchain) addToMempoolLocked(tx entity.Transaction, now time.Time) error {
	// 1. Referential integrity & intra-tx double-spend.
	seen := make(map[chainhash.Hash]bool, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if seen[in.PrevTransactionOutputHash] {
			return chainerr.New(chainerr.InvalidTransaction, "duplicate input within transaction")
		}
		seen[in.PrevTransactionOutputHash] = true
		if _, ok := bc.utxos[in.PrevTransactionOutputHash]; !ok {
			return chainerr.New(chainerr.InvalidTransaction, "referenced UTXO does not exist")
		}
	}

	// 2. Conflict resolution against reserved UTXOs.
	for _, in := range tx.Inputs {
		entry := bc.utxos[in.PrevTransactionOutputHash]
		if !entry.Reserved {
			continue
		}
		if conflict, idx := bc.findReservingTxLocked(in.PrevTransactionOutputHash); idx >= 0 {
			bc.releaseReservationsLocked(conflict)
			bc.mempool = append(bc.mempool[:idx], bc.mempool[idx+1:]...)
		} else {
			entry.Reserved = false
			bc.utxos[in.PrevTransactionOutputHash] = entry
		}
	}

	// 3. Solvency.
	var inputSum uint64
	for _, in := range tx.Inputs {
		inputSum += bc.utxos[in.PrevTransactionOutputHash].Output.Value
	}
	if inputSum < tx.OutputSum() {
		return chainerr.New(chainerr.InvalidTransaction, "transaction is insolvent")
	}

	// 4. Reserve.
	for _, in := range tx.Inputs {
		entry := bc.utxos[in.PrevTransactionOutputHash]
		entry.Reserved = true
		bc.utxos[in.PrevTransactionOutputHash] = entry
	}

	// 5. Insert & sort ascending by fee.
	bc.mempool = append(bc.mempool, mempoolEntry{AdmittedAt: now, Tx: tx})
	sort.SliceStable(bc.mempool, func(i, j int) bool {
		return bc.feeLocked(bc.mempool[i].Tx) < bc.feeLocked(bc.mempool[j].Tx)
	})

	return nil
}

// findReservingTxLocked returns the mempool transaction that currently
// reserves outputHash, and its index, or (zero, -1) if none does (an
// orphan reservation).
func (bc *Blockchain) findReservingTxLocked(outputHash chainhash.Hash) (entity.Transaction, int) {
	for i, entry := range bc.mempool {
		for _, in := range entry.Tx.Inputs {
			if in.PrevTransactionOutputHash == outputHash {
				return entry.Tx, i
			}
		}
	}
	return entity.Transaction{}, -1
}

// releaseReservationsLocked clears the Reserved flag on every UTXO tx
// references.
func (bc *Blockchain) releaseReservationsLocked(tx entity.Transaction) {
	for _, in := range tx.Inputs {
		entry, ok := bc.utxos[in.PrevTransactionOutputHash]
		if !ok {
			continue
		}
		entry.Reserved = false
		bc.utxos[in.PrevTransactionOutputHash] = entry
	}
}

// CleanupMempool removes entries admitted more than MaxMempoolTransactionAge
// before now and releases their UTXO reservations (spec.md §4.4). Intended
// to run periodically from a ticker task.
func (bc *Blockchain) CleanupMempool(now time.Time) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	kept := bc.mempool[:0]
	for _, entry := range bc.mempool {
		if now.Sub(entry.AdmittedAt) > MaxMempoolTransactionAge {
			bc.releaseReservationsLocked(entry.Tx)
			continue
		}
		kept = append(kept, entry)
	}
	bc.mempool = kept
	metrics.MempoolSize.Set(float64(len(bc.mempool)))
}

// TopFeeTransactions returns up to n mempool transactions, highest fee
// first, for block template construction (spec.md §4.6).
func (bc *Blockchain) TopFeeTransactions(n int) []entity.Transaction {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if n > len(bc.mempool) {
		n = len(bc.mempool)
	}
	out := make([]entity.Transaction, 0, n)
	for i := len(bc.mempool) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, bc.mempool[i].Tx)
	}
	return out
}

// ExpectedFees returns the sum of fees for the given transactions against
// the current UTXO snapshot, used to size a coinbase output.
func (bc *Blockchain) ExpectedFees(txs []entity.Transaction) uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var total uint64
	for _, tx := range txs {
		total += bc.feeLocked(tx)
	}
	return total
}
