// Package chain implements the blockchain state engine: the UTXO-indexed
// block list, the fee-sorted mempool, block/transaction validation, and
// difficulty retargeting. Grounded on internal/sharechain (the teacher's
// share-chain state machine), generalized from shares to full blocks with
// a richer UTXO/mempool model.
package chain

import "time"

// Design-default constants (spec.md §4.5), analogous to the teacher's
// sharechain.DifficultyAdjustmentWindow / MinShareTarget / MaxShareTarget.
const (
	// InitialReward is the block subsidy, in whole coins, before any
	// halving. Multiplied by SatoshisPerCoin to get the first coinbase
	// reward in satoshis.
	InitialReward uint64 = 50

	// SatoshisPerCoin is the fixed-point scale of TransactionOutput.Value.
	SatoshisPerCoin uint64 = 100_000_000

	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval uint64 = 210

	// IdealBlockTime is the target spacing between blocks.
	IdealBlockTime = 10 * time.Second

	// DifficultyUpdateInterval is the number of blocks between retarget
	// evaluations. TryAdjustTarget no-ops unless height is a multiple of
	// this.
	DifficultyUpdateInterval uint64 = 50

	// MaxMempoolTransactionAge is how long a mempool entry may sit before
	// CleanupMempool evicts it and releases its UTXO reservations.
	MaxMempoolTransactionAge = 600 * time.Second

	// BlockTransactionCap bounds the number of transactions (including the
	// coinbase) a template builder may pack into one block.
	BlockTransactionCap = 20
)
