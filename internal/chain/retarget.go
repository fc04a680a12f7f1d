package chain

import (
	"time"

	"github.com/maxmynter/nanochain/internal/metrics"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// TryAdjustTarget is the public entry point for spec.md §4.5's retarget
// check, used by callers outside the AddBlock path (e.g. after chain sync
// rebuilds the UTXO set).
func (bc *Blockchain) TryAdjustTarget() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.tryAdjustTargetLocked()
}

// tryAdjustTargetLocked implements spec.md §4.5. No-ops unless the chain
// height is a multiple of DifficultyUpdateInterval. Must be called with
// bc.mu held.
func (bc *Blockchain) tryAdjustTargetLocked() {
	height := uint64(len(bc.blocks))
	if height == 0 || height%DifficultyUpdateInterval != 0 {
		return
	}

	last := bc.blocks[height-1]
	first := bc.blocks[height-DifficultyUpdateInterval]

	elapsed := last.Header.Time().Sub(first.Header.Time())
	if elapsed <= 0 {
		elapsed = 1
	}
	ideal := IdealBlockTime * time.Duration(DifficultyUpdateInterval)

	// new = floor(target * elapsed / ideal), arbitrary-precision per
	// spec.md §9 to avoid overflowing a fixed-width 256-bit multiply.
	newTarget := bc.target.MulU256(chainhash.U256FromUint64(uint64(elapsed))).
		DivU256(chainhash.U256FromUint64(uint64(ideal)))

	lower := bc.target.Div(4)
	upper := bc.target.Mul(4)
	maxTarget := chainhash.MaxU256()
	if upper.Cmp(maxTarget) > 0 {
		upper = maxTarget
	}

	if newTarget.Cmp(lower) < 0 {
		newTarget = lower
	}
	if newTarget.Cmp(upper) > 0 {
		newTarget = upper
	}

	bc.target = newTarget
	metrics.RetargetEvents.Inc()
	metrics.DifficultyTarget.Set(float64(bc.target.BitLen()))
}
