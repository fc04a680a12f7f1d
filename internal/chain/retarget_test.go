package chain

import (
	"testing"
	"time"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// fakeChainAt builds a Blockchain whose blocks carry only the header
// timestamps TryAdjustTarget reads (first and last of the window); it
// bypasses AddBlock's proof-of-work check entirely, since retarget tests
// need control over timestamps at targets too tight for real mining to
// satisfy in a unit test.
func fakeChainAt(target chainhash.U256, timestamps []time.Time) *Blockchain {
	bc := NewBlockchain(target)
	bc.blocks = make([]entity.Block, len(timestamps))
	for i, ts := range timestamps {
		bc.blocks[i] = entity.Block{Header: entity.BlockHeader{Timestamp: entity.TimestampFromTime(ts)}}
	}
	return bc
}

func TestTryAdjustTarget_NoopUnlessOnInterval(t *testing.T) {
	timestamps := make([]time.Time, DifficultyUpdateInterval-1)
	for i := range timestamps {
		timestamps[i] = time.Unix(int64(1000+i), 0)
	}
	bc := fakeChainAt(easyTarget(), timestamps)

	before := bc.Target()
	bc.TryAdjustTarget()
	if bc.Target().Cmp(before) != 0 {
		t.Error("TryAdjustTarget should no-op when height is not a multiple of the update interval")
	}
}

func TestRetarget_ClampsToLowerBound(t *testing.T) {
	// DifficultyUpdateInterval blocks spanning 10 seconds total is far
	// faster than the 500s ideal, so the retarget step should hit the
	// old/4 lower clamp rather than computing old*(10/500).
	n := int(DifficultyUpdateInterval)
	timestamps := make([]time.Time, n)
	start := time.Unix(1000, 0)
	for i := range timestamps {
		timestamps[i] = start.Add(time.Duration(i) * (10 * time.Second) / time.Duration(n-1))
	}
	bc := fakeChainAt(easyTarget(), timestamps)

	bc.TryAdjustTarget()

	want := easyTarget().Div(4)
	if got := bc.Target(); got.Cmp(want) != 0 {
		t.Errorf("Target() = %s, want old/4 = %s", got.String(), want.String())
	}
}

func TestRetarget_ClampsToMinTarget(t *testing.T) {
	// Starting from a target near the top of the range with a very slow
	// block cadence, both the computed target and old*4 would exceed
	// MaxU256 (MIN_TARGET, the easiest difficulty); it must clamp there
	// instead of overflowing.
	n := int(DifficultyUpdateInterval)
	timestamps := make([]time.Time, n)
	start := time.Unix(1_000_000, 0)
	for i := range timestamps {
		timestamps[i] = start.Add(time.Duration(i) * 24 * time.Hour)
	}
	bc := fakeChainAt(chainhash.MaxU256().Div(2), timestamps)

	bc.TryAdjustTarget()

	if got := bc.Target(); got.Cmp(chainhash.MaxU256()) != 0 {
		t.Errorf("Target() = %s, want MaxU256 (clamped)", got.String())
	}
}

func TestRetarget_StaysWithinBoundsForModerateDrift(t *testing.T) {
	// A cadence close to ideal should land within [old/4, old*4] without
	// hitting either clamp.
	n := int(DifficultyUpdateInterval)
	timestamps := make([]time.Time, n)
	start := time.Unix(1000, 0)
	ideal := IdealBlockTime * time.Duration(n-1)
	for i := range timestamps {
		timestamps[i] = start.Add(time.Duration(i) * ideal / time.Duration(n-1))
	}
	old := easyTarget().Div(2)
	bc := fakeChainAt(old, timestamps)

	bc.TryAdjustTarget()

	got := bc.Target()
	if got.Cmp(old.Div(4)) < 0 || got.Cmp(old.Mul(4)) > 0 {
		t.Errorf("Target() = %s, want within [old/4, old*4] of %s", got.String(), old.String())
	}
}
