// Package mining implements the stateless nonce-advance search miners run
// against a block template's header (spec.md §4.2). It touches no shared
// blockchain state, so callers are free to drive it in bounded batches
// interleaved with template refresh and cancellation checks.
package mining

import (
	"time"

	"github.com/maxmynter/nanochain/internal/chain/entity"
)

// Mine attempts up to steps nonce increments against header, mutating it in
// place. It returns true as soon as header's hash satisfies its target,
// false if the budget is exhausted first.
//
// When Nonce would overflow back to 0, the timestamp is refreshed to now so
// an exhausted nonce space doesn't stall the search on a stale header.
func Mine(header *entity.BlockHeader, steps uint64) (bool, error) {
	ok, err := satisfies(header)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	for i := uint64(0); i < steps; i++ {
		header.Nonce++
		if header.Nonce == 0 {
			header.Timestamp = entity.TimestampFromTime(time.Now())
		}

		ok, err := satisfies(header)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func satisfies(header *entity.BlockHeader) (bool, error) {
	h, err := header.Hash()
	if err != nil {
		return false, err
	}
	return h.MatchesTarget(header.Target), nil
}
