// Package selector implements spec.md §4.5 (component C5): the bounded
// ancestor-walk, sybil-weighted preferred-tip selection that collapses
// forks into a deterministic preference.
package selector

import (
	"github.com/mosaicnetworks/dvel/src/ledger"
	"github.com/mosaicnetworks/dvel/src/sybil"
)

// SelectPreferredTip walks up to maxSteps ancestors behind each tip,
// summing sybil-weighted scores, and returns the tip with the highest
// score. Ties are broken by the lexicographically smaller digest. It
// returns false if the ledger is empty.
func SelectPreferredTip(lg *ledger.Ledger, ov *sybil.Overlay, tick uint64, maxSteps int) (ledger.Digest, bool) {
	return selectPreferredTip(lg, tick, maxSteps, func(tick uint64, author [32]byte) int64 {
		return ov.AuthorWeightFP(tick, author)
	})
}

// SelectPreferredTipUnit is the control baseline of spec.md §4.5: identical
// walk and tie-break, but every author's weight is forced to 1.
func SelectPreferredTipUnit(lg *ledger.Ledger, tick uint64, maxSteps int) (ledger.Digest, bool) {
	return selectPreferredTip(lg, tick, maxSteps, func(uint64, [32]byte) int64 {
		return 1
	})
}

func selectPreferredTip(lg *ledger.Ledger, tick uint64, maxSteps int, weight func(uint64, [32]byte) int64) (ledger.Digest, bool) {
	tips := lg.Tips()
	if len(tips) == 0 {
		return ledger.Digest{}, false
	}

	var best ledger.Digest
	var bestScore int64
	haveBest := false

	// tips is already in canonical lexicographic order (ledger.Tips), so a
	// strict ">" comparison alone gives the lexicographically smallest
	// digest among ties: the first, and thus smallest, tip to reach a given
	// score keeps it.
	for _, tip := range tips {
		score := scoreTip(lg, tip, tick, maxSteps, weight)
		if !haveBest || score > bestScore {
			best = tip
			bestScore = score
			haveBest = true
		}
	}

	return best, haveBest
}

func scoreTip(lg *ledger.Ledger, tip ledger.Digest, tick uint64, maxSteps int, weight func(uint64, [32]byte) int64) int64 {
	var score int64
	current := tip
	for steps := 0; steps < maxSteps; steps++ {
		event, ok := lg.Get(current)
		if !ok {
			break
		}
		score += weight(tick, event.Author)
		if event.PrevHash.IsZero() {
			break
		}
		current = event.PrevHash
	}
	return score
}
