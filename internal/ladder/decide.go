package ladder

import (
	"fmt"
	"slices"

	"hlsladder/internal/media/ffprobe"
)

const (
	fullLadderMinSum     = 2000
	fullLadderMinBitrate = 1_500_000

	midLadderMinSum     = 1334
	midLadderMinBitrate = 500_000
	midLadderMaxBitrate = 2_000_000
)

// Ladder is the ordered set of rungs chosen for a source, highest quality first.
type Ladder []Rung

// IDs returns the rung identifiers in ladder order.
func (l Ladder) IDs() []ID {
	ids := make([]ID, len(l))
	for i, r := range l {
		ids[i] = r.ID
	}
	return ids
}

// Strings returns the rung identifiers as plain strings.
func (l Ladder) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = string(r.ID)
	}
	return out
}

// Contains reports whether the rung is part of the ladder.
func (l Ladder) Contains(id ID) bool {
	return slices.ContainsFunc(l, func(r Rung) bool { return r.ID == id })
}

// Decide selects the rungs worth producing for a source. The lowest rung is
// always present, so the result is never empty.
func Decide(info ffprobe.StreamInfo) Ladder {
	switch branch(info) {
	case branchFull:
		return Ladder{mustLookup(Rung720p), mustLookup(Rung480p), mustLookup(Rung220p)}
	case branchMid:
		return Ladder{mustLookup(Rung480p), mustLookup(Rung220p)}
	default:
		return Ladder{mustLookup(Rung220p)}
	}
}

// Explain describes which rule Decide applied to info.
func Explain(info ffprobe.StreamInfo) string {
	sum := info.Width + info.Height
	switch branch(info) {
	case branchFull:
		return fmt.Sprintf("width+height %d >= %d and bitrate %d >= %d: full ladder",
			sum, fullLadderMinSum, info.BitRateBps, fullLadderMinBitrate)
	case branchMid:
		return fmt.Sprintf("width+height %d in [%d,%d) and bitrate %d in [%d,%d): 480p and below",
			sum, midLadderMinSum, fullLadderMinSum, info.BitRateBps, midLadderMinBitrate, midLadderMaxBitrate)
	default:
		return fmt.Sprintf("width+height %d, bitrate %d: base rung only", sum, info.BitRateBps)
	}
}

type decision int

const (
	branchBase decision = iota
	branchMid
	branchFull
)

func branch(info ffprobe.StreamInfo) decision {
	sum := info.Width + info.Height
	rate := info.BitRateBps
	if sum >= fullLadderMinSum && rate >= fullLadderMinBitrate {
		return branchFull
	}
	if sum >= midLadderMinSum && sum < fullLadderMinSum && rate >= midLadderMinBitrate && rate < midLadderMaxBitrate {
		return branchMid
	}
	return branchBase
}
