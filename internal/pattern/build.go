package pattern

import (
	"github.com/alphagomoku/engine/internal/rules"
)

// build constructs the full Table for rule by enumerating every possible line configuration.
//
// Lines are 2*HalfWidth(rule)+1 cells wide. Each cell is one of {None, Cross, Circle, Illegal},
// packed 2 bits/cell (see EncodeLine), so the table has 4^lineWidth entries -- up to 4M for
// the 11-wide lines used by standard/renju/caro.
func build(rule rules.GameRules) *Table {
	half := rule.HalfWidth()
	width := 2*half + 1
	numEntries := 1
	for i := 0; i < width; i++ {
		numEntries *= 4
	}

	t := &Table{
		Rule:      rule,
		half:      half,
		lineWidth: width,
		entries:   make([]Entry, numEntries),
	}
	maskIntern := map[uint32]uint8{}
	t.masks = append(t.masks, 0) // index 0 is always the empty/no-mask mask.

	line := make([]rules.Sign, width)
	var fill func(pos int)
	fill = func(pos int) {
		if pos == width {
			key := EncodeLine(line)
			crossType, crossMask := classify(rule, line, half, rules.Cross)
			circleType, circleMask := classify(rule, line, half, rules.Circle)
			t.entries[key] = Entry{
				Cross:         crossType,
				Circle:        circleType,
				CrossMaskIdx:  intern(&t.masks, maskIntern, crossMask),
				CircleMaskIdx: intern(&t.masks, maskIntern, circleMask),
			}
			return
		}
		for _, s := range [...]rules.Sign{rules.None, rules.Cross, rules.Circle, rules.Illegal} {
			line[pos] = s
			fill(pos + 1)
		}
	}
	fill(0)
	return t
}

func intern(masks *[]uint32, seen map[uint32]uint8, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	if idx, ok := seen[mask]; ok {
		return idx
	}
	idx := uint8(len(*masks))
	*masks = append(*masks, mask)
	seen[mask] = idx
	return idx
}

// classify determines the strongest pattern `sign` would create by playing the centre cell
// of line, and the bitmask (bit i => position i in line) of moves that would refute it.
//
// The centre cell's actual content is ignored: classification always proceeds as if `sign`
// had just been placed there (per spec: "treating the centre cell as empty when classifying
// the threat that would be created if CROSS/CIRCLE played there").
func classify(rule rules.GameRules, line []rules.Sign, center int, sign rules.Sign) (Type, uint32) {
	width := len(line)
	if line[center] == rules.Illegal {
		return NoPattern, 0
	}
	work := make([]rules.Sign, width)
	copy(work, line)
	work[center] = sign
	opp := sign.Opponent()

	// Contiguous run through the centre.
	runStart, runEnd := center, center
	for runStart > 0 && work[runStart-1] == sign {
		runStart--
	}
	for runEnd < width-1 && work[runEnd+1] == sign {
		runEnd++
	}
	runLen := runEnd - runStart + 1
	leftOpen := runStart > 0 && work[runStart-1] == rules.None
	rightOpen := runEnd < width-1 && work[runEnd+1] == rules.None

	bestType := NoPattern
	var bestMask uint32

	consider := func(t Type, mask uint32) {
		if t > bestType {
			bestType, bestMask = t, mask
		}
	}

	switch {
	case runLen >= rule.WinLength():
		if runLen == rule.WinLength() {
			if rule.BlockedBothEndsRule() {
				leftBlocked := runStart == 0 || work[runStart-1] == opp || work[runStart-1] == rules.Illegal
				rightBlocked := runEnd == width-1 || work[runEnd+1] == opp || work[runEnd+1] == rules.Illegal
				if leftBlocked && rightBlocked {
					// Caro rule: a five walled in on both ends by the opponent doesn't count.
					break
				}
			}
			consider(Five, 0)
		} else if runLen == rule.WinLength()+1 && rule == rules.Caro5 {
			// Caro5 explicitly disallows a run of exactly 6: it is neither a five nor an overline.
			break
		} else {
			consider(Overline, 0)
		}
	case runLen == 4:
		extLeft, extRight := uint32(0), uint32(0)
		if leftOpen {
			extLeft = 1 << uint(runStart-1)
		}
		if rightOpen {
			extRight = 1 << uint(runEnd+1)
		}
		switch {
		case leftOpen && rightOpen:
			consider(Open4, extLeft|extRight)
		case leftOpen || rightOpen:
			consider(HalfOpen4, extLeft|extRight)
		}
	case runLen == 3:
		extLeft, extRight := uint32(0), uint32(0)
		if leftOpen {
			extLeft = 1 << uint(runStart-1)
		}
		if rightOpen {
			extRight = 1 << uint(runEnd+1)
		}
		switch {
		case leftOpen && rightOpen:
			consider(Open3, extLeft|extRight)
		case leftOpen || rightOpen:
			consider(HalfOpen3, extLeft|extRight)
		}
	}

	// Gapped ("broken") patterns: a window of target+1 cells containing exactly target stones
	// of `sign` and a single gap, with no opponent/illegal cell in the window, also creates a
	// four (or three) -- e.g. XX_XX or X_XXX. These can coexist with (and exceed) the
	// contiguous-run result, and are how DOUBLE_4 (two independent four-completions) arises.
	fourWindows := gappedWindows(work, center, sign, opp, 4)
	switch len(fourWindows) {
	case 1:
		consider(HalfOpen4, fourWindows[0])
	default:
		if len(fourWindows) >= 2 {
			mask := fourWindows[0] | fourWindows[1]
			consider(Double4, mask)
		}
	}
	threeWindows := gappedWindows(work, center, sign, opp, 3)
	if len(threeWindows) > 0 {
		consider(Open3, threeWindows[0])
	}

	return bestType, bestMask
}

// gappedWindows scans every window of size target+1 that contains the centre cell and returns
// the single-bit masks (one bit set: the window's gap position) of windows made entirely of
// `sign` plus exactly one None cell, with no opponent/Illegal cell inside.
func gappedWindows(work []rules.Sign, center int, sign, opp rules.Sign, target int) []uint32 {
	width := len(work)
	winSize := target + 1
	var found []uint32
	for start := center - winSize + 1; start <= center; start++ {
		if start < 0 || start+winSize > width {
			continue
		}
		stoneCount, gapCount, gapPos, bad := 0, 0, -1, false
		containsCenter := false
		for i := start; i < start+winSize; i++ {
			if i == center {
				containsCenter = true
			}
			switch work[i] {
			case sign:
				stoneCount++
			case rules.None:
				gapCount++
				gapPos = i
			default:
				bad = true
			}
		}
		if bad || !containsCenter || stoneCount != target || gapCount != 1 {
			continue
		}
		found = append(found, uint32(1)<<uint(gapPos))
	}
	return found
}
