package board

import (
	"github.com/alphagomoku/engine/internal/pattern"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func signSlot(s rules.Sign) int {
	if s == rules.Circle {
		return 1
	}
	return 0 // Cross, or callers that already guard on Cross/Circle.
}

// Calculator owns a Board plus every derived structure the move generator and TSS need:
// the four direction-indexed pattern classifications per cell, the aggregated per-cell
// threat, the per-sign ThreatHistogram, and the Zobrist hash. It is the sole mutator of
// the Board it owns -- callers go through addMove/undoMove, never Board.set directly.
type Calculator struct {
	board *Board
	table *pattern.Table
	half  int
	steps [4][2]int

	// lineCode[dir][cellIndex] is the packed 2-bit-per-cell code of that cell's window in
	// that direction, kept incrementally consistent by addMove/undoMove.
	lineCode [4][]uint32

	// perCellType[dir][cellIndex] holds the classification for Cross and Circle, so
	// getPatternTypeAt is O(1).
	crossType  [4][]pattern.Type
	circleType [4][]pattern.Type
	crossMask  [4][]uint8
	circleMask [4][]uint8

	// threat is the aggregated (over 4 directions) per-cell threat, for empty cells only.
	crossThreat  []pattern.Threat
	circleThreat []pattern.Threat

	histCross, histCircle map[pattern.Threat][]Pos
	// histIndex lets us find a (sign, pos) entry's slot in its histogram bucket for O(1) removal.
	histIndexCross, histIndexCircle map[Pos]int

	zobrist *zobristTable
	hash    uint64

	// moveStack records the cells played since setBoard, in order, so undoMove can verify
	// it is undoing the expected move and current_depth (spec invariant iv) is its length.
	moveStack []Pos

	// forbidCache memoises recent isForbidden probes (renju 3x3-fork recursion), keyed by
	// cell index; cleared whenever the board mutates at or before that cell's depth.
	forbidCache map[int]forbidResult
}

type forbidResult struct {
	depth     int
	forbidden bool
}

// New builds a Calculator for a board of the given size and rule, with an empty starting
// position (equivalent to calling SetBoard on a freshly built empty Board).
func New(rows, cols int, rule rules.GameRules) *Calculator {
	c := &Calculator{
		table: pattern.Get(rule),
		steps: directionSteps,
	}
	c.SetBoard(NewBoard(rows, cols, rule))
	return c
}

// Board returns the calculator's current board. Callers must not mutate it directly.
func (c *Calculator) Board() *Board { return c.board }

// CurrentDepth is the number of moves added since the last SetBoard (spec invariant iv).
func (c *Calculator) CurrentDepth() int { return len(c.moveStack) }

// Hash returns the current Zobrist hash of the position.
func (c *Calculator) Hash() uint64 { return c.hash }

// SetBoard resets the calculator to reflect b from scratch: this is the one allowed
// non-incremental (full recompute) path, used when a new search session begins or the
// calculator is repointed at an unrelated position.
func (c *Calculator) SetBoard(b *Board) {
	c.board = b
	c.half = b.Rule.HalfWidth()
	numCells := b.Rows * b.Cols
	c.zobrist = newZobristTable(numCells)
	c.hash = 0
	c.moveStack = c.moveStack[:0]
	c.forbidCache = make(map[int]forbidResult)

	for d := 0; d < pattern.NumDirections; d++ {
		c.lineCode[d] = make([]uint32, numCells)
		c.crossType[d] = make([]pattern.Type, numCells)
		c.circleType[d] = make([]pattern.Type, numCells)
		c.crossMask[d] = make([]uint8, numCells)
		c.circleMask[d] = make([]uint8, numCells)
	}
	c.crossThreat = make([]pattern.Threat, numCells)
	c.circleThreat = make([]pattern.Threat, numCells)
	c.histCross = make(map[pattern.Threat][]Pos)
	c.histCircle = make(map[pattern.Threat][]Pos)
	c.histIndexCross = make(map[Pos]int)
	c.histIndexCircle = make(map[Pos]int)

	for r := 0; r < b.Rows; r++ {
		for col := 0; col < b.Cols; col++ {
			idx := c.board.index(r, col)
			switch b.At(r, col) {
			case rules.Cross:
				c.hash ^= c.zobrist.keyFor(idx, 0)
			case rules.Circle:
				c.hash ^= c.zobrist.keyFor(idx, 1)
			}
		}
	}
	// Build every window code from scratch (cold path, only on SetBoard).
	for d, step := range c.steps {
		for r := 0; r < b.Rows; r++ {
			for col := 0; col < b.Cols; col++ {
				idx := c.board.index(r, col)
				var code uint32
				for k := -c.half; k <= c.half; k++ {
					rr, cc := r+k*step[0], col+k*step[1]
					code = (code << 2) | uint32(codeOf(b.At(rr, cc)))
				}
				c.lineCode[d][idx] = code
			}
		}
	}
	for r := 0; r < b.Rows; r++ {
		for col := 0; col < b.Cols; col++ {
			c.recomputeCellClassification(r, col)
		}
	}
	for r := 0; r < b.Rows; r++ {
		for col := 0; col < b.Cols; col++ {
			if b.At(r, col) == rules.None {
				c.recomputeAggregateAndHistogram(r, col)
			}
		}
	}
}

func codeOf(s rules.Sign) uint8 {
	switch s {
	case rules.Cross:
		return 1
	case rules.Circle:
		return 2
	case rules.Illegal:
		return 3
	default:
		return 0
	}
}

// signAt returns the sign at (r,c).
func (c *Calculator) SignAt(r, col int) rules.Sign { return c.board.At(r, col) }

// recomputeCellClassification re-derives crossType/circleType/masks for (r,c) in every
// direction from the current lineCode -- used by SetBoard's cold rebuild and (per-window)
// by addMove/undoMove's incremental update.
func (c *Calculator) recomputeCellClassification(r, col int) {
	idx := c.board.index(r, col)
	for d := 0; d < pattern.NumDirections; d++ {
		entry := c.table.LookupCode(c.lineCode[d][idx])
		c.crossType[d][idx] = entry.Cross
		c.circleType[d][idx] = entry.Circle
		c.crossMask[d][idx] = entry.CrossMaskIdx
		c.circleMask[d][idx] = entry.CircleMaskIdx
	}
}

// GetPatternTypeAt returns the classified pattern for `sign` at (r,c) in direction dir.
func (c *Calculator) GetPatternTypeAt(sign rules.Sign, r, col int, dir pattern.Direction) pattern.Type {
	idx := c.board.index(r, col)
	if sign == rules.Circle {
		return c.circleType[dir][idx]
	}
	return c.crossType[dir][idx]
}

// GetExtendedPatternAt returns the classification across all four directions for `sign`
// at (r,c), useful for callers that want the raw per-direction picture instead of the
// aggregated ThreatType (e.g. the renju forbidden-move recursion).
func (c *Calculator) GetExtendedPatternAt(sign rules.Sign, r, col int) [4]pattern.Type {
	var out [4]pattern.Type
	for d := 0; d < pattern.NumDirections; d++ {
		out[d] = c.GetPatternTypeAt(sign, r, col, pattern.Direction(d))
	}
	return out
}

// GetReducedPatternAt collapses the four directions down to the single strongest Type,
// ignoring cross-direction fork interactions -- a cheap pre-filter some generator modes use.
func (c *Calculator) GetReducedPatternAt(sign rules.Sign, r, col int) pattern.Type {
	best := pattern.NoPattern
	for _, t := range c.GetExtendedPatternAt(sign, r, col) {
		if t > best {
			best = t
		}
	}
	return best
}

// GetThreatAt returns the aggregated ThreatType for `sign` at (r,c).
func (c *Calculator) GetThreatAt(sign rules.Sign, r, col int) pattern.Threat {
	idx := c.board.index(r, col)
	if c.board.At(r, col) != rules.None {
		return pattern.NoThreat
	}
	if sign == rules.Circle {
		return c.circleThreat[idx]
	}
	return c.crossThreat[idx]
}

// GetThreatHistogram returns the ordered list of cells that would create `threat` if
// played by `sign`. The returned slice is owned by the calculator; callers must not
// mutate it.
func (c *Calculator) GetThreatHistogram(sign rules.Sign) map[pattern.Threat][]Pos {
	if sign == rules.Circle {
		return c.histCircle
	}
	return c.histCross
}

// GetDefensiveMoves returns the bitmask (as board positions) of moves along direction dir
// that refute the threat `sign` would create at (r,c) in that direction.
func (c *Calculator) GetDefensiveMoves(sign rules.Sign, r, col int, dir pattern.Direction) []Pos {
	idx := c.board.index(r, col)
	var maskIdx uint8
	if sign == rules.Circle {
		maskIdx = c.circleMask[dir][idx]
	} else {
		maskIdx = c.crossMask[dir][idx]
	}
	mask := c.table.DefensiveMask(maskIdx)
	if mask == 0 {
		return nil
	}
	step := c.steps[dir]
	var out []Pos
	for k := -c.half; k <= c.half; k++ {
		bitPos := k + c.half
		if mask&(1<<uint(bitPos)) == 0 {
			continue
		}
		rr, cc := r+k*step[0], col+k*step[1]
		if c.board.inBounds(rr, cc) {
			out = append(out, Pos{rr, cc})
		}
	}
	return out
}

// AddMove places sign at (r,c) and incrementally updates every derived structure:
// window codes for the 4*(2P+1) touched windows, per-cell classifications, aggregated
// threats, histograms, and the Zobrist hash.
func (c *Calculator) AddMove(r, col int, sign rules.Sign) error {
	if c.board.At(r, col) != rules.None {
		return errors.Errorf("AddMove(%d,%d): cell already occupied", r, col)
	}
	c.board.set(r, col, sign)
	c.mutateWindows(r, col, sign)
	c.hash ^= c.zobrist.keyFor(c.board.index(r, col), signSlot(sign))
	c.moveStack = append(c.moveStack, Pos{r, col})
	c.invalidateForbidCache()
	return nil
}

// UndoMove removes the most recently added stone, which must be at (r,c); it restores
// the calculator to the byte-identical state it held before that AddMove (spec invariant,
// §8 "PatternCalculator reversibility").
func (c *Calculator) UndoMove(r, col int) error {
	if len(c.moveStack) == 0 {
		return errors.New("UndoMove: no moves to undo")
	}
	last := c.moveStack[len(c.moveStack)-1]
	if last != (Pos{r, col}) {
		return errors.Errorf("UndoMove(%d,%d): does not match last move %v", r, col, last)
	}
	sign := c.board.At(r, col)
	c.hash ^= c.zobrist.keyFor(c.board.index(r, col), signSlot(sign))
	c.board.set(r, col, rules.None)
	c.mutateWindows(r, col, rules.None)
	c.moveStack = c.moveStack[:len(c.moveStack)-1]
	c.invalidateForbidCache()
	return nil
}

// mutateWindows is the shared core of AddMove/UndoMove: it updates the 4*(2P+1) window
// codes whose window includes (r,c), recomputes their classification, and refreshes the
// aggregate/histogram for every touched cell (including (r,c) itself, when it becomes
// empty again on undo).
func (c *Calculator) mutateWindows(r, col int, newContent rules.Sign) {
	code := codeOf(newContent)
	touched := make(map[Pos]bool, 4*(2*c.half+1))
	for d, step := range c.steps {
		for k := -c.half; k <= c.half; k++ {
			rr, cc := r-k*step[0], col-k*step[1]
			if !c.board.inBounds(rr, cc) {
				continue
			}
			idx := c.board.index(rr, cc)
			shift := uint(2 * (c.half - k))
			mask := uint32(3) << shift
			c.lineCode[d][idx] = (c.lineCode[d][idx] &^ mask) | (uint32(code) << shift)
			touched[Pos{rr, cc}] = true
		}
	}
	for p := range touched {
		c.recomputeCellClassification(p.Row, p.Col)
	}
	for p := range touched {
		if c.board.At(p.Row, p.Col) == rules.None {
			c.recomputeAggregateAndHistogram(p.Row, p.Col)
		} else {
			c.clearAggregateAndHistogram(p.Row, p.Col)
		}
	}
}

func (c *Calculator) clearAggregateAndHistogram(r, col int) {
	idx := c.board.index(r, col)
	c.removeFromHistogram(rules.Cross, Pos{r, col})
	c.removeFromHistogram(rules.Circle, Pos{r, col})
	c.crossThreat[idx] = pattern.NoThreat
	c.circleThreat[idx] = pattern.NoThreat
}

// recomputeAggregateAndHistogram re-derives the aggregated ThreatType for both signs at
// (r,c) and moves the cell between histogram buckets if it changed.
func (c *Calculator) recomputeAggregateAndHistogram(r, col int) {
	idx := c.board.index(r, col)
	pos := Pos{r, col}

	newCross := aggregateThreat(c.GetExtendedPatternAt(rules.Cross, r, col))
	if newCross != c.crossThreat[idx] {
		c.removeFromHistogram(rules.Cross, pos)
		c.crossThreat[idx] = newCross
		if newCross != pattern.NoThreat {
			c.addToHistogram(rules.Cross, pos, newCross)
		}
	}
	newCircle := aggregateThreat(c.GetExtendedPatternAt(rules.Circle, r, col))
	if newCircle != c.circleThreat[idx] {
		c.removeFromHistogram(rules.Circle, pos)
		c.circleThreat[idx] = newCircle
		if newCircle != pattern.NoThreat {
			c.addToHistogram(rules.Circle, pos, newCircle)
		}
	}
}

func (c *Calculator) histFor(sign rules.Sign) (map[pattern.Threat][]Pos, map[Pos]int) {
	if sign == rules.Circle {
		return c.histCircle, c.histIndexCircle
	}
	return c.histCross, c.histIndexCross
}

// addToHistogram appends pos to the bucket for threat. Ordering is not needed for the
// frequent HALF_OPEN_3/HALF_OPEN_4 buckets (append is enough there); rarer higher buckets
// keep insertion order naturally since we never need to reorder them either.
func (c *Calculator) addToHistogram(sign rules.Sign, pos Pos, threat pattern.Threat) {
	hist, index := c.histFor(sign)
	hist[threat] = append(hist[threat], pos)
	index[pos] = len(hist[threat]) - 1
	c.storeHist(sign, hist, index)
}

// removeFromHistogram deletes pos from whatever bucket it currently occupies, if any.
// HALF_OPEN_3/HALF_OPEN_4 use swap-with-back/pop-back (frequent, order doesn't matter);
// everything else uses a shift-delete to preserve order, per spec §4.2.
func (c *Calculator) removeFromHistogram(sign rules.Sign, pos Pos) {
	idx := c.board.index(pos.Row, pos.Col)
	var current pattern.Threat
	if sign == rules.Circle {
		current = c.circleThreat[idx]
	} else {
		current = c.crossThreat[idx]
	}
	if current == pattern.NoThreat {
		return
	}
	hist, index := c.histFor(sign)
	bucket := hist[current]
	slot, ok := index[pos]
	if !ok {
		return
	}
	if current == pattern.ThreatHalfOpen3 || current == pattern.ThreatHalfOpen4 {
		last := len(bucket) - 1
		bucket[slot] = bucket[last]
		index[bucket[slot]] = slot
		bucket = bucket[:last]
	} else {
		bucket = append(bucket[:slot], bucket[slot+1:]...)
		for i := slot; i < len(bucket); i++ {
			index[bucket[i]] = i
		}
	}
	delete(index, pos)
	hist[current] = bucket
	c.storeHist(sign, hist, index)
}

func (c *Calculator) storeHist(sign rules.Sign, hist map[pattern.Threat][]Pos, index map[Pos]int) {
	if sign == rules.Circle {
		c.histCircle, c.histIndexCircle = hist, index
	} else {
		c.histCross, c.histIndexCross = hist, index
	}
}

func (c *Calculator) invalidateForbidCache() {
	depth := c.CurrentDepth()
	for k, v := range c.forbidCache {
		if v.depth >= depth {
			delete(c.forbidCache, k)
		}
	}
}

// aggregateThreat derives the per-cell ThreatType from the four per-direction Types,
// implementing the fork detection described in the spec glossary ("Fork N×M means a
// single move creating simultaneous threats of level N and M in distinct directions").
func aggregateThreat(types [4]pattern.Type) pattern.Threat {
	for _, t := range types {
		if t == pattern.Five {
			return pattern.ThreatFive
		}
	}
	for _, t := range types {
		if t == pattern.Overline {
			return pattern.ThreatOverline
		}
	}
	var open4Dirs, strongFourDirs, halfFourDirs, open3Dirs, halfOpen3Dirs int
	for _, t := range types {
		switch t {
		case pattern.Open4:
			open4Dirs++
			strongFourDirs++
		case pattern.Double4:
			strongFourDirs++
		case pattern.HalfOpen4:
			halfFourDirs++
		case pattern.Open3:
			open3Dirs++
		case pattern.HalfOpen3:
			halfOpen3Dirs++
		}
	}
	fourDirs := strongFourDirs + halfFourDirs
	switch {
	case open4Dirs >= 1:
		return pattern.ThreatOpen4
	case strongFourDirs >= 1 || fourDirs >= 2:
		return pattern.ThreatFork4x4
	case fourDirs >= 1 && open3Dirs >= 1:
		return pattern.ThreatFork4x3
	case fourDirs >= 1:
		return pattern.ThreatHalfOpen4
	case open3Dirs >= 2:
		return pattern.ThreatFork3x3
	case open3Dirs == 1:
		return pattern.ThreatOpen3
	case halfOpen3Dirs >= 1:
		return pattern.ThreatHalfOpen3
	default:
		return pattern.NoThreat
	}
}

// IsForbidden reports whether playing `sign` at (r,c) is a forbidden move under renju
// rules (overline, double-four, or a 3x3 fork whose opens can be validly extended). It is
// always false for non-Cross signs and non-Renju rules.
func (c *Calculator) IsForbidden(sign rules.Sign, r, col int) bool {
	if !c.board.Rule.ForbidsCross() || sign != rules.Cross {
		return false
	}
	if c.board.At(r, col) != rules.None {
		return false
	}
	idx := c.board.index(r, col)
	if cached, ok := c.forbidCache[idx]; ok {
		return cached.forbidden
	}
	forbidden := c.computeForbidden(r, col)
	c.forbidCache[idx] = forbidResult{depth: c.CurrentDepth(), forbidden: forbidden}
	return forbidden
}

func (c *Calculator) computeForbidden(r, col int) bool {
	types := c.GetExtendedPatternAt(rules.Cross, r, col)
	for _, t := range types {
		if t == pattern.Overline {
			return true
		}
	}
	var fourDirs, open3Dirs int
	for _, t := range types {
		switch t {
		case pattern.Open4, pattern.Double4, pattern.HalfOpen4:
			fourDirs++
		case pattern.Open3:
			open3Dirs++
		}
	}
	if fourDirs >= 2 {
		return true // double-four.
	}
	if open3Dirs < 2 {
		return false
	}
	// 3x3 fork: forbidden iff at least two of its open threes can be legally extended to a
	// straight four -- and an extension is legal iff it is not itself a forbidden move.
	// Probed with bounded-depth recursion via AddMove/UndoMove, per spec §4.2.
	extendable := 0
	for d := 0; d < pattern.NumDirections; d++ {
		if types[d] != pattern.Open3 {
			continue
		}
		if c.threeExtendsToLegalFour(r, col, pattern.Direction(d)) {
			extendable++
		}
	}
	return extendable >= 2
}

// threeExtendsToLegalFour checks whether the open three in `dir` through (r,c) has an
// extension cell whose play is itself legal (not forbidden), recursing one ply via
// addMove/undoMove and rolling it back unconditionally.
func (c *Calculator) threeExtendsToLegalFour(r, col int, dir pattern.Direction) bool {
	candidates := c.GetDefensiveMoves(rules.Cross, r, col, dir)
	if len(candidates) == 0 {
		return false
	}
	for _, cand := range candidates {
		if c.board.At(cand.Row, cand.Col) != rules.None {
			continue
		}
		if err := c.AddMove(r, col, rules.Cross); err != nil {
			klog.Errorf("threeExtendsToLegalFour: failed to probe (%d,%d): %v", r, col, err)
			return false
		}
		legal := !c.IsForbidden(rules.Cross, cand.Row, cand.Col)
		if err := c.UndoMove(r, col); err != nil {
			klog.Errorf("threeExtendsToLegalFour: failed to undo probe (%d,%d): %v", r, col, err)
		}
		if legal {
			return true
		}
	}
	return false
}
