package movegen

import (
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/pattern"
	"github.com/alphagomoku/engine/internal/rules"
)

// Mode selects how exhaustively Generate fills the tail of the ActionList once no proven
// score short-circuits the earlier, cheaper steps.
type Mode int

const (
	// Legal considers only the proven steps (1-7); it never falls through to heuristic fills.
	Legal Mode = iota
	// Reduced additionally adds own half-open-fours as tempo moves (step 8).
	Reduced
	// Threats additionally fills open-threes/3x3-forks of both sides (step 9).
	Threats
	// Optimal additionally fills the full stone-neighbourhood (step 10).
	Optimal
)

// priorHalfOpenFour is the heuristic prior assigned to a tempo half-open-four move (step 8).
const priorHalfOpenFour = 14

// priorThreatFill is the heuristic prior assigned to threats-mode fill moves (step 9).
const priorThreatFill = 6

// priorNeighbourhood is the heuristic prior assigned to optimal-mode neighbourhood fills.
const priorNeighbourhood = 0

// neighbourhoodStamp enumerates the offsets of a 7x7 square, centre excluded, stamped over
// each occupied stone to build the optimal-mode candidate neighbourhood (spec §4.3 step 10).
var neighbourhoodStamp = buildSquareStamp(3)

// starStamp enumerates the offsets used for the "star-shape" neighbours of a half-open-four
// in the defend-loss-in-6 step: the 8 cells at Chebyshev distance 1, which are the cells
// from which a stone could contest the extension point on a future move.
var starStamp = buildSquareStamp(1)

func buildSquareStamp(radius int) []board.Pos {
	var out []board.Pos
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			out = append(out, board.Pos{Row: dr, Col: dc})
		}
	}
	return out
}

// Generate runs the move generator contract (spec §4.3) for `sign` to move against the
// calculator's current position, at the given mode, and returns the resulting ActionList.
// stack, if non-nil, backs the returned list's allocation (spec §3's "backed by an arena
// shared across the recursion"); pass nil to allocate directly, e.g. from one-off call sites
// outside a search recursion.
func Generate(calc *board.Calculator, sign rules.Sign, mode Mode, stack *ActionStack) *ActionList {
	al := stack.NewList()
	opp := sign.Opponent()
	b := calc.Board()

	// Step 1: terminal win-in-1.
	ownFives := calc.GetThreatHistogram(sign)[pattern.ThreatFive]
	if len(ownFives) > 0 {
		al.AddAll(ownFives, WinIn(1))
		al.HasInitiative = true
		return finalize(calc, sign, al)
	}

	// Step 2: terminal draw-in-1.
	if boardWillBeFullNextPly(b) {
		legal := legalMoves(calc, sign, b)
		if len(legal) == 0 {
			al.Add(board.Pos{}, LossIn(1))
			al.BaselineScore = LossIn(1)
			return al
		}
		al.AddAll(legal, DrawIn(1))
		return finalize(calc, sign, al)
	}

	// Step 3: defend loss-in-2 (opponent has a FIVE threat).
	oppFives := calc.GetThreatHistogram(opp)[pattern.ThreatFive]
	if len(oppFives) > 0 {
		defenses := intersectDefensiveMoves(calc, opp, oppFives)
		if len(defenses) == 0 {
			al.BaselineScore = LossIn(2)
			al.MustDefend = true
			return al
		}
		al.MustDefend = true
		for _, d := range defenses {
			al.Add(d, classifyOwnReplyAfterDefendingFive(calc, sign, d))
		}
		return finalize(calc, sign, al)
	}

	// Step 4: win-in-3 (own open-4, non-forbidden fork-4x4, or renju foul attack).
	if moves, ok := ownWinIn3(calc, sign); ok {
		al.AddAll(moves, WinIn(3))
		al.HasInitiative = true
		return finalize(calc, sign, al)
	}

	// Step 5: defend loss-in-4 (opponent open-4 / fork-4x4).
	oppOpen4 := calc.GetThreatHistogram(opp)[pattern.ThreatOpen4]
	oppFork4x4 := calc.GetThreatHistogram(opp)[pattern.ThreatFork4x4]
	if len(oppOpen4)+len(oppFork4x4) > 0 {
		al.MustDefend = true
		defenses := defendLossIn4(calc, opp, oppOpen4, oppFork4x4)
		if len(defenses) == 0 {
			al.BaselineScore = LossIn(4)
			return al
		}
		al.AddAll(defenses, Unknown(0))
		return finalize(calc, sign, al)
	}

	// Step 6: win-in-5 (own fork-4x3, or fork-3x3 when opponent has no four threats).
	if moves, ok := ownWinIn5(calc, sign, opp); ok {
		al.AddAll(moves, WinIn(5))
		return finalize(calc, sign, al)
	}

	// Step 7: defend loss-in-6 (opponent fork-4x3 or fork-3x3).
	if moves, ok := defendLossIn6(calc, sign, opp); ok {
		al.MustDefend = true
		al.AddAll(moves, Unknown(0))
		return finalize(calc, sign, al)
	}

	if mode == Legal {
		return finalize(calc, sign, al)
	}

	// Step 8: own half-open-fours as tempo moves.
	for _, p := range calc.GetThreatHistogram(sign)[pattern.ThreatHalfOpen4] {
		if !al.Contains(p) {
			al.Add(p, Unknown(priorHalfOpenFour))
		}
	}

	if mode == Reduced {
		return finalize(calc, sign, al)
	}

	// Step 9: threats-mode fills (open-3 / fork-3x3 of both sides).
	for _, sgn := range [2]rules.Sign{sign, opp} {
		hist := calc.GetThreatHistogram(sgn)
		for _, threat := range [2]pattern.Threat{pattern.ThreatOpen3, pattern.ThreatFork3x3} {
			for _, p := range hist[threat] {
				if !al.Contains(p) {
					al.Add(p, Unknown(priorThreatFill))
				}
			}
		}
	}

	if mode == Threats {
		return finalize(calc, sign, al)
	}

	// Step 10: optimal mode neighbourhood fill.
	for _, p := range neighbourhood(b) {
		if calc.SignAt(p.Row, p.Col) == rules.None && !al.Contains(p) {
			al.Add(p, Unknown(priorNeighbourhood))
		}
	}

	return finalize(calc, sign, al)
}

// finalize rewrites forbidden moves for the side to move to loss_in(1), per the closing
// rule of spec §4.3.
func finalize(calc *board.Calculator, sign rules.Sign, al *ActionList) *ActionList {
	for i := range al.Actions {
		p := al.Actions[i].Move
		if calc.IsForbidden(sign, p.Row, p.Col) {
			al.Actions[i].Score = LossIn(1)
		}
	}
	return al
}

func boardWillBeFullNextPly(b *board.Board) bool {
	empty := 0
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.At(r, c) == rules.None {
				empty++
				if empty > 1 {
					return false
				}
			}
		}
	}
	return empty == 1
}

func legalMoves(calc *board.Calculator, sign rules.Sign, b *board.Board) []board.Pos {
	var out []board.Pos
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.At(r, c) != rules.None {
				continue
			}
			if calc.IsForbidden(sign, r, c) {
				continue
			}
			out = append(out, board.Pos{Row: r, Col: c})
		}
	}
	return out
}

// intersectDefensiveMoves intersects the defensive-move sets of every threat in threats
// (found via the single strongest per-cell classification, since histogram buckets store
// cells, not directions -- the generator re-derives the relevant direction per cell).
func intersectDefensiveMoves(calc *board.Calculator, attacker rules.Sign, threats []board.Pos) []board.Pos {
	var sets [][]board.Pos
	for _, t := range threats {
		sets = append(sets, defensiveMovesForThreat(calc, attacker, t, pattern.Five))
	}
	return intersectPosSets(sets)
}

// defensiveMovesForThreat returns the union, over every direction in which `attacker` holds
// `level` at (r,c), of the defensive moves that refute it there.
func defensiveMovesForThreat(calc *board.Calculator, attacker rules.Sign, at board.Pos, level pattern.Type) []board.Pos {
	var out []board.Pos
	seen := map[board.Pos]bool{}
	for d := 0; d < pattern.NumDirections; d++ {
		if calc.GetPatternTypeAt(attacker, at.Row, at.Col, pattern.Direction(d)) != level {
			continue
		}
		for _, p := range calc.GetDefensiveMoves(attacker, at.Row, at.Col, pattern.Direction(d)) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	// The threat cell itself is always a defensive move (occupying it directly blocks the line).
	if !seen[at] {
		out = append(out, at)
	}
	return out
}

func intersectPosSets(sets [][]board.Pos) []board.Pos {
	if len(sets) == 0 {
		return nil
	}
	counts := map[board.Pos]int{}
	for _, s := range sets {
		marked := map[board.Pos]bool{}
		for _, p := range s {
			if !marked[p] {
				marked[p] = true
				counts[p]++
			}
		}
	}
	var out []board.Pos
	for p, n := range counts {
		if n == len(sets) {
			out = append(out, p)
		}
	}
	return out
}

func unionPosSets(sets [][]board.Pos) []board.Pos {
	seen := map[board.Pos]bool{}
	var out []board.Pos
	for _, s := range sets {
		for _, p := range s {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// classifyOwnReplyAfterDefendingFive scores a candidate defensive move against an opponent
// five by inspecting the own threat it creates, per step 3 of spec §4.3.
func classifyOwnReplyAfterDefendingFive(calc *board.Calculator, sign rules.Sign, move board.Pos) Score {
	ownThreat := calc.GetThreatAt(sign, move.Row, move.Col)
	switch ownThreat {
	case pattern.ThreatFork4x4, pattern.ThreatOpen4:
		return WinIn(3)
	case pattern.ThreatFork4x3:
		return tryResolveFork4x3(calc, sign, move)
	case pattern.ThreatFork3x3:
		if calc.Board().Rule.ForbidsCross() && hasHiddenOpen4(calc, sign, move) {
			return WinIn(3)
		}
		return Unknown(0)
	default:
		return Unknown(0)
	}
}

// hasHiddenOpen4 reports whether playing `move` would, under renju, expose an open-four
// that the opponent cannot legally block because the block is itself a forbidden move for
// the mover's opponent -- only meaningful when sign is Circle, since only Cross can be
// restricted by renju's forbidden-move rule.
func hasHiddenOpen4(calc *board.Calculator, sign rules.Sign, move board.Pos) bool {
	if sign != rules.Circle {
		return false
	}
	for d := 0; d < pattern.NumDirections; d++ {
		if calc.GetPatternTypeAt(sign, move.Row, move.Col, pattern.Direction(d)) != pattern.Open3 {
			continue
		}
		for _, def := range calc.GetDefensiveMoves(sign, move.Row, move.Col, pattern.Direction(d)) {
			if calc.IsForbidden(rules.Cross, def.Row, def.Col) {
				return true
			}
		}
	}
	return false
}

// ownWinIn3 looks for an own open-4, a non-forbidden fork-4x4, or (for renju Circle) a
// half-open-4 whose sole defensive reply is forbidden for Cross (a "foul attack").
func ownWinIn3(calc *board.Calculator, sign rules.Sign) ([]board.Pos, bool) {
	var out []board.Pos
	for _, p := range calc.GetThreatHistogram(sign)[pattern.ThreatOpen4] {
		out = append(out, p)
	}
	for _, p := range calc.GetThreatHistogram(sign)[pattern.ThreatFork4x4] {
		if !calc.Board().Rule.ForbidsCross() || sign != rules.Cross || !calc.IsForbidden(sign, p.Row, p.Col) {
			out = append(out, p)
		}
	}
	if sign == rules.Circle && calc.Board().Rule.ForbidsCross() {
		for _, p := range calc.GetThreatHistogram(sign)[pattern.ThreatHalfOpen4] {
			if isFoulAttack(calc, sign, p) {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return dedupe(out), true
}

func isFoulAttack(calc *board.Calculator, sign rules.Sign, at board.Pos) bool {
	for d := 0; d < pattern.NumDirections; d++ {
		if calc.GetPatternTypeAt(sign, at.Row, at.Col, pattern.Direction(d)) != pattern.HalfOpen4 {
			continue
		}
		defs := calc.GetDefensiveMoves(sign, at.Row, at.Col, pattern.Direction(d))
		if len(defs) == 1 && calc.IsForbidden(rules.Cross, defs[0].Row, defs[0].Col) {
			return true
		}
	}
	return false
}

// defendLossIn4 intersects defensive moves across every opponent open-4/fork-4x4 threat;
// fork-4x4s whose components include a half-open-4 leg are approximated by union (minimal
// over-generation, per spec §4.3 step 5). Under renju every defensive move is kept (the
// forbidden/legal dependency across candidates is too complex to intersect soundly).
func defendLossIn4(calc *board.Calculator, attacker rules.Sign, open4, fork4x4 []board.Pos) []board.Pos {
	if calc.Board().Rule.ForbidsCross() {
		var sets [][]board.Pos
		for _, p := range open4 {
			sets = append(sets, defensiveMovesForThreat(calc, attacker, p, pattern.Open4))
		}
		for _, p := range fork4x4 {
			sets = append(sets, defensiveMovesForThreat(calc, attacker, p, pattern.Double4))
			sets = append(sets, defensiveMovesForThreat(calc, attacker, p, pattern.HalfOpen4))
		}
		return unionPosSets(sets)
	}
	var exactSets [][]board.Pos
	var approxSets [][]board.Pos
	for _, p := range open4 {
		exactSets = append(exactSets, defensiveMovesForThreat(calc, attacker, p, pattern.Open4))
	}
	for _, p := range fork4x4 {
		if hasHalfOpenFourLeg(calc, attacker, p) {
			approxSets = append(approxSets, defensiveMovesForThreat(calc, attacker, p, pattern.HalfOpen4))
			approxSets = append(approxSets, defensiveMovesForThreat(calc, attacker, p, pattern.Double4))
		} else {
			exactSets = append(exactSets, defensiveMovesForThreat(calc, attacker, p, pattern.Double4))
		}
	}
	if len(exactSets) == 0 {
		return unionPosSets(approxSets)
	}
	exact := intersectPosSets(exactSets)
	if len(approxSets) == 0 {
		return exact
	}
	return unionPosSets(append(approxSets, exact))
}

func hasHalfOpenFourLeg(calc *board.Calculator, sign rules.Sign, at board.Pos) bool {
	for d := 0; d < pattern.NumDirections; d++ {
		if calc.GetPatternTypeAt(sign, at.Row, at.Col, pattern.Direction(d)) == pattern.HalfOpen4 {
			return true
		}
	}
	return false
}

// ownWinIn5 looks for an own fork-4x3 (resolved via tryResolveFork4x3 down to win_in(5)), or
// an own fork-3x3 when the opponent currently has no four-level threat available.
func ownWinIn5(calc *board.Calculator, sign, opp rules.Sign) ([]board.Pos, bool) {
	var out []board.Pos
	for _, p := range calc.GetThreatHistogram(sign)[pattern.ThreatFork4x3] {
		if tryResolveFork4x3(calc, sign, p) == WinIn(5) {
			out = append(out, p)
		}
	}
	if !opponentHasFourThreat(calc, opp) {
		out = append(out, calc.GetThreatHistogram(sign)[pattern.ThreatFork3x3]...)
	}
	if len(out) == 0 {
		return nil, false
	}
	return dedupe(out), true
}

func opponentHasFourThreat(calc *board.Calculator, opp rules.Sign) bool {
	hist := calc.GetThreatHistogram(opp)
	return len(hist[pattern.ThreatOpen4]) > 0 || len(hist[pattern.ThreatFork4x4]) > 0 ||
		len(hist[pattern.ThreatFork4x3]) > 0 || len(hist[pattern.ThreatHalfOpen4]) > 0
}

// tryResolveFork4x3 implements the helper described in spec §4.3: identify the half-open-4
// direction of `move`, find the opponent's forced defensive reply, and classify the
// resulting opponent threat at that reply cell.
func tryResolveFork4x3(calc *board.Calculator, sign rules.Sign, move board.Pos) Score {
	opp := sign.Opponent()
	for d := 0; d < pattern.NumDirections; d++ {
		if calc.GetPatternTypeAt(sign, move.Row, move.Col, pattern.Direction(d)) != pattern.HalfOpen4 {
			continue
		}
		defs := calc.GetDefensiveMoves(sign, move.Row, move.Col, pattern.Direction(d))
		if len(defs) != 1 {
			continue
		}
		reply := defs[0]
		threat := calc.GetThreatAt(opp, reply.Row, reply.Col)
		switch threat {
		case pattern.ThreatFive, pattern.ThreatOverline:
			return LossIn(2)
		case pattern.ThreatFork4x4, pattern.ThreatOpen4:
			return LossIn(4)
		case pattern.ThreatHalfOpen4, pattern.ThreatFork4x3:
			return Unknown(0)
		default:
			return WinIn(5)
		}
	}
	return Unknown(0)
}

// defendLossIn6 gathers the defensive response to an opponent fork-4x3 or fork-3x3, per
// spec §4.3 step 7.
func defendLossIn6(calc *board.Calculator, sign, opp rules.Sign) ([]board.Pos, bool) {
	var out []board.Pos
	for _, p := range calc.GetThreatHistogram(opp)[pattern.ThreatFork4x3] {
		out = append(out, defensiveMovesForThreat(calc, opp, p, pattern.Open3)...)
		out = append(out, defensiveMovesForThreat(calc, opp, p, pattern.HalfOpen4)...)
		for _, star := range starAround(calc.Board(), p) {
			out = append(out, star)
		}
	}
	for _, p := range calc.GetThreatHistogram(opp)[pattern.ThreatFork3x3] {
		out = append(out, defensiveMovesForThreat(calc, opp, p, pattern.Open3)...)
	}
	if len(calc.GetThreatHistogram(opp)[pattern.ThreatFork3x3]) > 0 {
		out = append(out, calc.GetThreatHistogram(sign)[pattern.ThreatHalfOpen3]...)
	}
	if len(out) == 0 {
		return nil, false
	}
	return dedupe(out), true
}

func starAround(b *board.Board, at board.Pos) []board.Pos {
	var out []board.Pos
	for _, off := range starStamp {
		p := board.Pos{Row: at.Row + off.Row, Col: at.Col + off.Col}
		if b.At(p.Row, p.Col) == rules.None {
			out = append(out, p)
		}
	}
	return out
}

func neighbourhood(b *board.Board) []board.Pos {
	if b.IsFull() {
		return nil
	}
	occupied := false
	seen := map[board.Pos]bool{}
	var out []board.Pos
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.At(r, c) == rules.None {
				continue
			}
			occupied = true
			for _, off := range neighbourhoodStamp {
				p := board.Pos{Row: r + off.Row, Col: c + off.Col}
				if !seen[p] && b.At(p.Row, p.Col) == rules.None {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	if !occupied {
		// First move of the game: place the centre cell.
		out = append(out, board.Pos{Row: b.Rows / 2, Col: b.Cols / 2})
	}
	return out
}

func dedupe(in []board.Pos) []board.Pos {
	seen := map[board.Pos]bool{}
	var out []board.Pos
	for _, p := range in {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
