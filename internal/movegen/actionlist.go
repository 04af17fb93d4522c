package movegen

import "github.com/alphagomoku/engine/internal/board"

// Action pairs a candidate move with its (possibly heuristic, possibly proven) score.
type Action struct {
	Move  board.Pos
	Score Score
}

// ActionList is the move generator's output (spec §3): an ordered list of candidate
// moves plus the must_defend/has_initiative flags and baseline_score the TSS/MCTS use to
// interpret it.
type ActionList struct {
	Actions []Action

	// MustDefend means the list is exhaustive: any move not in it loses immediately.
	MustDefend bool

	// HasInitiative means the side to move has a forcing continuation (e.g. a five, or an
	// unstoppable four) and doesn't need to consider passive moves.
	HasInitiative bool

	// BaselineScore is the score assigned to the position if no child improves on it
	// (e.g. after exhausting every move in a must_defend list without finding a better one).
	BaselineScore Score
}

// Add appends a move/score pair.
func (al *ActionList) Add(move board.Pos, score Score) {
	al.Actions = append(al.Actions, Action{Move: move, Score: score})
}

// AddAll appends every position in moves with the same score.
func (al *ActionList) AddAll(moves []board.Pos, score Score) {
	for _, m := range moves {
		al.Add(m, score)
	}
}

// Contains reports whether pos already appears in the list.
func (al *ActionList) Contains(pos board.Pos) bool {
	for _, a := range al.Actions {
		if a.Move == pos {
			return true
		}
	}
	return false
}

// Len returns the number of candidate moves.
func (al *ActionList) Len() int { return len(al.Actions) }

// ProvenScore returns the single score every move in the list shares, and ok=true, when
// that score is proven (any win, draw or loss distance); a mixed or unproven list gives ok=false.
// Per the generator's correctness contract, once such a score is returned, moves outside
// the list are irrelevant to the outcome.
func (al *ActionList) ProvenScore() (Score, bool) {
	if len(al.Actions) == 0 {
		return Score{}, false
	}
	first := al.Actions[0].Score
	if !first.IsProven() {
		return Score{}, false
	}
	for _, a := range al.Actions[1:] {
		if a.Score != first {
			return Score{}, false
		}
	}
	return first, true
}

// ActionStack is the arena backing ActionList allocation across a recursive search: each
// recursion frame carves a sub-arena with CreateChild and releases it with Release. It does
// no pooling: every list it hands out is an ordinary heap allocation.
type ActionStack struct {
	parent   *ActionStack
	children int
}

// NewActionStack returns a fresh root arena for one worker/search session.
func NewActionStack() *ActionStack {
	return &ActionStack{}
}

// CreateChild carves a sub-arena for one recursion frame.
func (s *ActionStack) CreateChild() *ActionStack {
	s.children++
	return &ActionStack{parent: s}
}

// Release returns a child arena to its parent. Every CreateChild must be matched by
// exactly one Release, in LIFO order, mirroring the TSS recursion's add/undo discipline.
func (s *ActionStack) Release() {
	if s.parent != nil {
		s.parent.children--
	}
}

// NewList allocates a fresh ActionList from this arena. Since Go's GC makes a real bump
// allocator unnecessary for correctness, the arena's job here is purely to make the
// recursive ownership discipline explicit; the child count it keeps is never checked, so a
// CreateChild/Release mismatch goes unnoticed.
func (s *ActionStack) NewList() *ActionList {
	return &ActionList{}
}
