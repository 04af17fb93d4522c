package tss

import (
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
)

// Budget bounds how many positions a single Solve call may visit before giving up and
// reporting Unknown, per spec §4.4 step 4.
type Budget struct {
	MaxPositions int
	visited      int
}

func (b *Budget) spend() bool {
	b.visited++
	return b.visited <= b.MaxPositions
}

// Solve recursively proves win/loss/draw for the position currently held by calc, with
// `sign` to move, at the given generator mode, per spec §4.4. It never observably mutates
// calc: every AddMove it issues is undone along the same path before returning (verified by
// Hash()/CurrentDepth() in the accompanying tests).
func Solve(calc *board.Calculator, sign rules.Sign, mode movegen.Mode, table *SharedHashTable, budget *Budget) movegen.Score {
	return solve(calc, sign, mode, table, budget, 0, movegen.NewActionStack())
}

// solve recurses a plain negamax with no alpha-beta window (every child is searched until one
// wins or the budget runs out); stack is the current frame's arena, carved by the
// caller via CreateChild and released by it on return, per spec §3's arena discipline.
func solve(calc *board.Calculator, sign rules.Sign, mode movegen.Mode, table *SharedHashTable, budget *Budget, ply int, stack *movegen.ActionStack) movegen.Score {
	if table != nil {
		if score, depth, ok := table.Probe(calc.Hash()); ok && depth >= budget.MaxPositions-budget.visited {
			return score
		}
	}

	al := movegen.Generate(calc, sign, mode, stack)
	if proven, ok := al.ProvenScore(); ok {
		if table != nil {
			table.Store(calc.Hash(), proven, 0)
		}
		return proven
	}
	if al.Len() == 0 {
		return al.BaselineScore
	}

	best := movegen.NegInf
	startDepth := budget.visited
	for _, a := range al.Actions {
		if !budget.spend() {
			return movegen.Unknown(0)
		}
		if err := calc.AddMove(a.Move.Row, a.Move.Col, sign); err != nil {
			continue
		}
		child := stack.CreateChild()
		childScore := solve(calc, sign.Opponent(), mode, table, budget, ply+1, child).Negate().IncPly()
		child.Release()
		_ = calc.UndoMove(a.Move.Row, a.Move.Col)

		best = movegen.Max(best, childScore)
		if best.IsWin() {
			break // exit early on a winning child, per spec §4.4 step 3.
		}
	}

	if table != nil && best.IsProven() {
		table.Store(calc.Hash(), best, budget.visited-startDepth)
	}
	return best
}
