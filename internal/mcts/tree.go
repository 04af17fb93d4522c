package mcts

import (
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/tss"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Evaluator is the external collaborator contract the NN sits behind: given a batch of
// leaf boards, it returns a per-move policy and a scalar value, from the perspective of the
// side to move at each leaf. The engine never imports a concrete network implementation --
// only this interface, per the spec's "external collaborator" scoping for the NN.
type Evaluator interface {
	// Evaluate scores one leaf position, returning a policy prior per candidate move (same
	// order as moves) and a value in [-1, 1] from sign's perspective.
	Evaluate(calc *board.Calculator, sign rules.Sign, moves []board.Pos) (policy []float32, value float32, err error)
}

// Tree owns one search session's root, its NodeCache, and the TSS shared hash table it
// consults at every expansion (spec §4.5).
type Tree struct {
	Root       *Node
	Cache      *NodeCache
	HashTable  *tss.SharedHashTable
	Mode       movegen.Mode
	TSSBudget  int
	Evaluator  Evaluator
	Selector   EdgeSelector
	BestSelect EdgeSelector

	// arena backs every expansion's Generate call for this tree's lifetime (spec §3's arena
	// discipline); expansions aren't nested the way TSS recursion is, so one shared arena
	// (no CreateChild/Release per call) suffices here.
	arena *movegen.ActionStack
}

// NewTree builds a fresh search session rooted at the position currently held by calc, with a
// brand-new NodeCache. Use NewTreeWithCache to reuse (and prune) a cache across successive
// searches, the way a driver reusing one game's worth of cached nodes should.
func NewTree(calc *board.Calculator, sign rules.Sign, mode movegen.Mode, cPuct float32, tssBudget int, cacheCap int, hashTable *tss.SharedHashTable, ev Evaluator) *Tree {
	return NewTreeWithCache(calc, sign, mode, cPuct, tssBudget, NewNodeCache(cacheCap), hashTable, ev)
}

// NewTreeWithCache is like NewTree but roots the session on an existing NodeCache, pruning
// away entries that can no longer be reached from calc's current position -- per spec §4.5 "on
// setBoard the cache prunes entries incompatible with the new root" -- before reusing it.
func NewTreeWithCache(calc *board.Calculator, sign rules.Sign, mode movegen.Mode, cPuct float32, tssBudget int, cache *NodeCache, hashTable *tss.SharedHashTable, ev Evaluator) *Tree {
	t := &Tree{
		Cache:      cache,
		HashTable:  hashTable,
		Mode:       mode,
		TSSBudget:  tssBudget,
		Evaluator:  ev,
		Selector:   PUCTSelector{CPuct: cPuct},
		BestSelect: BestEdgeSelector{},
		arena:      movegen.NewActionStack(),
	}
	depth := calc.CurrentDepth()
	t.Cache.PruneIncompatible(depth)
	t.Root = NewNode(sign, calc.Hash(), depth)
	t.Cache.Put(t.Root)
	return t
}

// pathStep records one traversed edge, so Backup can walk it in reverse.
type pathStep struct {
	node *Node
	edge *Edge
}

// Simulate runs one select-expand-backup cycle from the root, per spec §4.5/§4.6. calc must
// be positioned at the tree's root board on entry, and is restored to that position before
// Simulate returns (mirroring the TSS's own non-observable-mutation invariant).
func (t *Tree) Simulate(calc *board.Calculator) error {
	node := t.Root
	var path []pathStep

	for node.Expanded && !node.ProvenKnown && len(node.Edges) > 0 {
		edge := t.Selector.Select(node)
		if edge == nil {
			break
		}
		edge.AddVirtualLoss()
		path = append(path, pathStep{node: node, edge: edge})

		if err := calc.AddMove(edge.Move.Row, edge.Move.Col, node.Sign); err != nil {
			return errors.Wrapf(err, "mcts: failed to descend into %v", edge.Move)
		}

		if edge.Child == nil {
			childSign := node.Sign.Opponent()
			edge.Child = NewNode(childSign, calc.Hash(), calc.CurrentDepth())
			t.Cache.Put(edge.Child)
		}
		node = edge.Child
	}

	leafValue, err := t.expand(calc, node)
	if err != nil {
		t.unwind(calc, path)
		return err
	}

	t.backup(path, leafValue)
	t.unwind(calc, path)
	return nil
}

// unwind undoes every move Simulate's descent applied to calc, in reverse order, restoring
// calc to the position it held when Simulate was called.
func (t *Tree) unwind(calc *board.Calculator, path []pathStep) {
	for i := len(path) - 1; i >= 0; i-- {
		if err := calc.UndoMove(path[i].edge.Move.Row, path[i].edge.Move.Col); err != nil {
			klog.Errorf("mcts: failed to undo move %v during unwind: %v", path[i].edge.Move, err)
		}
	}
}

// expand materialises node's edges (on first visit) by calling the generator, consults the
// TSS for a proven score, and otherwise dispatches to the evaluator -- per spec §4.5
// "Expansion".
func (t *Tree) expand(calc *board.Calculator, node *Node) (float32, error) {
	if node.Expanded {
		// Already resolved to a childless leaf (e.g. no candidate moves at this mode) or
		// re-selected after a previous expansion; just report its value again.
		node.bumpVisits()
		if node.ProvenKnown {
			return provenToValue(node.Proven), nil
		}
		return node.Value, nil
	}
	al := movegen.Generate(calc, node.Sign, t.Mode, t.arena)

	if proven, ok := al.ProvenScore(); ok {
		node.setProven(proven)
		node.bumpVisits()
		return provenToValue(proven), nil
	}

	if t.HashTable != nil && t.TSSBudget > 0 {
		budget := &tss.Budget{MaxPositions: t.TSSBudget}
		score := tss.Solve(calc, node.Sign, t.Mode, t.HashTable, budget)
		if score.IsProven() {
			node.setProven(score)
			node.bumpVisits()
			return provenToValue(score), nil
		}
	}

	moves := make([]board.Pos, len(al.Actions))
	for i, a := range al.Actions {
		moves[i] = a.Move
	}

	var priorFor func(board.Pos) float32
	var value float32
	if t.Evaluator != nil && len(moves) > 0 {
		policy, v, err := t.Evaluator.Evaluate(calc, node.Sign, moves)
		if err != nil {
			return 0, errors.Wrap(err, "mcts: evaluator failed")
		}
		value = v
		if len(policy) == len(moves) {
			priorFor = func(p board.Pos) float32 {
				for i, m := range moves {
					if m == p {
						return policy[i]
					}
				}
				return 0
			}
		}
	}

	node.Expand(al, priorFor)
	node.Value = value
	node.bumpVisits()
	return value, nil
}

// provenToValue maps a proven outcome to a scalar value for backup purposes: a win is +1
// regardless of distance (closer wins are preferred through the visit-count mechanism, not
// the raw value), a loss is -1, a draw is 0.
func provenToValue(s movegen.Score) float32 {
	switch {
	case s.IsWin():
		return 1
	case s.IsLoss():
		return -1
	default:
		return 0
	}
}

// backup walks path in reverse, negating the value at each ply (negamax), cancelling
// virtual loss, and adding to each edge's running sum -- then propagates proven values
// upward when every child of a node is now proven, per spec §4.5 "Backup".
func (t *Tree) backup(path []pathStep, leafValue float32) {
	value := leafValue
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		step.edge.Backup(value)
		step.node.bumpVisits()
		propagateProven(step.node)
		value = -value
	}
}

// propagateProven implements spec §4.5's proven-value propagation: if any child is WIN (for
// the side to move at parent), parent is WIN; if all children are LOSS, parent is LOSS;
// otherwise, if every child is proven, parent is a DRAW (the conservative combination the
// spec calls for when no child is a clean win).
func propagateProven(node *Node) {
	if node.ProvenKnown || len(node.Edges) == 0 {
		return
	}
	allProven := true
	best := movegen.NegInf
	for _, e := range node.Edges {
		var childScore movegen.Score
		switch {
		case e.ProvenKnown:
			// Already from node.Sign's perspective -- the generator proved it directly.
			childScore = e.Proven
		case e.Child != nil && e.Child.ProvenKnown:
			childScore = e.Child.Proven.Negate().IncPly()
		default:
			allProven = false
			continue
		}
		best = movegen.Max(best, childScore)
		if best.IsWin() {
			node.setProven(best)
			return
		}
	}
	if allProven {
		node.setProven(best)
	}
}

// VMix computes the initiative-aware score described in spec §8: a blend of the node's raw
// value and a prior-weighted expectation of sibling Q's, used when constructing policy
// targets. Returns node.Value unmodified when N==0 (no visits yet to mix in).
func VMix(node *Node) float32 {
	var sumV, sumQ, sumP float32
	var n float32
	for _, e := range node.Edges {
		visits := float32(e.visits.Load())
		if visits == 0 {
			continue
		}
		sumV += e.Q() * visits
		sumQ += e.Prior * e.Q()
		sumP += e.Prior
		n += visits
	}
	if n == 0 || sumP == 0 {
		return node.Value
	}
	return (node.Value - sumV/n) + (1-1/n)/sumP*sumQ
}
