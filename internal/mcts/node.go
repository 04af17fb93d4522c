// Package mcts implements the Monte-Carlo tree search layer (spec component C5): a tree of
// Nodes connected by Edges, a PUCT-family EdgeSelector, batched neural-network evaluation,
// virtual-loss backup, and proven-value propagation from the TSS engine.
package mcts

import (
	"sync/atomic"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
)

// Edge is one candidate move out of a Node: its prior, accumulated statistics, virtual
// loss, and (once visited) child Node.
type Edge struct {
	Move  board.Pos
	Prior float32

	visits      atomic.Int32
	valueSum    atomic.Value // float32, boxed because atomic has no float32 primitive.
	virtualLoss atomic.Int32

	Child *Node

	// Proven holds the TSS/terminal-proven score for this edge's resulting position, from
	// the mover's perspective, once known; ProvenKnown reports whether it has been set.
	Proven      movegen.Score
	ProvenKnown bool
}

func newEdge(move board.Pos, prior float32) *Edge {
	e := &Edge{Move: move, Prior: prior}
	e.valueSum.Store(float32(0))
	return e
}

// Visits returns the edge's visit count (net of any outstanding virtual loss).
func (e *Edge) Visits() int32 { return e.visits.Load() }

// Q returns the mean backed-up value of this edge, or 0 if never visited.
func (e *Edge) Q() float32 {
	n := e.visits.Load()
	if n == 0 {
		return 0
	}
	return e.valueSum.Load().(float32) / float32(n)
}

// AddVirtualLoss discourages concurrent walkers from re-selecting this edge before its real
// backup arrives (spec §4.5 "apply virtual loss to every traversed edge").
func (e *Edge) AddVirtualLoss() {
	e.virtualLoss.Add(1)
}

// CancelVirtualLoss removes one unit of virtual loss, called during backup.
func (e *Edge) CancelVirtualLoss() {
	e.virtualLoss.Add(-1)
}

// virtualLossPenalty is how much a single unit of virtual loss discounts Q during selection.
const virtualLossPenalty = 1.0

// effectiveQ is Q adjusted for any outstanding virtual loss, used only during selection so
// concurrent walkers steer away from edges already being explored.
func (e *Edge) effectiveQ() float32 {
	vl := e.virtualLoss.Load()
	if vl == 0 {
		return e.Q()
	}
	n := e.visits.Load() + vl
	sum := e.valueSum.Load().(float32) - float32(vl)*virtualLossPenalty
	return sum / float32(n)
}

// Backup adds value (already negated to this edge's perspective) to the running sum and
// increments the visit count, then cancels one unit of virtual loss.
func (e *Edge) Backup(value float32) {
	for {
		old := e.valueSum.Load().(float32)
		if e.valueSum.CompareAndSwap(old, old+value) {
			break
		}
	}
	e.visits.Add(1)
	e.CancelVirtualLoss()
}

// Node is one position in the tree: the side to move, its NN/TSS-derived value, and its
// outgoing Edges (one per generated candidate move).
type Node struct {
	Sign   rules.Sign
	Hash   uint64
	Depth  int
	Value  float32
	Edges  []*Edge
	visits atomic.Int32

	Expanded bool

	// Proven holds a game-theoretic outcome for this node (from TSS or terminal detection),
	// from Sign's perspective, once known.
	Proven      movegen.Score
	ProvenKnown bool
}

// Visits returns the node's visit count.
func (n *Node) Visits() int32 { return n.visits.Load() }

// NewNode allocates an unexpanded node for the given position.
func NewNode(sign rules.Sign, hash uint64, depth int) *Node {
	return &Node{Sign: sign, Hash: hash, Depth: depth}
}

// Expand fills n.Edges from the generator's ActionList, one Edge per candidate move, with
// priors taken either from the NN policy vector (by move) or, absent one, uniformly.
func (n *Node) Expand(al *movegen.ActionList, priorFor func(board.Pos) float32) {
	n.Edges = make([]*Edge, 0, al.Len())
	for _, a := range al.Actions {
		var prior float32
		if priorFor != nil {
			prior = priorFor(a.Move)
		} else if al.Len() > 0 {
			prior = 1.0 / float32(al.Len())
		}
		e := newEdge(a.Move, prior)
		if a.Score.IsProven() {
			e.Proven = a.Score
			e.ProvenKnown = true
		}
		n.Edges = append(n.Edges, e)
	}
	n.Expanded = true
}

// setProven marks a node's outcome proven (from its own Sign's perspective).
func (n *Node) setProven(score movegen.Score) {
	n.Proven = score
	n.ProvenKnown = true
}

// bumpVisits increments the node's own visit counter (distinct from its edges', used for
// the tree-value-consistency invariant: a non-terminal node's visits equal one plus the sum
// of its edges' visits).
func (n *Node) bumpVisits() { n.visits.Add(1) }
