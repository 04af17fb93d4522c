package mcts

import (
	"math"
	"math/rand"
	"sort"

	"github.com/chewxy/math32"
)

// EdgeSelector chooses which edge of a node to descend into during tree walks. Distinct
// selectors serve distinct purposes (exploration during search vs. final move choice vs.
// PV extraction), per spec §4.5.
type EdgeSelector interface {
	Select(node *Node) *Edge
}

// PUCTSelector implements Q + c·P·√ΣN/(1+N), the standard AlphaZero-style selection formula.
type PUCTSelector struct {
	// CPuct controls the exploration/exploitation trade-off; higher favours unexplored,
	// high-prior edges.
	CPuct float32
}

func (s PUCTSelector) Select(node *Node) *Edge {
	return selectByPUCT(node.Edges, s.CPuct, nil, 0)
}

func selectByPUCT(edges []*Edge, cPuct float32, noise []float32, noiseWeight float32) *Edge {
	var sumN int32
	for _, e := range edges {
		sumN += e.visits.Load() + e.virtualLoss.Load()
	}
	sqrtSumN := math32.Sqrt(float32(sumN))

	var best *Edge
	var bestU float32 = float32(math.Inf(-1))
	for i, e := range edges {
		prior := e.Prior
		if noise != nil {
			prior = (1-noiseWeight)*prior + noiseWeight*noise[i]
		}
		n := float32(e.visits.Load() + e.virtualLoss.Load())
		u := e.effectiveQ() + cPuct*prior*sqrtSumN/(1+n)
		if best == nil || u > bestU {
			best, bestU = e, u
		}
	}
	return best
}

// NoisyPUCTSelector adds Dirichlet noise to root priors, used during self-play to keep
// exploration from collapsing onto the NN's raw policy (spec §4.5).
type NoisyPUCTSelector struct {
	CPuct           float32
	DirichletAlpha  float32
	DirichletWeight float32
	rng             *rand.Rand
}

// NewNoisyPUCTSelector seeds the Dirichlet generator; rng may be nil to use a fresh source.
func NewNoisyPUCTSelector(cPuct, alpha, weight float32, rng *rand.Rand) *NoisyPUCTSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &NoisyPUCTSelector{CPuct: cPuct, DirichletAlpha: alpha, DirichletWeight: weight, rng: rng}
}

func (s *NoisyPUCTSelector) Select(node *Node) *Edge {
	noise := sampleDirichlet(s.rng, len(node.Edges), s.DirichletAlpha)
	return selectByPUCT(node.Edges, s.CPuct, noise, s.DirichletWeight)
}

// sampleDirichlet draws from Dirichlet(alpha, ..., alpha) via independent Gamma(alpha,1)
// draws normalised to sum to 1, the standard trick when no dedicated Dirichlet sampler is
// at hand.
func sampleDirichlet(rng *rand.Rand, n int, alpha float32) []float32 {
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	var sum float32
	for i := range out {
		g := sampleGamma(rng, float64(alpha))
		out[i] = float32(g)
		sum += out[i]
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1.0 / float32(n)
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// sampleGamma draws from Gamma(shape, 1) via Marsaglia-Tsang for shape>=1, with the
// standard boost transform for shape<1.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// SequentialHalvingSelector splits a root-level budget over candidate edges in elimination
// rounds, pruning the weaker half each round, per spec §4.5. Select keeps no state of its
// own: it reads the number of root simulations left in this search from Remaining (or uses
// TotalHint when Remaining is nil) and derives the elimination round from the budget spent.
type SequentialHalvingSelector struct {
	CPuct     float32
	Remaining func() int
	TotalHint int
}

func (s SequentialHalvingSelector) Select(node *Node) *Edge {
	if s.TotalHint <= 0 || len(node.Edges) <= 1 {
		return selectByPUCT(node.Edges, s.CPuct, nil, 0)
	}
	remaining := s.TotalHint
	if s.Remaining != nil {
		remaining = s.Remaining()
	}
	surviving := survivingEdges(node.Edges, s.TotalHint, remaining)
	if len(surviving) == 1 {
		return surviving[0]
	}
	return selectByPUCT(surviving, s.CPuct, nil, 0)
}

// survivingEdges counts the elimination rounds completed from the budget spent so far
// (total-remaining, in rounds of total/2) and halves the candidate pool once per round,
// keeping the edges with the highest Q; untried edges are ranked by their Q like the rest.
func survivingEdges(edges []*Edge, total, remaining int) []*Edge {
	budgetSpent := total - remaining
	roundSize := total / 2
	if roundSize < 1 {
		roundSize = 1
	}
	roundsDone := budgetSpent / roundSize
	keep := len(edges)
	for i := 0; i < roundsDone && keep > 1; i++ {
		keep = (keep + 1) / 2
	}
	if keep >= len(edges) {
		return edges
	}
	sorted := append([]*Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Q() > sorted[j].Q() })
	return sorted[:keep]
}

// LCBSelector picks the edge with the best lower-confidence bound, the conservative choice
// used for final "best move" reporting once search has finished (spec §4.5).
type LCBSelector struct {
	C float32 // exploration constant controlling how pessimistic the bound is.
}

func (s LCBSelector) Select(node *Node) *Edge {
	var best *Edge
	var bestLCB float32 = float32(math.Inf(-1))
	for _, e := range node.Edges {
		n := e.visits.Load()
		if n == 0 {
			continue
		}
		bound := e.Q() - s.C/math32.Sqrt(float32(n))
		if best == nil || bound > bestLCB {
			best, bestLCB = e, bound
		}
	}
	if best == nil && len(node.Edges) > 0 {
		return node.Edges[0]
	}
	return best
}

// BestEdgeSelector is the pure "most-visited" selector used to extract the principal
// variation, per spec §4.5.
type BestEdgeSelector struct{}

func (BestEdgeSelector) Select(node *Node) *Edge {
	var best *Edge
	for _, e := range node.Edges {
		if best == nil || e.visits.Load() > best.visits.Load() {
			best = e
		}
	}
	return best
}
