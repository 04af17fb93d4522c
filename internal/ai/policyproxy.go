package ai

import (
	"slices"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/chewxy/math32"
	"k8s.io/klog/v2"
)

// PolicyProxy adapts a plain ValueScorer into the mcts.Evaluator contract by scoring each
// candidate move's resulting position and turning those scores into a policy via Softmax --
// the same trick the teacher's PolicyProxy uses to let a value-only model drive MCTS.
type PolicyProxy struct {
	scorer ValueScorer
	mode   movegen.Mode
	scale  float32
}

// NewPolicyProxy wraps scorer, scaling logits by scale before the Softmax (a scale > 1
// sharpens the resulting policy). mode is stored but not consulted: Evaluate scores exactly
// the candidate moves its caller passes in.
func NewPolicyProxy(scorer ValueScorer, mode movegen.Mode, scale float32) *PolicyProxy {
	return &PolicyProxy{scorer: scorer, mode: mode, scale: scale}
}

// Evaluate implements mcts.Evaluator: it scores the current position directly for the
// value, and scores each candidate move (by probing one ply deeper and negating) for the
// policy.
func (p *PolicyProxy) Evaluate(calc *board.Calculator, sign rules.Sign, moves []board.Pos) ([]float32, float32, error) {
	value := p.scorer.Score(calc, sign).Scalar()
	if len(moves) == 0 {
		return nil, value, nil
	}

	logits := make([]float32, len(moves))
	opp := sign.Opponent()
	for i, m := range moves {
		if err := calc.AddMove(m.Row, m.Col, sign); err != nil {
			klog.Errorf("PolicyProxy: failed to probe move %v: %v", m, err)
			continue
		}
		logits[i] = -p.scorer.Score(calc, opp).Scalar()
		if err := calc.UndoMove(m.Row, m.Col); err != nil {
			klog.Errorf("PolicyProxy: failed to undo probe move %v: %v", m, err)
		}
	}
	if p.scale != 1 {
		for i := range logits {
			logits[i] *= p.scale
		}
	}
	return Softmax(logits), value, nil
}

// Softmax returns the Softmax of the given logits in a numerically stable way.
func Softmax(logits []float32) []float32 {
	probs := make([]float32, len(logits))
	if len(logits) == 0 {
		return probs
	}
	maxValue := slices.Max(logits)
	var sum float32
	for i, v := range logits {
		probs[i] = math32.Exp(v - maxValue)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
