package protocol

import (
	"context"
	"strings"

	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/search"
	"github.com/pkg/errors"
)

// swap2Step names one leg of the three-message swap2 opening negotiation (spec §7
// "Supplemented features": modelled as an explicit state machine, not a coroutine, per spec
// §9's "replace coroutine/async flow with explicit task state").
type swap2Step int

const (
	swap2AwaitPropose swap2Step = iota // we propose the initial 3 stones.
	swap2AwaitChoice                   // opponent answers "swap" or two extra stones; decide our final side.
	swap2Done
)

// swap2State tracks progress through one swap2 negotiation. Unlike the rest of the engine,
// this genuinely is a small multi-message protocol, so it gets its own explicit struct rather
// than being folded into Engine's own fields.
type swap2State struct {
	step swap2Step
}

// handleYxSwap2 dispatches the three legs of `yxswap2{step1,step2,step3}`. The three legs
// arrive as separate commands -- `yxswap2 step1`, `yxswap2 step2 <coords...>`,
// `yxswap2 step3` (any further fields are ignored) -- cmd carries the raw command token for
// diagnostics, args the remaining fields.
func (e *Engine) handleYxSwap2(ctx context.Context, cmd string, args []string) error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	if e.swap2 == nil {
		e.swap2 = &swap2State{step: swap2AwaitPropose}
	}
	if len(args) == 0 {
		return protoErrorf("%s: missing step argument", cmd)
	}
	switch strings.ToLower(args[0]) {
	case "step1":
		return e.swap2Step1(d)
	case "step2":
		return e.swap2Step2(ctx, d, args[1:])
	case "step3":
		return e.swap2Step3(ctx, d, args[1:])
	default:
		return protoErrorf("%s: unknown step %q", cmd, args[0])
	}
}

// swap2Step1 proposes the opening three stones -- two Cross, one Circle, placed at and
// adjacent to the board centre, the standard swap2 opening convention -- and waits for the
// opponent's step2 response (swap, or place two more stones and let us pick a side).
func (e *Engine) swap2Step1(d *search.Driver) error {
	if e.swap2.step != swap2AwaitPropose {
		return protoErrorf("yxswap2 step1: already past the proposal step")
	}
	calc := d.Calculator()
	b := calc.Board()
	cr, cc := b.Rows/2, b.Cols/2
	moves := []struct {
		r, c int
		sign rules.Sign
	}{
		{cr, cc, rules.Cross},
		{cr, cc + 1, rules.Circle},
		{cr + 1, cc, rules.Cross},
	}
	for _, m := range moves {
		if err := calc.AddMove(m.r, m.c, m.sign); err != nil {
			return protoErrorf("yxswap2 step1: %v", err)
		}
	}
	e.swap2.step = swap2AwaitChoice
	e.reply("%d,%d %d,%d %d,%d", cc, cr, cc+1, cr, cc, cr+1)
	return nil
}

// swap2Step2 receives the opponent's response to the proposed opening: either the literal
// token "swap" (they take the side already on the board and we play the other), or two
// further stone coordinates, both placed as Circle stones, after which we choose our side.
// Deciding the side uses the same driver the rest of the engine searches with: one search
// with Cross to move, taking Circle only if that search proves a loss for Cross and Cross
// otherwise -- a direct, non-speculative use of the search, with no coroutine.
func (e *Engine) swap2Step2(ctx context.Context, d *search.Driver, args []string) error {
	if e.swap2.step != swap2AwaitChoice {
		return protoErrorf("yxswap2 step2: unexpected at this point in the negotiation")
	}
	if len(args) == 1 && strings.EqualFold(args[0], "swap") {
		// Opponent swaps: we inherit Cross's position (the side already placed), they play
		// Circle from here on.
		e.mySign = rules.Cross
		e.swap2.step = swap2Done
		e.reply("OK")
		return nil
	}
	if len(args) != 2 {
		return protoErrorf("yxswap2 step2: expected \"swap\" or two coordinates")
	}
	for _, arg := range args {
		pos, err := parsePos(arg)
		if err != nil {
			return protoErrorf("yxswap2 step2: %v", err)
		}
		if err := d.Calculator().AddMove(pos.Row, pos.Col, rules.Circle); err != nil {
			return protoErrorf("yxswap2 step2: %v", err)
		}
	}
	// Five stones are now down; keep Cross unless the search proves Cross lost.
	crossScore, err := d.Run(ctx, rules.Cross)
	if err != nil {
		return errors.Wrap(err, "yxswap2 step2")
	}
	e.mySign = rules.Cross
	if crossScore.Proven && crossScore.Score.IsLoss() {
		e.mySign = rules.Circle
	}
	e.swap2.step = swap2Done
	e.reply("OK")
	return nil
}

// swap2Step3 is the final leg: once step2 has settled our side, it plays our next move as
// that side; before then it is a protocol error.
func (e *Engine) swap2Step3(ctx context.Context, d *search.Driver, _ []string) error {
	if e.swap2.step != swap2Done {
		return protoErrorf("yxswap2 step3: negotiation not yet complete")
	}
	return e.think(ctx, d)
}
