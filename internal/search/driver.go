// Package search implements the search driver (spec component C6): it owns the worker
// thread(s) that repeatedly select a leaf, consult the TSS, dispatch to the NN evaluator,
// and back up the result, publishing realtime info and honouring stop conditions.
package search

import (
	"context"
	"time"

	"github.com/alphagomoku/engine/internal/ai"
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/mcts"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/parameters"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/tss"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Config collects the recognised configuration options from spec §6 "Configuration".
type Config struct {
	Rows, Cols    int
	Rule          rules.GameRules
	MaxDepth      int
	MaxNodes      int
	TimeIncrement time.Duration
	AutoPondering bool
	MaxMemory     int64
	ThreadNum     int
	UseDatabase   bool
	DatabasePath  string

	CPuct     float32
	TSSBudget int
	Mode      movegen.Mode
}

// DefaultConfig returns sane defaults for every option the driver recognises.
func DefaultConfig() Config {
	return Config{
		Rows: 15, Cols: 15, Rule: rules.Freestyle,
		MaxDepth: 0, MaxNodes: 20000, TimeIncrement: 0,
		ThreadNum: 1, CPuct: 1.5, TSSBudget: 2000, Mode: movegen.Optimal,
		DatabasePath: "gomoku-tss-db",
	}
}

// FromParams overlays recognised keys from params onto a copy of the default config, per
// spec §6's configuration surface.
func FromParams(params parameters.Params) (Config, error) {
	cfg := DefaultConfig()
	var err error
	if cfg.Rows, err = parameters.GetParamOr(params, "rows", cfg.Rows); err != nil {
		return cfg, err
	}
	if cfg.Cols, err = parameters.GetParamOr(params, "columns", cfg.Cols); err != nil {
		return cfg, err
	}
	ruleName, err := parameters.GetParamOr(params, "rules", cfg.Rule.String())
	if err != nil {
		return cfg, err
	}
	if cfg.Rule, err = rules.ParseGameRules(ruleName); err != nil {
		return cfg, err
	}
	if cfg.MaxDepth, err = parameters.GetParamOr(params, "max_depth", cfg.MaxDepth); err != nil {
		return cfg, err
	}
	if cfg.MaxNodes, err = parameters.GetParamOr(params, "max_nodes", cfg.MaxNodes); err != nil {
		return cfg, err
	}
	timeIncrementMs, err := parameters.GetParamOr(params, "time_increment", int(cfg.TimeIncrement/time.Millisecond))
	if err != nil {
		return cfg, err
	}
	cfg.TimeIncrement = time.Duration(timeIncrementMs) * time.Millisecond
	if cfg.AutoPondering, err = parameters.GetParamOr(params, "auto_pondering", cfg.AutoPondering); err != nil {
		return cfg, err
	}
	maxMemory, err := parameters.GetParamOr(params, "max_memory", int(cfg.MaxMemory))
	if err != nil {
		return cfg, err
	}
	cfg.MaxMemory = int64(maxMemory)
	if cfg.ThreadNum, err = parameters.GetParamOr(params, "thread_num", cfg.ThreadNum); err != nil {
		return cfg, err
	}
	if cfg.UseDatabase, err = parameters.GetParamOr(params, "use_database", cfg.UseDatabase); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Info is one realtime progress summary, per spec §6's `MESSAGE REALTIME` reporting.
type Info struct {
	Move       board.Pos
	Visits     int32
	Value      float32
	Simulated  int
	BestSoFar  board.Pos
	IsFinal    bool
	IsLoseMove bool
}

// Result is the outcome of a completed Run: the chosen move, its score, and whether it was
// a proven outcome.
type Result struct {
	Move    board.Pos
	Score   movegen.Score
	Proven  bool
	Visited int
}

// Driver owns one search session: the pattern calculator, the MCTS tree, and the TSS shared
// hash table, per spec §5 "Scheduling model".
type Driver struct {
	cfg       Config
	calc      *board.Calculator
	tree      *mcts.Tree
	evaluator ai.ValueScorer
	hashTable *tss.SharedHashTable

	// cache persists across Run calls within one game, so later searches reuse nodes proven
	// by earlier ones instead of starting cold; SetRule/Reset prune it for the new root.
	cache *mcts.NodeCache

	stop     chan struct{}
	realtime chan Info
}

// New builds a Driver for the given configuration and evaluator.
func New(cfg Config, evaluator ai.ValueScorer) *Driver {
	var table *tss.SharedHashTable
	if cfg.UseDatabase || cfg.TSSBudget > 0 {
		table = tss.NewSharedHashTable(1 << 16)
	}
	if cfg.UseDatabase && table != nil {
		store, err := tss.OpenStore(cfg.DatabasePath)
		if err != nil {
			klog.Errorf("search: use_database enabled but failed to open %q, continuing without persistence: %v", cfg.DatabasePath, err)
		} else {
			table.AttachStore(store)
		}
	}
	return &Driver{
		cfg:       cfg,
		calc:      board.New(cfg.Rows, cfg.Cols, cfg.Rule),
		evaluator: evaluator,
		hashTable: table,
		cache:     mcts.NewNodeCache(cfg.MaxNodes),
		stop:      make(chan struct{}),
		realtime:  make(chan Info, 64),
	}
}

// Calculator exposes the driver's pattern calculator, e.g. for protocol front-ends applying
// BOARD/TURN commands.
func (d *Driver) Calculator() *board.Calculator { return d.calc }

// Config returns the driver's current configuration.
func (d *Driver) Config() Config { return d.cfg }

// Reset rebuilds the calculator as an empty board of the given size/rule, preserving the
// rest of the configuration -- used by RESTART and BOARD.
func (d *Driver) Reset(rows, cols int, rule rules.GameRules) {
	d.cfg.Rows, d.cfg.Cols, d.cfg.Rule = rows, cols, rule
	d.calc = board.New(rows, cols, rule)
	d.cache.PruneIncompatible(d.calc.CurrentDepth())
}

// SetRule switches the game rule in place, replaying every stone currently on the board onto
// a freshly sized calculator -- used by the Yixin-Board `INFO rule` command, which arrives
// after START rather than before it.
func (d *Driver) SetRule(rule rules.GameRules) {
	old := d.calc.Board()
	next := board.New(old.Rows, old.Cols, rule)
	for r := 0; r < old.Rows; r++ {
		for c := 0; c < old.Cols; c++ {
			if s := old.At(r, c); s == rules.Cross || s == rules.Circle {
				_ = next.AddMove(r, c, s)
			}
		}
	}
	d.cfg.Rule = rule
	d.calc = next
	d.cache.PruneIncompatible(d.calc.CurrentDepth())
}

// SetHashSizeMB resizes the TSS shared hash table to approximately sizeMB, clamped to the
// spec's 8MB minimum, and returns the clamped value actually applied.
func (d *Driver) SetHashSizeMB(sizeMB int) int {
	if sizeMB < 8 {
		sizeMB = 8
	}
	d.hashTable = tss.NewSharedHashTable(tss.BucketsForBytes(int64(sizeMB) << 20))
	return sizeMB
}

// ClearHash drops every entry from the TSS shared hash table, for `yxhashclear`.
func (d *Driver) ClearHash() {
	if d.hashTable != nil {
		d.hashTable.Clear()
	}
}

// Realtime returns the channel realtime info summaries are published on.
func (d *Driver) Realtime() <-chan Info { return d.realtime }

// Stop requests the search loop exit at its next safe point, per spec §5 "Cancellation".
func (d *Driver) Stop() {
	select {
	case <-d.stop:
		// already stopped
	default:
		close(d.stop)
	}
}

// resetStop rearms the stop channel for a new Run.
func (d *Driver) resetStop() {
	d.stop = make(chan struct{})
}

// Run drives simulations from the calculator's current position until a stop condition is
// met: node cap, time cap, proven root, external Stop(), or ctx cancellation. MaxDepth is not
// consulted, so there is no depth cap.
func (d *Driver) Run(ctx context.Context, sign rules.Sign) (Result, error) {
	d.resetStop()
	d.hashTable = cond(d.hashTable, d.cfg.UseDatabase || d.cfg.TSSBudget > 0)

	var evaluator mcts.Evaluator
	if d.evaluator != nil {
		evaluator = ai.NewPolicyProxy(d.evaluator, d.cfg.Mode, 1.0)
	}

	tree := mcts.NewTreeWithCache(d.calc, sign, d.cfg.Mode, d.cfg.CPuct, d.cfg.TSSBudget, d.cache, d.hashTable, evaluator)
	if d.hashTable != nil {
		d.hashTable.NextGeneration()
	}
	d.tree = tree

	deadline := time.Time{}
	if d.cfg.TimeIncrement > 0 {
		deadline = time.Now().Add(d.cfg.TimeIncrement)
	}

	// Per spec §5's scheduling model, exactly one search thread owns the pattern calculator
	// and the tree, so simulations run one at a time in this goroutine. ThreadNum is not
	// consulted here or anywhere else in the driver.
	group, gctx := errgroup.WithContext(ctx)
	simulated := 0
	group.Go(func() error {
		for {
			select {
			case <-d.stop:
				return nil
			case <-gctx.Done():
				return nil
			default:
			}
			if tree.Root.ProvenKnown {
				return nil
			}
			if d.cfg.MaxNodes > 0 && simulated >= d.cfg.MaxNodes {
				return nil
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return nil
			}
			if err := tree.Simulate(d.calc); err != nil {
				return errors.Wrap(err, "search: simulation failed")
			}
			simulated++
			d.publishRealtime(tree, simulated, false)
		}
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	best := tree.BestSelect.Select(tree.Root)
	result := Result{Visited: simulated}
	if best != nil {
		result.Move = best.Move
		if best.ProvenKnown {
			result.Score = best.Proven
			result.Proven = true
		} else if best.Child != nil && best.Child.ProvenKnown {
			result.Score = best.Child.Proven.Negate()
			result.Proven = true
		} else {
			result.Score = movegen.Unknown(best.Q())
		}
	}
	d.publishRealtime(tree, simulated, true)
	return result, nil
}

func (d *Driver) publishRealtime(tree *mcts.Tree, simulated int, final bool) {
	best := tree.BestSelect.Select(tree.Root)
	info := Info{Simulated: simulated, IsFinal: final}
	if best != nil {
		info.Move = best.Move
		info.Visits = best.Visits()
		info.Value = best.Q()
		info.BestSoFar = best.Move
		if final && best.ProvenKnown && best.Proven.IsLoss() {
			info.IsLoseMove = true
		}
	}
	select {
	case d.realtime <- info:
	default:
		klog.V(2).Infof("search: realtime channel full, dropping update")
	}
}

func cond(table *tss.SharedHashTable, want bool) *tss.SharedHashTable {
	if !want {
		return nil
	}
	if table == nil {
		return tss.NewSharedHashTable(1 << 16)
	}
	return table
}

