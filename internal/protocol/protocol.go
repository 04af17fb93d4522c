// Package protocol implements the Gomocup base protocol and its Yixin-Board extension (spec
// §6 "External interfaces"): thin, line-oriented I/O state machines that drive an
// internal/search.Driver. Coordinates on the wire are "col,row" (x,y); internally everything
// stays row,col (board.Pos), so every boundary crossing goes through parsePos/formatPos.
package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/parameters"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/search"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Error is a ProtocolRuntimeException (spec §7): malformed input that the engine reports
// back to the client with `ERROR <reason>` but never crashes on.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// protoErrorf builds an *Error the way errors.Errorf builds a wrapped error.
func protoErrorf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// errQuit is a sentinel unwound by Run to stop the main loop cleanly on END.
var errQuit = errors.New("protocol: quit")

// Engine is the shared command dispatcher for both the Gomocup base protocol and the
// Yixin-Board extension; Run's switch statement recognises both command sets, since a
// Yixin-Board client is a superset client of a Gomocup-base one.
type Engine struct {
	driver *search.Driver
	params parameters.Params
	mySign rules.Sign // None until the first BEGIN/TURN/BOARD establishes which side we play.
	swap2  *swap2State

	// defaultDatabasePath seeds Config.DatabasePath for every START, overriding
	// search.DefaultConfig's own default; set via SetDefaultDatabasePath before Run.
	defaultDatabasePath string

	in  *bufio.Scanner
	out io.Writer
}

// New builds an Engine reading commands from in and writing responses to out. No board exists
// until the first START; commands that need one before then are protocol errors.
func New(in io.Reader, out io.Writer) *Engine {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Engine{
		params: parameters.Params{},
		in:     scanner,
		out:    out,
	}
}

// SetDefaultDatabasePath overrides the directory used for the on-disk TSS store when a client
// enables it via `INFO usedatabase 1`. Call before Run; has no effect on a database already
// opened by an earlier START.
func (e *Engine) SetDefaultDatabasePath(path string) {
	e.defaultDatabasePath = path
}

// Run reads commands until EOF, END, or ctx cancellation, dispatching each to the matching
// handler. Parser errors never abort the loop (spec §7 "parser errors never crash"); only END
// or a read error stops it.
func (e *Engine) Run(ctx context.Context) error {
	for e.in.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(e.in.Text())
		if line == "" {
			continue
		}
		if err := e.dispatch(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			e.replyError(err)
		}
	}
	return e.in.Err()
}

func (e *Engine) replyError(err error) {
	var pe *Error
	if errors.As(err, &pe) {
		e.reply("ERROR %s", pe.Reason)
		return
	}
	klog.Errorf("protocol: unexpected error, reporting as ERROR: %v", err)
	e.reply("ERROR %s", err)
}

func (e *Engine) reply(format string, args ...any) {
	fmt.Fprintf(e.out, format+"\n", args...)
}

func (e *Engine) dispatch(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch {
	case cmd == "START":
		return e.handleStart(args)
	case cmd == "RESTART":
		return e.handleRestart()
	case cmd == "BEGIN":
		return e.handleBegin(ctx)
	case cmd == "TURN":
		return e.handleTurn(ctx, args)
	case cmd == "BOARD":
		return e.handleBoard(ctx, "DONE")
	case cmd == "INFO":
		return e.handleInfo(args)
	case cmd == "END":
		return errQuit
	// Yixin-Board extension: command names are case-sensitive lowercase on the wire, but we
	// already upper-cased cmd above for the base-protocol switch, so compare case-insensitively.
	case strings.EqualFold(fields[0], "yxboard"):
		return e.handleBoard(ctx, "done")
	case strings.EqualFold(fields[0], "yxstop"):
		return e.handleYxStop()
	case strings.EqualFold(fields[0], "yxshowforbid"):
		return e.handleYxShowForbid()
	case strings.EqualFold(fields[0], "yxhashclear"):
		return e.handleYxHashClear()
	case strings.HasPrefix(strings.ToLower(fields[0]), "yxswap2"):
		return e.handleYxSwap2(ctx, fields[0], args)
	default:
		return protoErrorf("unknown command %q", fields[0])
	}
}

func (e *Engine) requireDriver() (*search.Driver, error) {
	if e.driver == nil {
		return nil, protoErrorf("no game in progress (missing START)")
	}
	return e.driver, nil
}

// handleStart allocates a fresh square board of the given size under the currently
// accumulated INFO parameters (rule defaults to freestyle unless INFO rule arrived first,
// which Gomocup allows for engines that pre-negotiate rules before START).
func (e *Engine) handleStart(args []string) error {
	if len(args) != 1 {
		return protoErrorf("START requires exactly one size argument")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil || size <= 0 {
		return protoErrorf("START: invalid size %q", args[0])
	}
	cfg, err := search.FromParams(e.params)
	if err != nil {
		return protoErrorf("START: %v", err)
	}
	cfg.Rows, cfg.Cols = size, size
	if e.defaultDatabasePath != "" {
		cfg.DatabasePath = e.defaultDatabasePath
	}
	e.driver = search.New(cfg, nil)
	e.mySign = rules.None
	e.swap2 = nil
	e.reply("OK")
	return nil
}

func (e *Engine) handleRestart() error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	cfg := d.Config()
	d.Reset(cfg.Rows, cfg.Cols, cfg.Rule)
	e.mySign = rules.None
	e.swap2 = nil
	e.reply("OK")
	return nil
}

// handleInfo records key into the params map and applies the handful of keys that take
// effect immediately rather than only at the next START (spec §6's Yixin-Board keys, which a
// real client sends mid-game: `START 15 / INFO rule 2 / BEGIN`, scenario 6).
func (e *Engine) handleInfo(args []string) error {
	if len(args) < 1 {
		return protoErrorf("INFO requires a key")
	}
	key := args[0]
	value := strings.Join(args[1:], " ")
	e.params[key] = value

	switch key {
	case "rule":
		rule, err := rules.ParseGameRules(value)
		if err != nil {
			return protoErrorf("INFO rule: %v", err)
		}
		e.params["rules"] = rule.String() // the key search.FromParams reads at the next START.
		if e.driver == nil {
			return nil
		}
		e.driver.SetRule(rule)
	case "hash_size":
		if e.driver == nil {
			return nil
		}
		mb, err := strconv.Atoi(value)
		if err != nil {
			return protoErrorf("INFO hash_size: %v", err)
		}
		clamped := e.driver.SetHashSizeMB(mb)
		if clamped != mb {
			e.reply("MESSAGE hash_size clamped to %d", clamped)
		}
	case "usedatabase":
		// Recorded into params; takes effect at the next START (opening the on-disk store
		// mid-game would silently lose everything solved so far).
	}
	return nil
}

func (e *Engine) handleBegin(ctx context.Context) error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	e.mySign = rules.Cross
	return e.think(ctx, d)
}

func (e *Engine) handleTurn(ctx context.Context, args []string) error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return protoErrorf("TURN requires one x,y argument")
	}
	pos, err := parsePos(args[0])
	if err != nil {
		return protoErrorf("TURN: %v", err)
	}
	if e.mySign == rules.None {
		// No BEGIN preceded this TURN: the opponent moved first, so we are Circle.
		e.mySign = rules.Circle
	}
	if err := d.Calculator().AddMove(pos.Row, pos.Col, e.mySign.Opponent()); err != nil {
		return protoErrorf("TURN: %v", err)
	}
	return e.think(ctx, d)
}

// handleBoard reads a "BOARD"/"yxboard" stone list until a line equal to terminator,
// replaying it onto a fresh board. Each line is "x,y,who" with who==1 meaning our own stone
// and who==2 the opponent's, per Gomocup's BOARD convention.
func (e *Engine) handleBoard(ctx context.Context, terminator string) error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	cfg := d.Config()
	d.Reset(cfg.Rows, cfg.Cols, cfg.Rule)
	if e.mySign == rules.None {
		e.mySign = rules.Cross
	}

	for e.in.Scan() {
		line := strings.TrimSpace(e.in.Text())
		if line == terminator {
			break
		}
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return protoErrorf("BOARD: malformed stone line %q", line)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
		who, errW := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errX != nil || errY != nil || errW != nil {
			return protoErrorf("BOARD: malformed stone line %q", line)
		}
		sign := e.mySign
		if who == 2 {
			sign = e.mySign.Opponent()
		}
		if err := d.Calculator().AddMove(y, x, sign); err != nil {
			return protoErrorf("BOARD: %v", err)
		}
	}
	return e.think(ctx, d)
}

// think runs one search to completion for the side to move (always e.mySign at this point)
// and replies with its chosen coordinate, per the base protocol's synchronous move contract.
// While the search runs, a second goroutine streams `MESSAGE REALTIME` updates (spec §6),
// since Driver.Run blocks the caller until the search itself stops.
func (e *Engine) think(ctx context.Context, d *search.Driver) error {
	done := make(chan struct{})
	go e.streamRealtime(d, done)
	result, err := d.Run(ctx, e.mySign)
	// The authoritative move reply below is independent of this stream; realtime reporting is
	// cooperative best-effort (spec §5), so losing a trailing REALTIME line to this close race
	// is acceptable -- the client's actual move still arrives.
	close(done)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}
	if err := d.Calculator().AddMove(result.Move.Row, result.Move.Col, e.mySign); err != nil {
		return protoErrorf("think: %v", err)
	}
	e.reply("%s", formatPos(result.Move))
	return nil
}

// streamRealtime drains d.Realtime() until done is closed, translating each Info summary into
// the Yixin-Board `MESSAGE REALTIME {REFRESH|POS x,y|DONE x,y|LOSE x,y|BEST x,y}` sequence
// (spec §6): a REFRESH preamble once, a POS update per intermediate report, and a closing
// LOSE/BEST followed by DONE once the search's own final summary arrives.
func (e *Engine) streamRealtime(d *search.Driver, done <-chan struct{}) {
	first := true
	for {
		select {
		case info, ok := <-d.Realtime():
			if !ok {
				return
			}
			if first {
				e.reply("MESSAGE REALTIME REFRESH")
				first = false
			}
			if info.IsFinal {
				if info.IsLoseMove {
					e.reply("MESSAGE REALTIME LOSE %s", formatPos(info.Move))
				} else {
					e.reply("MESSAGE REALTIME BEST %s", formatPos(info.BestSoFar))
				}
				e.reply("MESSAGE REALTIME DONE %s", formatPos(info.BestSoFar))
				return
			}
			e.reply("MESSAGE REALTIME POS %s", formatPos(info.Move))
		case <-done:
			return
		}
	}
}

func (e *Engine) handleYxStop() error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	d.Stop()
	e.reply("OK")
	return nil
}

// handleYxShowForbid replies with every CROSS-forbidden cell under the current rule, per spec
// §6/scenario 6: `FORBID` followed by each forbidden cell's row then column, each zero-padded
// to two digits and concatenated with no separator.
func (e *Engine) handleYxShowForbid() error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	calc := d.Calculator()
	b := calc.Board()
	var sb strings.Builder
	sb.WriteString("FORBID")
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.At(r, c) != rules.None {
				continue
			}
			if calc.IsForbidden(rules.Cross, r, c) {
				fmt.Fprintf(&sb, "%02d%02d", r, c)
			}
		}
	}
	e.reply("%s", sb.String())
	return nil
}

func (e *Engine) handleYxHashClear() error {
	d, err := e.requireDriver()
	if err != nil {
		return err
	}
	d.ClearHash()
	e.reply("OK")
	return nil
}

// parsePos parses a wire coordinate "x,y" (col,row) into a board.Pos.
func parsePos(s string) (board.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return board.Pos{}, errors.Errorf("malformed coordinate %q, want x,y", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return board.Pos{}, errors.Errorf("malformed coordinate %q, want x,y", s)
	}
	return board.Pos{Row: y, Col: x}, nil
}

// formatPos renders a board.Pos back onto the wire as "x,y" (col,row).
func formatPos(p board.Pos) string {
	return fmt.Sprintf("%d,%d", p.Col, p.Row)
}
