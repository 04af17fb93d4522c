// Package match implements diagnostic match persistence (spec §7 "Supplemented features"):
// a gob-encoded record of one finished or in-progress game, mirroring the teacher's
// state.LoadMatch/EncodeMatch save format, adapted to Gomoku's move/score types. It is
// plumbing for the Gomocup/Yixin front-ends to replay a game for debugging, not an opening
// book or training dataset format.
package match

import (
	"encoding/gob"
	"io"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/generics"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/pkg/errors"
)

// saveFileVersion enumerates the on-disk record shapes, oldest first, the same way the
// teacher's state package versions its match files: a version marker precedes the payload so
// older files stay loadable as the format grows.
const (
	versionMovesOnly = iota + 1
	versionMovesAndScores
)

const currentVersion = versionMovesAndScores

// Match is one recorded game: the board the game started from, the alternating move list, and
// (optionally) the score the engine assigned to each resulting position.
type Match struct {
	Rows, Cols int
	Rule       rules.GameRules
	FirstSign  rules.Sign // which side moved first; the rest alternate.

	// Moves, in play order. Moves[i] was played by FirstSign if i is even, its opponent if odd.
	Moves []board.Pos

	// Scores[i] is the engine's evaluation of the position after Moves[i] was played, if it was
	// recorded during play. Scores is either empty or exactly len(Moves) long.
	Scores []movegen.Score
}

// Recorder accumulates a Match incrementally as a protocol front-end or search driver plays
// moves, so a partial game can still be saved if the process exits mid-match.
type Recorder struct {
	m *Match
}

// NewRecorder starts recording a match on a board of the given size/rule, with firstSign
// moving first.
func NewRecorder(rows, cols int, rule rules.GameRules, firstSign rules.Sign) *Recorder {
	return &Recorder{m: &Match{Rows: rows, Cols: cols, Rule: rule, FirstSign: firstSign}}
}

// Append records one more move and its (optional, possibly unknown) score.
func (r *Recorder) Append(move board.Pos, score movegen.Score) {
	r.m.Moves = append(r.m.Moves, move)
	r.m.Scores = append(r.m.Scores, score)
}

// Match returns the Match recorded so far. The caller must not mutate it.
func (r *Recorder) Match() *Match { return r.m }

// gobScore is Score's wire representation: Score itself keeps its fields unexported, so
// recording has to go through its Pack/Unpack round trip the same way the TSS hash table does.
type gobScore struct {
	Kind        int8
	PlyDistance int
}

func toGobScores(scores []movegen.Score) []gobScore {
	return generics.SliceMap(scores, func(s movegen.Score) gobScore {
		k, n := s.Pack()
		return gobScore{Kind: k, PlyDistance: n}
	})
}

func fromGobScores(scores []gobScore) []movegen.Score {
	return generics.SliceMap(scores, func(s gobScore) movegen.Score {
		return movegen.Unpack(s.Kind, s.PlyDistance)
	})
}

// record is the flat struct actually gob-encoded, so the wire format doesn't depend on
// Match's unexported-field-free layout happening to match gob's requirements verbatim.
type record struct {
	Rows, Cols int
	Rule       rules.GameRules
	FirstSign  rules.Sign
	Moves      []board.Pos
	Scores     []gobScore
}

// Save gob-encodes m to w, preceded by a version marker, the way the teacher's EncodeMatch
// writes a saveFileVersion ahead of the payload so future versions can add fields without
// breaking old readers.
func Save(w io.Writer, m *Match) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(currentVersion); err != nil {
		return errors.Wrap(err, "match: failed to encode version")
	}
	rec := record{
		Rows: m.Rows, Cols: m.Cols, Rule: m.Rule, FirstSign: m.FirstSign,
		Moves:  m.Moves,
		Scores: toGobScores(m.Scores),
	}
	if err := enc.Encode(rec); err != nil {
		return errors.Wrap(err, "match: failed to encode record")
	}
	return nil
}

// Load decodes one Match from r, as written by Save.
func Load(r io.Reader) (*Match, error) {
	dec := gob.NewDecoder(r)
	var version int
	if err := dec.Decode(&version); err != nil {
		return nil, errors.Wrap(err, "match: failed to decode version")
	}
	if version < versionMovesOnly || version > currentVersion {
		return nil, errors.Errorf("match: unsupported file version %d", version)
	}
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "match: failed to decode record")
	}
	m := &Match{
		Rows: rec.Rows, Cols: rec.Cols, Rule: rec.Rule, FirstSign: rec.FirstSign,
		Moves: rec.Moves,
	}
	if version >= versionMovesAndScores {
		m.Scores = fromGobScores(rec.Scores)
	}
	return m, nil
}

// Replay rebuilds the sequence of board positions one gets by playing m.Moves in order onto
// a fresh board, one entry per ply including the empty starting position (len(m.Moves)+1
// entries total) -- useful for a debug UI stepping back and forth through a recorded game.
func (m *Match) Replay() ([]*board.Board, error) {
	calc := board.New(m.Rows, m.Cols, m.Rule)
	boards := make([]*board.Board, 0, len(m.Moves)+1)
	boards = append(boards, calc.Board().Clone())
	sign := m.FirstSign
	for i, mv := range m.Moves {
		if err := calc.AddMove(mv.Row, mv.Col, sign); err != nil {
			return nil, errors.Wrapf(err, "match: replay failed at move %d", i)
		}
		boards = append(boards, calc.Board().Clone())
		sign = sign.Opponent()
	}
	return boards, nil
}
