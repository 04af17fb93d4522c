// Package rules defines the Gomoku family variants the engine supports and the
// per-variant constants the rest of the engine (pattern tables, calculator,
// move generator) is parameterised on.
package rules

import "fmt"

// GameRules identifies one member of the Gomoku family.
type GameRules uint8

const (
	Freestyle GameRules = iota
	Standard
	Renju
	Caro5
	Caro6

	numGameRules
)

// String implements fmt.Stringer.
func (r GameRules) String() string {
	switch r {
	case Freestyle:
		return "freestyle"
	case Standard:
		return "standard"
	case Renju:
		return "renju"
	case Caro5:
		return "caro5"
	case Caro6:
		return "caro6"
	default:
		return fmt.Sprintf("GameRules(%d)", uint8(r))
	}
}

// ParseGameRules maps protocol/config names (and the Yixin numeric rule ids) to a GameRules value.
func ParseGameRules(name string) (GameRules, error) {
	switch name {
	case "freestyle", "0":
		return Freestyle, nil
	case "standard":
		return Standard, nil
	case "renju", "1", "2":
		// Yixin-Board's "rule 1"/"rule 2" both select Renju-family forbidden-move checking;
		// the two ids are not told apart.
		return Renju, nil
	case "caro5", "caro":
		return Caro5, nil
	case "caro6":
		return Caro6, nil
	}
	return 0, fmt.Errorf("unknown game rules %q", name)
}

// All enumerates every supported GameRules. Pattern tables do not use it: pattern.Get builds
// each rule's table lazily on first use.
func All() []GameRules {
	out := make([]GameRules, 0, numGameRules)
	for r := GameRules(0); r < numGameRules; r++ {
		out = append(out, r)
	}
	return out
}

// HalfWidth is P in the spec: the line window around a cell is 2P+1 wide.
// Freestyle uses a narrower window (4) since overlines are wins and don't need the extra
// lookahead cell standard/renju/caro reserve to detect a 6-in-a-row.
func (r GameRules) HalfWidth() int {
	if r == Freestyle {
		return 4
	}
	return 5
}

// LineWidth is 2*HalfWidth+1, the number of cells in a classified line window.
func (r GameRules) LineWidth() int {
	return 2*r.HalfWidth() + 1
}

// WinLength is the number of contiguous same-colour stones that constitutes a five.
// It is always 5; Freestyle additionally accepts longer overlines as wins (see OverlineWins).
func (r GameRules) WinLength() int {
	return 5
}

// OverlineWins reports whether 6-or-more in a row counts as a win for this rule.
// True for freestyle and caro6; false for standard/renju/caro5 (an overline is not a five).
func (r GameRules) OverlineWins() bool {
	return r == Freestyle || r == Caro6
}

// MaxRunLength is the longest contiguous run of a single colour that is still legal/meaningful
// to classify distinctly. Caro5 disallows a run of exactly 6 as a win (it must stop at 5);
// caro6 and freestyle allow longer overlines to count as a win.
func (r GameRules) MaxRunLength() int {
	if r == Caro5 {
		return 6 // a run of 6 is recognized but invalidates the five (see BlockedBothEndsRule/Caro rule).
	}
	return 8
}

// BlockedBothEndsRule reports whether the "Caro" rule applies: a run of exactly WinLength
// stones is invalidated as a five if both ends of the run are blocked (the run is "walled in"
// on both sides). The pattern tables count an opponent stone, the board edge and an off-board
// Illegal cell alike as a blocked end.
func (r GameRules) BlockedBothEndsRule() bool {
	return r == Caro5 || r == Caro6
}

// ForbidsCross reports whether forbidden-move rules (overline, double-four, most double-three)
// apply to the CROSS (first player, black) side. Only Renju has forbidden moves.
func (r GameRules) ForbidsCross() bool {
	return r == Renju
}

// Sign is the content of a board cell.
type Sign uint8

const (
	// None marks an empty, playable cell.
	None Sign = iota
	// Cross is the first player (black in the stone-based tradition).
	Cross
	// Circle is the second player (white).
	Circle
	// Illegal marks an off-board padding cell; it never holds a real stone and never
	// participates in a threat.
	Illegal
)

// String implements fmt.Stringer.
func (s Sign) String() string {
	switch s {
	case None:
		return "."
	case Cross:
		return "X"
	case Circle:
		return "O"
	case Illegal:
		return "!"
	default:
		return "?"
	}
}

// Opponent returns the other playing side. Only valid for Cross/Circle.
func (s Sign) Opponent() Sign {
	if s == Cross {
		return Circle
	}
	return Cross
}

// ParseSign maps a single board-line glyph (as used in the spec's test literals) to a Sign.
func ParseSign(r byte) (Sign, error) {
	switch r {
	case '_', '.':
		return None, nil
	case 'X', 'x':
		return Cross, nil
	case 'O', 'o':
		return Circle, nil
	case '!':
		return Illegal, nil
	}
	return 0, fmt.Errorf("unknown board glyph %q", r)
}
