// Package pattern implements the rule-parameterised pattern tables (spec component C1):
// a precomputed, per-rule classification of every possible short board line into the
// strongest threat it represents for each side, plus an interned vocabulary of
// defensive-move bitmasks.
//
// Tables are built once per GameRules, lazily and thread-safely, and are read-only
// afterwards -- mirroring the teacher's (gomlx) singleton-backend pattern, adapted here
// to an array of sync.Once indexed by rule instead of a single global.
package pattern

import (
	"sync"

	"github.com/alphagomoku/engine/internal/rules"
)

// Type is the per-direction, per-cell, per-sign pattern classification (spec PatternType).
type Type uint8

const (
	NoPattern Type = iota
	HalfOpen3
	Open3
	HalfOpen4
	Open4
	Double4
	Five
	Overline

	numTypes
)

func (t Type) String() string {
	names := [...]string{"none", "half_open_3", "open_3", "half_open_4", "open_4", "double_4", "five", "overline"}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// Threat is the per-cell, per-sign classification aggregated over all four directions
// (spec ThreatType): the most dangerous thing playing this cell would create.
type Threat uint8

const (
	NoThreat Threat = iota
	ThreatHalfOpen3
	ThreatOpen3
	ThreatFork3x3
	ThreatHalfOpen4
	ThreatFork4x3
	ThreatFork4x4
	ThreatOpen4
	ThreatFive
	ThreatOverline

	numThreats
)

func (t Threat) String() string {
	names := [...]string{
		"none", "half_open_3", "open_3", "fork_3x3", "half_open_4",
		"fork_4x3", "fork_4x4", "open_4", "five", "overline",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// IsWinningThreat reports whether the threat, if actually realised on the board
// (not merely "would create"), ends the game for the side that owns it.
func (t Threat) IsWinningThreat() bool {
	return t == ThreatFive || t == ThreatOverline
}

// Direction indexes the four line projections kept by the board/calculator.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
	Diagonal
	AntiDiagonal

	NumDirections = 4
)

// Entry is what the table records for one line configuration.
type Entry struct {
	Cross, Circle Type
	// MaskIdx indexes into the Table's interned defensive-mask vocabulary, separately
	// resolved per (sign-to-defend-against, pattern), since the same line can demand a
	// different defensive mask depending on which side is threatening.
	CrossMaskIdx, CircleMaskIdx uint8
}

// Table is the immutable, fully built pattern table for one GameRules.
type Table struct {
	Rule rules.GameRules
	// half is rules.HalfWidth(rule); lineWidth is 2*half+1.
	half, lineWidth int
	// entries is indexed by the packed 2-bit-per-cell encoding of a line (see EncodeLine).
	entries []Entry
	// masks is the interned vocabulary of defensive-move bitmasks, each lineWidth bits wide,
	// referenced by Entry.CrossMaskIdx/CircleMaskIdx.
	masks []uint32
}

// cellCode is the 2-bit-per-cell encoding used to pack a line into an integer table index.
const (
	codeNone    = 0
	codeCross   = 1
	codeCircle  = 2
	codeIllegal = 3
)

func signCode(s rules.Sign) uint32 {
	switch s {
	case rules.None:
		return codeNone
	case rules.Cross:
		return codeCross
	case rules.Circle:
		return codeCircle
	default:
		return codeIllegal
	}
}

func codeSign(c uint32) rules.Sign {
	switch c {
	case codeCross:
		return rules.Cross
	case codeCircle:
		return rules.Circle
	case codeIllegal:
		return rules.Illegal
	default:
		return rules.None
	}
}

// EncodeLine packs a line of Signs (length must equal table.LineWidth()) into a dense
// integer key, 2 bits per cell, used to index Table.entries.
func EncodeLine(line []rules.Sign) uint32 {
	var key uint32
	for _, s := range line {
		key = (key << 2) | signCode(s)
	}
	return key
}

// LineWidth returns 2*HalfWidth(rule)+1, the width of lines this table classifies.
func (t *Table) LineWidth() int { return t.lineWidth }

// Lookup classifies the line (length LineWidth(), centre cell at index HalfWidth, content of
// the centre cell ignored -- classification is "what threat would X/O create by playing here").
func (t *Table) Lookup(line []rules.Sign) Entry {
	return t.entries[EncodeLine(line)]
}

// LookupCode is Lookup for callers that already maintain the packed 2-bit-per-cell code
// incrementally (the calculator's hot add/undo path), avoiding a decode round-trip.
func (t *Table) LookupCode(code uint32) Entry {
	return t.entries[code]
}

// DefensiveMask returns the bitmask (bit i set means "line position i refutes the threat")
// for the threat that `against` would create by playing the given line, or 0 if idx is the
// reserved "no mask" index (e.g. for FIVE, which cannot be defended against).
func (t *Table) DefensiveMask(idx uint8) uint32 {
	if int(idx) >= len(t.masks) {
		return 0
	}
	return t.masks[idx]
}

var tablesOnce [int(rules.GameRules(0)) + 8]sync.Once // sized generously; indexed by rule.
var tablesCache [8]*Table

// Get returns the (lazily built, cached) pattern table for rule. Safe for concurrent use;
// the first caller for a given rule pays the build cost, as the spec's "built once at
// process start, immutable" lifecycle requires.
func Get(rule rules.GameRules) *Table {
	tablesOnce[rule].Do(func() {
		tablesCache[rule] = build(rule)
	})
	return tablesCache[rule]
}
