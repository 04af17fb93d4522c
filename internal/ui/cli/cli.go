// Package cli implements a terminal UI for stepping through a Gomoku position: a
// lipgloss/x-term board renderer plus a small command reader, used by cmd/match-replay to
// step back and forth through a recorded internal/match.Match for diagnostics.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len(ansiFilter.ReplaceAllString(s, ""))
}

func printCentered(block string) {
	lines := strings.Split(block, "\n")
	terminalWidth, _, _ := term.GetSize(int(os.Stdout.Fd()))
	blockWidth := 0
	for _, line := range lines {
		if w := displayWidth(line); w > blockWidth {
			blockWidth = w
		}
	}
	indent := (terminalWidth - blockWidth) / 2
	if indent < 0 {
		indent = 0
	}
	for _, line := range lines {
		if line == "" {
			fmt.Println()
			continue
		}
		fmt.Printf("%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// UI renders a board.Board to the terminal and reads move commands from stdin.
type UI struct {
	color       bool
	clearScreen bool
	reader      *bufio.Reader
}

var crossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red X
var circleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true) // blue O

var moveParser = regexp.MustCompile(`^\s*(\d+)[\s,]+(\d+)\s*$`)

// New builds a UI. color enables ANSI stone coloring; clearScreen clears the terminal before
// every PrintBoard (useful when stepping through a replay, noisy in a piped test harness).
func New(color, clearScreen bool) *UI {
	return &UI{color: color, clearScreen: clearScreen, reader: bufio.NewReader(os.Stdin)}
}

// PrintBoard renders b as a grid of stones, column numbers across the top and row numbers
// down the left side, the way a Gomocup debug session would show a position.
func (ui *UI) PrintBoard(b *board.Board) {
	if ui.clearScreen {
		fmt.Print("\033c")
	}
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.Cols; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")
	for r := 0; r < b.Rows; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < b.Cols; c++ {
			sb.WriteString(" ")
			sb.WriteString(ui.stoneGlyph(b.At(r, c)))
		}
		sb.WriteString("\n")
	}
	printCentered(sb.String())
}

func (ui *UI) stoneGlyph(s rules.Sign) string {
	switch s {
	case rules.Cross:
		if ui.color {
			return crossStyle.Render("X")
		}
		return "X"
	case rules.Circle:
		if ui.color {
			return circleStyle.Render("O")
		}
		return "O"
	default:
		return "."
	}
}

// PrintWinner announces the side that won, styled the way the teacher's UI highlights a
// match outcome.
func (ui *UI) PrintWinner(sign rules.Sign) {
	if sign == rules.None {
		printCentered(lipgloss.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 2).
			Render("*** DRAW ***"))
		return
	}
	printCentered(fmt.Sprintf("*** %s WINS ***", strings.ToUpper(sign.String())))
}

// ReadCommand reads one line from stdin and parses it either as a board coordinate "row,col"
// or as one of the single-letter stepping commands n(ext)/p(rev)/q(uit).
func (ui *UI) ReadCommand() (pos board.Pos, cmd string, err error) {
	text, err := ui.reader.ReadString('\n')
	if err != nil {
		return board.Pos{}, "", err
	}
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "n", "next", "p", "prev", "q", "quit":
		return board.Pos{}, strings.ToLower(text), nil
	}
	matches := moveParser.FindStringSubmatch(text)
	if matches == nil {
		return board.Pos{}, "", errors.Errorf("failed to parse %q as \"row,col\" or n/p/q", text)
	}
	row, _ := strconv.Atoi(matches[1])
	col, _ := strconv.Atoi(matches[2])
	return board.Pos{Row: row, Col: col}, "", nil
}
