// Command match-replay loads a gob-encoded internal/match.Match (spec §7 "Supplemented
// features") and lets a developer step back and forth through its board positions, the
// debugging use case the format exists for.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alphagomoku/engine/internal/match"
	"github.com/alphagomoku/engine/internal/ui/cli"
	"k8s.io/klog/v2"
)

var (
	flagFile  = flag.String("file", "", "Path to a match file written by internal/match.Save.")
	flagColor = flag.Bool("color", true, "Use ANSI colors for stones.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagFile == "" {
		klog.Exitf("match-replay: --file is required")
	}

	f, err := os.Open(*flagFile)
	if err != nil {
		klog.Exitf("match-replay: %v", err)
	}
	defer f.Close()

	m, err := match.Load(f)
	if err != nil {
		klog.Exitf("match-replay: failed to load %q: %v", *flagFile, err)
	}
	boards, err := m.Replay()
	if err != nil {
		klog.Exitf("match-replay: failed to replay %q: %v", *flagFile, err)
	}

	ui := cli.New(*flagColor, false)
	idx := 0
	ui.PrintBoard(boards[idx])
	fmt.Printf("Position %d/%d. Enter n(ext), p(rev), or q(uit).\n", idx, len(boards)-1)

	for {
		_, cmd, err := ui.ReadCommand()
		if err != nil {
			return
		}
		switch cmd {
		case "n", "next":
			if idx < len(boards)-1 {
				idx++
			}
		case "p", "prev":
			if idx > 0 {
				idx--
			}
		case "q", "quit":
			return
		default:
			fmt.Println("unrecognized command, use n/p/q")
			continue
		}
		ui.PrintBoard(boards[idx])
		fmt.Printf("Position %d/%d. Enter n(ext), p(rev), or q(uit).\n", idx, len(boards)-1)
	}
}
