// Command gomocup-engine is a Gomocup-base-protocol front-end (spec §6) over stdin/stdout:
// it drives an internal/search.Driver through the command set any Gomocup manager speaks
// (START/BEGIN/TURN/BOARD/INFO/END). The same dispatcher also recognises the Yixin-Board
// extension commands, but this binary is advertised and run as a base-protocol engine --
// see cmd/yixin-engine for the variant managers that expect the extension talk to.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/alphagomoku/engine/internal/profilers"
	"github.com/alphagomoku/engine/internal/protocol"
	"github.com/alphagomoku/engine/internal/ui/spinning"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 5*time.Second)
	defer cancel()

	profilers.Setup(ctx)
	defer profilers.OnQuit()

	engine := protocol.New(os.Stdin, os.Stdout)

	// An InternalInvariantBreach (a bug, not a protocol error) panics rather than returning an
	// error; exceptions.Try is the only place that catches it, so it is reported and the process
	// exits cleanly instead of dumping a raw stack trace to the manager's stdout pipe.
	exception := exceptions.Try(func() {
		if err := engine.Run(ctx); err != nil {
			klog.Exitf("gomocup-engine: %v", err)
		}
	})
	if exception != nil {
		klog.Exitf("gomocup-engine: internal invariant breach: %v", exceptionToErr(exception))
	}
}

func exceptionToErr(exception any) error {
	if err, ok := exception.(error); ok {
		return err
	}
	return errors.Errorf("%v", exception)
}
