// Command yixin-engine is a Yixin-Board front-end (spec §6): the same command dispatcher as
// cmd/gomocup-engine, but advertised to managers that speak the Yixin-Board extension
// (yxboard/yxstop/yxshowforbid/yxhashclear/yxswap2*, additional INFO keys, realtime reporting).
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

var (
	flagDatabasePath = flag.String("use_database_path", "gomoku-tss-db",
		"Directory for the optional on-disk TSS result store, enabled by INFO usedatabase 1.")
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
	engine.SetDefaultDatabasePath(*flagDatabasePath)

	exception := exceptions.Try(func() {
		if err := engine.Run(ctx); err != nil {
			klog.Exitf("yixin-engine: %v", err)
		}
	})
	if exception != nil {
		klog.Exitf("yixin-engine: internal invariant breach: %v", exceptionToErr(exception))
	}
}

func exceptionToErr(exception any) error {
	if err, ok := exception.(error); ok {
		return err
	}
	return errors.Errorf("%v", exception)
}
