// Command mididingsd wires an Engine to the rtpmidi backend and runs it
// until interrupted. Adapted from the teacher's
// examples/dump-received/dump-received.go, generalized from a bare dumper
// to a full engine run loop and from a single goroutine + select{} to an
// errgroup.Group coordinating the engine's run loop and signal handling.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dsacre/mididings-sub000/backend/rtpmidi"
	"github.com/dsacre/mididings-sub000/engine"
	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/patch"
	"github.com/dsacre/mididings-sub000/unit"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	logger := log.Default()

	be := rtpmidi.New(rtpmidi.Config{
		BonjourName: getEnv("MIDIDINGSD_BONJOUR_NAME", "mididings-go"),
		Port:        7005,
		NumPorts:    1,
		Logger:      logger,
	})

	eng := engine.New(be, 1, logger)

	// A single pass-through scene: forward every event of any kind in
	// event.AnyKind.
	passthrough := &patch.Patch{Root: &patch.Single{Unit: unit.NewTypeFilter(event.AnyKind)}}
	eng.AddScene(0, 0, passthrough, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return eng.Stop()
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		logger.Fatalf("mididingsd: %v", err)
	}
	logger.Println("shutting down.")
}
