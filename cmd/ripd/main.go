// Command ripd runs a single routing-table instance: one process per
// emulated router, distinguished from its neighbors purely by the UDP
// ports named in its configuration file.
//
// Usage:
//
//	ripd <config-file>
//
// Process bootstrap and signal handling are kept thin; this file exists
// only to wire ripconfig -> ripd.Engine -> ripd.Loop and takes a single
// positional argument with no flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ripd/internal/ripconfig"
	"ripd/internal/ripd"
	"ripd/internal/riplog"
	"ripd/internal/riptable"
)

const loopbackHost = "127.0.0.1"

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file>\n", progName(args))
		return 1
	}

	cfg, err := ripconfig.Load(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: configuration error: %v\n", progName(args), err)
		return 1
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: failed to start logger: %v\n", progName(args), err)
		return 1
	}
	defer zapLogger.Sync()
	notifier := riplog.New(zapLogger)

	neighbors := make(map[uint16]ripd.Neighbor, len(cfg.Neighbors))
	for id, n := range cfg.Neighbors {
		neighbors[id] = ripd.Neighbor{OutgoingPort: n.OutgoingPort, LinkCost: n.LinkCost}
	}

	transport, err := ripd.NewLoopbackTransport(loopbackHost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(args), err)
		return 1
	}
	defer transport.Close()

	engine := ripd.NewEngine(
		cfg.RouterID,
		neighbors,
		ripd.DefaultRouteTimeout,
		ripd.DefaultGCPeriod,
		transport,
		ripd.WithLogger(notifier),
	)
	engine.Bootstrap()

	render := func(views []ripd.RouteView) {
		fmt.Println(riptable.Render(views))
	}

	loop, err := ripd.NewLoop(
		engine,
		loopbackHost,
		cfg.InputPorts,
		ripd.WithLoopLogger(notifier),
		ripd.WithDisplay(10*time.Second, render),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(args), err)
		return 1
	}
	defer loop.Close()

	// Render once immediately after bootstrap, before the first periodic
	// tick, so the table is visible even if the first tick is far off.
	render(engine.Table().Snapshot(time.Now()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := loop.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName(args), err)
		return 1
	}

	return 0
}

func progName(args []string) string {
	if len(args) == 0 {
		return "ripd"
	}
	return args[0]
}
