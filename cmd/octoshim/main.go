// Command octoshim is the TCP-to-Discord relay bridge. Subcommand chosen
// by the first argument; no CLI framework is pulled in for three
// subcommands.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"

	"octoshim/internal/bridge"
	"octoshim/internal/config"
	"octoshim/internal/healthcheck"
	"octoshim/internal/logging"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: octoshim <serve|healthcheck|version>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe()
	case "healthcheck":
		runHealthcheck()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		os.Exit(1)
	}
}

func runServe() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // nolint:errcheck

	b, err := bridge.New(cfg, logger)
	if err != nil {
		logger.Fatal("bridge construction failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		logger.Fatal("bridge run failed", zap.Error(err))
	}
}

func runHealthcheck() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := healthcheck.Run(probeAddr(cfg.ListenAddr), cfg.HealthCheckChannelID); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}

// probeAddr rewrites the configured listen address's host to 127.0.0.1:
// the probe always dials loopback, regardless of what host the listener
// was bound to.
func probeAddr(listenAddr string) string {
	_, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return listenAddr
	}
	return net.JoinHostPort("127.0.0.1", port)
}
