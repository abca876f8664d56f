// Package bridge wires the relay engine together: config, logging,
// metrics, registry, the TCP listener, the dispatcher, the router, the
// presence updater, and the Discord gateway, so the CLI entry point can
// stay a thin subcommand dispatcher.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"octoshim/internal/chatgateway"
	"octoshim/internal/config"
	"octoshim/internal/connection"
	"octoshim/internal/dispatch"
	"octoshim/internal/metrics"
	"octoshim/internal/presence"
	"octoshim/internal/registry"
	"octoshim/internal/router"
)

// Bridge owns every long-lived component of the running relay.
type Bridge struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	registry   *registry.Registry
	connServer *connection.Server
	session    *chatgateway.DiscordSession
}

// New constructs a Bridge from cfg, wiring every component but not yet
// starting the listener or opening the gateway.
func New(cfg config.Config, logger *zap.Logger) (*Bridge, error) {
	metricsRegistry := metrics.NewRegistry()

	reg := registry.New(nil) // onChange wired below, once presence exists
	reg.SetOnDrop(metricsRegistry.BroadcastDropped)
	r := router.New(reg)

	session, err := chatgateway.NewDiscordSession(cfg.DiscordToken, cfg.HealthCheckChannelID, r, logger)
	if err != nil {
		return nil, fmt.Errorf("bridge: chat gateway: %w", err)
	}

	presenceUpdater := presence.New(cfg.IsCloudServer(), session, logger)
	reg.SetOnChange(presenceUpdater.OnMembershipChange)

	d := dispatch.New(session, logger, cfg.IsCloudServer())
	connServer := connection.NewServer(cfg.ListenAddr, reg, d, logger, metricsRegistry)

	return &Bridge{
		cfg:        cfg,
		logger:     logger,
		metrics:    metricsRegistry,
		registry:   reg,
		connServer: connServer,
		session:    session,
	}, nil
}

// Run starts the TCP listener, opens the Discord gateway, and serves the
// metrics/health HTTP endpoint until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.connServer.Start(ctx); err != nil {
		return fmt.Errorf("bridge: start tcp listener: %w", err)
	}
	defer b.connServer.Stop()

	if err := b.session.Open(ctx); err != nil {
		return fmt.Errorf("bridge: open chat gateway: %w", err)
	}
	defer b.session.Close()

	b.logger.Info("bridge running", zap.String("listen_addr", b.cfg.ListenAddr), zap.String("metrics_addr", b.cfg.MetricsAddr))

	return b.runHTTPServer(ctx)
}

func (b *Bridge) runHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"instances": b.registry.Count(),
		})
	})
	mux.Handle("/metrics", b.metrics.Handler())

	httpServer := &http.Server{
		Addr:         b.cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("metrics http server starting", zap.String("addr", b.cfg.MetricsAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("metrics http server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
