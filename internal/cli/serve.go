package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/transport"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Interval time.Duration // overrides sync.interval
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run sync rounds on an interval",
		Long: `Run a sync round immediately and then every sync.interval until
interrupted. When metrics.enabled is set, Prometheus metrics are served on
metrics.addr at metrics.path.

Example:
  usercache serve --config usercache.yaml
  usercache serve --config usercache.cue --interval 5m`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "time between sync rounds (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	a, err := openApp(opts.RootOptions, out, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	logger := a.log.Logger

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	t, err := transport.FromConfig(ctx, a.cfg.Transport)
	if err != nil {
		return out.Fail(ExitCommandError, CodeConfig, "failed to create transport", err)
	}

	interval := a.cfg.Sync.Interval.Std()
	if opts.Interval > 0 {
		interval = opts.Interval
	}
	if interval <= 0 {
		return out.Fail(ExitCommandError, CodeConfig, fmt.Sprintf("sync interval must be positive, got %s", interval), nil)
	}

	var g run.Group

	g.Add(func() error {
		syncLoop(ctx, a, t, interval)
		return nil
	}, func(error) {
		cancel()
	})

	if a.cfg.Metrics.Enabled {
		ln, err := net.Listen("tcp", a.cfg.Metrics.Addr)
		if err != nil {
			return out.Fail(ExitCommandError, CodeConfig, "failed to listen for metrics", err)
		}
		srv := newMetricsServer(a.cfg.Metrics.Path, a.registry)
		g.Add(func() error {
			logger.Info("serving metrics", zap.String("addr", ln.Addr().String()), zap.String("path", a.cfg.Metrics.Path))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		}, func(error) {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", zap.Error(err))
			}
		})
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	g.Add(func() error {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		return nil
	}, func(error) {
		cancel()
	})

	logger.Info("serve starting",
		zap.String("db", a.cfg.Database),
		zap.String("transport", a.cfg.Transport.Kind),
		zap.Duration("interval", interval))

	if err := g.Run(); err != nil {
		return out.Fail(ExitFailure, CodeSync, "serve stopped", err)
	}
	logger.Info("serve stopped")
	return nil
}

// syncLoop runs a round now and then on every tick until ctx is done.
// Failed rounds are logged and retried on the next tick.
func syncLoop(ctx context.Context, a *app, t transport.Transport, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.engine.Sync(ctx, t); err != nil && ctx.Err() == nil {
			a.log.Error("sync round failed", zap.Error(err))
		}
		refreshStored(ctx, a)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func refreshStored(ctx context.Context, a *app) {
	counts, err := a.store.CountByType(ctx)
	if err != nil {
		a.log.Warn("count entries", zap.Error(err))
		return
	}
	stored := make(map[string]int64, len(counts))
	for t, n := range counts {
		stored[string(t)] = n
	}
	a.metrics.SetStored(stored)
}

func newMetricsServer(path string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})
	return &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
