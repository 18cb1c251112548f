package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/usercache/internal/config"
	"github.com/roach88/usercache/internal/logging"
	"github.com/roach88/usercache/internal/metrics"
	"github.com/roach88/usercache/internal/store"
	"github.com/roach88/usercache/internal/syncer"
	"github.com/roach88/usercache/internal/usercache"
)

// app is everything a command needs, built from the global flags.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	store    *store.Store
	cache    *usercache.Cache
	engine   *syncer.Engine
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// loadConfig reads the config file named by --config, or the defaults,
// and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openApp loads configuration, builds the logger, and opens the store.
// withMetrics registers collectors on a fresh registry.
func openApp(opts *RootOptions, out *OutputFormatter, withMetrics bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, out.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, out.Fail(ExitCommandError, CodeConfig, "failed to create logger", err)
	}

	a := &app{cfg: cfg, log: log}
	if withMetrics {
		a.registry = prometheus.NewRegistry()
		a.metrics = metrics.New(a.registry)
	}

	out.VerboseLog("opening database %s", cfg.Database)
	a.store, err = store.Open(cfg.Database)
	if err != nil {
		log.Close()
		return nil, out.Fail(ExitCommandError, CodeStore, "failed to open database", err)
	}

	a.cache = usercache.New(a.store,
		usercache.WithLogger(log.Logger),
		usercache.WithMetrics(a.metrics),
		usercache.WithPlugin(cfg.Plugin))
	a.engine = syncer.FromConfig(a.store, cfg,
		syncer.WithLogger(log.Logger),
		syncer.WithMetrics(a.metrics))
	return a, nil
}

// Close releases the store and flushes the logger.
func (a *app) Close() error {
	err := a.store.Close()
	if closeErr := a.log.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// closeApp is deferred by commands; close failures are logged only.
func closeApp(a *app) {
	if err := a.Close(); err != nil {
		a.log.Warn("close failed", zap.Error(err))
	}
}
