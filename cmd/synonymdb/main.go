package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-synonyms/pkg/api"
	"github.com/dd0wney/cluso-synonyms/pkg/cluster"
	"github.com/dd0wney/cluso-synonyms/pkg/config"
	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/metrics"
	"github.com/dd0wney/cluso-synonyms/pkg/replication"
	"github.com/dd0wney/cluso-synonyms/pkg/server"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
	tlspkg "github.com/dd0wney/cluso-synonyms/pkg/tls"
)

func main() {
	configPath := flag.String("config", os.Getenv("SYNONYMDB_CONFIG"), "Path to YAML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "synonymdb: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, logLevel string) error {
	cfg, err := loadConfig(configPath, addr, logLevel)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.Open(cfg.Logging.Output, cfg.Logging.Level)
	if err != nil {
		return err
	}
	logging.SetDefaultLogger(logger)

	reg := metrics.DefaultRegistry()

	locale, err := cfg.Store.Tag()
	if err != nil {
		return fmt.Errorf("store locale: %w", err)
	}
	store := synonyms.NewStore(
		synonyms.WithLocale(locale),
		synonyms.WithMetrics(reg),
		synonyms.WithLogger(logger),
	)

	registry := cluster.NewRegistry(reg)
	if err := cfg.Cluster.Apply(registry); err != nil {
		return fmt.Errorf("static cluster: %w", err)
	}

	transport := replication.NewHTTPTransport(cfg.Replication)
	peerTLS, err := tlspkg.ClientTLSConfig(cfg.Server.TLS)
	if err != nil {
		return fmt.Errorf("peer tls: %w", err)
	}
	transport.UseTLS(peerTLS)
	synchronizer := replication.NewSynchronizer(cfg.Replication, store, registry, transport, logger, reg)

	apiServer := api.NewServer(store, registry, synchronizer, logger, reg)
	apiServer.SetCORSOrigins(cfg.Server.CORSOrigins)
	apiServer.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	apiServer.SetBacklogWarning(cfg.Replication.BacklogWarning)

	gs := server.NewGracefulServer(cfg.Server, apiServer.Handler(), logger)

	// hooks run last-registered first: stop replication, then close the log
	gs.OnShutdown("logger", func(ctx context.Context) error {
		return logCloser.Close()
	})
	gs.OnShutdown("synchronizer", func(ctx context.Context) error {
		synchronizer.Stop()
		return nil
	})

	gs.SetConfigReloadFunc(func() error {
		reloaded, err := loadConfig(configPath, addr, logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(reloaded.Logging.Level)
		logger.Info("log level reloaded", logging.String("level", reloaded.Logging.Level.String()))
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := synchronizer.Start(ctx); err != nil {
		return err
	}

	logger.Info("synonym node starting",
		logging.String("addr", cfg.Server.Addr),
		logging.String("locale", locale.String()),
		logging.Bool("cluster_defined", registry.IsReady()),
		logging.Duration("sync_interval", cfg.Replication.Interval))

	return gs.Run(ctx)
}

// loadConfig layers command-line flags over the file and environment.
func loadConfig(path, addr, logLevel string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return cfg, fmt.Errorf("-log-level: %w", err)
		}
		cfg.Logging.Level = level
	}
	return cfg, cfg.Validate()
}
