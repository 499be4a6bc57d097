package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/graphlapse/graphlapse/pkg/api"
	"github.com/graphlapse/graphlapse/pkg/auth"
	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/health"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/metrics"
	"github.com/graphlapse/graphlapse/pkg/server"
	"github.com/graphlapse/graphlapse/pkg/statestore"
	"github.com/graphlapse/graphlapse/pkg/stream"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		config.API.ListenAddr = *listenAddr
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(config.Log.Level))
	registry := metrics.NewRegistry()

	store, storePing, err := buildStore(config.Store, registry)
	if err != nil {
		logger.Error("state store init failed", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	eng := engine.New(logger)
	eng.SetRecorder(registry)

	broker := stream.NewBroker()
	defer broker.Shutdown()

	var publisher *stream.NNGPublisher
	if config.Stream.NNGListen != "" {
		publisher, err = stream.NewNNGPublisher(config.Stream.NNGListen)
		if err != nil {
			logger.Error("nng publisher init failed", logging.Error(err))
			os.Exit(1)
		}
		defer publisher.Close()
		logger.Info("frame publisher listening", logging.String("addr", config.Stream.NNGListen))
	}

	var jwtManager *auth.JWTManager
	var users *auth.UserStore
	if config.API.AuthEnabled {
		jwtManager, err = auth.NewJWTManager(config.API.JWTSecret, config.API.TokenTTL, config.API.RefreshTokenTTL)
		if err != nil {
			logger.Error("jwt init failed", logging.Error(err))
			os.Exit(1)
		}
		users = auth.NewUserStore()
		for _, u := range config.Users {
			if err := users.Add(u.ID, u.Username, u.Password, u.Role); err != nil {
				logger.Error("user provisioning failed",
					logging.String("username", u.Username), logging.Error(err))
				os.Exit(1)
			}
		}
		logger.Info("authentication enabled", logging.Count(users.Count()))
	}

	checker := health.NewHealthChecker()
	if storePing != nil {
		checker.RegisterReadinessCheck("database", health.PingCheck("database", storePing))
	}
	checker.RegisterLivenessCheck("memory", health.MemoryCheck(func() (uint64, uint64) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ms.HeapAlloc, ms.Sys
	}))

	apiServer := api.NewServer(&config.API, api.Deps{
		Engine:    eng,
		Store:     store,
		Broker:    broker,
		Publisher: publisher,
		Metrics:   registry,
		Health:    checker,
		Logger:    logger,
		JWT:       jwtManager,
		Users:     users,
	})
	apiServer.RegisterHealthChecks()
	defer apiServer.Close()

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			registry.UpdateSystemMetrics(startTime)
		}
	}()

	var serverOpts []server.Option
	if config.API.TLSEnabled {
		serverOpts = append(serverOpts, server.WithTLS(config.API.TLSCertFile, config.API.TLSKeyFile))
	}
	srv := server.NewGracefulServer(config.API.ListenAddr, apiServer.Handler(), logger, serverOpts...)
	logger.Info("graphlapse server starting", logging.String("addr", config.API.ListenAddr))
	if err := srv.Start(); err != nil {
		logger.Error("server failed", logging.Error(err))
		os.Exit(1)
	}
}

func buildStore(cfg StoreConfig, registry *metrics.Registry) (statestore.Store, func(context.Context) error, error) {
	var (
		store statestore.Store
		ping  func(context.Context) error
		err   error
	)
	switch cfg.Backend {
	case "memory":
		store = statestore.NewMemoryStore()
	case "file":
		store, err = statestore.NewFileStore(cfg.Dir)
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var pg *statestore.PGStore
		pg, err = statestore.NewPGStore(ctx, cfg.DatabaseURL)
		if pg != nil {
			store, ping = pg, pg.Ping
		}
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err = statestore.NewS3Store(ctx, cfg.S3)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return statestore.Instrument(store, cfg.Backend, registry), ping, nil
}
