package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mindlabs/gomarket/internal/engine"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/server"
	"github.com/mindlabs/gomarket/pkg/config"
	"github.com/mindlabs/gomarket/pkg/logger"
	"github.com/mindlabs/gomarket/pkg/receipts"
	"github.com/mindlabs/gomarket/pkg/shutdown"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file path")
		listenAddr = flag.String("listen", "", "HTTP listen address (overrides config)")
		dbPath     = flag.String("db", "", "SQLite db file path (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if err := logger.Init(cfg.Log); err != nil {
		logger.Errorf("init logger: %v", err)
		os.Exit(1)
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.ReceiptsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Errorf("create %s: %v", dir, err)
			os.Exit(1)
		}
	}

	mgr := shutdown.NewManager()
	bus := events.NewBus()

	eng, err := engine.New(engine.Config{
		DBPath:       cfg.DBPath,
		AllowFunding: cfg.AllowFunding,
	}, bus)
	if err != nil {
		logger.Errorf("init engine: %v", err)
		os.Exit(1)
	}
	mgr.OnShutdown(func(context.Context) {
		if err := eng.Close(); err != nil {
			logger.Warnf("close engine: %v", err)
		}
	})

	rcpts, err := receipts.Open(cfg.ReceiptsPath)
	if err != nil {
		logger.Errorf("open receipts store: %v", err)
		os.Exit(1)
	}
	mgr.OnShutdown(func(context.Context) {
		if err := rcpts.Close(); err != nil {
			logger.Warnf("close receipts store: %v", err)
		}
	})

	srv := server.New(eng, bus, rcpts)
	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mgr.OnShutdown(func(ctx context.Context) {
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
	})

	go func() {
		logger.Infof("marketd listening on %s", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	mgr.Shutdown(ctx)
}
