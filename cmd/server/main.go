package main

import (
	"log"
	"net/http"
	"time"

	"sketch-relay/internal/config"
	"sketch-relay/internal/db"
	"sketch-relay/internal/game"
	"sketch-relay/internal/logger"
	"sketch-relay/internal/monitor"
	"sketch-relay/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	zlog, err := logger.New(cfg.DatabaseURL == "")
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	var store game.Store
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second,
		})
		if err != nil {
			zlog.Fatalw("database connection failed", "error", err)
		}
		if err := db.Migrate(conn); err != nil {
			zlog.Fatalw("database migration failed", "error", err)
		}
		store = db.NewStore(conn)
	} else {
		zlog.Warnw("DATABASE_URL is not set, using in-memory store")
		store = game.NewMemStore()
	}

	svc := game.NewService(store, time.Duration(cfg.RoundSeconds)*time.Second, server.ValidateArtifactRef, zlog)
	gen := server.NewFalClient(cfg.FalAPIKey, cfg.FalEndpoint, cfg.FalQueueURL)
	metrics := monitor.New("sketchrelay")

	go func() {
		zlog.Infow("metrics listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
			zlog.Errorw("metrics listener failed", "error", err)
		}
	}()

	srv := server.New(svc, gen, cfg, zlog, metrics)
	zlog.Infow("sketch-relay listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		zlog.Fatalw("server stopped", "error", err)
	}
}
