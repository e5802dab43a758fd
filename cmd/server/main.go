// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dealgate/internal/artifact"
	"dealgate/internal/audit"
	"dealgate/internal/deal"
	dealhandler "dealgate/internal/deal/handler"
	dmetrics "dealgate/internal/decision/metrics"
	"dealgate/internal/journal"
	"dealgate/internal/material"
	"dealgate/internal/platform/config"
	"dealgate/internal/platform/httpserver"
	"dealgate/internal/platform/logger"
	"dealgate/internal/platform/middleware"
	platformredis "dealgate/internal/platform/redis"
	"dealgate/internal/proofpack"
	"dealgate/internal/roles"
	"dealgate/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Fact stores: postgres when configured, in-memory twins otherwise.
	var (
		journalStore  journal.Store  = journal.NewInMemoryStore()
		materialStore material.Store = material.NewInMemoryStore()
		roleStore     roles.Store    = roles.NewInMemoryStore()
		artifactStore artifact.Store = artifact.NewInMemoryStore()
		dealStore     deal.Store     = deal.NewInMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		journalStore = journal.NewPostgresStore(pool)
		materialStore = material.NewPostgresStore(db)
		roleStore = roles.NewPostgresStore(db)
		artifactStore = artifact.NewPostgresStore(db)
		dealStore = deal.NewPostgresStore(db)
	}

	var cache deal.ProjectionCache = deal.NewInMemoryProjectionCache()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = deal.NewRedisProjectionCache(redisClient.Client)
	}

	recorder := audit.NewRecorder(audit.NewInMemoryStore(), log)
	gateMetrics := dmetrics.New()

	dealService := deal.NewService(
		dealStore,
		journalStore,
		materialStore,
		roleStore,
		artifactStore,
		deal.NewSerializer(),
		cache,
		recorder,
		gateMetrics,
		log,
	)
	compiler := proofpack.NewCompiler(dealService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ActorAuth([]byte(cfg.JWTSigningKey), log))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	dealhandler.New(dealService, log).Register(router)
	proofpack.NewHandler(compiler, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting dealgate", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if err := httpserver.Shutdown(srv, cfg.ShutdownGrace); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("dealgate stopped")
}
