package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vetperto/providersearch/config"
	"github.com/vetperto/providersearch/internal/geocode"
	"github.com/vetperto/providersearch/internal/handler"
	"github.com/vetperto/providersearch/internal/middleware"
	"github.com/vetperto/providersearch/internal/pipeline"
	"github.com/vetperto/providersearch/internal/repository"
	"github.com/vetperto/providersearch/internal/service"
	"github.com/vetperto/providersearch/pkg/cache"
	"github.com/vetperto/providersearch/pkg/db"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected")

	// ── Initialize layers ───────────────────────────────
	providerRepo := repository.NewProviderRepository(pgPool)
	assembler := service.NewAssembler(providerRepo, log)

	geocoder := geocode.NewHTTPGeocoder(cfg.Geocode)
	geoCache := geocode.NewRedisCache(redisClient, cfg.Geocode.CacheTTL)
	resolver := geocode.NewResolver(geocoder, geoCache, log)

	pipe := pipeline.New(pipeline.Config{DefaultRadiusKm: cfg.Search.DefaultRadiusKm}, log)
	ranker := service.NewRanker(cfg.Search.FuzzBandKm)

	// No device-backed location source on the server side; the
	// current-location endpoint degrades to 204.
	searchSvc := service.NewSearchService(assembler, resolver, pipe, ranker, nil, cfg.Search.SessionTTL, log)
	searchHandler := handler.NewSearchHandler(searchSvc, log)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", searchHandler.Search).Methods(http.MethodPost)
	api.HandleFunc("/search/{session_id}", searchHandler.Results).Methods(http.MethodGet)
	api.HandleFunc("/search/{session_id}", searchHandler.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/location/current", searchHandler.CurrentLocation).Methods(http.MethodGet)

	// ── Middleware chain ────────────────────────────────
	h := middleware.CORS(
		middleware.RequestLogger(log)(
			middleware.Recoverer(log)(router),
		),
	)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.ServerAddr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// healthHandler reports the health of the backing stores.
func healthHandler(pool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"postgres": "ok", "redis": "ok"}
		code := http.StatusOK

		if err := db.HealthCheck(r.Context(), pool); err != nil {
			status["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if status["postgres"] == "ok" && status["redis"] == "ok" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.Write([]byte(`{"status":"degraded"}`))
	}
}
