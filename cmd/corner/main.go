package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/corner/internal/config"
	"github.com/kailas-cloud/corner/internal/db"
	dbValkey "github.com/kailas-cloud/corner/internal/db/valkey"
	"github.com/kailas-cloud/corner/internal/domain"
	"github.com/kailas-cloud/corner/internal/location"
	logpkg "github.com/kailas-cloud/corner/internal/logger"
	"github.com/kailas-cloud/corner/internal/metrics"
	"github.com/kailas-cloud/corner/internal/repository/embcache"
	usagerepo "github.com/kailas-cloud/corner/internal/repository/usage"
	venuerepo "github.com/kailas-cloud/corner/internal/repository/venue"
	chiTransport "github.com/kailas-cloud/corner/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/corner/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/corner/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/corner/internal/usecase/health"
	placeuc "github.com/kailas-cloud/corner/internal/usecase/place"
	recentuc "github.com/kailas-cloud/corner/internal/usecase/recent"
	searchuc "github.com/kailas-cloud/corner/internal/usecase/search"
	usageuc "github.com/kailas-cloud/corner/internal/usecase/usage"
	"github.com/kailas-cloud/corner/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting corner API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	embedder := buildEmbedder(base, cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	venues := venuerepo.New(store, venuerepo.Config{
		KeyPrefix:  cfg.Storage.KeyPrefix,
		IndexName:  cfg.Index.Name,
		Dimensions: cfg.Embedding.Dimensions,
		Algorithm:  db.VectorAlgorithm(strings.ToUpper(cfg.Index.Algorithm)),
		HNSWM:      cfg.Index.HNSWM,
		HNSWEF:     cfg.Index.HNSWEFConstruct,
		Breaker: venuerepo.BreakerConfig{
			MaxRequests:  cfg.Database.Breaker.MaxRequests,
			Interval:     time.Duration(cfg.Database.Breaker.IntervalSec) * time.Second,
			Timeout:      time.Duration(cfg.Database.Breaker.TimeoutSec) * time.Second,
			MinRequests:  cfg.Database.Breaker.MinRequests,
			FailureRatio: cfg.Database.Breaker.FailureRatio,
		},
	}, logger)
	if cfg.Index.Ensure {
		if err := venues.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure venue index", zap.Error(err))
		}
		logger.Info("Venue index ready", zap.String("index", cfg.Index.Name))
	}

	gazetteer, err := location.Load(cfg.Location.GazetteerPath)
	if err != nil {
		logger.Fatal("Failed to load gazetteer", zap.Error(err))
	}

	searchSvc := searchuc.New(embedder, venues, gazetteer, logger)
	placeSvc := placeuc.New(venues)
	recentSvc := recentuc.New(cfg.RecentQueries.Path, cfg.RecentQueries.Limit, logger)
	usageSvc := usageuc.New(
		usagerepo.New(store, cfg.Storage.KeyPrefix,
			time.Duration(cfg.Usage.DailyTTLHours)*time.Hour,
			time.Duration(cfg.Usage.MonthlyTTLDays)*24*time.Hour),
		cfg.Usage.CostPerMillionTokens, logger,
	)
	healthSvc := healthuc.New(store, venues, newEmbeddingHealthChecker(base))

	server := chiTransport.NewServer(searchSvc, placeSvc, recentSvc, usageSvc, healthSvc,
		chiTransport.Options{DefaultLimit: cfg.Search.DefaultLimit, MaxLimit: cfg.Search.MaxLimit},
		logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiTransport.RequestID)
	r.Use(chiTransport.CORS(cfg.HTTP.CORSOrigins))
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r, chiTransport.RateLimit(cfg.HTTP.RateLimit.Requests, cfg.HTTP.RateLimit.Window()))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.ProviderProbe.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Resilient -> Cached -> Instrumented.
func buildEmbedder(base domain.Embedder, cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding

	var limiter *rate.Limiter
	if ec.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ec.RequestsPerSecond), ec.Burst)
	}

	var embedder domain.Embedder = embeddinguc.NewResilientEmbedder(base, embeddinguc.ResilientConfig{
		MaxAttempts:   ec.MaxAttempts,
		BaseDelay:     time.Duration(ec.BaseDelayMs) * time.Millisecond,
		MaxInputChars: ec.MaxInputChars,
		Limiter:       limiter,
		Provider:      ec.Provider,
	}, logger)

	if ec.Cache.Enabled {
		embedder = embcache.New(embedder, store, embcache.Config{
			KeyPrefix:     cfg.Storage.KeyPrefix,
			Model:         ec.Model,
			TTL:           time.Duration(ec.Cache.TTLHours) * time.Hour,
			MaxInputChars: ec.MaxInputChars,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Outermost: cache hits still count as used embeddings.
	return embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line: one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.String("embedding_tokens", ww.Header().Get("X-Embedding-Tokens")),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
