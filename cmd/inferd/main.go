package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inferd/internal/artifact"
	"github.com/kailas-cloud/inferd/internal/config"
	dbRedis "github.com/kailas-cloud/inferd/internal/db/redis"
	logpkg "github.com/kailas-cloud/inferd/internal/logger"
	"github.com/kailas-cloud/inferd/internal/metrics"
	"github.com/kailas-cloud/inferd/internal/repository/predcache"
	chiTransport "github.com/kailas-cloud/inferd/internal/transport/chi"
	openaiExt "github.com/kailas-cloud/inferd/internal/transport/openai"
	parseuc "github.com/kailas-cloud/inferd/internal/usecase/parse"
	predictuc "github.com/kailas-cloud/inferd/internal/usecase/predict"
	schemauc "github.com/kailas-cloud/inferd/internal/usecase/schema"
	"github.com/kailas-cloud/inferd/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting inferd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("artifacts_dir", cfg.Artifacts.Dir),
	)

	// Artifacts are a hard startup dependency: no model, no service.
	bundle, err := artifact.LoadBundle(cfg.Artifacts.Dir)
	if err != nil {
		logger.Fatal("Failed to load artifacts", zap.Error(err))
	}
	logger.Info("Artifacts loaded",
		zap.String("model", bundle.Model.Name()),
		zap.Int("model_features", bundle.Model.NumFeatures()),
		zap.Int("encoders", len(bundle.Encoders)),
	)

	names := schemauc.Resolve(schemauc.ResolveInput{
		ModelNames:  bundle.Model.FeatureNames(),
		ModelCount:  bundle.Model.NumFeatures(),
		ScalerNames: bundle.Scaler.FeatureNames(),
		EncoderKeys: bundle.Encoders.Keys(),
	})
	logger.Info("Feature schema resolved", zap.Int("features", len(names)))

	schemaSvc := schemauc.New(names, bundle.Encoders)

	encoders := make(map[string]predictuc.Encoder, len(bundle.Encoders))
	for name, enc := range bundle.Encoders {
		encoders[name] = enc
	}
	preparer := predictuc.NewPreparer(names, bundle.Model.FeatureNames(), encoders, bundle.Scaler)
	predictSvc := predictuc.New(bundle.Model, preparer)

	metrics.RegisterPredictionMetrics()

	// Optional prediction cache. Pass nil interface (not typed nil pointer!)
	// downstream when the cache is not configured.
	var predictor chiTransport.Predictor = predictSvc
	var cachePinger chiTransport.Pinger
	if len(cfg.Cache.Addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to prediction cache", zap.Strings("addrs", cfg.Cache.Addrs))

		predictor = predcache.New(
			predictSvc,
			store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.PredictionCacheTotal,
			logger,
		)
		cachePinger = store
	}

	parseSvc, llmPinger := buildParser(cfg.Parser, schemaSvc, logger)

	server := chiTransport.NewServer(
		schemaSvc, predictor, parseSvc, cachePinger, llmPinger, cfg.Static.Dir, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// buildParser assembles the text parsing chain: keyword only, or keyword
// with an LLM extractor in front. The second return value is the extractor
// as a health-check pinger, nil for keyword-only operation.
func buildParser(
	cfg config.ParserConfig, fields openaiExt.FieldSource, logger *zap.Logger,
) (*parseuc.Service, chiTransport.Pinger) {
	if cfg.Provider != "llm" {
		return parseuc.New(nil, logger), nil
	}

	extractor := openaiExt.NewExtractor(&openaiExt.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Fields:  fields,
		Logger:  logger,
	})
	logger.Info("LLM feature extractor enabled", zap.String("model", cfg.Model))
	return parseuc.New(extractor, logger), extractor
}

// corsMiddleware mirrors the permissive policy the browser frontend relies on.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"detail": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
