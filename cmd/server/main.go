package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "licitasearch/searchservice/internal/api/http"
	"licitasearch/searchservice/internal/app"
	"licitasearch/searchservice/internal/metrics"
	"licitasearch/searchservice/internal/providers/extractor"
	"licitasearch/searchservice/internal/providers/pncp"
	"licitasearch/searchservice/internal/search"
	"licitasearch/searchservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "licita-search")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "licita-search"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("pncpBaseURL", cfg.PNCPBaseURL),
		slog.Bool("hasExtractor", strings.TrimSpace(cfg.ExtractorURL) != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("searchTimeout", cfg.SearchTimeout),
		slog.Int("pageSize", cfg.PageSize),
		slog.Int("fetchConcurrency", cfg.Concurrency),
		slog.Float64("upstreamRPS", cfg.UpstreamRPS),
	)

	pncpClient := pncp.NewClient(pncp.Config{
		BaseURL:   cfg.PNCPBaseURL,
		UserAgent: cfg.UserAgent,
		Client: &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})

	searchService := search.NewService(pncpClient, cfg.SearchTimeout,
		search.WithLogger(logger),
		search.WithPageSize(cfg.PageSize),
		search.WithConcurrency(cfg.Concurrency),
		search.WithUpstreamRate(cfg.UpstreamRPS, cfg.UpstreamBurst),
	)

	serverOpts := []apihttp.ServerOption{
		apihttp.WithLogger(logger),
		apihttp.WithClientLimiter(buildClientLimiter(cfg, logger)),
	}
	if extractorURL := strings.TrimSpace(cfg.ExtractorURL); extractorURL != "" {
		serverOpts = append(serverOpts, apihttp.WithExtractor(extractor.NewClient(extractor.Config{
			BaseURL:   extractorURL,
			UserAgent: cfg.UserAgent,
			Client: &http.Client{
				Timeout:   cfg.UpstreamTimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
		})))
	} else {
		logger.Info("extractor url not configured, free-text search disabled")
	}

	handler := apihttp.NewServer(searchService, serverOpts...).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A full multi-facet fan-out can take minutes; the search
		// service's own deadline bounds it, not the write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("procurement search service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.SearchTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("procurement search service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildClientLimiter prefers the Redis-backed window when Redis is
// reachable so replicas share one per-client budget; otherwise the
// in-process counter is used.
func buildClientLimiter(cfg app.Config, logger *slog.Logger) apihttp.ClientLimiter {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return apihttp.NewFixedWindowLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory rate limiter", slog.String("error", err.Error()))
		return apihttp.NewFixedWindowLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	client := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory rate limiter", slog.String("error", err.Error()))
		return apihttp.NewFixedWindowLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return apihttp.NewRedisWindowLimiter(client, cfg.RateLimitWindow, cfg.RateLimitMax)
}
