package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fooddelivery-client/internal/api"
	"fooddelivery-client/internal/config"
	"fooddelivery-client/internal/db"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/metrics"
	"fooddelivery-client/internal/middleware"
	"fooddelivery-client/internal/session"
	"fooddelivery-client/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Overridden in tests.
var (
	openStoreFunc   = openStore
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.App.Env, cfg.App.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStoreFunc(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.L().Warn("failed to close storage", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := newServer(cfg, store, reg)
	defer srv.close()

	go srv.sessions.Run(ctx, cfg.Cart.SweepInterval, cfg.Cart.SessionIdleTTL)
	go srv.limiter.Run(ctx, time.Minute, middleware.DefaultVisitorTTL)

	logger.L().Info("cart client API listening",
		zap.String("port", cfg.App.Port),
		zap.String("env", cfg.App.Env),
		zap.String("backend", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
	)
	return startServerFunc(ctx, ":"+cfg.App.Port, srv.handler)
}

type server struct {
	handler  http.Handler
	sessions *session.Manager
	limiter  *middleware.Limiter
}

func newServer(cfg *config.Config, store storage.Store, reg *prometheus.Registry) *server {
	m := metrics.New(reg)

	sessions := session.NewManager(session.Config{
		BaseURL:          cfg.API.BaseURL,
		CategoriesPath:   cfg.API.CategoriesPath,
		Timeout:          cfg.API.Timeout,
		InitialLoadDelay: cfg.Cart.InitialLoadDelay,
		LocationMaxAge:   cfg.Storage.LocationMaxAge,
		RequestsPerSec:   cfg.API.OutboundRPS,
		Burst:            cfg.API.OutboundBurst,
	}, store, m)

	limiter := middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	handler := api.NewRouter(api.Deps{
		Sessions:       sessions,
		Gatherer:       reg,
		Limiter:        limiter,
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.App.AllowedOrigins,
		ImageBaseURL:   cfg.API.ImageBaseURL,
	})

	return &server{handler: handler, sessions: sessions, limiter: limiter}
}

func (s *server) close() {
	if err := s.sessions.Close(); err != nil {
		logger.L().Warn("failed to close sessions", zap.Error(err))
	}
}

// openStore picks the client state backend named by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case config.StorageRedis:
		return storage.NewRedis(ctx, cfg.Redis)
	case config.StoragePostgres:
		conn, err := db.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgres(conn), conn.Close, nil
	default:
		return storage.NewMemory(), func() error { return nil }, nil
	}
}

// startServer serves until ctx ends, then drains in-flight requests.
func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
