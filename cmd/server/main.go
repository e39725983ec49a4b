package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"certgen/internal/catalog"
	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/handler"
	certmetrics "certgen/internal/certificate/metrics"
	"certgen/internal/certificate/normalize"
	"certgen/internal/certificate/render"
	"certgen/internal/certificate/service"
	"certgen/internal/certificate/store"
	jwttoken "certgen/internal/jwt_token"
	"certgen/internal/platform/config"
	"certgen/internal/platform/httpserver"
	"certgen/internal/platform/logger"
	"certgen/internal/platform/metrics"
	redisclient "certgen/internal/platform/redis"
	httptransport "certgen/internal/transport/http"
	audit "certgen/pkg/platform/audit"
	"certgen/pkg/platform/audit/publisher"
	"certgen/pkg/platform/audit/store/kafka"
	auditmemory "certgen/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "certgen: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	norm, err := normalize.New(cat.Aliases())
	if err != nil {
		return fmt.Errorf("build normalizer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checks := map[string]httptransport.HealthCheck{}

	repo, closeRepo, err := openRepository(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeRepo()

	cache, closeCache, err := openArchiveCache(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	auditStore, closeAudit, err := openAuditStore(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeAudit()
	pub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(log),
	)
	defer pub.Close()

	svc, err := service.New(cat, norm, repo, render.New(log),
		service.WithLogger(log),
		service.WithMetrics(certmetrics.New(reg)),
		service.WithAuditPublisher(pub),
		service.WithArchiveCache(cache),
		service.WithAssetDir(cfg.AssetDir),
	)
	if err != nil {
		return fmt.Errorf("build certificate service: %w", err)
	}

	httpMetrics := metrics.New(reg)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwttoken.DefaultAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      httpMetrics,
		Gatherer:     reg,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		HealthChecks: checks,
		Handlers: []httptransport.Registrar{
			handler.New(svc, log, httpMetrics, cfg.MaxUploadBytes),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting certgen", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down certgen")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openRepository(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (service.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		s := store.NewPostgres(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		checks["postgres"] = db.PingContext
		return s, func() { _ = db.Close() }, nil

	case config.StoreSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		checks["sqlite"] = s.Ping
		return s, func() { _ = s.Close() }, nil
	}

	log.Warn("using in-memory certificate store; records are lost on restart")
	return store.NewInMemoryStore(), func() {}, nil
}

func openArchiveCache(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (service.ArchiveCache, func(), error) {
	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("archive cache in process memory", "ttl", cfg.ArchiveTTL)
		return archivecache.NewInMemoryCache(cfg.ArchiveTTL), func() {}, nil
	}
	checks["redis"] = client.Health
	return archivecache.NewRedisCache(client.Client, cfg.ArchiveTTL), func() { _ = client.Close() }, nil
}

func openAuditStore(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httptransport.HealthCheck) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("audit events kept in process memory")
		return auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.AuditRetain)), func() {}, nil
	}
	ks, err := kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	if err := ks.EnsureTopic(ctx, 1, 1); err != nil {
		ks.Close()
		return nil, nil, err
	}
	checks["kafka"] = ks.Ping
	return ks, ks.Close, nil
}
