package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vocational-ai/internal/catalog"
	"vocational-ai/internal/config"
	"vocational-ai/internal/dataset"
	"vocational-ai/internal/db"
	"vocational-ai/internal/ml"
	"vocational-ai/internal/repository"
	"vocational-ai/internal/service"
)

// app reúne las dependencias armadas a partir de la configuración.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	catalog     *catalog.Catalog
	dataset     *dataset.Cache
	registry    *ml.Registry
	builder     *service.ProfileBuilder
	recommender *service.Recommender
	feedback    *service.FeedbackService
	retrain     *service.RetrainService

	closers []func()
}

func newLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	cat, err := catalog.Load()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.catalog = cat

	// El esquema del dataset es obligatorio: sin él no hay modelo ni límites confiables.
	a.dataset = dataset.NewCache(cfg.DatasetPath, cat.Features, logger)
	if _, err := a.dataset.Dataset(); err != nil {
		a.close()
		return nil, err
	}

	buffer, err := a.newBuffer(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.registry = ml.NewRegistry(ml.NewStore(cfg.ArtifactsDir), a.dataset, cat.Features.Names(), logger)

	a.builder = service.NewProfileBuilder(cat.Features, cat.Questions, a.dataset, logger)
	axes := service.NewAxisClassifier(cat.Axes, cat.DefaultAxis, cfg.HybridThreshold, logger)
	macro := service.NewMacroClassifier(cat.Macro, cat.CareerNames())
	amplifier := service.NewAmplifier(macro, a.dataset, logger)
	gate := service.NewRequirementGate(cat.Requirements, logger)
	assembler := service.NewAssembler(cat)

	var ranker service.Ranker
	switch cfg.Ranker {
	case config.RankerDistance:
		ranker = service.NewDistanceRanker(a.dataset)
	case config.RankerAxis:
		ranker = service.NewAxisRanker(axes)
	default:
		ranker = service.NewModelRanker(a.registry)
	}
	a.recommender = service.NewRecommender(a.builder, axes, macro, amplifier, ranker, gate, assembler, logger).
		WithLookahead(cfg.LookaheadFactor)
	if cfg.Ranker != config.RankerAxis {
		a.recommender.WithFallback(service.NewAxisRanker(axes))
	}

	a.feedback = service.NewFeedbackService(buffer, cat, logger)
	a.retrain = service.NewRetrainService(a.newRetrainLock(ctx), ml.NewRetrainer(a.registry, buffer, logger), logger)

	a.serveMetrics()
	return a, nil
}

func (a *app) newBuffer(ctx context.Context) (repository.SampleBuffer, error) {
	if a.cfg.BufferBackend != config.BufferBackendPostgres {
		return repository.NewFileSampleBuffer(a.cfg.BufferPath), nil
	}
	pool, err := db.NewPool(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := db.Ping(ctx, pool); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	buffer := repository.NewPgSampleBuffer(pool)
	if err := buffer.EnsureSchema(ctx, a.catalog.Features.Len()); err != nil {
		return nil, fmt.Errorf("ensure buffer schema: %w", err)
	}
	return buffer, nil
}

// newRetrainLock usa Redis si está configurado y responde; si no, un mutex local.
func (a *app) newRetrainLock(ctx context.Context) service.RetrainLock {
	if a.cfg.RedisAddr == "" {
		return service.NewMutexRetrainLock()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		a.logger.Warn("redis ping failed, using local retrain lock", zap.Error(err))
		_ = client.Close()
		return service.NewMutexRetrainLock()
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return service.NewRedisRetrainLock(client, 0)
}

func (a *app) serveMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.cfg.MetricsAddr))
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// close libera recursos en orden inverso.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
