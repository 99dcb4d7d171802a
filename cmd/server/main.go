package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/TimurManjosov/erpredict/internal/api"
	"github.com/TimurManjosov/erpredict/internal/config"
	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/logging"
	"github.com/TimurManjosov/erpredict/internal/model"
	"github.com/TimurManjosov/erpredict/internal/telemetry"
)

const (
	serviceName     = "erpredict"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server exited")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	// the model is loaded once, before any port is bound
	m, err := model.LoadModel(model.Kind(cfg.ModelKind), cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if err := features.CheckCompatible(m.FeatureNames()); err != nil {
		return err
	}
	info := m.Info()
	telemetry.ModelTrees.Set(float64(info.Trees))
	logger.Info().
		Str("path", info.Path).
		Str("checksum", info.Checksum).
		Int("trees", info.Trees).
		Int("max_depth", info.MaxDepth).
		Msg("model loaded")

	inv, err := inference.NewInvoker(m,
		inference.WithCache(cfg.PredictionCacheSize),
		inference.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	srvAPI := api.NewServer(api.Deps{
		Predictor:      inv,
		Mapper:         features.NewMapper(features.Options{StrictCategoricals: cfg.StrictCategoricals}),
		ModelInfo:      info,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	servers := []*http.Server{{
		Addr:              cfg.HTTPAddr(),
		Handler:           srvAPI.Router(),
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 3 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Str("addr", srv.Addr).Msg("shutdown")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}
