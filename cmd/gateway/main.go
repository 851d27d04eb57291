package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/code-payments/moderation-gateway/config"
	"github.com/code-payments/moderation-gateway/httpapi"
	"github.com/code-payments/moderation-gateway/metrics"
	"github.com/code-payments/moderation-gateway/moderation"
	"github.com/code-payments/moderation-gateway/moderation/gemini"
	"github.com/code-payments/moderation-gateway/moderation/rekognition"
	"github.com/code-payments/moderation-gateway/moderation/sightengine"
	"github.com/code-payments/moderation-gateway/spool"
	"github.com/code-payments/moderation-gateway/spool/disk"
	spoolmemory "github.com/code-payments/moderation-gateway/spool/memory"
)

const metricsNamespace = "moderation_gateway"

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	envFile := flag.String("env-file", ".env", "Path to a dotenv file (ignored if missing)")
	flag.Parse()

	cfg, err := config.Load(config.WithFile(*configPath), config.WithEnvFile(*envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Gateway exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == config.LogFormatConsole {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func newSpool(cfg config.SpoolConfig) (spool.Store, error) {
	if cfg.Backend == config.SpoolBackendMemory {
		return spoolmemory.NewInMemory(), nil
	}
	return disk.NewDiskStore(cfg.Dir)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	textClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	if err != nil {
		return err
	}
	labelClient, err := rekognition.NewClient(cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.RekognitionEndpoint)
	if err != nil {
		return err
	}
	detectorClient := sightengine.NewClient(cfg.Sightengine.User, cfg.Sightengine.Secret, cfg.Sightengine.Endpoint)

	spoolStore, err := newSpool(cfg.Spool)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(metricsNamespace)
	server := moderation.NewServer(
		log.Named("moderation"),
		metrics.InstrumentTextGenerator(collector, textClient),
		metrics.InstrumentAIDetector(collector, detectorClient),
		metrics.InstrumentLabelDetector(collector, labelClient),
		spoolStore,
	)

	if cfg.CORS.AllowsAll() {
		log.Warn("CORS allows every origin; restrict CORS_ALLOWED_ORIGINS outside development")
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpapi.NewRouter(log.Named("http"), httpapi.NewHandler(log.Named("http"), server), collector, cfg.CORS.AllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Gateway listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("gemini_model", textClient.Model()),
			zap.String("aws_region", cfg.AWS.Region),
			zap.String("spool_backend", cfg.Spool.Backend),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
