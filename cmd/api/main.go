package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expertrait/internal/api"
	"expertrait/internal/backend"
	"expertrait/internal/config"
	"expertrait/internal/database"
	"expertrait/internal/domain"
	"expertrait/internal/events"
	"expertrait/internal/export"
	"expertrait/internal/logging"
	"expertrait/internal/metrics"
	"expertrait/internal/repository"
	"expertrait/internal/service"
	"expertrait/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	states := initStateRepository(cfg, &logger)
	loc := cfg.Location()

	eventBus := events.NewEventBus()
	subscribeEventLogging(eventBus, &logger)

	exportWriter := export.NewWriter(cfg.Exports.Path, loc, &logger)
	exportWorker := worker.NewExportWorker(exportWriter, db, eventBus, worker.RetryPolicy{}, &logger)

	client := backend.NewClient(cfg.Backend, &logger)
	svc := service.NewDashboardService(client, states, db, exportWorker, eventBus, loc, &logger)

	httpServer := api.NewHTTPServer(cfg.API, svc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportWorker.Start(ctx)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, exportWorker, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// initStateRepository prefers redis with an in-memory fallback. Filter
// state is convenience session data, so a missing redis only costs
// durability across restarts.
func initStateRepository(cfg *config.Config, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository(cfg.StateTTL())
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory filter state")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory filter state")
		_ = client.Close()
		return memory
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	primary := repository.NewRedisStateRepository(client, cfg.StateTTL())
	return repository.NewFailoverStateRepository(primary, memory, logger)
}

func subscribeEventLogging(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
	for _, eventType := range []string{
		events.EventBookingAccepted,
		events.EventBookingCompleted,
		events.EventExportCompleted,
		events.EventExportFailed,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, exportWorker *worker.ExportWorker, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
	exportWorker.Wait()

	logger.Info().Msg("dashboard API stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
