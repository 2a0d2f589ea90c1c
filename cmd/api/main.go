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

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Sanction-Guard/sanctionguard/config"
	"github.com/Sanction-Guard/sanctionguard/internal/cache"
	entityrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/entity"
	importjobrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/importjob"
	individualrepo "github.com/Sanction-Guard/sanctionguard/internal/repositories/individual"
	"github.com/Sanction-Guard/sanctionguard/internal/searchindex"
	"github.com/Sanction-Guard/sanctionguard/pkg/database"
	"github.com/Sanction-Guard/sanctionguard/pkg/events"
	"github.com/Sanction-Guard/sanctionguard/pkg/feed"
	"github.com/Sanction-Guard/sanctionguard/pkg/ingest"
	"github.com/Sanction-Guard/sanctionguard/pkg/kafka"
	"github.com/Sanction-Guard/sanctionguard/pkg/mapper"
	"github.com/Sanction-Guard/sanctionguard/pkg/middleware"
	"github.com/Sanction-Guard/sanctionguard/pkg/routes/health"
	importroutes "github.com/Sanction-Guard/sanctionguard/pkg/routes/imports"
	searchroutes "github.com/Sanction-Guard/sanctionguard/pkg/routes/search"
	"github.com/Sanction-Guard/sanctionguard/pkg/scheduler"
	"github.com/Sanction-Guard/sanctionguard/pkg/screening"
	"github.com/Sanction-Guard/sanctionguard/pkg/startup"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing"
	"github.com/Sanction-Guard/sanctionguard/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment variables")
	}

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to bind config: %v", err))
	}

	logger, zapLogger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		fatal(logger, zapLogger, err, "Failed to set up tracing")
	}
	defer shutdownTracing()

	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		Username:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		RetryCount:      cfg.DatabaseReconnectRetryCount,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		fatal(logger, zapLogger, err, "Failed to connect to database")
	}
	defer func() {
		_ = db.Close()
	}()

	migrations := database.NewMigrationService(logger, database.MigrationConfig{
		FolderPath: cfg.DatabaseMigrationFolderPath,
		Version:    uint(cfg.DatabaseMigrationVersion),
		Force:      cfg.DatabaseMigrationForce,
	})
	if err = migrations.Migrate(cfg.DatabaseName, db); err != nil {
		fatal(logger, zapLogger, err, "Failed to run database migrations")
	}

	index := searchindex.NewManager(cfg.SearchIndexPath, logger)
	if err = index.Open(ctx); err != nil {
		fatal(logger, zapLogger, err, "Failed to open search index")
	}
	defer func() {
		_ = index.Close()
	}()

	var redisClient *cache.Client
	var statusCache *cache.StatusCache
	if cfg.RedisEnabled {
		redisClient, err = cache.NewClient(cache.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			fatal(logger, zapLogger, err, "Failed to connect to redis")
		}
		defer func() {
			_ = redisClient.Close()
		}()
		statusCache = cache.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	}

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
		}, logger)
		defer func() {
			_ = producer.Close()
		}()
		emitter = events.NewEmitter(producer, logger)
	}

	m := mapper.New()
	individuals := individualrepo.NewRepository(db, logger)
	entities := entityrepo.NewRepository(db, logger)
	jobs := importjobrepo.NewRepository(db, logger)

	pipeline := ingest.NewPipeline(logger, m, individuals, entities, jobs, index, emitter, cfg.IndexBatchSize)
	ingestService := ingest.NewService(pipeline, jobs, statusCache, logger, cfg.UploadMaxFileBytes, cfg.UploadMaxFiles)

	syncer := feed.NewSyncer(feed.Config{
		URL:         cfg.FeedURL,
		Timeout:     cfg.FeedTimeout,
		SourceLabel: cfg.FeedSourceLabel,
		BatchSize:   cfg.IndexBatchSize,
	}, logger, m, individuals, entities, index, emitter)

	engine := screening.NewEngine(index, logger, cfg.SearchMaxCandidates, cfg.SearchFuzziness)
	statusService := screening.NewStatusService(index, individuals, entities, statusCache, logger)

	if err = registerDependencies(logger, engine, statusService, ingestService); err != nil {
		fatal(logger, zapLogger, err, "Failed to register dependencies")
	}

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	if cfg.FeedSyncEnabled {
		boot.Add(&feedSync{scheduler: scheduler.New(cfg.FeedSyncInterval, syncer.Sync, logger)})
	}
	if err = boot.Start(ctx); err != nil {
		fatal(logger, zapLogger, err, "Failed to start dependencies")
	}
	defer func() {
		_ = boot.Stop(context.Background())
	}()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	api := e.Group("/api/v1")
	searchroutes.Register(api)
	importroutes.Register(api)

	var redisPinger health.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	checker := health.NewChecker(db.Unsafe(), redisPinger, index, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithFields(map[string]any{"address": addr}).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, zapLogger, err, "HTTP server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
}

func newLogger(cfg config.Config) (ectologger.Logger, *zap.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), zapLogger, nil
}

// fatal logs the error and exits. The zap logger is synced first so the
// message is not lost on the way out.
func fatal(logger ectologger.Logger, zapLogger *zap.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	_ = zapLogger.Sync()
	os.Exit(1)
}

// setupTracing wires the OTLP exporter into the process tracer. The returned
// shutdown func flushes spans and is safe to call when tracing is disabled.
func setupTracing(ctx context.Context, cfg config.Config) (func(), error) {
	if !cfg.TracingEnabled {
		tracing.SetTracer(otel.Tracer(cfg.AppName))
		return func() {}, nil
	}

	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: true,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}, nil
}

// registerDependencies places the request-scoped services into the default DI
// container so route handlers can resolve them from the request context.
func registerDependencies(
	logger ectologger.Logger,
	engine *screening.Engine,
	statusService *screening.StatusService,
	ingestService *ingest.Service,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err = ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err = ectoinject.RegisterInstance[*screening.Engine](container, engine); err != nil {
		return err
	}
	if err = ectoinject.RegisterInstance[*screening.StatusService](container, statusService); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*ingest.Service](container, ingestService)
}

// feedSync adapts the sync scheduler to the startup dependency lifecycle.
type feedSync struct {
	scheduler *scheduler.Scheduler
}

func (f *feedSync) GetName() string {
	return "feed-sync-scheduler"
}

func (f *feedSync) Start(ctx context.Context) error {
	f.scheduler.Start(ctx)
	return nil
}

func (f *feedSync) Stop(ctx context.Context) error {
	f.scheduler.Stop()
	return nil
}
