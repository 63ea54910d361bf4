// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/sentiment-service/internal/analyzer/edenai"
	"github.com/JakeFAU/sentiment-service/internal/analyzer/static"
	"github.com/JakeFAU/sentiment-service/internal/api"
	"github.com/JakeFAU/sentiment-service/internal/clock/system"
	"github.com/JakeFAU/sentiment-service/internal/config"
	"github.com/JakeFAU/sentiment-service/internal/dispatcher"
	"github.com/JakeFAU/sentiment-service/internal/hash/sha256"
	"github.com/JakeFAU/sentiment-service/internal/id/uuid"
	"github.com/JakeFAU/sentiment-service/internal/logging"
	"github.com/JakeFAU/sentiment-service/internal/policy/ratelimit"
	"github.com/JakeFAU/sentiment-service/internal/policy/simple"
	"github.com/JakeFAU/sentiment-service/internal/progress"
	progresssinks "github.com/JakeFAU/sentiment-service/internal/progress/sinks"
	memorypublisher "github.com/JakeFAU/sentiment-service/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/sentiment-service/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/sentiment-service/internal/queue/memory"
	"github.com/JakeFAU/sentiment-service/internal/sentiment"
	gcsstorage "github.com/JakeFAU/sentiment-service/internal/storage/gcs"
	localstorage "github.com/JakeFAU/sentiment-service/internal/storage/local"
	memoryStorage "github.com/JakeFAU/sentiment-service/internal/storage/memory"
	pgstore "github.com/JakeFAU/sentiment-service/internal/storage/postgres"
	redisstore "github.com/JakeFAU/sentiment-service/internal/storage/redis"
	"github.com/JakeFAU/sentiment-service/internal/store"
	"github.com/JakeFAU/sentiment-service/internal/telemetry"
	"github.com/JakeFAU/sentiment-service/internal/worker"
)

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	apiServer      *api.Server
	dispatch       *dispatcher.Dispatcher
	progressHub    *progress.Hub
	queue          *queueMemory.Queue
	publisher      *gcppublisher.Publisher
	storage        *storage.Client
	records        store.RecordRepository
	audit          store.AuditRepository
	jobs           sentiment.JobStore
	tracerShutdown func(context.Context) error
	metricShutdown func(context.Context) error
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Define a struct for logging only non-sensitive config fields
	type SanitizedConfig struct {
		ServerPort int    `json:"server_port"`
		Service    string `json:"service,omitempty"`
		Version    string `json:"version,omitempty"`
	}
	safeCfg := SanitizedConfig{
		ServerPort: cfg.Server.Port,
		Service:    cfg.Application.ServiceName,
		Version:    cfg.Application.Version,
	}
	logger.Info("Creating application", zap.Any("config", safeCfg))
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		a.logger.Info("dispatcher started")
		a.dispatch.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	a.queue.Close()
	a.closeInfrastructure(ctx)
	a.closeObservability(ctx)
	a.logger.Info("shutdown complete")
	return nil
}

//nolint:gocognit // Shutdown logic is linear but extensive, ignoring complexity check
func (a *App) closeInfrastructure(ctx context.Context) {
	if a.progressHub != nil {
		if err := a.progressHub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("pubsub publisher close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if pg, ok := a.records.(*pgstore.RecordStore); ok {
		pg.Close()
	}
	if pg, ok := a.audit.(*pgstore.AuditStore); ok {
		pg.Close()
	}
	if rs, ok := a.jobs.(*redisstore.JobStore); ok {
		if err := rs.Close(); err != nil {
			a.logger.Warn("redis job store close failed", zap.Error(err))
		}
	}
}

func (a *App) closeObservability(ctx context.Context) {
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	if a.metricShutdown != nil {
		if err := a.metricShutdown(ctx); err != nil {
			a.logger.Warn("metric shutdown failed", zap.Error(err))
		}
	}
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Application.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}

	tp, mp, err := telemetry.InitTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown
	app.metricShutdown = mp.Shutdown

	app.logger.Info("building application dependencies")
	app.jobs = setupJobStore(app)

	blobStore, err := setupArchive(ctx, app)
	if err != nil {
		return nil, err
	}

	if err = setupDatabase(ctx, app); err != nil {
		return nil, err
	}

	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}

	progressEmitter, err := setupProgress(ctx, app, app.audit)
	if err != nil {
		return nil, err
	}

	analyzer := setupAnalyzer(app)

	app.queue = queueMemory.NewQueue(cfg.Analysis.QueueDepth)
	app.dispatch = setupDispatcher(app, blobStore, publisher, analyzer, progressEmitter)

	app.apiServer = api.NewServer(
		app.records,
		app.jobs,
		app.audit,
		app.dispatch,
		analyzer,
		uuid.New(),
		system.New(),
		progressEmitter,
		*cfg,
		logger.Named("api"),
	)

	return app, nil
}

func setupJobStore(app *App) sentiment.JobStore {
	if app.cfg.JobStore.Backend == "redis" {
		app.logger.Info("using redis job store", zap.String("addr", app.cfg.JobStore.Redis.Addr))
		return redisstore.New(redisstore.Config{
			Addr:     app.cfg.JobStore.Redis.Addr,
			Password: app.cfg.JobStore.Redis.Password,
			DB:       app.cfg.JobStore.Redis.DB,
			TTL:      time.Duration(app.cfg.JobStore.Redis.TTLMinutes) * time.Minute,
		})
	}
	app.logger.Info("using in-memory job store")
	return memoryStorage.NewJobStore()
}

func setupArchive(ctx context.Context, app *App) (sentiment.BlobStore, error) {
	var blobStore sentiment.BlobStore
	var err error
	switch app.cfg.Archive.Backend {
	case "gcs":
		app.logger.Info("using GCS archive backend")
		app.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		blobStore, err = gcsstorage.New(app.storage, gcsstorage.Config{
			Bucket: app.cfg.Archive.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.logger.Debug("GCS archive backend", zap.String("bucket", app.cfg.Archive.Bucket))
	case "local":
		app.logger.Info("using local archive backend")
		blobStore, err = localstorage.New(localstorage.Config{BaseDir: app.cfg.Archive.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Debug("local archive backend", zap.String("path", app.cfg.Archive.LocalDir))
	default:
		app.logger.Info("using in-memory archive backend")
		blobStore = memoryStorage.NewBlobStore()
	}
	return blobStore, nil
}

func setupDatabase(ctx context.Context, app *App) error {
	if app.cfg.Database.DSN == "" {
		app.logger.Warn("No DSN specified for database, using in-memory record store; job events will not be persisted")
		app.records = memoryStorage.NewRecordStore()
		return nil
	}
	storeCfg := pgstore.RecordStoreConfig{
		DSN:             app.cfg.Database.DSN,
		RequestsTable:   app.cfg.Database.RequestsTable,
		SentimentsTable: app.cfg.Database.SentimentsTable,
		MaxConns:        app.cfg.Database.MaxConns,
		MinConns:        app.cfg.Database.MinConns,
		MaxConnLifetime: time.Duration(app.cfg.Database.MaxConnLifetimeMinutes) * time.Minute,
	}
	records, err := pgstore.NewRecordStore(ctx, storeCfg)
	if err != nil {
		return fmt.Errorf("record store init failed: %w", err)
	}
	app.records = records
	app.logger.Info("record store initialized",
		zap.String("requests_table", app.cfg.Database.RequestsTable),
		zap.String("sentiments_table", app.cfg.Database.SentimentsTable),
	)
	audit, err := pgstore.NewAuditStore(ctx, storeCfg, app.cfg.Database.EventsTable)
	if err != nil {
		return fmt.Errorf("audit store init failed: %w", err)
	}
	app.audit = audit
	app.logger.Info("audit store initialized", zap.String("events_table", app.cfg.Database.EventsTable))
	return nil
}

func setupPublisher(ctx context.Context, app *App) (sentiment.Publisher, error) {
	if app.cfg.PubSub.TopicName == "" || app.cfg.PubSub.ProjectID == "" {
		app.logger.Warn("No Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	pub, err := gcppublisher.Connect(
		ctx,
		app.cfg.PubSub.ProjectID,
		app.cfg.PubSub.TopicName,
		app.logger.Named("pubsub"),
	)
	if err != nil {
		return nil, fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	app.publisher = pub
	app.logger.Info(
		"Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicName),
	)
	return pub, nil
}

func setupProgress(
	ctx context.Context,
	app *App,
	auditRepo store.AuditRepository,
) (progress.Emitter, error) {
	if !app.cfg.Progress.Enabled {
		app.logger.Info("progress tracking disabled")
		return nil, nil
	}
	var sinkList []progress.Sink
	if auditRepo != nil {
		sinkList = append(
			sinkList,
			progresssinks.NewStoreSink(auditRepo, app.logger.Named("progress_store")),
		)
		app.logger.Debug("Added progress store sink")
	}
	if app.cfg.Progress.LogEnabled {
		sinkList = append(
			sinkList,
			progresssinks.NewLogSink(app.logger.Named("progress_log")),
		)
		app.logger.Debug("Added progress log sink")
	}
	if app.cfg.Progress.MetricsEnabled {
		promSink, err := progresssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, fmt.Errorf("prometheus sink init failed: %w", err)
		}
		sinkList = append(sinkList, promSink)
		app.logger.Debug("Added progress prometheus sink")
	}
	if len(sinkList) == 0 {
		app.logger.Warn("progress tracking enabled but no sinks configured")
		return nil, nil
	}
	hubCfg := progress.Config{
		BufferSize:     app.cfg.Progress.BufferSize,
		MaxBatchEvents: app.cfg.Progress.BatchMaxEvents,
		MaxBatchWait:   time.Duration(app.cfg.Progress.BatchMaxWaitMs) * time.Millisecond,
		SinkTimeout:    time.Duration(app.cfg.Progress.SinkTimeoutMs) * time.Millisecond,
		BaseContext:    ctx,
		Logger:         app.logger.Named("progress_hub"),
	}
	app.progressHub = progress.NewHub(hubCfg, sinkList...)
	app.logger.Info("progress hub initialized",
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Int("max_batch_events", hubCfg.MaxBatchEvents),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
		zap.Duration("sink_timeout", hubCfg.SinkTimeout),
	)
	return app.progressHub, nil
}

func setupAnalyzer(app *App) sentiment.Analyzer {
	if app.cfg.Provider.APIKey == "" {
		app.logger.Warn("No provider API key configured, using static analyzer")
		return static.New()
	}
	app.logger.Info("EdenAI analyzer initialized",
		zap.String("providers", app.cfg.Provider.Providers),
		zap.String("language", app.cfg.Provider.Language),
	)
	return edenai.New(edenai.Config{
		APIKey:    app.cfg.Provider.APIKey,
		BaseURL:   app.cfg.Provider.BaseURL,
		Providers: app.cfg.Provider.Providers,
		Language:  app.cfg.Provider.Language,
		Timeout:   app.cfg.ProviderTimeout(),
	})
}

func setupDispatcher(
	app *App,
	blobStore sentiment.BlobStore,
	publisher sentiment.Publisher,
	analyzer sentiment.Analyzer,
	progressEmitter progress.Emitter,
) *dispatcher.Dispatcher {
	hasher := sha256.New()
	clock := system.New()
	idGen := uuid.New()

	var limiter sentiment.Limiter
	if app.cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   app.cfg.RateLimit.DefaultRPS,
			DefaultBurst: app.cfg.RateLimit.DefaultBurst,
		})
		app.logger.Info("rate limiter enabled",
			zap.Float64("default_rps", app.cfg.RateLimit.DefaultRPS),
			zap.Int("default_burst", app.cfg.RateLimit.DefaultBurst),
		)
	} else {
		limiter = simple.New()
		app.logger.Info("rate limiter disabled, using pass-through policy")
	}

	workerCfg := worker.Config{
		ArchivePrefix:      app.cfg.Archive.Prefix,
		ArchiveContentType: app.cfg.Archive.ContentType,
		Topic:              app.cfg.PubSub.TopicName,
		PendingDelay:       app.cfg.PendingDelay(),
		ProcessingDelay:    app.cfg.ProcessingDelay(),
	}
	app.logger.Info("worker config",
		zap.String("archive_prefix", workerCfg.ArchivePrefix),
		zap.String("archive_content_type", workerCfg.ArchiveContentType),
		zap.String("topic", workerCfg.Topic),
		zap.Duration("pending_delay", workerCfg.PendingDelay),
		zap.Duration("processing_delay", workerCfg.ProcessingDelay),
	)

	var workers []*worker.Worker
	for i := 0; i < app.cfg.Analysis.Workers; i++ {
		workers = append(workers, worker.New(
			app.queue,
			app.jobs,
			app.records,
			blobStore,
			publisher,
			analyzer,
			limiter,
			hasher,
			clock,
			idGen,
			progressEmitter,
			workerCfg,
			app.logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	return dispatcher.New(app.queue, workers)
}
