// cmd/survey-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"survey-forms/internal/api"
	"survey-forms/internal/common/aws"
	"survey-forms/internal/common/camunda"
	"survey-forms/internal/common/config"
	"survey-forms/internal/common/database"
	commonhttp "survey-forms/internal/common/http"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/common/observability"
	"survey-forms/internal/survey"
	"survey-forms/internal/survey/capture"
	"survey-forms/internal/survey/index"
	"survey-forms/internal/survey/loader"
	"survey-forms/internal/survey/submission"

	lf "survey-forms/internal/workers/survey/load-form"
	sf "survey-forms/internal/workers/survey/submit-form"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting survey manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, zapLog)
	defer obs.Shutdown()

	ctx := context.Background()
	var checks []api.Check

	// --- Form definition sources ---
	var blobStore loader.ObjectGetter
	if cfg.Storage.S3.Bucket != "" {
		s3Client, err := aws.NewS3Client(ctx, cfg.Storage.S3.Region, cfg.Storage.S3.Bucket, cfg.Storage.S3.Endpoint)
		if err != nil {
			zapLog.Fatal("s3 client init failed", zap.Error(err))
		}
		blobStore = s3Client
		zapLog.Info("S3 form store configured", zap.String("bucket", s3Client.Bucket()))
	}

	formsHTTP := commonhttp.NewClient(config.GetDuration(cfg.Forms.Timeout))
	schemaLoader := loader.New(log,
		loader.NewBlobSource(blobStore, cfg.Storage.S3.Prefix),
		loader.NewAPISource(formsHTTP, cfg.Forms.APIBaseURL),
		loader.NewPublicSource(formsHTTP, cfg.Forms.PublicBaseURL, cfg.Forms.PublicDir),
		loader.NewBundledSource(nil),
	)
	zapLog.Info("Form loader ready", zap.Strings("sources", schemaLoader.Sources()))

	deps := survey.Deps{Loader: schemaLoader, Obs: obs}
	var schemaCache api.SchemaCache

	// --- Redis: schema cache and submit guard ---
	if cfg.Database.Redis.Enabled() {
		var rdb *database.RedisClient
		err = database.RetryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		if cfg.Forms.CacheTTL > 0 {
			cached := loader.NewCachedLoader(schemaLoader, rdb.Client, config.GetDuration(cfg.Forms.CacheTTL), log)
			deps.Loader = cached
			schemaCache = cached
		}
		deps.Guard = survey.NewSubmitGuard(rdb.Client, config.GetDuration(cfg.Forms.SubmitLockTTL))
		checks = append(checks, api.Check{Name: "redis", Fn: rdb.Ping})
	}

	// --- PostgreSQL: dry-run captures ---
	if cfg.Database.Postgres.Enabled() {
		var pg *database.PostgresClient
		err = database.RetryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		store := capture.NewStore(pg.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("capture schema setup failed", zap.Error(err))
		}
		deps.Captures = store
		checks = append(checks, api.Check{Name: "postgres", Fn: pg.Ping})
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Elasticsearch: submission index ---
	if cfg.Database.Elasticsearch.Enabled() {
		var es *database.ElasticsearchClient
		err = database.RetryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		created, err := es.EnsureIndex(ctx, cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("submission index setup failed", zap.Error(err))
		}
		if created {
			zapLog.Info("Submission index created", zap.String("index", cfg.Database.Elasticsearch.Index))
		}
		deps.Indexer = index.NewIndexer(es.Client, cfg.Database.Elasticsearch.Index)
		checks = append(checks, api.Check{Name: "elasticsearch", Fn: es.Ping})
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- SNS: submission events ---
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		deps.Events = snsClient
	}

	// --- Outbound survey services ---
	var outlets submission.OutletFinder
	if cfg.Services.Outlet.BaseURL != "" {
		outlets = submission.NewOutletClient(
			commonhttp.NewClient(config.GetDuration(cfg.Services.Outlet.Timeout)),
			cfg.Services.Outlet.BaseURL,
		)
	}
	deps.Assembler = submission.NewAssembler(outlets, log)
	deps.Saver = submission.NewSaveClient(
		commonhttp.NewClient(config.GetDuration(cfg.Services.Survey.Timeout)),
		cfg.Services.Survey.BaseURL,
		cfg.Services.Survey.SavePath,
	)

	service := survey.NewService(deps, log)

	// --- Zeebe workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.SurveyWorker
	)
	if cfg.Camunda.Enabled {
		err = database.RetryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		checks = append(checks, api.Check{Name: "zeebe", Fn: zeebe.HealthCheck})

		if config.IsWorkerEnabled(cfg, lf.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, lf.TaskType)
			handler := lf.NewHandler(lf.LoadConfig(wcfg), service, log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), lf.TaskType, wcfg, handler.Handle, zapLog))
		}
		if config.IsWorkerEnabled(cfg, sf.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, sf.TaskType)
			handler := sf.NewHandler(sf.LoadConfig(wcfg), service, log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), sf.TaskType, wcfg, handler.Handle, zapLog))
		}
		zapLog.Info("Survey workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	handler := api.NewHandler(service, cfg.Forms.PublicDir, checks, log)
	if schemaCache != nil {
		handler.WithSchemaCache(schemaCache)
	}
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Survey manager stopped gracefully")
}
