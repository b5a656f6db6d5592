// Package bootstrap wires the application together.
package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"jobminer/adapter/out/inference"
	"jobminer/adapter/out/mongodb"
	"jobminer/adapter/out/persistence"
	"jobminer/adapter/out/provider"
	"jobminer/config"
	"jobminer/core/port/out"
	"jobminer/core/service/pipeline"
	"jobminer/infra/database"
	"jobminer/pkg/cache"
	"jobminer/pkg/retry"
)

// Dependencies carries every wired component of the application.
type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger

	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	TokenRepo   *persistence.TokenAdapter
	AppRepo     *persistence.ApplicationAdapter
	ReportStore *mongodb.ReportAdapter

	Marker          *cache.ProcessedMarker
	ProviderFactory *provider.Factory
	Classifier      out.Classifier
	Extractor       out.EntityExtractor

	Pipeline     *pipeline.UserPipeline
	Orchestrator *pipeline.Orchestrator
}

// NewDependencies connects storage and builds the pipeline graph. The
// returned cleanup closes every connection that opened.
func NewDependencies(cfg *config.Config, log zerolog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg, Log: log}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// PostgreSQL (pgxpool for health checks, sqlx for the adapters)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	sqlDB, err := database.NewSqlx(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	deps.TokenRepo = persistence.NewTokenAdapter(sqlDB)
	deps.AppRepo = persistence.NewApplicationAdapter(sqlDB, log)

	// Redis is optional: without it the DB conflict skip is the only
	// idempotency layer.
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis connection failed, processed markers disabled")
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}
	deps.Marker = cache.NewProcessedMarker(deps.Redis, cfg.ProcessedTTL)

	// MongoDB is optional: without it cycle reports are log-only.
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			log.Warn().Err(err).Msg("mongodb connection failed, cycle report history disabled")
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() { mongoClient.Disconnect(context.Background()) })

			deps.ReportStore = mongodb.NewReportAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := deps.ReportStore.EnsureIndexes(context.Background()); err != nil {
				log.Warn().Err(err).Msg("cycle report index creation failed")
			}
		}
	}

	// Mail provider
	deps.ProviderFactory = provider.NewFactory(&provider.GmailConfig{
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		RedirectURL:   cfg.GoogleRedirectURL,
		SearchQuery:   cfg.GmailSearchQuery,
		RatePerSecond: cfg.GmailRatePerSecond,
	}, log)

	// Inference
	infCfg := &inference.Config{
		Backend:        cfg.InferenceBackend,
		ClassifierURL:  cfg.ClassifierURL,
		ExtractorURL:   cfg.ExtractorURL,
		APIToken:       cfg.InferenceAPIToken,
		MinEntityScore: cfg.MinEntityScore,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		OpenAIModel:    cfg.OpenAIModel,
	}
	classifier, err := inference.NewClassifier(infCfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Classifier = classifier

	extractor, err := inference.NewExtractor(infCfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Extractor = extractor

	// Pipeline graph
	retryCfg := retry.Config{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Multiplier:  2,
		MaxDelay:    cfg.RetryMaxDelay,
	}
	pipeCfg := pipeline.Config{
		FetchWindowHours:  cfg.FetchWindowHours,
		FetchPageSize:     cfg.FetchPageSize,
		ClassifyBatchSize: cfg.ClassifyBatchSize,
		Retry:             retryCfg,
	}
	normalizer := pipeline.NewNormalizer(cfg.BodyTruncateLength, cache.NewMemoCache(cfg.NormalizeCacheSize, cfg.ProcessedTTL))

	deps.Pipeline = pipeline.NewUserPipeline(
		deps.TokenRepo,
		deps.ProviderFactory,
		deps.Classifier,
		deps.Extractor,
		deps.AppRepo,
		deps.Marker,
		normalizer,
		pipeCfg,
		log,
	)

	var reports out.CycleReportStore
	if deps.ReportStore != nil {
		reports = deps.ReportStore
	}
	deps.Orchestrator = pipeline.NewOrchestrator(
		deps.Pipeline,
		deps.TokenRepo,
		reports,
		cfg.MaxConcurrent,
		retryCfg,
		log,
	)

	return deps, cleanup, nil
}
