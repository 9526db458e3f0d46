package commands

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/wonny/mfatlas/internal/atlasconfig"
	"github.com/wonny/mfatlas/internal/external/amfi"
	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/external/mfapi"
	"github.com/wonny/mfatlas/internal/external/yahoo"
	"github.com/wonny/mfatlas/internal/pipeline"
	"github.com/wonny/mfatlas/internal/s0_data"
	"github.com/wonny/mfatlas/internal/s0_data/collector"
	"github.com/wonny/mfatlas/internal/s0_data/quality"
	"github.com/wonny/mfatlas/internal/s1_returns"
	"github.com/wonny/mfatlas/internal/s2_scoring"
	"github.com/wonny/mfatlas/internal/sip"
	"github.com/wonny/mfatlas/pkg/config"
	"github.com/wonny/mfatlas/pkg/database"
	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
	"github.com/wonny/mfatlas/pkg/redis"
)

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "mfatlas"

// app holds everything a command needs, built once per invocation
type app struct {
	cfg        *config.Config
	atlas      *atlasconfig.Config
	configHash string
	location   *time.Location
	log        *logger.Logger

	db    *database.DB
	redis *redis.Client
	cache *redis.Cache

	funds        *s0_data.FundRepository
	fundNAVs     *s0_data.NAVRepository
	indices      *s0_data.IndexRepository
	indexHistory *s0_data.NAVRepository
	metrics      *s0_data.MetricsRepository
	runs         *s0_data.RunRepository
	quality      *quality.Repository

	collector    *collector.Collector
	orchestrator *pipeline.Orchestrator
	sip          *sip.Service
}

// loadSettings reads env + engine YAML without touching the network
func loadSettings() (*config.Config, *atlasconfig.Config, string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, "", fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	path := cfg.AtlasConfigPath
	if atlasConfig != "" {
		path = atlasConfig
	}
	atlas, _, err := atlasconfig.Load(path)
	if err != nil {
		return nil, nil, "", err
	}
	hash, err := atlasconfig.Hash(atlas)
	if err != nil {
		return nil, nil, "", fmt.Errorf("hash atlas config: %w", err)
	}

	return cfg, atlas, hash, nil
}

// newApp wires config, storage, providers and the engine
func newApp() (*app, error) {
	cfg, atlas, hash, err := loadSettings()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	loc := time.UTC
	if atlas.Meta.Timezone != "" {
		if loc, err = time.LoadLocation(atlas.Meta.Timezone); err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", atlas.Meta.Timezone, err)
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache and shared rate limits")
		redisClient, _ = redis.New(&config.Config{})
	}

	a := &app{
		cfg:        cfg,
		atlas:      atlas,
		configHash: hash,
		location:   loc,
		log:        log,
		db:         db,
		redis:      redisClient,
		cache:      redis.NewCache(redisClient, keyPrefix),

		funds:        s0_data.NewFundRepository(db.Pool),
		fundNAVs:     s0_data.NewFundNAVRepository(db.Pool),
		indices:      s0_data.NewIndexRepository(db.Pool),
		indexHistory: s0_data.NewIndexHistoryRepository(db.Pool),
		metrics:      s0_data.NewMetricsRepository(db.Pool),
		runs:         s0_data.NewRunRepository(db.Pool),
		quality:      quality.NewRepository(db.Pool),
	}

	a.collector = a.newCollector()
	if a.orchestrator, err = a.newOrchestrator(); err != nil {
		a.Close()
		return nil, err
	}
	a.sip = sip.NewService(a.funds, a.fundNAVs, sip.Defaults{
		MonthlyAmount: atlas.SIP.DefaultMonthlyAmount,
		StepUpPercent: atlas.SIP.DefaultStepUpPct,
		Currency:      atlas.SIP.Currency,
	}, log)

	return a, nil
}

// providerClient builds one HTTP client per provider so each gets its own
// shared (Redis) budget on top of the process-local limit
func (a *app) providerClient(limit redis.RateLimitConfig) *httputil.Client {
	limiter := redis.NewRateLimiter(a.redis, keyPrefix)
	return httputil.New(a.cfg, a.log).WithRateLimiter(limiter, limit)
}

func (a *app) newCollector() *collector.Collector {
	p := a.cfg.Providers
	return collector.NewCollector(
		collector.Sources{
			Universe: kuvera.NewClient(a.providerClient(redis.KuveraRateLimit), a.log, p.KuveraBaseURL),
			History:  mfapi.NewClient(a.providerClient(redis.MFAPIRateLimit), a.log, p.MFAPIBaseURL),
			Daily:    amfi.NewClient(a.providerClient(redis.AMFIRateLimit), a.log, p.AMFINavURL),
			Index:    yahoo.NewClient(a.providerClient(redis.YahooRateLimit), a.log, p.YahooBaseURL),
		},
		collector.Repositories{
			Funds:        a.funds,
			FundNAVs:     a.fundNAVs,
			Indices:      a.indices,
			IndexHistory: a.indexHistory,
		},
		a.log,
	)
}

func (a *app) newOrchestrator() (*pipeline.Orchestrator, error) {
	calc, err := s1_returns.NewCalculator(a.atlas.AnchorPolicy())
	if err != nil {
		return nil, err
	}

	gate := quality.NewQualityGate(a.funds, a.fundNAVs, a.indices, a.indexHistory, quality.Config{
		MaxStaleDays:    a.atlas.Quality.MaxStaleDays,
		MinQualityScore: a.atlas.Quality.MinQualityScore,
	})
	engine := s2_scoring.NewEngine(a.atlas.Benchmarks, a.atlas.ScoringPolicy(), a.atlas.Scoring.Workers, a.log)

	return pipeline.NewOrchestrator(gate, calc, engine, pipeline.Repositories{
		Funds:        a.funds,
		FundNAVs:     a.fundNAVs,
		Indices:      a.indices,
		IndexHistory: a.indexHistory,
		Metrics:      a.metrics,
		Runs:         a.runs,
		Quality:      a.quality,
	}, a.cache, a.atlas.Returns.Workers, a.log), nil
}

// collectorConfig is the worker/delay setting shared by collection commands
func (a *app) collectorConfig() collector.Config {
	return collector.Config{
		Workers:     a.cfg.CollectorWorkers,
		DetailDelay: time.Duration(a.atlas.Universe.DetailDelayMs) * time.Millisecond,
	}
}

// today is the current date in the engine timezone, as a UTC midnight
func (a *app) today() time.Time {
	now := time.Now().In(a.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Close releases database and Redis connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
