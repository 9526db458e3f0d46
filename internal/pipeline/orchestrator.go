package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/s1_returns"
	"github.com/wonny/mfatlas/pkg/logger"
)

// SnapshotSaver persists quality gate snapshots
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot *contracts.DataQualitySnapshot) error
}

// CacheFlusher drops cached API responses after new metrics land
type CacheFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// Repositories bundles the storage the pipeline reads and writes
type Repositories struct {
	Funds        contracts.FundRepository
	FundNAVs     contracts.NAVRepository
	Indices      contracts.IndexRepository
	IndexHistory contracts.NAVRepository
	Metrics      contracts.MetricsRepository
	Runs         contracts.RunRepository
	Quality      SnapshotSaver // optional
}

// Orchestrator coordinates the S0 → S1 → S2 compute pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	qualityGate contracts.QualityGate
	calculator  contracts.ReturnCalculator
	scorer      contracts.Scorer
	repos       Repositories
	cache       CacheFlusher
	workers     int
	logger      *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Date       time.Time // 품질 검증 기준일
	RunID      string    // empty → generated
	ConfigHash string
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	Run             *contracts.PipelineRun
	Success         bool
	Error           error
	CompletedStages []contracts.Stage
	QualitySnapshot *contracts.DataQualitySnapshot
	FundReturns     map[string]contracts.TrailingReturns
	IndexReturns    map[string]contracts.TrailingReturns
	Averages        []contracts.CategoryAverage
	Scores          []contracts.ScoreRecord
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator.
// cache may be nil; workers <= 0 uses a single worker per series kind.
func NewOrchestrator(
	qualityGate contracts.QualityGate,
	calculator contracts.ReturnCalculator,
	scorer contracts.Scorer,
	repos Repositories,
	cache CacheFlusher,
	workers int,
	log *logger.Logger,
) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		qualityGate: qualityGate,
		calculator:  calculator,
		scorer:      scorer,
		repos:       repos,
		cache:       cache,
		workers:     workers,
		logger:      log.WithField("module", "pipeline"),
	}
}

// Run executes the pipeline and records it as a pipeline run
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.Date.IsZero() {
		config.Date = startTime
	}

	run := &contracts.PipelineRun{
		RunID:      config.RunID,
		ConfigHash: config.ConfigHash,
		AsOf:       contracts.CalendarDate(config.Date),
		Status:     contracts.RunStatusRunning,
		StartedAt:  startTime,
	}
	result := &RunResult{
		Run:             run,
		CompletedStages: make([]contracts.Stage, 0, 3),
	}

	log := o.logger.WithRun(config.RunID)
	log.WithFields(map[string]interface{}{
		"date":        run.AsOf.Format("2006-01-02"),
		"config_hash": config.ConfigHash,
		"workers":     o.workers,
	}).Info("Starting pipeline run")

	if err := o.repos.Runs.Start(ctx, run); err != nil {
		return result, fmt.Errorf("record run start: %w", err)
	}

	err := o.run(ctx, config, result, log)

	finished := time.Now()
	run.FinishedAt = &finished
	result.Duration = finished.Sub(startTime)
	if err != nil {
		run.Status = contracts.RunStatusFailed
		run.Error = err.Error()
		result.Error = err
	} else {
		run.Status = contracts.RunStatusSucceeded
		result.Success = true
	}

	// 취소된 ctx 로도 실행 기록은 남김
	if ferr := o.repos.Runs.Finish(context.WithoutCancel(ctx), run); ferr != nil {
		log.WithError(ferr).Error("Failed to record run finish")
		if err == nil {
			err = fmt.Errorf("record run finish: %w", ferr)
			result.Error = err
		}
	}

	if err != nil {
		log.WithError(err).Error("Pipeline run failed")
		return result, err
	}

	log.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"funds":    run.Funds,
		"indices":  run.Indices,
		"scored":   run.Scored,
	}).Info("Pipeline run completed successfully")

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, config RunConfig, result *RunResult, log *logger.Logger) error {
	// S0: Data Quality Gate
	snapshot, err := o.runS0(ctx, config, log)
	if err != nil {
		return fmt.Errorf("%s failed: %w", contracts.StageDataQuality, err)
	}
	result.QualitySnapshot = snapshot
	result.CompletedStages = append(result.CompletedStages, contracts.StageDataQuality)

	// S1: Returns
	funds, err := o.repos.Funds.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("%s failed: get active funds: %w", contracts.StageReturns, err)
	}
	if err := o.runS1(ctx, config, funds, result, log); err != nil {
		return fmt.Errorf("%s failed: %w", contracts.StageReturns, err)
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StageReturns)

	// S2: Scoring
	if err := o.runS2(ctx, config, funds, result, log); err != nil {
		return fmt.Errorf("%s failed: %w", contracts.StageScoring, err)
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StageScoring)

	if o.cache != nil {
		n, err := o.cache.Flush(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to flush API cache")
		} else {
			log.WithField("keys", n).Debug("API cache flushed")
		}
	}
	return nil
}

// runS0 executes S0: Data Quality Gate.
// A failing gate is reported, not fatal: compute proceeds on whatever data exists.
func (o *Orchestrator) runS0(ctx context.Context, config RunConfig, log *logger.Logger) (*contracts.DataQualitySnapshot, error) {
	log.Info("Running S0: Data Quality Gate")

	snapshot, err := o.qualityGate.Check(ctx, config.Date)
	if err != nil {
		return nil, fmt.Errorf("quality gate validation: %w", err)
	}

	if o.repos.Quality != nil {
		if err := o.repos.Quality.SaveSnapshot(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("save quality snapshot: %w", err)
		}
	}

	fields := map[string]interface{}{
		"quality_score": snapshot.QualityScore,
		"fresh_funds":   snapshot.FreshFunds,
		"total_funds":   snapshot.TotalFunds,
		"stale_funds":   len(snapshot.StaleFunds),
		"passed":        snapshot.Passed,
	}
	if !snapshot.IsValid() {
		log.WithFields(fields).Warn("S0 quality gate below threshold, continuing")
	} else {
		log.WithFields(fields).Info("S0 completed")
	}

	return snapshot, nil
}

// runS1 executes S1: index and fund returns in parallel, then category averages
func (o *Orchestrator) runS1(ctx context.Context, config RunConfig, funds []*contracts.Fund, result *RunResult, log *logger.Logger) error {
	log.Info("Running S1: Returns")

	indices, err := o.repos.Indices.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("get indices: %w", err)
	}

	indexSeries := make([]seriesRef, 0, len(indices))
	for _, idx := range indices {
		indexSeries = append(indexSeries, seriesRef{ID: idx.ID})
	}
	fundSeries := make([]seriesRef, 0, len(funds))
	for _, f := range funds {
		fundSeries = append(fundSeries, seriesRef{ID: f.ID, Inception: f.InceptionDate})
	}

	var (
		wg                sync.WaitGroup
		indexRet, fundRet map[string]contracts.TrailingReturns
		indexErr, fundErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		indexRet, indexErr = o.computeAll(ctx, indexSeries, o.repos.IndexHistory, log)
	}()
	go func() {
		defer wg.Done()
		fundRet, fundErr = o.computeAll(ctx, fundSeries, o.repos.FundNAVs, log)
	}()
	wg.Wait()

	if indexErr != nil {
		return fmt.Errorf("index returns: %w", indexErr)
	}
	if fundErr != nil {
		return fmt.Errorf("fund returns: %w", fundErr)
	}

	members := make([]s1_returns.CategoryMember, 0, len(funds))
	for _, f := range funds {
		members = append(members, s1_returns.CategoryMember{SubCategory: f.SubCategory, Returns: fundRet[f.ID]})
	}
	averages := s1_returns.CategoryAverages(members)

	if err := o.repos.Metrics.SaveIndexReturns(ctx, config.RunID, indexRet); err != nil {
		return fmt.Errorf("save index returns: %w", err)
	}
	if err := o.repos.Metrics.SaveFundReturns(ctx, config.RunID, fundRet); err != nil {
		return fmt.Errorf("save fund returns: %w", err)
	}
	if err := o.repos.Metrics.SaveCategoryAverages(ctx, config.RunID, averages); err != nil {
		return fmt.Errorf("save category averages: %w", err)
	}

	result.IndexReturns = indexRet
	result.FundReturns = fundRet
	result.Averages = averages
	result.Run.Indices = len(indexRet)
	result.Run.Funds = len(fundRet)

	log.WithFields(map[string]interface{}{
		"indices":    len(indexRet),
		"funds":      len(fundRet),
		"categories": len(averages),
	}).Info("S1 completed")

	return nil
}

// runS2 executes S2: Scoring
func (o *Orchestrator) runS2(ctx context.Context, config RunConfig, funds []*contracts.Fund, result *RunResult, log *logger.Logger) error {
	log.Info("Running S2: Scoring")

	inputs := make([]contracts.ScoringInput, 0, len(funds))
	for _, f := range funds {
		inputs = append(inputs, contracts.NewScoringInput(f, result.FundReturns[f.ID]))
	}

	scores, err := o.scorer.Score(ctx, inputs, result.IndexReturns)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	if err := o.repos.Metrics.SaveScores(ctx, config.RunID, scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}

	scored := 0
	for i := range scores {
		if scores[i].IsScored() {
			scored++
		}
	}
	result.Scores = scores
	result.Run.Scored = scored

	log.WithFields(map[string]interface{}{
		"funds":  len(scores),
		"scored": scored,
	}).Info("S2 completed")

	return nil
}
