package s2_scoring

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/logger"
)

// Engine scores a batch of funds against their category benchmarks.
// Implements contracts.Scorer.
// ⭐ SSOT: 펀드 스코어링은 여기서만
type Engine struct {
	benchmarkMap map[string]string // sub-category -> benchmark id
	policy       Policy
	workers      int
	logger       *logger.Logger
}

// NewEngine creates a scoring engine.
// workers <= 0 uses one worker per CPU.
func NewEngine(benchmarkMap map[string]string, policy Policy, workers int, log *logger.Logger) *Engine {
	m := make(map[string]string, len(benchmarkMap))
	for k, v := range benchmarkMap {
		m[k] = v
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		benchmarkMap: m,
		policy:       policy,
		workers:      workers,
		logger:       log.WithField("module", "s2_scoring"),
	}
}

// BenchmarkFor returns the benchmark id of an equity sub-category
func (e *Engine) BenchmarkFor(subCategory string) (string, bool) {
	id, ok := e.benchmarkMap[subCategory]
	return id, ok
}

// Score computes one record per input fund, in input order.
// benchmarks maps benchmark id to its trailing returns.
//
// Stage 2 starts only after stage 1 has finished for the whole batch,
// because group bounds are aggregated over every fund in the group.
func (e *Engine) Score(ctx context.Context, funds []contracts.ScoringInput, benchmarks map[string]contracts.TrailingReturns) ([]contracts.ScoreRecord, error) {
	e.logger.WithFields(map[string]interface{}{
		"funds":      len(funds),
		"benchmarks": len(benchmarks),
		"workers":    e.workers,
	}).Info("Starting scoring")

	// Stage 1: alpha 수집
	observations := make([]alphaObservation, len(funds))
	if err := e.fanOut(ctx, len(funds), func(i int) {
		observations[i] = e.observe(funds[i], benchmarks)
	}); err != nil {
		return nil, err
	}

	// barrier: fanOut은 모든 worker 종료 후 반환
	bounds := buildBounds(observations)
	reputations := e.policy.reputations(funds)

	// Stage 2: 정규화 및 합산
	records := make([]contracts.ScoreRecord, len(funds))
	if err := e.fanOut(ctx, len(funds), func(i int) {
		records[i] = e.score(funds[i], observations[i], bounds, reputations)
	}); err != nil {
		return nil, err
	}

	e.logSummary(observations)
	return records, nil
}

// observe resolves the benchmark of one fund and computes its raw alphas
func (e *Engine) observe(f contracts.ScoringInput, benchmarks map[string]contracts.TrailingReturns) alphaObservation {
	if f.AssetClass != contracts.AssetClassEquity {
		return alphaObservation{status: contracts.ScoreStatusNotApplicable}
	}

	id, ok := e.benchmarkMap[f.SubCategory]
	if !ok {
		return alphaObservation{status: contracts.ScoreStatusNotApplicable}
	}

	bench, ok := benchmarks[id]
	if !ok {
		return alphaObservation{status: contracts.ScoreStatusMissingBenchmark, benchmarkID: id}
	}

	obs := alphaObservation{status: contracts.ScoreStatusScored, benchmarkID: id}
	for h, w := range horizonWindows {
		fv, bv := f.Returns.Get(w), bench.Get(w)
		if fv == nil || bv == nil {
			continue
		}
		alpha := *fv - *bv
		obs.alphas[h] = &alpha
	}
	return obs
}

// score builds the final record from a stage 1 observation
func (e *Engine) score(f contracts.ScoringInput, obs alphaObservation, bounds groupBounds, reputations map[string]float64) contracts.ScoreRecord {
	record := contracts.ScoreRecord{
		FundID:      f.FundID,
		BenchmarkID: obs.benchmarkID,
		Status:      obs.status,
	}
	if obs.status != contracts.ScoreStatusScored {
		return record
	}

	p := e.policy
	groupBound := bounds[obs.benchmarkID]

	var normalized [horizonCount]*float64
	for h := range normalized {
		normalized[h] = p.normalize(obs.alphas[h], groupBound[h])
	}

	perf := p.performanceScore(normalized)
	rating := p.ratingScore(f.Rating)
	size := p.sizeScore(f.AUMCrore)
	reputation := p.reputationScore(reputations, f.AMC)

	record.PerformanceScore = round(perf)
	record.RatingScore = round(rating)
	record.AUMScore = round(size)
	record.ReputationScore = round(reputation)
	record.Alpha1Y = roundPtr(obs.alphas[horizon1Y])
	record.Alpha3Y = roundPtr(obs.alphas[horizon3Y])
	record.Alpha5Y = roundPtr(obs.alphas[horizon5Y])
	record.CompositeScore = round(p.composite(perf, rating, size, reputation))
	return record
}

// fanOut runs fn(0..n-1) on the worker pool and waits for all of them.
// Each call writes only to its own index.
func (e *Engine) fanOut(ctx context.Context, n int, fn func(i int)) error {
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	workers := e.workers
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

func (e *Engine) logSummary(observations []alphaObservation) {
	counts := make(map[contracts.ScoreStatus]int)
	missing := make(map[string]struct{})
	for _, obs := range observations {
		counts[obs.status]++
		if obs.status == contracts.ScoreStatusMissingBenchmark {
			missing[obs.benchmarkID] = struct{}{}
		}
	}

	if len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		e.logger.WithField("benchmarks", ids).Warn("Benchmark returns missing, funds left unscored")
	}

	e.logger.WithFields(map[string]interface{}{
		"scored":            counts[contracts.ScoreStatusScored],
		"not_applicable":    counts[contracts.ScoreStatusNotApplicable],
		"missing_benchmark": counts[contracts.ScoreStatusMissingBenchmark],
	}).Info("Scoring completed")
}

func round(v float64) *float64 {
	return contracts.Float(contracts.Round(v, contracts.PercentPlaces))
}

func roundPtr(v *float64) *float64 {
	return contracts.RoundPtr(v, contracts.PercentPlaces)
}
