// Package memstore keeps funds, series and metrics in memory.
// It satisfies the contracts repository interfaces for tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
)

// Store is an in-memory repository set
// ⭐ SSOT: 인메모리 저장소는 이 구조체에서만
type Store struct {
	mu sync.RWMutex

	funds    map[string]*contracts.Fund
	indices  map[string]*contracts.Index
	navs     map[string]map[time.Time]float64
	closes   map[string]map[time.Time]float64
	fundRet  map[string]contracts.TrailingReturns
	indexRet map[string]contracts.TrailingReturns
	scores   map[string]contracts.ScoreRecord
	averages []contracts.CategoryAverage
	runs     []*contracts.PipelineRun
}

// New creates an empty store
func New() *Store {
	return &Store{
		funds:    make(map[string]*contracts.Fund),
		indices:  make(map[string]*contracts.Index),
		navs:     make(map[string]map[time.Time]float64),
		closes:   make(map[string]map[time.Time]float64),
		fundRet:  make(map[string]contracts.TrailingReturns),
		indexRet: make(map[string]contracts.TrailingReturns),
		scores:   make(map[string]contracts.ScoreRecord),
	}
}

// Funds returns the fund repository view
func (s *Store) Funds() contracts.FundRepository { return fundRepo{s} }

// FundNAVs returns the fund NAV series view
func (s *Store) FundNAVs() contracts.NAVRepository { return seriesRepo{s: s, byID: s.navs} }

// Indices returns the index repository view
func (s *Store) Indices() contracts.IndexRepository { return indexRepo{s} }

// IndexHistory returns the index close series view
func (s *Store) IndexHistory() contracts.NAVRepository { return seriesRepo{s: s, byID: s.closes} }

// Metrics returns the metrics repository view
func (s *Store) Metrics() contracts.MetricsRepository { return metricsRepo{s} }

// Runs returns the pipeline run repository view
func (s *Store) Runs() contracts.RunRepository { return runRepo{s} }

// ----- funds -----

type fundRepo struct{ s *Store }

func (r fundRepo) GetByID(_ context.Context, id string) (*contracts.Fund, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.funds[id]
	if !ok {
		return nil, fmt.Errorf("fund %s: %w", id, contracts.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r fundRepo) GetActive(_ context.Context) ([]*contracts.Fund, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*contracts.Fund
	for _, f := range r.s.funds {
		if f.Active {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubCategory != out[j].SubCategory {
			return out[i].SubCategory < out[j].SubCategory
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r fundRepo) Save(_ context.Context, f *contracts.Fund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *f
	r.s.funds[f.ID] = &cp
	return nil
}

func (r fundRepo) SaveBatch(ctx context.Context, funds []*contracts.Fund) error {
	for _, f := range funds {
		if err := r.Save(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate marks every active fund not in keepIDs inactive
func (r fundRepo) Deactivate(_ context.Context, keepIDs []string) (int64, error) {
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, f := range r.s.funds {
		if f.Active && !keep[id] {
			f.Active = false
			n++
		}
	}
	return n, nil
}

// ----- series -----

type seriesRepo struct {
	s    *Store
	byID map[string]map[time.Time]float64
}

func (r seriesRepo) points(id string, keep func(time.Time) bool) []contracts.HistoryPoint {
	var out []contracts.HistoryPoint
	for d, v := range r.byID[id] {
		if keep(d) {
			out = append(out, contracts.HistoryPoint{Date: d, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r seriesRepo) GetHistory(_ context.Context, id string) ([]contracts.HistoryPoint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.points(id, func(time.Time) bool { return true }), nil
}

func (r seriesRepo) GetRange(_ context.Context, id string, from, to time.Time) ([]contracts.HistoryPoint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.points(id, func(d time.Time) bool { return !d.Before(from) && !d.After(to) }), nil
}

func (r seriesRepo) GetLatest(_ context.Context, id string) (*contracts.HistoryPoint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	pts := r.points(id, func(time.Time) bool { return true })
	if len(pts) == 0 {
		return nil, fmt.Errorf("series %s: %w", id, contracts.ErrNotFound)
	}
	p := pts[len(pts)-1]
	return &p, nil
}

func (r seriesRepo) GetLatestDates(_ context.Context) (map[string]time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]time.Time)
	for id, byDate := range r.byID {
		for d := range byDate {
			if d.After(out[id]) {
				out[id] = d
			}
		}
	}
	return out, nil
}

func (r seriesRepo) SaveBatch(_ context.Context, id string, points []contracts.HistoryPoint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.byID
	if m[id] == nil {
		m[id] = make(map[time.Time]float64)
	}
	for _, p := range points {
		m[id][contracts.CalendarDate(p.Date)] = p.Value
	}
	return nil
}

// ----- indices -----

type indexRepo struct{ s *Store }

func (r indexRepo) GetAll(_ context.Context) ([]*contracts.Index, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*contracts.Index, 0, len(r.s.indices))
	for _, idx := range r.s.indices {
		cp := *idx
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r indexRepo) Save(_ context.Context, idx *contracts.Index) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *idx
	r.s.indices[idx.ID] = &cp
	return nil
}

// ----- metrics -----

// metricsRepo keeps only the latest run, like the Postgres tables
type metricsRepo struct{ s *Store }

func copyReturns(returns map[string]contracts.TrailingReturns) map[string]contracts.TrailingReturns {
	out := make(map[string]contracts.TrailingReturns, len(returns))
	for id, ret := range returns {
		out[id] = ret
	}
	return out
}

func (r metricsRepo) SaveFundReturns(_ context.Context, _ string, returns map[string]contracts.TrailingReturns) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.fundRet = copyReturns(returns)
	return nil
}

func (r metricsRepo) SaveIndexReturns(_ context.Context, _ string, returns map[string]contracts.TrailingReturns) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.indexRet = copyReturns(returns)
	return nil
}

func (r metricsRepo) SaveScores(_ context.Context, _ string, scores []contracts.ScoreRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.scores = make(map[string]contracts.ScoreRecord, len(scores))
	for _, sc := range scores {
		r.s.scores[sc.FundID] = sc
	}
	return nil
}

func (r metricsRepo) SaveCategoryAverages(_ context.Context, _ string, averages []contracts.CategoryAverage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.averages = append([]contracts.CategoryAverage(nil), averages...)
	return nil
}

func (r metricsRepo) GetFundReturns(_ context.Context, fundID string) (*contracts.TrailingReturns, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ret, ok := r.s.fundRet[fundID]
	if !ok {
		return nil, fmt.Errorf("returns for %s: %w", fundID, contracts.ErrNotFound)
	}
	return &ret, nil
}

func (r metricsRepo) GetIndexReturns(_ context.Context) (map[string]contracts.TrailingReturns, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]contracts.TrailingReturns, len(r.s.indexRet))
	for id, ret := range r.s.indexRet {
		out[id] = ret
	}
	return out, nil
}

func (r metricsRepo) GetScore(_ context.Context, fundID string) (*contracts.ScoreRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sc, ok := r.s.scores[fundID]
	if !ok {
		return nil, fmt.Errorf("score for %s: %w", fundID, contracts.ErrNotFound)
	}
	return &sc, nil
}

func (r metricsRepo) GetScores(_ context.Context) (map[string]contracts.ScoreRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]contracts.ScoreRecord, len(r.s.scores))
	for id, sc := range r.s.scores {
		out[id] = sc
	}
	return out, nil
}

func (r metricsRepo) GetCategoryAverages(_ context.Context) ([]contracts.CategoryAverage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]contracts.CategoryAverage(nil), r.s.averages...), nil
}

// ----- runs -----

type runRepo struct{ s *Store }

func (r runRepo) Start(_ context.Context, run *contracts.PipelineRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *run
	r.s.runs = append(r.s.runs, &cp)
	return nil
}

func (r runRepo) Finish(_ context.Context, run *contracts.PipelineRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.runs {
		if existing.RunID == run.RunID {
			cp := *run
			r.s.runs[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("run %s: %w", run.RunID, contracts.ErrNotFound)
}

func (r runRepo) GetLatest(_ context.Context) (*contracts.PipelineRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if len(r.s.runs) == 0 {
		return nil, fmt.Errorf("pipeline run: %w", contracts.ErrNotFound)
	}
	cp := *r.s.runs[len(r.s.runs)-1]
	return &cp, nil
}
