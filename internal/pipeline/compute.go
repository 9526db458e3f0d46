package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/logger"
)

// seriesRef identifies one fund or index series
type seriesRef struct {
	ID        string
	Inception time.Time // zero for indices
}

type computeResult struct {
	id      string
	returns contracts.TrailingReturns
	err     error // 인프라 오류만 (조회 실패)
}

// computeAll computes trailing returns for every series with a worker pool.
// A series that fails validation degrades to all-null returns; a failed
// read aborts the batch.
func (o *Orchestrator) computeAll(ctx context.Context, refs []seriesRef, navs contracts.NAVRepository, log *logger.Logger) (map[string]contracts.TrailingReturns, error) {
	resultCh := make(chan computeResult, len(refs))
	refCh := make(chan seriesRef, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range refCh {
				select {
				case <-ctx.Done():
					resultCh <- computeResult{id: ref.ID, err: ctx.Err()}
					continue
				default:
				}
				resultCh <- o.computeOne(ctx, ref, navs, log)
			}
		}()
	}

	for _, ref := range refs {
		refCh <- ref
	}
	close(refCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make(map[string]contracts.TrailingReturns, len(refs))
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("series %s: %w", r.id, r.err)
			}
			continue
		}
		out[r.id] = r.returns
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (o *Orchestrator) computeOne(ctx context.Context, ref seriesRef, navs contracts.NAVRepository, log *logger.Logger) computeResult {
	points, err := navs.GetHistory(ctx, ref.ID)
	if err != nil {
		return computeResult{id: ref.ID, err: err}
	}

	returns, err := o.calculator.Compute(points, ref.Inception)
	if err != nil {
		log.WithError(err).WithField("series_id", ref.ID).Warn("Invalid history, returns left empty")
		return computeResult{id: ref.ID}
	}
	return computeResult{id: ref.ID, returns: returns}
}
