package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/redis"
)

// IndexItem is a benchmark with its latest close and returns
type IndexItem struct {
	*contracts.Index
	Latest  *contracts.HistoryPoint    `json:"latest"`
	Returns *contracts.TrailingReturns `json:"returns"`
}

// ListIndices returns the benchmark catalogue
// GET /api/indices
func (h *Handler) ListIndices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var items []IndexItem
	err := h.cache.GetOrSet(ctx, redis.IndexListKey(), &items, redis.TTLMedium, func() (interface{}, error) {
		return h.listIndices(ctx)
	})
	if err != nil {
		h.respondStoreError(w, err, "indices")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"indices": items,
	})
}

func (h *Handler) listIndices(ctx context.Context) ([]IndexItem, error) {
	indices, err := h.repos.Indices.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	returns, err := h.repos.Metrics.GetIndexReturns(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]IndexItem, 0, len(indices))
	for _, idx := range indices {
		latest, err := optional(h.repos.IndexHistory.GetLatest(ctx, idx.ID))
		if err != nil {
			return nil, err
		}
		item := IndexItem{Index: idx, Latest: latest}
		if ret, ok := returns[idx.ID]; ok {
			item.Returns = &ret
		}
		items = append(items, item)
	}
	return items, nil
}

// GetCategoryAverages returns the per sub-category average returns
// GET /api/categories/averages
func (h *Handler) GetCategoryAverages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var averages []contracts.CategoryAverage
	err := h.cache.GetOrSet(ctx, redis.CategoryAveragesKey(), &averages, redis.TTLMedium, func() (interface{}, error) {
		avg, err := h.repos.Metrics.GetCategoryAverages(ctx)
		if avg == nil {
			avg = []contracts.CategoryAverage{}
		}
		return avg, err
	})
	if err != nil {
		h.respondStoreError(w, err, "category averages")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(averages),
		"categories": averages,
	})
}
