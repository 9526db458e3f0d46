package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/redis"
)

// FundListItem is one row of the fund list
type FundListItem struct {
	*contracts.Fund
	CompositeScore *float64 `json:"composite_score"`
	ScoreStatus    string   `json:"score_status,omitempty"`
}

// FundDetail is a fund with its latest returns and score
type FundDetail struct {
	Fund    *contracts.Fund            `json:"fund"`
	Returns *contracts.TrailingReturns `json:"returns"`
	Score   *contracts.ScoreRecord     `json:"score"`
}

// NAVResponse is a NAV history window
type NAVResponse struct {
	FundID string                   `json:"fund_id"`
	From   string                   `json:"from,omitempty"`
	To     string                   `json:"to,omitempty"`
	Points []contracts.HistoryPoint `json:"points"`
}

// ListFunds returns active funds, optionally filtered by sub-category
// GET /api/funds?category=Large%20Cap%20Fund
func (h *Handler) ListFunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.URL.Query().Get("category")

	var items []FundListItem
	err := h.cache.GetOrSet(ctx, redis.FundListKey(strings.ToLower(category)), &items, redis.TTLMedium, func() (interface{}, error) {
		return h.listFunds(ctx, category)
	})
	if err != nil {
		h.respondStoreError(w, err, "funds")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"funds": items,
	})
}

func (h *Handler) listFunds(ctx context.Context, category string) ([]FundListItem, error) {
	funds, err := h.repos.Funds.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	scores, err := h.repos.Metrics.GetScores(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]FundListItem, 0, len(funds))
	for _, f := range funds {
		if category != "" && !strings.EqualFold(f.SubCategory, category) {
			continue
		}
		item := FundListItem{Fund: f}
		if score, ok := scores[f.ID]; ok {
			item.CompositeScore = score.CompositeScore
			item.ScoreStatus = string(score.Status)
		}
		items = append(items, item)
	}

	// 점수 내림차순, 점수 없는 펀드는 뒤로
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CompositeScore, items[j].CompositeScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return items, nil
}

// GetFund returns one fund with its returns and score
// GET /api/funds/{id}
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var detail FundDetail
	err := h.cache.GetOrSet(ctx, redis.FundDetailKey(id), &detail, redis.TTLLong, func() (interface{}, error) {
		fund, err := h.repos.Funds.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		returns, err := optional(h.repos.Metrics.GetFundReturns(ctx, id))
		if err != nil {
			return nil, err
		}
		score, err := optional(h.repos.Metrics.GetScore(ctx, id))
		if err != nil {
			return nil, err
		}
		return FundDetail{Fund: fund, Returns: returns, Score: score}, nil
	})
	if err != nil {
		h.respondStoreError(w, err, "fund")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// GetFundNAV returns the NAV history, optionally limited to [from, to]
// GET /api/funds/{id}/nav?from=2024-01-01&to=2024-12-31
func (h *Handler) GetFundNAV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		respondError(w, http.StatusBadRequest, contracts.ErrInvalidDateRange.Error())
		return
	}

	var resp NAVResponse
	err = h.cache.GetOrSet(ctx, redis.NAVKey(id, q.Get("from"), q.Get("to")), &resp, redis.TTLDaily, func() (interface{}, error) {
		if _, err := h.repos.Funds.GetByID(ctx, id); err != nil {
			return nil, err
		}

		var points []contracts.HistoryPoint
		var err error
		if from.IsZero() && to.IsZero() {
			points, err = h.repos.FundNAVs.GetHistory(ctx, id)
		} else {
			if to.IsZero() {
				to = farFuture
			}
			points, err = h.repos.FundNAVs.GetRange(ctx, id, from, to)
		}
		if err != nil {
			return nil, err
		}
		if points == nil {
			points = []contracts.HistoryPoint{}
		}
		return NAVResponse{FundID: id, From: q.Get("from"), To: q.Get("to"), Points: points}, nil
	})
	if err != nil {
		h.respondStoreError(w, err, "fund")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
