package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/mfatlas/internal/sip"
)

// SIPRequest is the POST /api/sip body
type SIPRequest struct {
	FundID        string   `json:"fund_id"`
	StartDate     string   `json:"start_date"`         // YYYY-MM-DD
	EndDate       string   `json:"end_date,omitempty"` // empty → 최신 NAV 일자
	MonthlyAmount float64  `json:"monthly_amount,omitempty"`
	StepUpPercent *float64 `json:"step_up_percent,omitempty"`
	StepUpMonth   int      `json:"step_up_month,omitempty"`
}

// SimulateSIP runs a SIP simulation on a stored fund
// POST /api/sip
func (h *Handler) SimulateSIP(w http.ResponseWriter, r *http.Request) {
	var req SIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FundID == "" {
		respondError(w, http.StatusBadRequest, "fund_id is required")
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil || start.IsZero() {
		respondError(w, http.StatusBadRequest, "Invalid 'start_date' (expected YYYY-MM-DD)")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'end_date' (expected YYYY-MM-DD)")
		return
	}

	summary, err := h.sip.Run(r.Context(), sip.Request{
		FundID:        req.FundID,
		StartDate:     start,
		EndDate:       end,
		MonthlyAmount: req.MonthlyAmount,
		StepUpPercent: req.StepUpPercent,
		StepUpMonth:   req.StepUpMonth,
	})
	if err != nil {
		h.respondStoreError(w, err, "fund")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
