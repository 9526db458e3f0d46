package handlers

import (
	"net/http"
)

// GetLatestQuality returns the latest data quality snapshot
// GET /api/quality/latest
func (h *Handler) GetLatestQuality(w http.ResponseWriter, r *http.Request) {
	if h.repos.Quality == nil {
		respondError(w, http.StatusNotFound, "quality snapshot not found")
		return
	}

	snapshot, err := h.repos.Quality.GetLatest(r.Context())
	if err != nil {
		h.respondStoreError(w, err, "quality snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetLatestRun returns the most recent compute pipeline run
// GET /api/runs/latest
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.repos.Runs.GetLatest(r.Context())
	if err != nil {
		h.respondStoreError(w, err, "pipeline run")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":         run,
		"duration_ms": run.Duration().Milliseconds(),
	})
}
