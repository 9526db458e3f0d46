package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/sip"
	"github.com/wonny/mfatlas/pkg/logger"
)

// Cache is the read-through cache used for GET responses
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error
}

// QualityReader returns the latest S0 quality snapshot
type QualityReader interface {
	GetLatest(ctx context.Context) (*contracts.DataQualitySnapshot, error)
}

// SIPRunner simulates a SIP on a stored fund
type SIPRunner interface {
	Run(ctx context.Context, req sip.Request) (*sip.Summary, error)
}

// Repositories bundles the read-side storage
type Repositories struct {
	Funds        contracts.FundRepository
	FundNAVs     contracts.NAVRepository
	Indices      contracts.IndexRepository
	IndexHistory contracts.NAVRepository
	Metrics      contracts.MetricsRepository
	Runs         contracts.RunRepository
	Quality      QualityReader
}

// Handler serves the read API and SIP simulations
// ⭐ SSOT: API 핸들러는 이 구조체에서만
type Handler struct {
	repos  Repositories
	sip    SIPRunner
	cache  Cache
	logger *logger.Logger
}

// NewHandler creates the API handler
func NewHandler(repos Repositories, sipRunner SIPRunner, cache Cache, log *logger.Logger) *Handler {
	return &Handler{
		repos:  repos,
		sip:    sipRunner,
		cache:  cache,
		logger: log.WithField("module", "api"),
	}
}

const dateLayout = "2006-01-02"

// farFuture closes an open-ended range
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// parseDate parses an optional YYYY-MM-DD query value
func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, v)
}

// optional turns ErrNotFound into a nil result
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// respondStoreError maps storage and validation errors to HTTP status codes
func (h *Handler) respondStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, contracts.ErrInvalidDateRange),
		errors.Is(err, contracts.ErrInvalidAmount),
		errors.Is(err, contracts.ErrInvalidStepUp):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrEmptyHistory),
		errors.Is(err, contracts.ErrIncalculable):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.WithError(err).Error("Failed to load " + what)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve "+what)
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
