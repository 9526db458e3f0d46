package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

// DefaultBaseURL is the public MFAPI endpoint
const DefaultBaseURL = "https://api.mfapi.in"

// DateLayout is the NAV date format returned by MFAPI (DD-MM-YYYY)
const DateLayout = "02-01-2006"

// Client handles communication with mfapi.in
// ⭐ SSOT: MFAPI 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new MFAPI client. An empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "mfapi"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Scheme is one entry of the master scheme list
type Scheme struct {
	SchemeCode          SchemeCode `json:"schemeCode"`
	SchemeName          string     `json:"schemeName"`
	ISINGrowth          string     `json:"isinGrowth"`
	ISINDivReinvestment string     `json:"isinDivReinvestment"`
}

// SchemeCode accepts both numeric and string codes
type SchemeCode string

// UnmarshalJSON decodes 120716 or "120716"
func (s *SchemeCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = SchemeCode(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid scheme code %s: %w", data, err)
	}
	*s = SchemeCode(n.String())
	return nil
}

// NAVEntry is one raw history row
type NAVEntry struct {
	Date string `json:"date"` // DD-MM-YYYY
	NAV  string `json:"nav"`
}

type historyResponse struct {
	Meta struct {
		SchemeCode SchemeCode `json:"scheme_code"`
		SchemeName string     `json:"scheme_name"`
	} `json:"meta"`
	Data   []NAVEntry `json:"data"`
	Status string     `json:"status"`
}

// FetchSchemes downloads the master scheme list
func (c *Client) FetchSchemes(ctx context.Context) ([]Scheme, error) {
	var schemes []Scheme
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/mf", &schemes); err != nil {
		return nil, fmt.Errorf("fetch scheme list: %w", err)
	}

	c.logger.WithField("count", len(schemes)).Info("Fetched MFAPI scheme list")
	return schemes, nil
}

// FetchHistory downloads the full NAV history of one scheme, oldest first.
// Rows with an unparsable date or a non-positive NAV are dropped.
func (c *Client) FetchHistory(ctx context.Context, schemeCode string) ([]contracts.HistoryPoint, error) {
	var resp historyResponse
	url := fmt.Sprintf("%s/mf/%s", c.baseURL, schemeCode)
	if err := c.httpClient.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", schemeCode, err)
	}

	points, dropped := ParseHistory(resp.Data)
	if dropped > 0 {
		c.logger.WithFields(map[string]interface{}{
			"scheme_code": schemeCode,
			"dropped":     dropped,
		}).Warn("Dropped malformed NAV rows")
	}

	c.logger.WithFields(map[string]interface{}{
		"scheme_code": schemeCode,
		"count":       len(points),
	}).Debug("Fetched NAV history")
	return points, nil
}

// ParseHistory converts raw rows to history points sorted oldest first.
// Duplicate dates keep the first occurrence.
func ParseHistory(entries []NAVEntry) ([]contracts.HistoryPoint, int) {
	points := make([]contracts.HistoryPoint, 0, len(entries))
	seen := make(map[time.Time]bool, len(entries))
	dropped := 0

	for _, e := range entries {
		date, err := time.Parse(DateLayout, strings.TrimSpace(e.Date))
		if err != nil {
			dropped++
			continue
		}
		nav, err := strconv.ParseFloat(strings.TrimSpace(e.NAV), 64)
		if err != nil || nav <= 0 {
			dropped++
			continue
		}
		if seen[date] {
			dropped++
			continue
		}
		seen[date] = true
		points = append(points, contracts.HistoryPoint{Date: date, Value: nav})
	}

	// MFAPI는 최신순으로 반환
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, dropped
}
