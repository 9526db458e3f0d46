package kuvera

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

// DefaultBaseURL is the Kuvera mutual fund API root
const DefaultBaseURL = "https://api.kuvera.in/mf/api"

// UserAgent identifies the collector to Kuvera
const UserAgent = "MF-Atlas-Scraper/1.0"

// Client handles communication with Kuvera
// ⭐ SSOT: Kuvera API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Kuvera client. An empty baseURL uses DefaultBaseURL.
// httpClient is owned by this provider (its User-Agent is overridden).
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient.WithUserAgent(UserAgent),
		logger:     log.WithField("provider", "kuvera"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchList downloads the master list and keeps the schemes that pass filter
func (c *Client) FetchList(ctx context.Context, filter Filter) ([]ListedFund, error) {
	var raw ListResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/v4/fund_schemes/list.json", &raw); err != nil {
		return nil, fmt.Errorf("fetch fund list: %w", err)
	}

	funds := filter.Apply(raw)
	c.logger.WithField("count", len(funds)).Info("Filtered Kuvera direct growth funds")
	return funds, nil
}

// FetchDetails downloads scheme details. A scheme Kuvera does not know returns (nil, nil).
func (c *Client) FetchDetails(ctx context.Context, code string) (*Details, error) {
	var raw []Details
	url := fmt.Sprintf("%s/v5/fund_schemes/%s.json", c.baseURL, code)
	if err := c.httpClient.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch details %s: %w", code, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return &raw[0], nil
}
