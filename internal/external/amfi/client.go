package amfi

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

// DefaultNAVURL is the daily NAV file for every open scheme
const DefaultNAVURL = "https://portal.amfiindia.com/spages/NAVAll.txt"

// Client downloads the AMFI daily NAV file
// ⭐ SSOT: AMFI NAVAll.txt 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	navURL     string
}

// NewClient creates a new AMFI client. An empty navURL uses DefaultNAVURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, navURL string) *Client {
	if navURL == "" {
		navURL = DefaultNAVURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "amfi"),
		navURL:     navURL,
	}
}

// FetchLatestNAVs downloads and parses NAVAll.txt
func (c *Client) FetchLatestNAVs(ctx context.Context) ([]NAVRecord, error) {
	body, err := c.httpClient.GetBody(ctx, c.navURL)
	if err != nil {
		return nil, fmt.Errorf("fetch NAVAll: %w", err)
	}

	records, skipped, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse NAVAll: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"records": len(records),
		"skipped": skipped,
	}).Info("Parsed AMFI NAV records")

	return records, nil
}
