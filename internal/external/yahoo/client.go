package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

// DefaultBaseURL is the Yahoo Finance site used by the HTML fallback
const DefaultBaseURL = "https://finance.yahoo.com"

// IST is the exchange timezone; daily bars are stamped at local midnight
var IST = time.FixedZone("IST", 5*60*60+30*60)

// barFetcher loads daily bars for a symbol over a Yahoo period ("5d", "1mo", ...)
type barFetcher func(symbol, period string) ([]models.Bar, error)

// Client fetches daily index closes from Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	fetchBars  barFetcher
}

// NewClient creates a new Yahoo client. An empty baseURL uses DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		fetchBars:  yfinanceBars,
	}
}

func yfinanceBars(symbol, period string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return bars, nil
}

// FetchHistory returns daily closes on or after since, oldest first.
// The chart API is tried first; the HTML history table is the fallback.
func (c *Client) FetchHistory(ctx context.Context, symbol string, since time.Time) ([]contracts.HistoryPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	since = contracts.CalendarDate(since)
	period := PeriodFor(time.Since(since))

	log := c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"period": period,
	})

	bars, err := c.fetchBars(symbol, period)
	if err == nil && len(bars) > 0 {
		points := barsToPoints(bars, since)
		log.WithField("count", len(points)).Debug("Fetched index bars")
		return points, nil
	}
	if err != nil {
		log.WithError(err).Warn("Chart API failed, falling back to HTML history")
	}

	points, err := c.fetchHTML(ctx, symbol, since)
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(points)).Debug("Fetched index history table")
	return points, nil
}

// PeriodFor picks the smallest Yahoo period covering a look-back span
func PeriodFor(span time.Duration) string {
	days := int(span.Hours() / 24)
	switch {
	case days <= 5:
		return "5d"
	case days <= 28:
		return "1mo"
	case days <= 89:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 5*365:
		return "5y"
	default:
		return "max"
	}
}

// barsToPoints keeps bars dated on or after since, with closes capped to 2 decimals
func barsToPoints(bars []models.Bar, since time.Time) []contracts.HistoryPoint {
	byDate := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		y, m, d := b.Date.In(IST).Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if date.Before(since) {
			continue
		}
		byDate[date] = contracts.Round(b.Close, contracts.PercentPlaces)
	}
	return sortedPoints(byDate)
}

func sortedPoints(byDate map[time.Time]float64) []contracts.HistoryPoint {
	points := make([]contracts.HistoryPoint, 0, len(byDate))
	for d, v := range byDate {
		points = append(points, contracts.HistoryPoint{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func (c *Client) fetchHTML(ctx context.Context, symbol string, since time.Time) ([]contracts.HistoryPoint, error) {
	fullURL := fmt.Sprintf("%s/quote/%s/history/", c.baseURL, url.PathEscape(symbol))

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch history page %s: %w", symbol, err)
	}

	points, err := parseHistoryTable(string(body), since)
	if err != nil {
		return nil, fmt.Errorf("parse history page %s: %w", symbol, err)
	}
	return points, nil
}
