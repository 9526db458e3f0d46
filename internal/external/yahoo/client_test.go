package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"

	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const historyPage = `<html><body>
<table>
  <thead><tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Adj Close</th><th>Volume</th></tr></thead>
  <tbody>
    <tr><td>Feb 26, 2026</td><td>23,400.00</td><td>23,500.00</td><td>23,350.00</td><td>23,448.505</td><td>23,448.50</td><td>-</td></tr>
    <tr><td>Feb 25, 2026</td><td>23,300.00</td><td>23,420.00</td><td>23,280.00</td><td>23,390.10</td><td>23,390.10</td><td>-</td></tr>
    <tr><td>Feb 24, 2026</td><td colspan="6">0.5 Dividend</td></tr>
    <tr><td>Feb 20, 2026</td><td>23,000.00</td><td>23,100.00</td><td>22,900.00</td><td>23,050.00</td><td>23,050.00</td><td>-</td></tr>
  </tbody>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc, bars barFetcher) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(httputil.New(nil, logger.Nop()).DisableRetry(), logger.Nop(), server.URL)
	c.fetchBars = bars
	return c
}

func TestFetchHistory_ChartAPI(t *testing.T) {
	bars := func(symbol, period string) ([]models.Bar, error) {
		assert.Equal(t, "^NSEI", symbol)
		return []models.Bar{
			// IST 자정 = UTC 전날 18:30
			{Date: time.Date(2026, 2, 25, 18, 30, 0, 0, time.UTC), Close: 23448.5049},
			{Date: time.Date(2026, 2, 24, 18, 30, 0, 0, time.UTC), Close: 23390.1},
			{Date: time.Date(2026, 2, 18, 18, 30, 0, 0, time.UTC), Close: 23000},
			{Date: time.Date(2026, 2, 23, 18, 30, 0, 0, time.UTC), Close: 0},
		}, nil
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("HTML fallback should not be called")
	}, bars)

	points, err := client.FetchHistory(context.Background(), "^NSEI", day(2026, 2, 20))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, day(2026, 2, 25), points[0].Date)
	assert.Equal(t, 23390.1, points[0].Value)
	assert.Equal(t, day(2026, 2, 26), points[1].Date)
	assert.Equal(t, 23448.5, points[1].Value)
}

func TestFetchHistory_HTMLFallback(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(historyPage))
	}, func(string, string) ([]models.Bar, error) {
		return nil, errors.New("chart API unavailable")
	})

	points, err := client.FetchHistory(context.Background(), "^NSEI", day(2026, 2, 21))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "/quote/^NSEI/history/", gotPath)
	assert.Equal(t, day(2026, 2, 25), points[0].Date)
	assert.Equal(t, 23390.1, points[0].Value)
	assert.Equal(t, 23448.51, points[1].Value)
}

func TestFetchHistory_FallbackFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, func(string, string) ([]models.Bar, error) {
		return nil, nil
	})

	_, err := client.FetchHistory(context.Background(), "^CRSLDX", day(2026, 2, 1))
	assert.Error(t, err)
}

func TestFetchHistory_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, func(string, string) ([]models.Bar, error) {
		t.Error("fetcher should not be called")
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchHistory(ctx, "^NSEI", day(2026, 2, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseHistoryTable_NoTable(t *testing.T) {
	_, err := parseHistoryTable("<html><body><p>consent</p></body></html>", time.Time{})
	assert.Error(t, err)
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "5d"},
		{3, "5d"},
		{10, "1mo"},
		{60, "3mo"},
		{120, "6mo"},
		{300, "1y"},
		{1000, "5y"},
		{4000, "max"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodFor(time.Duration(tt.days)*24*time.Hour), "%d days", tt.days)
	}
}
