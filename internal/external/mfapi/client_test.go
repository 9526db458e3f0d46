package mfapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/pkg/httputil"
	"github.com/wonny/mfatlas/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(httputil.New(nil, logger.Nop()).DisableRetry(), logger.Nop(), server.URL+"/")
}

func TestFetchSchemes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf", r.URL.Path)
		w.Write([]byte(`[
			{"schemeCode":120716,"schemeName":"UTI Nifty 50 Index Fund - Growth Option- Direct","isinGrowth":"INF789F01XA0","isinDivReinvestment":null},
			{"schemeCode":"118989","schemeName":"HDFC Mid-Cap Opportunities Fund - Direct Growth","isinGrowth":"INF179K01XQ0","isinDivReinvestment":"-"}
		]`))
	})

	schemes, err := client.FetchSchemes(context.Background())
	require.NoError(t, err)
	require.Len(t, schemes, 2)

	assert.Equal(t, SchemeCode("120716"), schemes[0].SchemeCode)
	assert.Equal(t, SchemeCode("118989"), schemes[1].SchemeCode)
	assert.Equal(t, "INF789F01XA0", schemes[0].ISINGrowth)
	assert.Empty(t, schemes[0].ISINDivReinvestment)
}

func TestFetchHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mf/120716", r.URL.Path)
		w.Write([]byte(`{
			"meta":{"scheme_code":120716,"scheme_name":"UTI Nifty 50"},
			"data":[
				{"date":"26-02-2026","nav":"165.43210"},
				{"date":"25-02-2026","nav":"164.10000"},
				{"date":"bad","nav":"1.0"},
				{"date":"24-02-2026","nav":"0.00000"}
			],
			"status":"SUCCESS"
		}`))
	})

	points, err := client.FetchHistory(context.Background(), "120716")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 164.1, points[0].Value)
	assert.Equal(t, 165.4321, points[1].Value)
}

func TestFetchHistory_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchHistory(context.Background(), "999999")
	var statusErr *httputil.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestParseHistory_Duplicates(t *testing.T) {
	points, dropped := ParseHistory([]NAVEntry{
		{Date: "02-01-2024", NAV: "11"},
		{Date: "02-01-2024", NAV: "12"},
		{Date: "01-01-2024", NAV: "10"},
	})

	require.Len(t, points, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 10.0, points[0].Value)
	assert.Equal(t, 11.0, points[1].Value)
}

func TestSchemeCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    SchemeCode
		wantErr bool
	}{
		{`120716`, "120716", false},
		{`"120716"`, "120716", false},
		{`null`, "", false},
		{`{}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got SchemeCode
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
