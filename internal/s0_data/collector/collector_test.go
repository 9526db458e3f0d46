package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfatlas/internal/contracts"
	"github.com/wonny/mfatlas/internal/external/amfi"
	"github.com/wonny/mfatlas/internal/external/kuvera"
	"github.com/wonny/mfatlas/internal/external/mfapi"
	"github.com/wonny/mfatlas/internal/s0_data/memstore"
	"github.com/wonny/mfatlas/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeKuvera struct {
	list    []kuvera.ListedFund
	details map[string]*kuvera.Details
	listErr error
}

func (f *fakeKuvera) FetchList(_ context.Context, _ kuvera.Filter) ([]kuvera.ListedFund, error) {
	return f.list, f.listErr
}

func (f *fakeKuvera) FetchDetails(_ context.Context, code string) (*kuvera.Details, error) {
	d, ok := f.details[code]
	if !ok {
		return nil, errors.New("detail not found")
	}
	return d, nil
}

type fakeMFAPI struct {
	mu        sync.Mutex
	schemes   []mfapi.Scheme
	histories map[string][]contracts.HistoryPoint
	failing   map[string]bool
	calls     []string
}

func (f *fakeMFAPI) FetchSchemes(_ context.Context) ([]mfapi.Scheme, error) {
	return f.schemes, nil
}

func (f *fakeMFAPI) FetchHistory(_ context.Context, code string) ([]contracts.HistoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, code)
	if f.failing[code] {
		return nil, errors.New("upstream 502")
	}
	return f.histories[code], nil
}

type fakeAMFI struct {
	records []amfi.NAVRecord
}

func (f *fakeAMFI) FetchLatestNAVs(_ context.Context) ([]amfi.NAVRecord, error) {
	return f.records, nil
}

type fakeYahoo struct {
	mu     sync.Mutex
	points map[string][]contracts.HistoryPoint
	since  map[string]time.Time
}

func (f *fakeYahoo) FetchHistory(_ context.Context, symbol string, since time.Time) ([]contracts.HistoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.since == nil {
		f.since = make(map[string]time.Time)
	}
	f.since[symbol] = since
	pts, ok := f.points[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return pts, nil
}

func newTestCollector(store *memstore.Store, src Sources) *Collector {
	c := NewCollector(src, Repositories{
		Funds:        store.Funds(),
		FundNAVs:     store.FundNAVs(),
		Indices:      store.Indices(),
		IndexHistory: store.IndexHistory(),
	}, logger.Nop())
	c.now = func() time.Time { return time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestRefreshUniverse(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Funds().Save(ctx, &contracts.Fund{ID: "INF_OLD", Active: true}))

	kv := &fakeKuvera{
		list: []kuvera.ListedFund{
			{Code: "PP001-GR", Name: "Parag Parikh Flexi Cap Direct Growth", AssetClass: "Equity", Category: "Flexi Cap Fund", FundHouse: "PPFAS Mutual Fund", NAV: 80.5},
			{Code: "XX002-GR", Name: "New Fund Direct Growth", AssetClass: "Equity", Category: "Mid Cap Fund", FundHouse: "XX Mutual Fund", NAV: 10.2},
			{Code: "NOISIN-GR", Name: "Broken Direct Growth", AssetClass: "Equity", Category: "Mid Cap Fund", FundHouse: "YY"},
			{Code: "ERR-GR", Name: "Error Direct Growth", AssetClass: "Equity", Category: "Mid Cap Fund", FundHouse: "ZZ"},
		},
		details: map[string]*kuvera.Details{
			"PP001-GR":  {ISIN: "INF879O01027", AUM: 870000, FundRating: []byte(`5`), StartDate: "2013-05-28"},
			"XX002-GR":  {ISIN: "INF000X01011", AUM: 1200},
			"NOISIN-GR": {},
		},
	}
	mf := &fakeMFAPI{schemes: []mfapi.Scheme{
		{SchemeCode: "122639", ISINGrowth: "INF879O01027"},
	}}

	c := newTestCollector(store, Sources{Universe: kv, History: mf})
	res, err := c.RefreshUniverse(ctx, kuvera.Filter{}, Config{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Listed)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Mapped)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Seeded)
	assert.Equal(t, int64(1), res.Deactivated)

	ppfas, err := store.Funds().GetByID(ctx, "INF879O01027")
	require.NoError(t, err)
	assert.Equal(t, "122639", ppfas.SchemeCode)
	assert.Equal(t, "Flexi Cap Fund", ppfas.SubCategory)
	assert.Equal(t, "PPFAS Mutual Fund", ppfas.AMC)
	assert.Equal(t, "5", ppfas.Rating)
	assert.Equal(t, 87000.0, ppfas.AUMCrore)
	assert.Equal(t, day(2013, 5, 28), ppfas.InceptionDate)

	// 매핑 실패 펀드는 목록 NAV 한 점으로 시드
	seed, err := store.FundNAVs().GetHistory(ctx, "INF000X01011")
	require.NoError(t, err)
	require.Len(t, seed, 1)
	assert.Equal(t, day(2026, 2, 27), seed[0].Date)
	assert.Equal(t, 10.2, seed[0].Value)

	old, err := store.Funds().GetByID(ctx, "INF_OLD")
	require.NoError(t, err)
	assert.False(t, old.Active)
}

func TestRefreshUniverse_ListError(t *testing.T) {
	c := newTestCollector(memstore.New(), Sources{
		Universe: &fakeKuvera{listErr: errors.New("blocked")},
		History:  &fakeMFAPI{},
	})
	_, err := c.RefreshUniverse(context.Background(), kuvera.Filter{}, Config{})
	assert.Error(t, err)
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Funds().SaveBatch(ctx, []*contracts.Fund{
		{ID: "A", SchemeCode: "1", Active: true},
		{ID: "B", SchemeCode: "2", Active: true},
		{ID: "C", SchemeCode: "3", Active: true},
		{ID: "D", Active: true}, // scheme code 없음
		{ID: "E", SchemeCode: "5", Active: true},
	}))
	require.NoError(t, store.FundNAVs().SaveBatch(ctx, "E", []contracts.HistoryPoint{{Date: day(2026, 2, 26), Value: 20}}))

	mf := &fakeMFAPI{
		histories: map[string][]contracts.HistoryPoint{
			"1": {{Date: day(2026, 2, 25), Value: 10}, {Date: day(2026, 2, 26), Value: 11}},
			"5": {{Date: day(2026, 2, 26), Value: 20}},
		},
		failing: map[string]bool{"3": true},
	}
	c := newTestCollector(store, Sources{History: mf})

	tests := []struct {
		name        string
		onlyMissing bool
		wantTotal   int
		wantSummary Summary
	}{
		{"all funds with scheme codes", false, 4, Summary{Success: 2, Failed: 1, Skipped: 1, Points: 3}},
		{"only missing", true, 2, Summary{Failed: 1, Skipped: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := c.Backfill(ctx, Config{Workers: 2}, tt.onlyMissing)
			require.NoError(t, err)
			assert.Len(t, results, tt.wantTotal)
			assert.Equal(t, tt.wantSummary, Summarize(results))
		})
	}

	hist, err := store.FundNAVs().GetHistory(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}

func TestBackfill_CancelledContext(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Funds().Save(ctx, &contracts.Fund{ID: "A", SchemeCode: "1", Active: true}))

	mf := &fakeMFAPI{}
	c := newTestCollector(store, Sources{History: mf})

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	results, err := c.Backfill(cancelled, Config{Workers: 1}, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
	assert.Empty(t, mf.calls)
}

func TestSyncFundNAVs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Funds().SaveBatch(ctx, []*contracts.Fund{
		{ID: "INF_NEW", Active: true},                     // ISIN 매칭, scheme code 학습
		{ID: "INF_SAME", SchemeCode: "200", Active: true}, // 이미 최신
		{ID: "INF_CODE", SchemeCode: "300", Active: true}, // scheme code 매칭
		{ID: "INF_MISSING", Active: true},
	}))
	navs := store.FundNAVs()
	require.NoError(t, navs.SaveBatch(ctx, "INF_NEW", []contracts.HistoryPoint{{Date: day(2026, 2, 25), Value: 10}}))
	require.NoError(t, navs.SaveBatch(ctx, "INF_SAME", []contracts.HistoryPoint{{Date: day(2026, 2, 26), Value: 20}}))

	am := &fakeAMFI{records: []amfi.NAVRecord{
		{SchemeCode: "100", ISINGrowth: "INF_NEW", NAV: 10.5, Date: day(2026, 2, 26)},
		{SchemeCode: "200", ISINGrowth: "INF_SAME", NAV: 21, Date: day(2026, 2, 26)},
		{SchemeCode: "300", NAV: 30, Date: day(2026, 2, 26)},
	}}
	c := newTestCollector(store, Sources{Daily: am})

	res, err := c.SyncFundNAVs(ctx)
	require.NoError(t, err)
	assert.Equal(t, &DailySyncResult{Checked: 4, Appended: 2, Unchanged: 1, Missing: 1}, res)

	latest, err := navs.GetLatest(ctx, "INF_NEW")
	require.NoError(t, err)
	assert.Equal(t, day(2026, 2, 26), latest.Date)
	assert.Equal(t, 10.5, latest.Value)

	same, err := navs.GetLatest(ctx, "INF_SAME")
	require.NoError(t, err)
	assert.Equal(t, 20.0, same.Value)

	learned, err := store.Funds().GetByID(ctx, "INF_NEW")
	require.NoError(t, err)
	assert.Equal(t, "100", learned.SchemeCode)

	// 두 번째 실행은 추가 없음
	again, err := c.SyncFundNAVs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Appended)
	assert.Equal(t, 3, again.Unchanged)
}

func TestSyncIndices(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	yf := &fakeYahoo{points: map[string][]contracts.HistoryPoint{
		"^NSEI": {
			{Date: day(2026, 2, 24), Value: 22000},
			{Date: day(2026, 2, 25), Value: 22100},
			{Date: day(2026, 2, 26), Value: 22250.5},
			{Date: day(2026, 2, 27), Value: 22300},
		},
	}}
	c := newTestCollector(store, Sources{Index: yf})

	require.NoError(t, c.SyncCatalogue(ctx, []*contracts.Index{
		{ID: "nifty-50", YahooSymbol: "^NSEI", SubCategories: []string{"Large Cap Fund"}},
		{ID: "nifty-500", YahooSymbol: "^CRSLDX"}, // 시드 없음
		{ID: "custom"},                            // 심볼 없음
	}))
	require.NoError(t, store.IndexHistory().SaveBatch(ctx, "nifty-50", []contracts.HistoryPoint{
		{Date: day(2026, 2, 24), Value: 22000},
		{Date: day(2026, 2, 25), Value: 22100},
	}))

	results, err := c.SyncIndices(ctx, Config{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, Summary{Success: 1, Skipped: 2, Points: 2}, Summarize(results))
	assert.Equal(t, day(2026, 2, 22), yf.since["^NSEI"])

	hist, err := store.IndexHistory().GetHistory(ctx, "nifty-50")
	require.NoError(t, err)
	require.Len(t, hist, 4)
	assert.Equal(t, 22300.0, hist[3].Value)
}

// brokenHistory fails every latest-close lookup
type brokenHistory struct {
	contracts.NAVRepository
}

func (brokenHistory) GetLatest(context.Context, string) (*contracts.HistoryPoint, error) {
	return nil, errors.New("connection reset")
}

func TestSyncIndices_StorageError(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	yf := &fakeYahoo{points: map[string][]contracts.HistoryPoint{}}
	c := NewCollector(Sources{Index: yf}, Repositories{
		Funds:        store.Funds(),
		FundNAVs:     store.FundNAVs(),
		Indices:      store.Indices(),
		IndexHistory: brokenHistory{store.IndexHistory()},
	}, logger.Nop())

	require.NoError(t, c.SyncCatalogue(ctx, []*contracts.Index{
		{ID: "nifty-50", YahooSymbol: "^NSEI"},
	}))

	results, err := c.SyncIndices(ctx, Config{Workers: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Skipped)
	assert.ErrorContains(t, results[0].Error, "connection reset")
	assert.Equal(t, 1, Summarize(results).Failed)
	assert.Empty(t, yf.since)
}

func TestSeedIndex(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c := newTestCollector(store, Sources{})
	require.NoError(t, c.SyncCatalogue(ctx, []*contracts.Index{{ID: "nifty-50"}}))

	points := []contracts.HistoryPoint{
		{Date: day(2021, 1, 1), Value: 14018.5},
		{Date: day(2021, 1, 4), Value: 14132.9},
	}

	tests := []struct {
		name    string
		id      string
		points  []contracts.HistoryPoint
		wantErr error
		want    int
	}{
		{"known index", "nifty-50", points, nil, 2},
		{"unknown index", "nifty-bank", points, contracts.ErrNotFound, 0},
		{"empty history", "nifty-50", nil, contracts.ErrEmptyHistory, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := c.SeedIndex(ctx, tt.id, tt.points)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}
