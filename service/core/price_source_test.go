package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dm "capm/data/models"
	c "capm/service/api"
	av "capm/service/api/alpha_vantage"
	"capm/service/api/fred"
)

func fixtureClient(t *testing.T, fixture string) *c.Client {
	t.Helper()

	body, err := os.ReadFile(fixture)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	client, err := c.TestClientFactory(server.URL, "test-key")
	require.NoError(t, err)
	return client
}

func march(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestStockPriceSource_DailyCloses(t *testing.T) {
	client := fixtureClient(t, "../api/alpha_vantage/testdata/daily_adjusted.json")

	t.Run("close skips blank prints", func(t *testing.T) {
		source := StockPriceSource{Client: av.NewClient(client)}

		prices, err := source.DailyCloses(context.Background(), "IBM", march(1), march(8))
		require.NoError(t, err)

		assert.Len(t, prices, 2)
		assert.Equal(t, 191.50, prices[march(6)])
		assert.Equal(t, 195.95, prices[march(8)])
		assert.NotContains(t, prices, march(7))
	})

	t.Run("adjusted close", func(t *testing.T) {
		source := StockPriceSource{Client: av.NewClient(client), Adjusted: true}

		prices, err := source.DailyCloses(context.Background(), "IBM", march(1), march(8))
		require.NoError(t, err)

		assert.Len(t, prices, 3)
		assert.Equal(t, 190.00, prices[march(6)])
		assert.Equal(t, 194.40, prices[march(7)])
	})

	t.Run("window bounds", func(t *testing.T) {
		source := StockPriceSource{Client: av.NewClient(client)}

		prices, err := source.DailyCloses(context.Background(), "IBM", march(7), march(7))
		require.NoError(t, err)
		assert.Empty(t, prices)
	})
}

func TestMarketPriceSource_DailyCloses(t *testing.T) {
	source := MarketPriceSource{Client: fred.NewClient(fixtureClient(t, "../api/fred/testdata/sp500.json"))}

	prices, err := source.DailyCloses(context.Background(), fred.SeriesSP500, march(6), march(8))
	require.NoError(t, err)

	assert.Equal(t, dm.SourceFred, source.Name())
	assert.Len(t, prices, 2)
	assert.Equal(t, 5104.76, prices[march(6)])
	assert.Equal(t, 5123.69, prices[march(8)])
}

type fakeSource struct {
	name   string
	prices map[string]PriceSeries
	errs   map[string]error
	block  bool // waits for the context instead of answering

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Name() string {
	return f.name
}

func (f *fakeSource) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	res := PriceSeries{}
	for d, p := range f.prices[symbol] {
		if !d.Before(start) && !d.After(end) {
			res[d] = p
		}
	}
	return res, nil
}

type fakeCache struct {
	md        *dm.PriceSeriesMetadata
	rows      []*dm.PriceSeriesData
	lookupErr error
	saveErr   error
	saved     []*dm.PriceSeriesData
}

func (f *fakeCache) GetMetaDataBySymbol(ctx context.Context, symbol, source string) (*dm.PriceSeriesMetadata, error) {
	return f.md, f.lookupErr
}

func (f *fakeCache) GetPriceSeriesData(ctx context.Context, symbol, source string, start time.Time) ([]*dm.PriceSeriesData, error) {
	return f.rows, nil
}

func (f *fakeCache) SavePriceSeries(ctx context.Context, md *dm.PriceSeriesMetadata, data []*dm.PriceSeriesData) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.md = md
	f.saved = data
	return int64(len(data)), nil
}

func TestCachedPriceSource(t *testing.T) {
	now := march(10)
	upstream := func() *fakeSource {
		return &fakeSource{
			name:   dm.SourceAlphaVantage,
			prices: map[string]PriceSeries{"AAPL": {march(4): 170, march(5): 171}},
		}
	}
	newCached := func(source PriceSource, cache PriceCache) *CachedPriceSource {
		cps := NewCachedPriceSource(source, cache, 24*time.Hour)
		cps.now = func() time.Time { return now }
		return cps
	}

	t.Run("miss fetches and stores", func(t *testing.T) {
		source, cache := upstream(), &fakeCache{}

		prices, err := newCached(source, cache).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		require.NoError(t, err)

		assert.Len(t, prices, 2)
		assert.Equal(t, 1, source.calls)
		require.Len(t, cache.saved, 2)
		assert.Equal(t, march(4), cache.saved[0].Date)
		assert.Equal(t, now, cache.md.LastRefreshed)
		assert.Equal(t, dm.SourceAlphaVantage, cache.md.Source)
	})

	t.Run("fresh covering cache skips the source", func(t *testing.T) {
		source := upstream()
		cache := &fakeCache{
			md: &dm.PriceSeriesMetadata{Id: 1, Symbol: "AAPL", LastRefreshed: now.Add(-time.Hour)},
			rows: []*dm.PriceSeriesData{
				{Date: march(4), Close: null.FloatFrom(100)},
				{Date: march(5), Close: null.Float{}},
				{Date: march(6), Close: null.FloatFrom(102)},
			},
		}

		prices, err := newCached(source, cache).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		require.NoError(t, err)

		assert.Equal(t, 0, source.calls)
		assert.Len(t, prices, 2)
		assert.Equal(t, 100.0, prices[march(4)])
	})

	t.Run("stale cache refetches", func(t *testing.T) {
		source := upstream()
		cache := &fakeCache{
			md:   &dm.PriceSeriesMetadata{Id: 1, Symbol: "AAPL", LastRefreshed: now.Add(-48 * time.Hour)},
			rows: []*dm.PriceSeriesData{{Date: march(4), Close: null.FloatFrom(100)}},
		}

		prices, err := newCached(source, cache).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		require.NoError(t, err)

		assert.Equal(t, 1, source.calls)
		assert.Equal(t, 170.0, prices[march(4)])
		assert.Equal(t, int32(1), cache.md.Id)
	})

	t.Run("cache that starts too late refetches", func(t *testing.T) {
		source := upstream()
		cache := &fakeCache{
			md:   &dm.PriceSeriesMetadata{Id: 1, Symbol: "AAPL", LastRefreshed: now},
			rows: []*dm.PriceSeriesData{{Date: march(20), Close: null.FloatFrom(100)}},
		}

		_, err := newCached(source, cache).DailyCloses(context.Background(), "AAPL", march(1), march(31))
		require.NoError(t, err)
		assert.Equal(t, 1, source.calls)
	})

	t.Run("cache errors do not fail the fetch", func(t *testing.T) {
		source := upstream()
		cache := &fakeCache{lookupErr: errors.New("connection refused")}

		prices, err := newCached(source, cache).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		require.NoError(t, err)
		assert.Len(t, prices, 2)

		cache = &fakeCache{saveErr: errors.New("disk full")}
		prices, err = newCached(upstream(), cache).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		require.NoError(t, err)
		assert.Len(t, prices, 2)
	})

	t.Run("source errors are returned", func(t *testing.T) {
		source := upstream()
		source.errs = map[string]error{"AAPL": av.ErrNoData}

		_, err := newCached(source, &fakeCache{}).DailyCloses(context.Background(), "AAPL", march(1), march(8))
		assert.ErrorIs(t, err, av.ErrNoData)
	})
}
