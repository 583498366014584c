package alpha_vantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	ex "capm/data/extensions"
	c "capm/service/api"
)

func serveFixture(t *testing.T, fixture string, check func(*http.Request)) AlphaVantageClient {
	t.Helper()

	body, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("error reading fixture %s: %s", fixture, err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	client, err := c.TestClientFactory(server.URL, "av-test-api-key")
	if err != nil {
		t.Fatalf("error building test client: %s", err)
	}

	return NewClient(client)
}

func Test_AlphaVantage_StockTimeSeries(t *testing.T) {
	var gotQuery map[string]string
	avc := serveFixture(t, "testdata/daily_adjusted.json", func(r *http.Request) {
		gotQuery = map[string]string{
			function:   r.URL.Query().Get(function),
			symbol:     r.URL.Query().Get(symbol),
			apiKey:     r.URL.Query().Get(apiKey),
			outputSize: r.URL.Query().Get(outputSize),
		}
	})

	res, err := avc.StockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "IBM", OutputSizeFull)
	if err != nil {
		t.Fatalf("error getting stock time series: %s", err)
	}

	// request
	ex.AssertAreEqual(t, "function", "TIME_SERIES_DAILY_ADJUSTED", gotQuery[function])
	ex.AssertAreEqual(t, "symbol", "IBM", gotQuery[symbol])
	ex.AssertAreEqual(t, "api key", "av-test-api-key", gotQuery[apiKey])
	ex.AssertAreEqual(t, "output size", "full", gotQuery[outputSize])

	// meta data
	ex.AssertAreEqual(t, "symbol", "IBM", res.Metadata.Symbol)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.Metadata.TimeZone)
	ex.AssertAreEqual(t, "output size", "Compact", res.Metadata.OutputSize.String)
	ex.AssertAreEqual(t, "last refreshed", "2024-03-08", ex.FmtShort(res.Metadata.LastRefreshed))

	// rows come back sorted oldest first
	ex.AssertAreEqual(t, "rows", 3, len(res.TimeSeries))
	ex.AssertAreEqual(t, "first date", "2024-03-06", ex.FmtShort(res.TimeSeries[0].Timestamp))
	ex.AssertAreEqual(t, "last date", "2024-03-08", ex.FmtShort(res.TimeSeries[2].Timestamp))

	first := res.TimeSeries[0]
	ex.AssertAreEqual(t, "open", 192.00, first.Open.Float64)
	ex.AssertAreEqual(t, "close", 191.50, first.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 190.00, first.AdjustedClose.Float64)
	ex.AssertAreEqual(t, "volume", 4100000.0, first.Volume.Float64)

	// blank close parses as null rather than zero
	ex.AssertAreEqual(t, "blank close valid", false, res.TimeSeries[1].Close.Valid)
	ex.AssertAreEqual(t, "adjusted close valid", true, res.TimeSeries[1].AdjustedClose.Valid)
}

func Test_AlphaVantage_RateLimitNoteIsAnError(t *testing.T) {
	avc := serveFixture(t, "testdata/rate_limited.json", nil)

	_, err := avc.StockTimeSeries(context.Background(), TimeSeriesDaily, "AAPL", OutputSizeCompact)
	if err == nil {
		t.Fatalf("expected an error for a throttled response")
	}
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func Test_AlphaVantage_OutputSizeFor(t *testing.T) {
	end := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)

	ex.AssertAreEqual(t, "two months", OutputSizeCompact, OutputSizeFor(end.AddDate(0, -2, 0), end))
	ex.AssertAreEqual(t, "one year", OutputSizeFull, OutputSizeFor(end.AddDate(-1, 0, 0), end))
}

func Test_TimeSeries_Keys(t *testing.T) {
	ex.AssertAreEqual(t, "daily key", "Time Series (Daily)", TimeSeriesDaily.TimeSeriesKey())
	ex.AssertAreEqual(t, "adjusted", true, TimeSeriesDailyAdjusted.IsAdjusted())
	ex.AssertAreEqual(t, "not adjusted", false, TimeSeriesDaily.IsAdjusted())
}
