package core

import (
	"context"
	"fmt"
	"time"

	ex "capm/data/extensions"
	dm "capm/data/models"
	av "capm/service/api/alpha_vantage"
	"capm/service/api/fred"
)

// PriceSource returns the daily closes of one symbol between start and end, both inclusive.
// Name identifies the source in the price cache.
type PriceSource interface {
	Name() string
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)
}

// StockPriceSource reads daily closes from alpha vantage
type StockPriceSource struct {
	Client   av.AlphaVantageClient
	Adjusted bool // adjusted daily series is a premium endpoint
}

func (s StockPriceSource) Name() string {
	return dm.SourceAlphaVantage
}

func (s StockPriceSource) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error) {
	timeSeries := av.TimeSeriesDaily
	if s.Adjusted {
		timeSeries = av.TimeSeriesDailyAdjusted
	}

	tsr, err := s.Client.StockTimeSeries(ctx, timeSeries, symbol, av.OutputSizeFor(start, end))
	if err != nil {
		return nil, fmt.Errorf("error getting daily prices for %s: %w", symbol, err)
	}

	res := make(PriceSeries, len(tsr.TimeSeries))
	for _, row := range tsr.TimeSeries {
		price := row.Close
		if timeSeries.IsAdjusted() && row.AdjustedClose.Valid {
			price = row.AdjustedClose
		}
		addClose(res, row.Timestamp, price.Float64, price.Valid, start, end)
	}

	return res, nil
}

// MarketPriceSource reads an index level series (SP500 by default) from FRED, the symbol is the series id
type MarketPriceSource struct {
	Client fred.FredClient
}

func (m MarketPriceSource) Name() string {
	return dm.SourceFred
}

func (m MarketPriceSource) DailyCloses(ctx context.Context, series string, start, end time.Time) (PriceSeries, error) {
	observations, err := m.Client.SeriesObservations(ctx, series, start, end)
	if err != nil {
		return nil, fmt.Errorf("error getting observations for %s: %w", series, err)
	}

	res := make(PriceSeries, len(observations))
	for _, o := range observations {
		addClose(res, o.Date, o.Value.Float64, o.Value.Valid, start, end)
	}

	return res, nil
}

// addClose keeps valid closes inside [start, end], days without a print are left out of the series
func addClose(series PriceSeries, t time.Time, price float64, valid bool, start, end time.Time) {
	d := ex.ToDate(t)
	if !valid || d.Before(ex.ToDate(start)) || d.After(ex.ToDate(end)) {
		return
	}
	series[d] = price
}
