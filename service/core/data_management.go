package core

import (
	"context"
	"time"

	"github.com/guregu/null/v6"

	ex "capm/data/extensions"
	dm "capm/data/models"
	"capm/service/logger"
)

// coverageSlack is how far past the window start the first cached close may fall (weekends and holidays)
const coverageSlack = 7 * 24 * time.Hour

// PriceCache is the storage CachedPriceSource reads and writes, satisfied by *repos.Postgres
type PriceCache interface {
	GetMetaDataBySymbol(ctx context.Context, symbol, source string) (*dm.PriceSeriesMetadata, error)
	GetPriceSeriesData(ctx context.Context, symbol, source string, start time.Time) ([]*dm.PriceSeriesData, error)
	SavePriceSeries(ctx context.Context, md *dm.PriceSeriesMetadata, data []*dm.PriceSeriesData) (int64, error)
}

// CachedPriceSource serves a series from the cache while it is younger than MaxAge and covers the window,
// otherwise it goes to Source and stores what came back. Cache failures never fail a fetch.
type CachedPriceSource struct {
	Source PriceSource
	Cache  PriceCache
	MaxAge time.Duration

	now func() time.Time
}

func NewCachedPriceSource(source PriceSource, cache PriceCache, maxAge time.Duration) *CachedPriceSource {
	return &CachedPriceSource{
		Source: source,
		Cache:  cache,
		MaxAge: maxAge,
		now:    time.Now,
	}
}

func (cps *CachedPriceSource) Name() string {
	return cps.Source.Name()
}

func (cps *CachedPriceSource) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error) {
	log := logger.GetLogger().WithComponent("price_cache").WithFields(logger.Fields{"symbol": symbol, "source": cps.Name()})

	md, err := cps.Cache.GetMetaDataBySymbol(ctx, symbol, cps.Name())
	if err != nil {
		log.WithError(err).Warn("cache lookup failed, fetching from source")
		return cps.Source.DailyCloses(ctx, symbol, start, end)
	}

	if md != nil && cps.now().Sub(md.LastRefreshed) < cps.MaxAge {
		cached, err := cps.Cache.GetPriceSeriesData(ctx, symbol, cps.Name(), ex.ToDate(start))
		switch {
		case err != nil:
			log.WithError(err).Warn("error reading cached prices")
		case covers(cached, start):
			log.WithFields(logger.Fields{"rows": len(cached)}).Debug("serving prices from cache")
			return fromCacheRows(cached, start, end), nil
		default:
			log.Debug("cached prices do not cover the window")
		}
	}

	fresh, err := cps.Source.DailyCloses(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	if md == nil {
		md = &dm.PriceSeriesMetadata{Symbol: symbol, Source: cps.Name()}
	}
	md.LastRefreshed = cps.now()

	ra, err := cps.Cache.SavePriceSeries(ctx, md, toCacheRows(fresh))
	if err != nil {
		log.WithError(err).Warn("error caching prices")
	} else {
		log.WithFields(logger.Fields{"fetched": len(fresh), "inserted": ra}).Info("price cache refreshed")
	}

	return fresh, nil
}

func covers(rows []*dm.PriceSeriesData, start time.Time) bool {
	if len(rows) == 0 {
		return false
	}
	return !rows[0].Date.After(ex.ToDate(start).Add(coverageSlack))
}

func fromCacheRows(rows []*dm.PriceSeriesData, start, end time.Time) PriceSeries {
	res := make(PriceSeries, len(rows))
	for _, row := range rows {
		addClose(res, row.Date, row.Close.Float64, row.Close.Valid, start, end)
	}
	return res
}

func toCacheRows(series PriceSeries) []*dm.PriceSeriesData {
	res := make([]*dm.PriceSeriesData, 0, len(series))
	for _, d := range ex.SortedDates(series) {
		res = append(res, &dm.PriceSeriesData{Date: d, Close: null.FloatFrom(series[d])})
	}
	return res
}
