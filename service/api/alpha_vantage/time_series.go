package alpha_vantage

import (
	"strings"
	"time"
)

// TimeSeries specifies a frequency to query for stock data.
type TimeSeries uint8

const (
	TimeSeriesDaily TimeSeries = iota
	TimeSeriesDailyAdjusted
)

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDaily:
		return "TIME_SERIES_DAILY"
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKey is the top level json key holding the rows
func (t TimeSeries) TimeSeriesKey() string {
	switch t {
	case TimeSeriesDaily, TimeSeriesDailyAdjusted:
		return "Time Series (Daily)"
	default:
		return ""
	}
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}

// OutputSize controls how much history a request returns
type OutputSize string

const (
	OutputSizeCompact OutputSize = "compact" // latest 100 data points
	OutputSizeFull    OutputSize = "full"    // 20+ years

	compactTradingDays = 100
)

// OutputSizeFor picks compact when the window fits in the latest 100 trading days
func OutputSizeFor(start, end time.Time) OutputSize {
	// roughly 252 trading days in 365 calendar days
	tradingDays := int(end.Sub(start).Hours()/24) * 252 / 365
	if tradingDays >= compactTradingDays {
		return OutputSizeFull
	}
	return OutputSizeCompact
}
