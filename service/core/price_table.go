package core

import (
	"fmt"
	"slices"
	"strings"
	"time"

	ex "capm/data/extensions"
)

// PriceSeries is one instrument's closing prices keyed by calendar day
type PriceSeries map[time.Time]float64

type InstrumentSeries struct {
	Symbol string
	Prices PriceSeries
}

// BuildPriceTable inner joins the instruments and the market on date.
// Columns keep the caller's instrument order with the market column last, rows are sorted ascending.
// An empty instrument list gives an empty table regardless of the market series.
func BuildPriceTable(instruments []InstrumentSeries, marketColumn string, market PriceSeries) (Table, error) {
	if len(instruments) == 0 {
		return Table{Dates: []time.Time{}, Columns: []string{}, Values: [][]float64{}}, nil
	}

	columns := make([]string, 0, len(instruments)+1)
	series := make([]PriceSeries, 0, len(instruments)+1)
	add := func(symbol string, prices PriceSeries) error {
		name := strings.TrimSpace(symbol)
		if name == "" {
			return fmt.Errorf("%w: blank column name", ErrInvalidInput)
		}
		if slices.Contains(columns, name) {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidInput, name)
		}
		columns = append(columns, name)
		series = append(series, prices)
		return nil
	}

	for _, inst := range instruments {
		if err := add(inst.Symbol, inst.Prices); err != nil {
			return Table{}, err
		}
	}
	if err := add(marketColumn, market); err != nil {
		return Table{}, err
	}

	// a date survives only when every series has a price for it
	var dates []time.Time
	for _, d := range ex.SortedDates(market) {
		inAll := true
		for _, s := range series {
			if _, ok := s[d]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			dates = append(dates, d)
		}
	}
	if dates == nil {
		dates = []time.Time{}
	}

	values := make([][]float64, len(series))
	for c, s := range series {
		col := make([]float64, len(dates))
		for r, d := range dates {
			col[r] = s[d]
		}
		values[c] = col
	}

	return Table{Dates: dates, Columns: columns, Values: values}, nil
}
