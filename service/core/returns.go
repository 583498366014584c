package core

import (
	"fmt"

	ex "capm/data/extensions"
)

// DailyReturns computes the simple return p[t]/p[t-1] - 1 for every column.
// The result has one row fewer than the input and is keyed by the later date of each pair.
func DailyReturns(prices Table) (Table, error) {
	if prices.IsEmpty() {
		return prices, nil
	}
	if prices.Rows() < 2 {
		return Table{}, fmt.Errorf("%w: %d rows, at least two are needed for a return", ErrInsufficientData, prices.Rows())
	}

	res := emptyLike(prices)
	res.Dates = prices.Dates[1:]
	for c, col := range prices.Values {
		returns := make([]float64, len(col)-1)
		for t := 1; t < len(col); t++ {
			prev := col[t-1]
			if !(prev > 0) {
				return Table{}, fmt.Errorf("%w: %s has price %v on %s", ErrInvalidPrice, prices.Columns[c], prev, ex.FmtShort(prices.Dates[t-1]))
			}
			returns[t-1] = col[t]/prev - 1
		}
		res.Values[c] = returns
	}

	return res, nil
}
