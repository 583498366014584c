package core

import (
	"fmt"

	ex "capm/data/extensions"
)

// Normalize divides every column by its first value so each column starts at 1.
func Normalize(prices Table) (Table, error) {
	if prices.IsEmpty() {
		return prices, nil
	}
	if prices.Rows() == 0 {
		return Table{}, fmt.Errorf("%w: price table has no common dates to normalize", ErrInsufficientData)
	}

	res := emptyLike(prices)
	res.Dates = prices.Dates
	for c, col := range prices.Values {
		first := col[0]
		if !(first > 0) {
			return Table{}, fmt.Errorf("%w: %s has first price %v on %s", ErrInvalidPrice, prices.Columns[c], first, ex.FmtShort(prices.Dates[0]))
		}
		normalized := make([]float64, len(col))
		for r, p := range col {
			normalized[r] = p / first
		}
		res.Values[c] = normalized
	}

	return res, nil
}
