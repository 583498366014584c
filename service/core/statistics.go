package core

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	sm "capm/service/models"
)

// BetaResult is the fitted line instrument = Alpha + Beta*market, Err is set when no fit was possible
type BetaResult struct {
	Symbol       string
	Beta         float64
	Alpha        float64
	Observations int
	Err          error
}

type ExpectedReturn struct {
	Symbol string
	Value  float64
	Err    error
}

// EstimateBetas regresses every non market column of a return table on the market column.
// Results come back in column order. Fits run in parallel since each column is independent.
func EstimateBetas(returns Table, marketColumn string) ([]BetaResult, error) {
	if returns.IsEmpty() {
		return []BetaResult{}, nil
	}

	market, ok := returns.Column(marketColumn)
	if !ok {
		return nil, fmt.Errorf("%w: market column %q not in return table", ErrMissingInput, marketColumn)
	}

	symbols := make([]string, 0, len(returns.Columns)-1)
	for _, col := range returns.Columns {
		if col != marketColumn {
			symbols = append(symbols, col)
		}
	}

	results := make([]BetaResult, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	// fit failures land in each result's Err, so the group never sees an error
	for i, symbol := range symbols {
		instrument, _ := returns.Column(symbol)
		g.Go(func() error {
			results[i] = fitBeta(symbol, market, instrument)
			return nil
		})
	}
	g.Wait()

	return results, nil
}

// fitBeta runs an ordinary least squares fit over the pairs where both returns are finite
func fitBeta(symbol string, market, instrument []float64) BetaResult {
	xs := make([]float64, 0, len(market))
	ys := make([]float64, 0, len(instrument))
	for i := range market {
		if isFinite(market[i]) && isFinite(instrument[i]) {
			xs = append(xs, market[i])
			ys = append(ys, instrument[i])
		}
	}

	res := BetaResult{Symbol: symbol, Observations: len(xs)}
	if len(xs) < 2 {
		res.Err = fmt.Errorf("%w: %s has %d paired observations, at least two are needed", ErrDegenerateRegression, symbol, len(xs))
		return res
	}
	if floats.Max(xs) == floats.Min(xs) || stat.Variance(xs, nil) == 0 {
		res.Err = fmt.Errorf("%w: market returns have zero variance over %s's observations", ErrDegenerateRegression, symbol)
		return res
	}

	res.Alpha, res.Beta = stat.LinearRegression(xs, ys, nil, false)
	return res
}

// AnnualizedMarketReturn is the mean daily market return scaled by the trading days in a year
func AnnualizedMarketReturn(returns Table, marketColumn string) (float64, error) {
	market, ok := returns.Column(marketColumn)
	if !ok {
		return 0, fmt.Errorf("%w: market column %q not in return table", ErrMissingInput, marketColumn)
	}

	finite := make([]float64, 0, len(market))
	for _, r := range market {
		if isFinite(r) {
			finite = append(finite, r)
		}
	}
	if len(finite) == 0 {
		return 0, fmt.Errorf("%w: no market returns to average", ErrInsufficientData)
	}

	return stat.Mean(finite, nil) * sm.Daily, nil
}

// ExpectedReturns applies rf + beta*(rm - rf) to each symbol, in the order given.
// A symbol without a beta gets an ErrMissingInput entry instead of a value.
func ExpectedReturns(symbols []string, betas map[string]float64, riskFreeRate, marketReturn float64) []ExpectedReturn {
	res := make([]ExpectedReturn, len(symbols))
	for i, symbol := range symbols {
		res[i] = ExpectedReturn{Symbol: symbol}

		beta, ok := betas[symbol]
		if !ok {
			res[i].Err = fmt.Errorf("%w: no beta for %s", ErrMissingInput, symbol)
			continue
		}
		res[i].Value = CapmExpectedReturn(beta, riskFreeRate, marketReturn)
	}
	return res
}

func CapmExpectedReturn(beta, riskFreeRate, marketReturn float64) float64 {
	return riskFreeRate + beta*(marketReturn-riskFreeRate)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
