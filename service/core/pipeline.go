package core

import (
	"fmt"
	"slices"
	"time"

	"capm/service/logger"
)

type PipelineInput struct {
	Instruments  []InstrumentSeries
	MarketColumn string
	Market       PriceSeries
	RiskFreeRate float64
}

// InstrumentFailure is an instrument dropped from the beta and expected return outputs
type InstrumentFailure struct {
	Symbol string
	Err    error
}

type PipelineResult struct {
	Symbols      []string
	Prices       Table
	Normalized   Table
	Returns      Table
	MarketReturn float64

	// only instruments with a usable fit, in the caller's order
	Betas           []BetaResult
	ExpectedReturns []ExpectedReturn
	Omitted         []InstrumentFailure
}

// RunPipeline runs price table -> normalize -> returns -> betas -> expected returns.
// Any table stage error aborts the run. Per instrument fit failures are collected in Omitted.
func RunPipeline(input PipelineInput) (*PipelineResult, error) {
	log := logger.GetLogger().WithComponent("pipeline")
	start := time.Now()

	prices, err := BuildPriceTable(input.Instruments, input.MarketColumn, input.Market)
	if err != nil {
		return nil, fmt.Errorf("error building price table: %w", err)
	}

	res := &PipelineResult{
		Symbols:         []string{},
		Prices:          prices,
		Normalized:      prices,
		Returns:         prices,
		Betas:           []BetaResult{},
		ExpectedReturns: []ExpectedReturn{},
		Omitted:         []InstrumentFailure{},
	}
	if prices.IsEmpty() {
		log.Debug("empty selection, nothing to compute")
		return res, nil
	}
	// market column is always last
	res.Symbols = slices.Clone(prices.Columns[:len(prices.Columns)-1])

	if res.Normalized, err = Normalize(prices); err != nil {
		return nil, fmt.Errorf("error normalizing prices: %w", err)
	}
	if res.Returns, err = DailyReturns(prices); err != nil {
		return nil, fmt.Errorf("error computing daily returns: %w", err)
	}
	if res.MarketReturn, err = AnnualizedMarketReturn(res.Returns, input.MarketColumn); err != nil {
		return nil, fmt.Errorf("error computing market return: %w", err)
	}

	fits, err := EstimateBetas(res.Returns, input.MarketColumn)
	if err != nil {
		return nil, fmt.Errorf("error estimating betas: %w", err)
	}

	betas := make(map[string]float64, len(fits))
	for _, fit := range fits {
		if fit.Err != nil {
			log.WithError(fit.Err).WithFields(logger.Fields{"symbol": fit.Symbol}).Warn("instrument omitted, no beta")
			res.Omitted = append(res.Omitted, InstrumentFailure{Symbol: fit.Symbol, Err: fit.Err})
			continue
		}
		betas[fit.Symbol] = fit.Beta
		res.Betas = append(res.Betas, fit)
	}

	for _, er := range ExpectedReturns(res.Symbols, betas, input.RiskFreeRate, res.MarketReturn) {
		if er.Err == nil {
			res.ExpectedReturns = append(res.ExpectedReturns, er)
		}
	}

	log.WithElapsed(start).WithFields(logger.Fields{
		"rows":    prices.Rows(),
		"betas":   len(res.Betas),
		"omitted": len(res.Omitted),
	}).Debug("pipeline complete")

	return res, nil
}
