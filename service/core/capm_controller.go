package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	ex "capm/data/extensions"
	dm "capm/data/models"
	"capm/service/logger"
	sm "capm/service/models"
)

// RunCapm fetches a lookback window of prices for the requested symbols and the market and runs the pipeline.
// Errors wrap ErrBadRequest for invalid requests, the pipeline sentinels for aborted runs, or the context error.
func (sc *ServiceContext) RunCapm(ctx context.Context, req sm.CapmRequest) (*sm.CapmResponse, error) {
	start := time.Now()

	req = sc.withDefaults(req)
	if err := sc.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	run := &dm.CapmRun{
		Id:           uuid.New(),
		Symbols:      req.Symbols,
		Years:        req.Years,
		RiskFreeRate: *req.RiskFreeRate,
	}
	log := logger.GetLogger().WithComponent("capm").WithFields(logger.Fields{
		"runId":   run.Id.String(),
		"symbols": strings.Join(req.Symbols, ","),
		"years":   req.Years,
	})
	recorded := sc.recordStart(ctx, run, log)

	end := ex.ToDate(sc.now())
	from := end.AddDate(-req.Years, 0, 0)

	fetchStart := time.Now()
	instruments, market, err := sc.fetchPrices(ctx, req.Symbols, from, end, log)
	if err != nil {
		sc.finish(ctx, run, recorded, err, start, log)
		return nil, err
	}
	log.WithElapsed(fetchStart).Debug("prices fetched")

	res, err := RunPipeline(PipelineInput{
		Instruments:  instruments,
		MarketColumn: sm.MarketColumn,
		Market:       market,
		RiskFreeRate: run.RiskFreeRate,
	})
	if err != nil {
		sc.finish(ctx, run, recorded, err, start, log)
		return nil, err
	}

	sc.Metrics.instrumentsOmitted(len(res.Omitted))
	sc.finish(ctx, run, recorded, nil, start, log)

	return MapCapmResponse(run, from, end, res), nil
}

// RecentRuns lists the latest runs, newest first
func (sc *ServiceContext) RecentRuns(ctx context.Context, limit int) ([]sm.CapmRunResponse, error) {
	if sc.RunHistory == nil {
		return nil, ErrNoRunHistory
	}

	runs, err := sc.RunHistory.GetRecentCapmRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	return ex.Map(runs, sm.MapCapmRunToResponse), nil
}

// withDefaults upper cases and dedupes symbols and fills in years and the risk free rate
func (sc *ServiceContext) withDefaults(req sm.CapmRequest) sm.CapmRequest {
	symbols := make([]string, 0, len(req.Symbols))
	for _, s := range req.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}
	req.Symbols = ex.Unique(symbols)

	if req.Years == 0 {
		req.Years = sm.DefaultYears
	}
	if req.RiskFreeRate == nil {
		rf := sc.RiskFreeRate
		req.RiskFreeRate = &rf
	}
	return req
}

// fetchPrices loads every symbol and the market concurrently. A failed fetch is logged and becomes an empty series,
// the inner join then decides whether the run can continue. Only context errors are returned.
func (sc *ServiceContext) fetchPrices(ctx context.Context, symbols []string, from, end time.Time, log *logger.Entry) ([]InstrumentSeries, PriceSeries, error) {
	if len(symbols) == 0 {
		return []InstrumentSeries{}, PriceSeries{}, nil
	}

	instruments := make([]InstrumentSeries, len(symbols))
	var market PriceSeries

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		market, err = sc.fetchOne(gctx, sc.Market, sc.MarketSeriesId, from, end, log)
		return err
	})
	for i, symbol := range symbols {
		g.Go(func() error {
			prices, err := sc.fetchOne(gctx, sc.Stocks, symbol, from, end, log)
			instruments[i] = InstrumentSeries{Symbol: symbol, Prices: prices}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return instruments, market, nil
}

func (sc *ServiceContext) fetchOne(ctx context.Context, source PriceSource, symbol string, from, end time.Time, log *logger.Entry) (PriceSeries, error) {
	prices, err := source.DailyCloses(ctx, symbol, from, end)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		sc.Metrics.fetchFailed(source.Name())
		log.WithError(err).WithFields(logger.Fields{"symbol": symbol, "source": source.Name()}).Warn("price fetch failed, treating symbol as having no data")
		return PriceSeries{}, nil
	}
	return prices, nil
}

func (sc *ServiceContext) recordStart(ctx context.Context, run *dm.CapmRun, log *logger.Entry) bool {
	if sc.RunHistory == nil {
		return false
	}
	if err := sc.RunHistory.InsertCapmRun(ctx, run); err != nil {
		log.WithError(err).Warn("error recording capm run")
		return false
	}
	return true
}

// finish records the outcome in metrics, the log and (when the start was recorded) run history
func (sc *ServiceContext) finish(ctx context.Context, run *dm.CapmRun, recorded bool, runErr error, start time.Time, log *logger.Entry) {
	outcome := outcomeSuccess
	switch {
	case runErr == nil:
		log.WithElapsed(start).Info("capm run complete")
	case IsAbort(runErr):
		outcome = outcomeAborted
		log.WithElapsed(start).WithError(runErr).Warn("capm run aborted")
	default:
		outcome = outcomeError
		log.WithElapsed(start).WithError(runErr).Error("capm run failed")
	}
	sc.Metrics.runFinished(outcome, start)

	if !recorded {
		return
	}

	// the request context may already be done, history is written regardless
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr == nil {
		err = sc.RunHistory.UpdateCapmRunAsSuccess(ctx, run.Id)
	} else {
		err = sc.RunHistory.UpdateCapmRunAsFailure(ctx, run.Id, runErr.Error())
	}
	if err != nil {
		log.WithError(err).Warn("error updating capm run")
	}
}
