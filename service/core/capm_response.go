package core

import (
	"time"

	"github.com/shopspring/decimal"

	ex "capm/data/extensions"
	dm "capm/data/models"
	sm "capm/service/models"
)

// MapCapmResponse shapes a pipeline result for the dashboard, betas and expected returns are rounded for display
func MapCapmResponse(run *dm.CapmRun, from, end time.Time, res *PipelineResult) *sm.CapmResponse {
	resp := &sm.CapmResponse{
		RunId:           run.Id.String(),
		Symbols:         run.Symbols,
		Years:           run.Years,
		Start:           ex.FmtShort(from),
		End:             ex.FmtShort(end),
		RiskFreeRate:    run.RiskFreeRate,
		MarketReturn:    res.MarketReturn,
		PriceHead:       mapTable(res.Prices.Head(sm.PreviewRows)),
		PriceTail:       mapTable(res.Prices.Tail(sm.PreviewRows)),
		Prices:          mapTable(res.Prices),
		Normalized:      mapTable(res.Normalized),
		Betas:           make([]sm.InstrumentValue, 0, len(res.Betas)),
		ExpectedReturns: make([]sm.InstrumentValue, 0, len(res.ExpectedReturns)),
		Omitted:         make([]sm.OmittedInstrument, 0, len(res.Omitted)),
	}

	for _, b := range res.Betas {
		resp.Betas = append(resp.Betas, sm.InstrumentValue{Symbol: b.Symbol, Value: roundForDisplay(b.Beta)})
	}
	for _, er := range res.ExpectedReturns {
		resp.ExpectedReturns = append(resp.ExpectedReturns, sm.InstrumentValue{Symbol: er.Symbol, Value: roundForDisplay(er.Value)})
	}
	for _, o := range res.Omitted {
		resp.Omitted = append(resp.Omitted, sm.OmittedInstrument{Symbol: o.Symbol, Reason: o.Err.Error()})
	}

	return resp
}

func mapTable(t Table) sm.TablePayload {
	res := sm.TablePayload{
		Columns: t.Columns,
		Rows:    make([]sm.TableRow, t.Rows()),
	}
	for r, d := range t.Dates {
		res.Rows[r] = sm.TableRow{Date: ex.FmtShort(d), Values: t.Row(r)}
	}
	return res
}

// roundForDisplay rounds half away from zero, float formatting would round half to even on the binary value
func roundForDisplay(v float64) float64 {
	return decimal.NewFromFloat(v).Round(sm.DisplayPrecision).InexactFloat64()
}
