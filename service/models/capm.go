package models

import (
	"time"

	dm "capm/data/models"
)

// CapmRequest is what the dashboard sends to run the pipeline. An empty symbol list is valid and yields an empty result.
// Years defaults to DefaultYears when zero, a nil RiskFreeRate uses the configured rate.
type CapmRequest struct {
	Symbols      []string `json:"symbols" validate:"max=64,dive,required,max=12,printascii"`
	Years        int      `json:"years" validate:"min=1,max=10"`
	RiskFreeRate *float64 `json:"riskFreeRate" validate:"omitempty,gte=-1,lte=1"`
}

// CapmResponse holds everything the dashboard renders for one run
type CapmResponse struct {
	RunId        string   `json:"runId"`
	Symbols      []string `json:"symbols"`
	Years        int      `json:"years"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	RiskFreeRate float64  `json:"riskFreeRate"`
	MarketReturn float64  `json:"marketReturn"`

	PriceHead  TablePayload `json:"priceHead"`
	PriceTail  TablePayload `json:"priceTail"`
	Prices     TablePayload `json:"prices"`
	Normalized TablePayload `json:"normalized"`

	Betas           []InstrumentValue   `json:"betas"`
	ExpectedReturns []InstrumentValue   `json:"expectedReturns"`
	Omitted         []OmittedInstrument `json:"omitted"`
}

type TablePayload struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

type TableRow struct {
	Date   string    `json:"date"`
	Values []float64 `json:"values"`
}

// InstrumentValue is a per ticker scalar already rounded for display
type InstrumentValue struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

type OmittedInstrument struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

type UniverseResponse struct {
	Symbols  []string `json:"symbols"`
	Defaults []string `json:"defaults"`
	MinYears int      `json:"minYears"`
	MaxYears int      `json:"maxYears"`
}

type CapmRunResponse struct {
	Id           string     `json:"id"`
	Symbols      []string   `json:"symbols"`
	Years        int        `json:"years"`
	RiskFreeRate float64    `json:"riskFreeRate"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"errorMessage"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

func MapCapmRunToResponse(run *dm.CapmRun) CapmRunResponse {
	return CapmRunResponse{
		Id:           run.Id.String(),
		Symbols:      run.Symbols,
		Years:        run.Years,
		RiskFreeRate: run.RiskFreeRate,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage.Ptr(),
		CreatedAt:    run.CreatedAt,
		CompletedAt:  run.CompletedAt.Ptr(),
	}
}

// Universe is the large cap set the dashboard offers for selection
var Universe = []string{
	"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL", "TSLA", "META", "GOOG", "BRK", "UNH",
	"XOM", "JNJ", "JPM", "V", "LLY", "AVGO", "PG", "MA", "HD", "MRK",
	"CVX", "PEP", "COST", "ABBV", "KO", "ADBE", "WMT", "MCD", "CSCO", "PFE",
	"CRM", "TMO", "BAC", "NFLX", "ACN", "A", "DE", "GS", "ELV", "LMT",
	"AXP", "BLK", "SYK", "BKNG", "MDLZ", "ADI", "TJX", "GILD", "MMC", "ADP",
	"VRTX", "AMT", "C", "CVS", "LRCX", "SCHW", "CI", "MO", "ZTS", "TMUS",
	"ETN", "CB", "FI",
}

var DefaultSymbols = []string{"AAPL", "TSLA", "AMZN", "GOOGL"}
