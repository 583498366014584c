package models

// Daily is the number of trading days in a year, used to annualise a mean daily return
const Daily = 252

// lookback window bounds in whole years
const (
	MinYears     = 1
	MaxYears     = 10
	DefaultYears = 1
)

// MarketColumn is the column name the market index gets in every table
const MarketColumn = "sp500"

// DisplayPrecision is the number of decimals betas and expected returns are rounded to
const DisplayPrecision = 2

// PreviewRows is how many rows the head and tail previews of the price table hold
const PreviewRows = 5
