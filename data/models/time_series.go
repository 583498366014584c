package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PriceSeriesMetadata is one cached series, either a stock or the market index
type PriceSeriesMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	Source        string    `db:"source"`
	LastRefreshed time.Time `db:"last_refreshed"`
}

// PriceSeriesData is a single daily close, close is null when the provider had no print for the day
type PriceSeriesData struct {
	SourceId int32      `db:"source_id"`
	Date     time.Time  `db:"date"`
	Close    null.Float `db:"close"`
}

const (
	SourceAlphaVantage = "alpha_vantage"
	SourceFred         = "fred"
)
