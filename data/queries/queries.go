package queries

import (
	"embed"
	"fmt"
)

//go:embed create/*.sql delete/*.sql insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// the sql lives next to this file and is compiled into the binary, QueryHelper is the index into it

type CreateQueries struct {
	Schema string
}

type DeleteQueries struct {
	PriceSeriesDataSince string
}

type InsertQueries struct {
	Metadata string
	CapmRun  string
}

type SelectQueries struct {
	MetaDataBySymbol string
	PriceSeriesData  string
	RecentCapmRuns   string
}

type UpdateQueries struct {
	LastRefreshedDate string
	CapmRun           string
}

type QueryHelperStruct struct {
	Create CreateQueries
	Delete DeleteQueries
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Create: CreateQueries{
		Schema: "create/schema.sql",
	},
	Delete: DeleteQueries{
		PriceSeriesDataSince: "delete/price_series_data_since.sql",
	},
	Insert: InsertQueries{
		Metadata: "insert/metadata.sql",
		CapmRun:  "insert/capm_run.sql",
	},
	Select: SelectQueries{
		MetaDataBySymbol: "select/metadata_by_symbol.sql",
		PriceSeriesData:  "select/price_series_data.sql",
		RecentCapmRuns:   "select/recent_capm_runs.sql",
	},
	Update: UpdateQueries{
		LastRefreshedDate: "update/last_refreshed_date.sql",
		CapmRun:           "update/capm_run.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
