package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "capm/data/models"
	q "capm/data/queries"
)

func (pg *Postgres) GetPriceSeriesData(ctx context.Context, symbol, source string, start time.Time) ([]*m.PriceSeriesData, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
		"source": source,
		"start":  start,
	}

	res, err := Query[m.PriceSeriesData](ctx, pg, q.Get(q.QueryHelper.Select.PriceSeriesData), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query price data by symbol (%s): %w", symbol, err)
	}
	return res, nil
}

// ReplacePriceSeriesData overwrites everything cached for sourceId from the earliest date in data onwards
func (pg *Postgres) ReplacePriceSeriesData(ctx context.Context, sourceId int32, data []*m.PriceSeriesData, tx pgx.Tx) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	since := data[0].Date
	for _, d := range data {
		if d.Date.Before(since) {
			since = d.Date
		}
	}

	deleteArgs := pgx.NamedArgs{
		"source_id": sourceId,
		"since":     since,
	}
	if _, err := pg.conn(tx).Exec(ctx, q.Get(q.QueryHelper.Delete.PriceSeriesDataSince), deleteArgs); err != nil {
		return 0, fmt.Errorf("error clearing price data for %d since %s: %w", sourceId, since.Format(time.DateOnly), err)
	}

	columns := []string{"source_id", "date", "close"}
	entries := make([][]any, len(data))
	for i, ent := range data {
		entries[i] = []any{sourceId, ent.Date, ent.Close}
	}

	ra, err := pg.BulkInsert(ctx, "price_series_data", columns, entries, tx)
	if err != nil {
		return 0, fmt.Errorf("error inserting price data for %d: %w", sourceId, err)
	}
	return ra, nil
}

// SavePriceSeries stores a freshly fetched series in one transaction.
// New metadata is inserted (setting md.Id), the overlapping prices are replaced and md.LastRefreshed is stamped.
func (pg *Postgres) SavePriceSeries(ctx context.Context, md *m.PriceSeriesMetadata, data []*m.PriceSeriesData) (int64, error) {
	tx, err := pg.GetTransaction(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if md.Id == 0 {
		if err := pg.InsertNewMetaData(ctx, md, tx); err != nil {
			return 0, fmt.Errorf("error adding %s (%s) to db: %w", md.Symbol, md.Source, err)
		}
	}

	ra, err := pg.ReplacePriceSeriesData(ctx, md.Id, data, tx)
	if err != nil {
		return 0, err
	}

	if err := pg.UpdateLastRefreshedDate(ctx, md.Id, md.LastRefreshed, tx); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing price series for %s: %w", md.Symbol, err)
	}

	return ra, nil
}
