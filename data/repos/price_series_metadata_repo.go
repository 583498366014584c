package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "capm/data/models"
	q "capm/data/queries"
)

func (pg *Postgres) GetMetaDataBySymbol(ctx context.Context, symbol, source string) (*m.PriceSeriesMetadata, error) {
	args := pgx.NamedArgs{
		"symbol": symbol,
		"source": source,
	}

	res, err := QuerySingle[m.PriceSeriesMetadata](ctx, pg, q.Get(q.QueryHelper.Select.MetaDataBySymbol), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query metadata by symbol (%s, %s): %w", symbol, source, err)
	}

	return res, nil
}

// InsertNewMetaData inserts the row and sets metadata.Id
func (pg *Postgres) InsertNewMetaData(ctx context.Context, metadata *m.PriceSeriesMetadata, tx pgx.Tx) error {
	args := pgx.NamedArgs{
		"symbol":         metadata.Symbol,
		"source":         metadata.Source,
		"last_refreshed": metadata.LastRefreshed,
	}

	if err := pg.conn(tx).QueryRow(ctx, q.Get(q.QueryHelper.Insert.Metadata), args).Scan(&metadata.Id); err != nil {
		return fmt.Errorf("error inserting new metadata: %w", err)
	}

	return nil
}

func (pg *Postgres) UpdateLastRefreshedDate(ctx context.Context, id int32, lastRefreshed time.Time, tx pgx.Tx) error {
	args := pgx.NamedArgs{
		"id":             id,
		"last_refreshed": lastRefreshed,
	}

	if _, err := pg.conn(tx).Exec(ctx, q.Get(q.QueryHelper.Update.LastRefreshedDate), args); err != nil {
		return fmt.Errorf("error updating last refreshed date for %d: %w", id, err)
	}

	return nil
}
