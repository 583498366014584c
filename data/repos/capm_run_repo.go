package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	m "capm/data/models"
	q "capm/data/queries"
)

// InsertCapmRun records a run as running and sets run.CreatedAt
func (pg *Postgres) InsertCapmRun(ctx context.Context, run *m.CapmRun) error {
	args := pgx.NamedArgs{
		"id":             run.Id,
		"symbols":        run.Symbols,
		"years":          run.Years,
		"risk_free_rate": run.RiskFreeRate,
		"status":         m.RunStatusRunning,
	}

	if err := pg.db.QueryRow(ctx, q.Get(q.QueryHelper.Insert.CapmRun), args).Scan(&run.CreatedAt); err != nil {
		return fmt.Errorf("error inserting capm run: %w", err)
	}
	run.Status = m.RunStatusRunning

	return nil
}

func (pg *Postgres) UpdateCapmRunAsFailure(ctx context.Context, id uuid.UUID, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if capm run is failing, occurred in %s", id)
	}

	return pg.updateCapmRun(ctx, pgx.NamedArgs{
		"id":            id,
		"status":        m.RunStatusFailure,
		"error_message": cleanErrorMessage,
	})
}

func (pg *Postgres) UpdateCapmRunAsSuccess(ctx context.Context, id uuid.UUID) error {
	return pg.updateCapmRun(ctx, pgx.NamedArgs{
		"id":            id,
		"status":        m.RunStatusSuccess,
		"error_message": nil,
	})
}

func (pg *Postgres) GetRecentCapmRuns(ctx context.Context, limit int) ([]*m.CapmRun, error) {
	res, err := Query[m.CapmRun](ctx, pg, q.Get(q.QueryHelper.Select.RecentCapmRuns), pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("unable to get recent capm runs: %w", err)
	}
	return res, nil
}

func (pg *Postgres) updateCapmRun(ctx context.Context, args pgx.NamedArgs) error {
	tag, err := pg.db.Exec(ctx, q.Get(q.QueryHelper.Update.CapmRun), args)
	if err != nil {
		return fmt.Errorf("error updating capm run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("capm run %v not found", args["id"])
	}
	return nil
}
