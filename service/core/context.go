package core

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	dm "capm/data/models"
)

// RunHistory stores one row per capm run, satisfied by *repos.Postgres
type RunHistory interface {
	InsertCapmRun(ctx context.Context, run *dm.CapmRun) error
	UpdateCapmRunAsSuccess(ctx context.Context, id uuid.UUID) error
	UpdateCapmRunAsFailure(ctx context.Context, id uuid.UUID, errorMessage string) error
	GetRecentCapmRuns(ctx context.Context, limit int) ([]*dm.CapmRun, error)
}

type ServiceContext struct {
	Stocks         PriceSource
	Market         PriceSource
	MarketSeriesId string
	RiskFreeRate   float64 // used when a request does not set one

	// optional
	RunHistory RunHistory
	Metrics    *Metrics

	validate *validator.Validate
	now      func() time.Time
}

func NewServiceContext(stocks, market PriceSource, marketSeriesId string, riskFreeRate float64) *ServiceContext {
	return &ServiceContext{
		Stocks:         stocks,
		Market:         market,
		MarketSeriesId: marketSeriesId,
		RiskFreeRate:   riskFreeRate,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		now:            time.Now,
	}
}
