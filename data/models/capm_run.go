package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
)

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

type CapmRun struct {
	Id           uuid.UUID   `db:"id"`
	Symbols      []string    `db:"symbols"`
	Years        int         `db:"years"`
	RiskFreeRate float64     `db:"risk_free_rate"`
	Status       string      `db:"status"`
	ErrorMessage null.String `db:"error_message"`
	CreatedAt    time.Time   `db:"created_at"`
	CompletedAt  null.Time   `db:"completed_at"`
}
