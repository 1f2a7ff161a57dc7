package backfill

import (
	"context"
	"time"
)

// Run statuses follow the lifecycle pending → running → done/failed.
const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// Run modes.
const (
	ModeBackfill = "backfill"
	ModeGapFill  = "gapfill"
)

// Run tracks one asynchronous backfill invocation end to end.
type Run struct {
	ID             string    `json:"id"`
	Mode           string    `json:"mode"`
	Status         string    `json:"status"`
	Days           int       `json:"days"`
	Pair           string    `json:"pair,omitempty"`
	TotalInserted  int       `json:"total_inserted"`
	PairsProcessed []string  `json:"pairs_processed"`
	Warnings       []string  `json:"warnings,omitempty"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RunStore persists runs so their status survives the request that
// triggered them.
type RunStore interface {
	CreateRun(ctx context.Context, run Run) error
	UpdateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
