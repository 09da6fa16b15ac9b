package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type scriptRunRecord struct {
	bun.BaseModel `bun:"table:script_runs,alias:sr"`

	RunID      int64      `bun:"run_id,pk"`
	Customer   string     `bun:"customer,notnull"`
	Source     string     `bun:"source,notnull"`
	ScriptName string     `bun:"script_name,notnull"`
	StartedAt  time.Time  `bun:"started_at,notnull"`
	EndedAt    *time.Time `bun:"ended_at"`
}

type scriptRunLogRecord struct {
	bun.BaseModel `bun:"table:script_run_logs,alias:srl"`

	ID         string    `bun:"id,pk"`
	RunID      int64     `bun:"run_id,notnull"`
	Level      string    `bun:"level,notnull"`
	Message    string    `bun:"message,notnull"`
	LoggedAt   time.Time `bun:"logged_at,notnull"`
	Customer   string    `bun:"customer,notnull"`
	Source     string    `bun:"source,notnull"`
	ScriptName string    `bun:"script_name,notnull"`
	TableName  *string   `bun:"table_name"`
}

type syncRecord struct {
	bun.BaseModel `bun:"table:sync_records,alias:syr"`

	ID            string         `bun:"id,pk"`
	Kind          string         `bun:"kind,notnull"`
	EntityID      string         `bun:"entity_id,notnull"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	RunID         int64          `bun:"run_id,notnull"`
	BufferedUntil time.Time      `bun:"buffered_until,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
