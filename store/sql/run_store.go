package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goliatone/go-storesync/core"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const mysqlRunLockName = "storesync.script_runs"

// RunStore persists ScriptRun rows and serializes allocation with a
// storage-level lock chosen per dialect:
//
//	postgres  LOCK TABLE script_runs IN EXCLUSIVE MODE inside the transaction
//	mysql     GET_LOCK on a dedicated connection, released after commit
//	sqlite    a write statement first thing in the transaction takes the
//	          database RESERVED lock
//
// Readers of script_runs are never blocked by the postgres lock mode.
type RunStore struct {
	db      *bun.DB
	dialect dialect.Name
}

func NewRunStore(db *bun.DB) (*RunStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &RunStore{db: db, dialect: db.Dialect().Name()}, nil
}

func (s *RunStore) WithRunLock(ctx context.Context, fn func(ctx context.Context, tx core.RunLockedTx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: run store is not configured")
	}
	if fn == nil {
		return core.BadInput("run lock callback is required", nil)
	}
	if s.dialect == dialect.MySQL {
		return s.withAdvisoryLock(ctx, fn)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.lockTable(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, &runLockedTx{tx: tx})
	})
}

func (s *RunStore) lockTable(ctx context.Context, tx bun.Tx) error {
	var query string
	switch s.dialect {
	case dialect.PG:
		query = "LOCK TABLE script_runs IN EXCLUSIVE MODE"
	case dialect.SQLite:
		query = "UPDATE script_runs SET run_id = run_id WHERE 0 = 1"
	default:
		return fmt.Errorf("sqlstore: unsupported dialect %q for run lock", s.dialect)
	}
	if _, err := tx.NewRaw(query).Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: acquire run lock: %w", err)
	}
	return nil
}

// withAdvisoryLock holds a named MySQL lock on one pooled connection. The
// lock is released only after the transaction commits so a waiter can never
// read MAX(run_id) before the winner's row is visible.
func (s *RunStore) withAdvisoryLock(ctx context.Context, fn func(ctx context.Context, tx core.RunLockedTx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: reserve connection for run lock: %w", err)
	}
	defer conn.Close()

	var acquired sql.NullInt64
	if err := conn.NewRaw("SELECT GET_LOCK(?, -1)", mysqlRunLockName).Scan(ctx, &acquired); err != nil {
		return fmt.Errorf("sqlstore: acquire run lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		return fmt.Errorf("sqlstore: run lock %q was not granted", mysqlRunLockName)
	}
	defer func() {
		var released sql.NullInt64
		_ = conn.NewRaw("SELECT RELEASE_LOCK(?)", mysqlRunLockName).Scan(context.WithoutCancel(ctx), &released)
	}()

	return conn.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &runLockedTx{tx: tx})
	})
}

func (s *RunStore) MarkEnded(ctx context.Context, runID core.RunID, endedAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: run store is not configured")
	}
	if !runID.Valid() {
		return core.BadInput("run id must be positive", map[string]any{"run_id": int64(runID)})
	}
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	res, err := s.db.NewUpdate().
		Model((*scriptRunRecord)(nil)).
		Set("ended_at = ?", endedAt.UTC()).
		Where("run_id = ?", int64(runID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return core.NotFound("script run not found", map[string]any{"run_id": int64(runID)})
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, runID core.RunID) (core.ScriptRun, error) {
	if s == nil || s.db == nil {
		return core.ScriptRun{}, fmt.Errorf("sqlstore: run store is not configured")
	}
	record := &scriptRunRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("run_id = ?", int64(runID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.ScriptRun{}, core.NotFound("script run not found", map[string]any{"run_id": int64(runID)})
		}
		return core.ScriptRun{}, err
	}
	return record.toDomain(), nil
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]core.ScriptRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: run store is not configured")
	}
	_, limit = core.NormalizePage(1, limit)
	records := make([]scriptRunRecord, 0, limit)
	if err := s.db.NewSelect().
		Model(&records).
		OrderExpr("run_id DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]core.ScriptRun, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

type runLockedTx struct {
	tx bun.Tx
}

func (t *runLockedTx) MaxRunID(ctx context.Context) (core.RunID, error) {
	var maxID int64
	if err := t.tx.NewRaw("SELECT COALESCE(MAX(run_id), 0) FROM script_runs").Scan(ctx, &maxID); err != nil {
		return 0, err
	}
	return core.RunID(maxID), nil
}

func (t *runLockedTx) InsertRun(ctx context.Context, run core.ScriptRun) error {
	if !run.RunID.Valid() {
		return core.BadInput("run id must be positive", map[string]any{"run_id": int64(run.RunID)})
	}
	_, err := t.tx.NewInsert().Model(newScriptRunRecord(run)).Exec(ctx)
	return err
}
