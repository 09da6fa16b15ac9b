package runs

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/core"
)

type Allocator struct {
	store  core.RunStore
	now    core.Clock
	logger core.Logger
}

type AllocatorOption func(*Allocator)

func WithAllocatorClock(clock core.Clock) AllocatorOption {
	return func(a *Allocator) {
		a.now = clock
	}
}

func WithAllocatorLogger(logger core.Logger) AllocatorOption {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAllocator(store core.RunStore, opts ...AllocatorOption) (*Allocator, error) {
	if store == nil {
		return nil, fmt.Errorf("runs: run store is required")
	}
	allocator := &Allocator{store: store}
	_, allocator.logger = glog.Resolve("storesync.runs", nil, nil)
	for _, opt := range opts {
		if opt != nil {
			opt(allocator)
		}
	}
	return allocator, nil
}

// Allocate reserves the next run id and persists its ScriptRun. The read of
// the current maximum and the insert happen under one exclusive lock scope.
// Every call yields a new run; ids are burned even if the run never ends.
func (a *Allocator) Allocate(ctx context.Context, source string, scriptName string, customer string) (core.ScriptRun, error) {
	if a == nil || a.store == nil {
		return core.ScriptRun{}, fmt.Errorf("runs: allocator is not configured")
	}
	identity := core.RunIdentity{Customer: customer, Source: source, ScriptName: scriptName}.Normalize()

	var allocated core.ScriptRun
	err := a.store.WithRunLock(ctx, func(ctx context.Context, tx core.RunLockedTx) error {
		current, err := tx.MaxRunID(ctx)
		if err != nil {
			return err
		}
		if current < 0 {
			return fmt.Errorf("runs: run store reported negative max run id %d", current)
		}
		run := core.ScriptRun{
			RunID:      current + 1,
			Customer:   identity.Customer,
			Source:     identity.Source,
			ScriptName: identity.ScriptName,
			StartedAt:  a.now.Now(),
		}
		if err := tx.InsertRun(ctx, run); err != nil {
			return err
		}
		allocated = run
		return nil
	})
	if err != nil {
		if !core.IsKind(err, core.ErrorStoreUnavailable) {
			err = core.StoreUnavailable(err, "runs: run id allocation failed", map[string]any{
				"source":      identity.Source,
				"script_name": identity.ScriptName,
			})
		}
		core.LogWithLevel(ctx, a.logger, "error", "run id allocation failed", map[string]any{
			"source":      identity.Source,
			"script_name": identity.ScriptName,
			"error":       err.Error(),
		})
		return core.ScriptRun{}, err
	}
	if !allocated.RunID.Valid() {
		return core.ScriptRun{}, core.StoreUnavailable(nil, "runs: run store produced an invalid run id", nil)
	}
	return allocated, nil
}
