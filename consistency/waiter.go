// Package consistency waits for downstream rows to leave the streaming
// buffer before they are mutated.
package consistency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-storesync/core"
)

const (
	DefaultMaxAttempts  = 10
	DefaultWaitInterval = 10 * time.Second
)

type Outcome string

const (
	OutcomePolling   Outcome = "polling"
	OutcomeVisible   Outcome = "visible"
	OutcomeExhausted Outcome = "exhausted"
)

// Predicate reports whether the record is STILL in the unsafe buffered
// window. Returning false means the window has cleared.
type Predicate func(ctx context.Context) (stillBuffered bool, err error)

type Check struct {
	EntityID  string
	TableName string
	Predicate Predicate
}

type Result struct {
	Outcome  Outcome
	Attempts int
	Err      error
}

// Visible reports whether the buffered window cleared. Callers receiving
// false must not mutate the record.
func (r Result) Visible() bool {
	return r.Outcome == OutcomeVisible
}

type SleepFunc func(ctx context.Context, delay time.Duration) error

type Waiter struct {
	MaxAttempts  int
	WaitInterval time.Duration
	Auditor      core.Auditor
	Sleep        SleepFunc
}

func NewWaiter(cfg core.ConsistencyConfig, auditor core.Auditor) *Waiter {
	return &Waiter{
		MaxAttempts:  cfg.MaxAttempts,
		WaitInterval: cfg.Interval(),
		Auditor:      auditor,
	}
}

// Wait polls check.Predicate until it reports the record cleared or
// MaxAttempts consecutive still-buffered results have been seen. It sleeps
// WaitInterval between attempts and blocks the calling goroutine.
func (w *Waiter) Wait(ctx context.Context, runID core.RunID, check Check) Result {
	if check.Predicate == nil {
		return Result{Outcome: OutcomeExhausted, Err: fmt.Errorf("consistency: predicate is required")}
	}
	maxAttempts, interval, sleep := w.settings()
	entity := describe(check)

	attempts := 0
	for {
		stillBuffered, err := check.Predicate(ctx)
		if err == nil && !stillBuffered {
			w.audit(ctx, runID, core.LevelInfo, fmt.Sprintf("%s cleared the streaming buffer after %d attempt(s)", entity, attempts+1), check.TableName)
			return Result{Outcome: OutcomeVisible, Attempts: attempts}
		}
		attempts++
		if err != nil {
			w.audit(ctx, runID, core.LevelError, fmt.Sprintf("%s buffer check %d/%d failed: %v", entity, attempts, maxAttempts, err), check.TableName)
		} else {
			w.audit(ctx, runID, core.LevelInfo, fmt.Sprintf("%s still in streaming buffer (attempt %d/%d)", entity, attempts, maxAttempts), check.TableName)
		}
		if attempts >= maxAttempts {
			w.audit(ctx, runID, core.LevelError, fmt.Sprintf("%s still in streaming buffer after %d attempts; update is unsafe", entity, attempts), check.TableName)
			return Result{Outcome: OutcomeExhausted, Attempts: attempts, Err: err}
		}
		if sleepErr := sleep(ctx, interval); sleepErr != nil {
			w.audit(ctx, runID, core.LevelError, fmt.Sprintf("%s buffer wait interrupted: %v", entity, sleepErr), check.TableName)
			return Result{Outcome: OutcomeExhausted, Attempts: attempts, Err: sleepErr}
		}
	}
}

// WaitUntilVisible is the boolean form of Wait.
func (w *Waiter) WaitUntilVisible(ctx context.Context, runID core.RunID, check Check) bool {
	return w.Wait(ctx, runID, check).Visible()
}

func (w *Waiter) settings() (int, time.Duration, SleepFunc) {
	maxAttempts := DefaultMaxAttempts
	interval := DefaultWaitInterval
	var sleep SleepFunc = waitWithContext
	if w != nil {
		if w.MaxAttempts > 0 {
			maxAttempts = w.MaxAttempts
		}
		if w.WaitInterval > 0 {
			interval = w.WaitInterval
		}
		if w.Sleep != nil {
			sleep = w.Sleep
		}
	}
	return maxAttempts, interval, sleep
}

func (w *Waiter) audit(ctx context.Context, runID core.RunID, level core.Level, message string, tableName string) {
	if w == nil || w.Auditor == nil {
		return
	}
	w.Auditor.Record(ctx, runID, level, message, tableName)
}

func describe(check Check) string {
	entity := strings.TrimSpace(check.EntityID)
	table := strings.TrimSpace(check.TableName)
	switch {
	case entity != "" && table != "":
		return fmt.Sprintf("%s %s", table, entity)
	case entity != "":
		return "record " + entity
	default:
		return "record"
	}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
