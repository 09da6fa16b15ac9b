package inbound

import (
	"context"
	"errors"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/core"
)

func nopLogger() core.Logger {
	return glog.Nop()
}

type fieldEntry struct {
	msg  string
	args []any
}

type fieldRecorder struct {
	mu      sync.Mutex
	entries []fieldEntry
}

func (l *fieldRecorder) record(msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fieldEntry{msg: msg, args: append([]any(nil), args...)})
}

func (l *fieldRecorder) Trace(msg string, args ...any) { l.record(msg, args) }
func (l *fieldRecorder) Debug(msg string, args ...any) { l.record(msg, args) }
func (l *fieldRecorder) Info(msg string, args ...any)  { l.record(msg, args) }
func (l *fieldRecorder) Warn(msg string, args ...any)  { l.record(msg, args) }
func (l *fieldRecorder) Error(msg string, args ...any) { l.record(msg, args) }
func (l *fieldRecorder) Fatal(msg string, args ...any) { l.record(msg, args) }

func (l *fieldRecorder) WithContext(context.Context) glog.Logger { return l }

// field returns the value logged under key for the first entry with msg.
func (l *fieldRecorder) field(msg string, key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.msg != msg {
			continue
		}
		for i := 0; i+1 < len(entry.args); i += 2 {
			if entry.args[i] == key {
				return entry.args[i+1], true
			}
		}
	}
	return nil, false
}

type recordingSynchronizer struct {
	mu        sync.Mutex
	events    []core.Event
	runIDs    []core.RunID
	err       error
	panicWith any
}

func (s *recordingSynchronizer) Synchronize(_ context.Context, event core.Event, runID core.RunID) error {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.runIDs = append(s.runIDs, runID)
	return s.err
}

func (s *recordingSynchronizer) received() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Event(nil), s.events...)
}

type spyVerifier struct {
	calls int
}

func (v *spyVerifier) Verify([]byte, string, string) bool {
	v.calls++
	return true
}

type failingAllocator struct{}

func (failingAllocator) Allocate(context.Context, string, string, string) (core.ScriptRun, error) {
	return core.ScriptRun{}, core.StoreUnavailable(errors.New("connection refused"), "runs: run id allocation failed", nil)
}
