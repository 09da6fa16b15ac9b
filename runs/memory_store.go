package runs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-storesync/core"
)

// MemoryStore keeps runs and log entries in process. The run lock is held for
// the whole WithRunLock callback, standing in for a storage-level lock when
// every caller shares the same instance.
type MemoryStore struct {
	runLock sync.Mutex

	mu      sync.RWMutex
	runs    map[core.RunID]core.ScriptRun
	entries []core.LogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[core.RunID]core.ScriptRun{}}
}

func (s *MemoryStore) WithRunLock(ctx context.Context, fn func(ctx context.Context, tx core.RunLockedTx) error) error {
	if fn == nil {
		return nil
	}
	s.runLock.Lock()
	defer s.runLock.Unlock()

	staged := &memoryRunTx{store: s}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, run := range staged.inserted {
		s.runs[run.RunID] = run
	}
	return nil
}

func (s *MemoryStore) MarkEnded(_ context.Context, runID core.RunID, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return core.NotFound("runs: run not found", map[string]any{"run_id": int64(runID)})
	}
	endedAt = endedAt.UTC()
	run.EndedAt = &endedAt
	s.runs[runID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID core.RunID) (core.ScriptRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return core.ScriptRun{}, core.NotFound("runs: run not found", map[string]any{"run_id": int64(runID)})
	}
	return run, nil
}

func (s *MemoryStore) Runs() []core.ScriptRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ScriptRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out
}

// ListRuns returns up to limit runs, newest first.
func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]core.ScriptRun, error) {
	_, limit = core.NormalizePage(1, limit)
	all := s.Runs()
	out := make([]core.ScriptRun, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Ping always succeeds; it lets the store stand in as a health target.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Append(_ context.Context, entry core.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) ListByRun(_ context.Context, runID core.RunID, page int, perPage int) (core.LogPage, error) {
	page, perPage = core.NormalizePage(page, perPage)
	s.mu.RLock()
	matched := make([]core.LogEntry, 0)
	for _, entry := range s.entries {
		if entry.RunID == runID {
			matched = append(matched, entry)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return core.LogPage{
		Items:   append([]core.LogEntry(nil), matched[start:end]...),
		Page:    page,
		PerPage: perPage,
		Total:   len(matched),
		HasNext: end < len(matched),
	}, nil
}

func (s *MemoryStore) CountByLevel(_ context.Context, runID core.RunID, level core.Level) (int, error) {
	want := strings.ToUpper(strings.TrimSpace(string(level)))
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, entry := range s.entries {
		if entry.RunID == runID && strings.EqualFold(string(entry.Level), want) {
			count++
		}
	}
	return count, nil
}

type memoryRunTx struct {
	store    *MemoryStore
	inserted []core.ScriptRun
}

func (tx *memoryRunTx) MaxRunID(context.Context) (core.RunID, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	var current core.RunID
	for id := range tx.store.runs {
		if id > current {
			current = id
		}
	}
	for _, run := range tx.inserted {
		if run.RunID > current {
			current = run.RunID
		}
	}
	return current, nil
}

func (tx *memoryRunTx) InsertRun(_ context.Context, run core.ScriptRun) error {
	tx.store.mu.RLock()
	_, exists := tx.store.runs[run.RunID]
	tx.store.mu.RUnlock()
	if exists {
		return core.BadInput("runs: run id already allocated", map[string]any{"run_id": int64(run.RunID)})
	}
	tx.inserted = append(tx.inserted, run)
	return nil
}
