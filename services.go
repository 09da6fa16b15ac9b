package storesync

import (
	"context"

	"github.com/goliatone/go-storesync/core"
)

type Config = core.Config

type RunID = core.RunID
type Level = core.Level
type RunIdentity = core.RunIdentity
type ScriptRun = core.ScriptRun
type LogEntry = core.LogEntry
type LogPage = core.LogPage

type Event = core.Event
type OrderEvent = core.OrderEvent
type CustomerEvent = core.CustomerEvent
type SubscriptionEvent = core.SubscriptionEvent
type PingEvent = core.PingEvent
type UnknownEvent = core.UnknownEvent

type RunStore = core.RunStore
type LogStore = core.LogStore
type RecordStore = core.RecordStore
type Synchronizer = core.Synchronizer
type SyncRecord = core.SyncRecord

const (
	LevelInfo  = core.LevelInfo
	LevelError = core.LevelError
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig layers defaults, the optional YAML file at path, STORESYNC_*
// environment variables and runtime, later layers winning.
func LoadConfig(ctx context.Context, path string, runtime Config) (Config, error) {
	return core.LoadConfig(ctx, core.NewFileAndEnvConfigProvider(path), runtime)
}
