package storesync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocommand "github.com/goliatone/go-storesync/adapters/gocommand"
	"github.com/goliatone/go-storesync/adapters/gologger"
	"github.com/goliatone/go-storesync/consistency"
	"github.com/goliatone/go-storesync/core"
	"github.com/goliatone/go-storesync/httpapi"
	"github.com/goliatone/go-storesync/inbound"
	"github.com/goliatone/go-storesync/query"
	"github.com/goliatone/go-storesync/runs"
	recordsync "github.com/goliatone/go-storesync/sync"
	"go.uber.org/zap"
)

// RunRepository is the run store as used by the application: lock-guarded
// allocation plus the admin read side.
type RunRepository interface {
	core.RunStore
	RunsReader
}

type LogRepository interface {
	core.LogStore
	query.RunLogReader
}

type AppDependencies struct {
	Runs    RunRepository
	Logs    LogRepository
	Records core.RecordStore
	Health  httpapi.HealthChecker
	Logger  *zap.Logger
	Clock   core.Clock
	// Sleep overrides the consistency waiter's pause between attempts.
	Sleep consistency.SleepFunc
}

// App wires the webhook pipeline: allocator, audit log, consistency waiter,
// command routed synchronizer, inbound dispatcher and HTTP router.
//
// The synchronizer subscribes on the process wide go-command dispatcher, so
// only one App should be open per process at a time.
type App struct {
	config        Config
	logger        *zap.Logger
	audit         *runs.AuditLog
	dispatcher    *inbound.Dispatcher
	synchronizer  *recordsync.CommandSynchronizer
	facade        *Facade
	subscriptions *gocommand.Subscriptions
	router        *gin.Engine
}

func NewApp(cfg Config, deps AppDependencies) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Runs == nil {
		return nil, fmt.Errorf("storesync: run store is required")
	}
	if deps.Logs == nil {
		return nil, fmt.Errorf("storesync: log store is required")
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("storesync: record store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loggers := gologger.NewZapProvider(logger)
	identity := cfg.Webhook.Identity()

	allocator, err := runs.NewAllocator(deps.Runs,
		runs.WithAllocatorClock(deps.Clock),
		runs.WithAllocatorLogger(loggers.GetLogger("runs")),
	)
	if err != nil {
		return nil, err
	}
	audit := runs.NewAuditLog(deps.Logs, deps.Runs,
		runs.WithIdentity(identity),
		runs.WithAuditClock(deps.Clock),
		runs.WithFallback(loggers.GetLogger("audit")),
	)

	waiter := consistency.NewWaiter(cfg.Consistency, audit)
	waiter.Sleep = deps.Sleep

	records, err := recordsync.NewRecordSynchronizer(deps.Records, waiter, audit,
		recordsync.WithRecordLogger(loggers.GetLogger("sync")),
	)
	if err != nil {
		return nil, err
	}
	adapter := gocommand.NewRegistryAdapter(nil)
	synchronizer, err := recordsync.NewCommandSynchronizer(records,
		recordsync.WithRegistryAdapter(adapter),
		recordsync.WithCommandAuditor(audit),
		recordsync.WithCommandLogger(loggers.GetLogger("sync")),
	)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:       cfg,
		logger:       logger,
		audit:        audit,
		synchronizer: synchronizer,
	}
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	facade, err := NewFacade(records, deps.Runs, WithLogReader(deps.Logs))
	if err != nil {
		return fail(err)
	}
	app.facade = facade
	subscriptions, err := facade.SubscribeQueries(adapter)
	if err != nil {
		return fail(err)
	}
	app.subscriptions = subscriptions

	dispatcher, err := inbound.NewDispatcher(inbound.Config{
		Secret:     cfg.Webhook.Secret,
		Identity:   identity,
		LogPayload: cfg.Webhook.LogPayload,
	}, allocator, audit, synchronizer,
		inbound.WithLogger(loggers.GetLogger("inbound")),
		inbound.WithClock(deps.Clock),
	)
	if err != nil {
		return fail(err)
	}
	app.dispatcher = dispatcher

	router, err := httpapi.NewRouter(httpapi.Config{
		WebhookPath: cfg.HTTP.WebhookPath,
		AdminSecret: cfg.Admin.JWTSecret,
		CORSOrigins: cfg.HTTP.Origins(),
		Debug:       !cfg.Production(),
		PingTimeout: cfg.Database.PingTimeoutDuration(),
	}, httpapi.Dependencies{
		Webhook: dispatcher,
		Health:  deps.Health,
		Runs:    deps.Runs,
		Logs:    deps.Logs,
		Logger:  logger,
		Now:     deps.Clock,
	})
	if err != nil {
		return fail(err)
	}
	app.router = router
	return app, nil
}

func (a *App) Config() Config {
	if a == nil {
		return Config{}
	}
	return a.config
}

func (a *App) Router() http.Handler {
	if a == nil || a.router == nil {
		return nil
	}
	return a.router
}

func (a *App) Dispatcher() *inbound.Dispatcher {
	if a == nil {
		return nil
	}
	return a.dispatcher
}

func (a *App) Facade() *Facade {
	if a == nil {
		return nil
	}
	return a.facade
}

// Server returns an http.Server bound to the configured address.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:              a.config.HTTP.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handle runs one webhook delivery outside HTTP.
func (a *App) Handle(ctx context.Context, body []byte, headers http.Header) inbound.Response {
	return a.dispatcher.Handle(ctx, inbound.Request{Body: body, Headers: headers})
}

// Close detaches the command and query handlers from the dispatcher.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.subscriptions != nil {
		a.subscriptions.Unsubscribe()
	}
	if a.synchronizer != nil {
		a.synchronizer.Close()
	}
	_ = a.logger.Sync()
}
