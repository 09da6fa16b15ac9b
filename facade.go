package storesync

import (
	"fmt"

	gocommand "github.com/goliatone/go-storesync/adapters/gocommand"
	"github.com/goliatone/go-storesync/command"
	"github.com/goliatone/go-storesync/query"
)

// RunsReader is the read side served by the run store.
type RunsReader interface {
	query.RunReader
	query.RecentRunsReader
}

type Commands struct {
	SyncOrder        *command.SyncOrderCommand
	SyncCustomer     *command.SyncCustomerCommand
	SyncSubscription *command.SyncSubscriptionCommand
}

type Queries struct {
	GetRun         *query.GetRunQuery
	ListRecentRuns *query.ListRecentRunsQuery
	ListRunLogs    *query.ListRunLogsQuery
}

type Facade struct {
	records  command.RecordService
	runs     RunsReader
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	logReader query.RunLogReader
}

func WithLogReader(reader query.RunLogReader) FacadeOption {
	return func(options *facadeOptions) {
		options.logReader = reader
	}
}

func NewFacade(records command.RecordService, runs RunsReader, opts ...FacadeOption) (*Facade, error) {
	if records == nil {
		return nil, fmt.Errorf("storesync: record service is required")
	}
	if runs == nil {
		return nil, fmt.Errorf("storesync: runs reader is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	logs := cfg.logReader
	if logs == nil {
		logs = resolveLogReader(runs)
	}

	facade := &Facade{records: records, runs: runs}
	facade.commands = Commands{
		SyncOrder:        command.NewSyncOrderCommand(records),
		SyncCustomer:     command.NewSyncCustomerCommand(records),
		SyncSubscription: command.NewSyncSubscriptionCommand(records),
	}
	facade.queries = Queries{
		GetRun:         query.NewGetRunQuery(runs),
		ListRecentRuns: query.NewListRecentRunsQuery(runs),
		ListRunLogs:    query.NewListRunLogsQuery(logs),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Records() command.RecordService {
	if f == nil {
		return nil
	}
	return f.records
}

// SubscribeQueries registers the read queries on adapter and the dispatcher
// so callers can reach them through gocommand.Query.
func (f *Facade) SubscribeQueries(adapter *gocommand.RegistryAdapter) (*gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("storesync: facade is nil")
	}
	if adapter == nil {
		adapter = gocommand.NewRegistryAdapter(nil)
	}
	subs := &gocommand.Subscriptions{}
	getRun, err := gocommand.RegisterAndSubscribeQuery(adapter, f.queries.GetRun)
	if err != nil {
		return nil, err
	}
	subs.Add(getRun)
	recent, err := gocommand.RegisterAndSubscribeQuery(adapter, f.queries.ListRecentRuns)
	if err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.Add(recent)
	logs, err := gocommand.RegisterAndSubscribeQuery(adapter, f.queries.ListRunLogs)
	if err != nil {
		subs.Unsubscribe()
		return nil, err
	}
	subs.Add(logs)
	return subs, nil
}

func resolveLogReader(runs RunsReader) query.RunLogReader {
	if reader, ok := runs.(query.RunLogReader); ok {
		return reader
	}
	return nil
}
