package sqlstore

import (
	"context"
	"fmt"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds every store on top of one bun handle.
type RepositoryFactory struct {
	db *bun.DB

	runStore    *RunStore
	logStore    *LogStore
	recordStore *RecordStore

	bufferWindow time.Duration
	recordOpts   []RecordStoreOption
}

type FactoryOption func(*RepositoryFactory)

func WithBufferWindow(window time.Duration) FactoryOption {
	return func(f *RepositoryFactory) {
		if window >= 0 {
			f.bufferWindow = window
		}
	}
}

func WithRecordStoreOptions(opts ...RecordStoreOption) FactoryOption {
	return func(f *RepositoryFactory) {
		f.recordOpts = append(f.recordOpts, opts...)
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{bufferWindow: 90 * time.Minute}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.runStore != nil && f.logStore != nil && f.recordStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) RunStore() *RunStore {
	if f == nil {
		return nil
	}
	return f.runStore
}

func (f *RepositoryFactory) LogStore() *LogStore {
	if f == nil {
		return nil
	}
	return f.logStore
}

func (f *RepositoryFactory) RecordStore() *RecordStore {
	if f == nil {
		return nil
	}
	return f.recordStore
}

// Ping checks the underlying connection pool.
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if f == nil || f.db == nil {
		return fmt.Errorf("sqlstore: repository factory is not configured")
	}
	return f.db.PingContext(ctx)
}

func (f *RepositoryFactory) initStores() error {
	runStore, err := NewRunStore(f.db)
	if err != nil {
		return err
	}
	f.runStore = runStore
	logStore, err := NewLogStore(f.db)
	if err != nil {
		return err
	}
	f.logStore = logStore
	recordStore, err := NewRecordStore(f.db, f.bufferWindow, f.recordOpts...)
	if err != nil {
		return err
	}
	f.recordStore = recordStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: persistence client is required")
		}
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
