package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-storesync/core"
	"github.com/goliatone/go-storesync/migrations"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type persistenceConfig struct {
	db          core.DatabaseConfig
	serviceName string
}

func (c persistenceConfig) GetDebug() bool {
	return c.db.Debug
}

func (c persistenceConfig) GetDriver() string {
	return c.db.Driver
}

func (c persistenceConfig) GetServer() string {
	return c.db.DSN
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	return c.db.PingTimeoutDuration()
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return c.serviceName
}

// openDatabase connects the configured driver and applies the embedded
// migrations for its dialect.
func openDatabase(ctx context.Context, cfg core.Config) (*persistence.Client, error) {
	driver := strings.TrimSpace(cfg.Database.Driver)
	target, err := migrations.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	var sqlDialect schema.Dialect
	switch driver {
	case core.DriverPostgres:
		sqlDialect = pgdialect.New()
	case core.DriverSQLite:
		sqlDialect = sqlitedialect.New()
	case core.DriverMySQL:
		sqlDialect = mysqldialect.New()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == core.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{db: cfg.Database, serviceName: cfg.ServiceName}, sqlDB, sqlDialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}

	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(target))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return client, nil
}
