package storesync

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the postgres schema at data/sql/migrations with dialect
// alternatives under sqlite/ and mysql/.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql data/sql/migrations/mysql/*.sql
var migrationsFS embed.FS

func GetMigrationsFS() fs.FS {
	return migrationsFS
}
