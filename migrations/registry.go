// Package migrations exposes the embedded run-log and sync-record schema per
// SQL dialect and checks that every dialect ships the same versions.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	storesync "github.com/goliatone/go-storesync"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"

	rootDir = "data/sql/migrations"
)

// dialectDirs lists each dialect's directory below rootDir. Postgres owns
// the base directory.
var dialectDirs = []struct {
	dialect string
	dir     string
}{
	{DialectPostgres, "."},
	{DialectSQLite, "sqlite"},
	{DialectMySQL, "mysql"},
}

// DialectForDriver maps a database/sql driver name onto a migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "postgres", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("migrations: no dialect for driver %q", driver)
	}
}

type FilesystemSpec struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets limits registration to the named dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if next := normalizeDialects(targets); len(next) > 0 {
			r.ValidationTargets = next
		}
	}
}

func WithFilesystems(filesystems ...FilesystemSpec) Option {
	return func(r *Registration) {
		copied := make([]FilesystemSpec, 0, len(filesystems))
		for _, candidate := range filesystems {
			candidate.Dialect = strings.TrimSpace(strings.ToLower(candidate.Dialect))
			if candidate.Dialect == "" || candidate.FS == nil {
				continue
			}
			copied = append(copied, candidate)
		}
		if len(copied) > 0 {
			r.Filesystems = copied
		}
	}
}

// Filesystems resolves every dialect directory from the embedded schema, or
// from root when given. Each directory must pair every up file with a down
// file, and all dialects must carry the same versions.
func Filesystems(root ...fs.FS) ([]FilesystemSpec, error) {
	source := storesync.GetMigrationsFS()
	if len(root) > 0 && root[0] != nil {
		source = root[0]
	}
	base, err := fs.Sub(source, rootDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", rootDir, err)
	}

	out := make([]FilesystemSpec, 0, len(dialectDirs))
	for _, entry := range dialectDirs {
		fsys := base
		if entry.dir != "." {
			if fsys, err = fs.Sub(base, entry.dir); err != nil {
				return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", entry.dialect, err)
			}
		}
		dir := path.Join(rootDir, entry.dir)
		found, err := versions(fsys)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s (%s): %w", entry.dialect, dir, err)
		}
		out = append(out, FilesystemSpec{Dialect: entry.dialect, Path: dir, FS: fsys, Versions: found})
	}

	reference := out[0]
	for _, candidate := range out[1:] {
		if !slices.Equal(reference.Versions, candidate.Versions) {
			return nil, fmt.Errorf("migrations: %s versions %v differ from %s versions %v",
				candidate.Dialect, candidate.Versions, reference.Dialect, reference.Versions)
		}
	}
	return out, nil
}

// Register hands each targeted dialect filesystem to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       "go-storesync",
		ValidationTargets: []string{DialectPostgres, DialectSQLite, DialectMySQL},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if len(reg.Filesystems) == 0 {
		filesystems, err := Filesystems()
		if err != nil {
			return reg, err
		}
		reg.Filesystems = filesystems
	}

	registered := 0
	for _, candidate := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, candidate.Dialect) {
			continue
		}
		if err := registerFn(ctx, candidate.Dialect, reg.SourceLabel, candidate.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", candidate.Dialect, candidate.Path, err)
		}
		registered++
	}
	if registered == 0 {
		return reg, fmt.Errorf("migrations: no filesystem matches targets %v", reg.ValidationTargets)
	}
	return reg, nil
}

// versions returns the sorted migration prefixes found in fsys, for example
// "00001_storesync_run_log".
func versions(fsys fs.FS) ([]string, error) {
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("no *.up.sql files")
	}
	out := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, ".up.sql")
		if _, err := fs.Stat(fsys, version+".down.sql"); err != nil {
			return nil, fmt.Errorf("%s has no down migration", up)
		}
		out = append(out, version)
	}
	slices.Sort(out)
	return out, nil
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value != "" && !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}
