package gfx

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
)

// MigrationExecutor applies schema changes to a sink database.
type MigrationExecutor interface {
	Exec(ctx context.Context, sql string) error
	// GetVersion returns the highest applied migration version, 0 when none have run.
	GetVersion(ctx context.Context) (int, error)
	// SetVersion executes a migration and records its version in a single transaction.
	SetVersion(ctx context.Context, migrationSQL string, version int) error
	// AcquireMigrationLock acquires an exclusive lock for migration operations.
	AcquireMigrationLock(ctx context.Context) error
	// ReleaseMigrationLock releases the migration lock.
	ReleaseMigrationLock(ctx context.Context) error
}

// MigrationRunner applies the numbered SQL files in a migrations directory.
type MigrationRunner struct {
	executor MigrationExecutor
	fsys     fs.FS
	log      *slog.Logger
}

// NewMigrationRunner creates a runner over fsys, which must contain a migrations
// directory of files named like 01_create_tables.sql.
func NewMigrationRunner(log *slog.Logger, executor MigrationExecutor, fsys fs.FS) *MigrationRunner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &MigrationRunner{
		executor: executor,
		fsys:     fsys,
		log:      log,
	}
}

// Migration is one numbered schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations lists the migrations in version order.
func (mr *MigrationRunner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(mr.fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, name, err := parseMigrationFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		sql, err := fs.ReadFile(mr.fsys, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     strings.TrimSpace(string(sql)),
		})
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}
	return migrations, nil
}

// Migrate runs all pending migrations under the executor's migration lock.
// Version 1 must create the migration_version table and record itself.
func (mr *MigrationRunner) Migrate(ctx context.Context) (err error) {
	if err = mr.executor.AcquireMigrationLock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if releaseErr := mr.executor.ReleaseMigrationLock(ctx); releaseErr != nil {
			mr.log.Warn("failed to release migration lock", slog.Any("error", releaseErr))
		}
	}()

	current, err := mr.executor.GetVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	migrations, err := mr.Migrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		mr.log.Debug("applying migration", slog.Int("version", m.Version), slog.String("name", m.Name))
		if m.Version == 1 {
			err = mr.executor.Exec(ctx, m.SQL)
		} else {
			err = mr.executor.SetVersion(ctx, m.SQL, m.Version)
		}
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// parseMigrationFilename splits 02_add_index.sql into 2 and "add index".
func parseMigrationFilename(filename string) (version int, name string, err error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, rest, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", fmt.Errorf("invalid migration filename %q: expected <version>_<name>.sql", filename)
	}
	version, err = strconv.Atoi(prefix)
	if err != nil || version < 1 {
		return 0, "", fmt.Errorf("invalid version number in migration filename %q", filename)
	}
	return version, strings.ReplaceAll(rest, "_", " "), nil
}
