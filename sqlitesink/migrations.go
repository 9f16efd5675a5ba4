package sqlitesink

import (
	"context"
	"embed"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Executor implements gfx.MigrationExecutor for SQLite.
type Executor struct {
	pool *sqlitex.Pool
}

func (se *Executor) Exec(ctx context.Context, sql string) error {
	conn, err := se.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer se.pool.Put(conn)
	return sqlitex.ExecScript(conn, sql)
}

func (se *Executor) GetVersion(ctx context.Context) (version int, err error) {
	conn, err := se.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer se.pool.Put(conn)
	err = sqlitex.Execute(conn, "select coalesce(max(version), 0) from migration_version;", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = int(stmt.ColumnInt64(0))
			return nil
		},
	})
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return 0, nil
	}
	return version, err
}

func (se *Executor) SetVersion(ctx context.Context, migrationSQL string, version int) (err error) {
	conn, err := se.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer se.pool.Put(conn)
	defer sqlitex.Transaction(conn)(&err)
	if err = sqlitex.ExecScript(conn, migrationSQL); err != nil {
		return err
	}
	return sqlitex.Execute(conn, "insert into migration_version (version) values (:version);", &sqlitex.ExecOptions{
		Named: map[string]any{":version": version},
	})
}

// AcquireMigrationLock is a no-op: SQLite's database write lock serializes migrations.
func (se *Executor) AcquireMigrationLock(ctx context.Context) error { return nil }

func (se *Executor) ReleaseMigrationLock(ctx context.Context) error { return nil }
