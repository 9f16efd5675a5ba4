package rqlitesink

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	rqlitehttp "github.com/rqlite/rqlite-go-http"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Executor implements gfx.MigrationExecutor for rqlite.
type Executor struct {
	client          *rqlitehttp.Client
	timeout         time.Duration
	readConsistency rqlitehttp.ReadConsistencyLevel
}

func (re *Executor) execute(ctx context.Context, stmts rqlitehttp.SQLStatements) error {
	opts := &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Wait:        true,
		Timeout:     re.timeout,
	}
	qr, err := re.client.Execute(ctx, stmts, opts)
	if err != nil {
		return err
	}
	for i, result := range qr.Results {
		if result.Error != "" {
			return fmt.Errorf("sql execution failed: index %d: %s", i, result.Error)
		}
	}
	return nil
}

// splitScript splits a migration into statements, since rqlite executes one
// statement per entry.
func splitScript(sql string) (stmts rqlitehttp.SQLStatements) {
	for _, s := range strings.Split(sql, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, rqlitehttp.SQLStatement{SQL: s})
		}
	}
	return stmts
}

func (re *Executor) Exec(ctx context.Context, sql string) error {
	return re.execute(ctx, splitScript(sql))
}

func (re *Executor) GetVersion(ctx context.Context) (int, error) {
	opts := &rqlitehttp.QueryOptions{
		Timeout: re.timeout,
		Level:   re.readConsistency,
	}
	q := rqlitehttp.SQLStatement{
		SQL: "select coalesce(max(version), 0) from migration_version",
	}
	qr, err := re.client.Query(ctx, rqlitehttp.SQLStatements{q}, opts)
	if err != nil {
		return 0, err
	}
	if len(qr.Results) != 1 {
		return 0, fmt.Errorf("expected 1 result, got %d", len(qr.Results))
	}
	if qr.Results[0].Error != "" {
		if strings.Contains(qr.Results[0].Error, "no such table") {
			return 0, nil
		}
		return 0, fmt.Errorf("%s", qr.Results[0].Error)
	}
	return scalarInt(qr.Results[0])
}

func (re *Executor) SetVersion(ctx context.Context, migrationSQL string, version int) error {
	stmts := append(splitScript(migrationSQL), rqlitehttp.SQLStatement{
		SQL: "insert into migration_version (version) values (:version)",
		NamedParams: map[string]any{
			"version": version,
		},
	})
	return re.execute(ctx, stmts)
}

// AcquireMigrationLock claims the single row of the migration_lock table. It fails
// if another process holds the lock.
func (re *Executor) AcquireMigrationLock(ctx context.Context) error {
	create := rqlitehttp.SQLStatement{
		SQL: `create table if not exists migration_lock (
			id integer primary key check (id = 1),
			locked_at text not null
		)`,
	}
	if err := re.execute(ctx, rqlitehttp.SQLStatements{create}); err != nil {
		return fmt.Errorf("failed to create migration_lock table: %w", err)
	}
	claim := rqlitehttp.SQLStatement{
		SQL: "insert into migration_lock (id, locked_at) values (1, datetime('now'))",
	}
	if err := re.execute(ctx, rqlitehttp.SQLStatements{claim}); err != nil {
		return fmt.Errorf("migration lock is held by another process: %w", err)
	}
	return nil
}

func (re *Executor) ReleaseMigrationLock(ctx context.Context) error {
	return re.execute(ctx, rqlitehttp.SQLStatements{{SQL: "delete from migration_lock where id = 1"}})
}

func scalarInt(result rqlitehttp.QueryResult) (int, error) {
	if len(result.Values) != 1 {
		return 0, fmt.Errorf("expected 1 row, got %d", len(result.Values))
	}
	if len(result.Values[0]) != 1 {
		return 0, fmt.Errorf("expected 1 column, got %d", len(result.Values[0]))
	}
	vt, ok := result.Values[0][0].(float64)
	if !ok {
		return 0, fmt.Errorf("expected float64, got %T", result.Values[0][0])
	}
	return int(vt), nil
}
