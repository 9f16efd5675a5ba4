package postgressink

import (
	"context"
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationLockID = 7411

// Executor implements gfx.MigrationExecutor for PostgreSQL.
type Executor struct {
	pool *pgxpool.Pool
	// conn holds the session that owns the advisory lock.
	conn *pgxpool.Conn
}

func (pe *Executor) Exec(ctx context.Context, sql string) error {
	_, err := pe.pool.Exec(ctx, sql)
	return err
}

func (pe *Executor) GetVersion(ctx context.Context) (version int, err error) {
	err = pe.pool.QueryRow(ctx, "select coalesce(max(version), 0) from migration_version").Scan(&version)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		// undefined_table
		return 0, nil
	}
	return version, err
}

func (pe *Executor) SetVersion(ctx context.Context, migrationSQL string, version int) error {
	return pgx.BeginFunc(ctx, pe.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migrationSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "insert into migration_version (version) values (@version)", pgx.NamedArgs{"version": version})
		return err
	})
}

// AcquireMigrationLock takes a session advisory lock, so the connection is held
// until the lock is released.
func (pe *Executor) AcquireMigrationLock(ctx context.Context) (err error) {
	pe.conn, err = pe.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	if _, err = pe.conn.Exec(ctx, "select pg_advisory_lock($1)", migrationLockID); err != nil {
		pe.conn.Release()
		pe.conn = nil
	}
	return err
}

func (pe *Executor) ReleaseMigrationLock(ctx context.Context) error {
	if pe.conn == nil {
		return nil
	}
	defer func() {
		pe.conn.Release()
		pe.conn = nil
	}()
	_, err := pe.conn.Exec(ctx, "select pg_advisory_unlock($1)", migrationLockID)
	return err
}
