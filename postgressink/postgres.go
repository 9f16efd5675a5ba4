// Package postgressink exports graphs to PostgreSQL.
package postgressink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/sink"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	Log  *slog.Logger
	Pool *pgxpool.Pool
	Now  func() time.Time
	// BatchSize is the number of rows per insert statement. Zero uses gfx.DefaultBatchSize.
	BatchSize int
}

var _ sink.Sink = (*Postgres)(nil)

func New(log *slog.Logger, pool *pgxpool.Pool) *Postgres {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Postgres{
		Log:  log,
		Pool: pool,
		Now:  time.Now,
	}
}

func (p *Postgres) Init(ctx context.Context) error {
	if err := gfx.NewMigrationRunner(p.Log, &Executor{pool: p.Pool}, migrationsFS).Migrate(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (p *Postgres) Write(ctx context.Context, name string, g *graph.Graph) (err error) {
	rows, err := sink.Flatten(name, g, p.Now())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	stmts, err := sink.Postgres.Statements(ctx, rows, p.BatchSize)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("write: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	for i, stmt := range stmts {
		if _, err = tx.Exec(ctx, stmt.SQL, pgx.NamedArgs(stmt.Args)); err != nil {
			return fmt.Errorf("write: statement %d: %w", i, err)
		}
	}
	p.Log.Debug("wrote graph", slog.String("name", name), slog.Int("statements", len(stmts)))
	return nil
}

// Graphs lists the stored graphs by name.
func (p *Postgres) Graphs(ctx context.Context) (graphs []sink.GraphRow, err error) {
	rows, err := p.Pool.Query(ctx, `select name, version, creator, description, keywords, last_modified, mode, time_mode, node_count, edge_count, exported from gexf_graph order by name;`)
	if err != nil {
		return nil, fmt.Errorf("graphs: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r sink.GraphRow
		if err = rows.Scan(&r.Name, &r.Version, &r.Creator, &r.Description, &r.Keywords, &r.LastModified, &r.Mode, &r.TimeMode, &r.NodeCount, &r.EdgeCount, &r.Exported); err != nil {
			return nil, fmt.Errorf("graphs: scan: %w", err)
		}
		graphs = append(graphs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("graphs: rows error: %w", err)
	}
	return graphs, nil
}

func (p *Postgres) queryScalarInt(ctx context.Context, sql string, args pgx.NamedArgs) (v int, err error) {
	row := p.Pool.QueryRow(ctx, sql, args)
	if err = row.Scan(&v); err != nil {
		return 0, fmt.Errorf("queryscalarint: %w", err)
	}
	return v, nil
}
