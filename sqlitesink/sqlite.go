// Package sqlitesink exports graphs to a SQLite database.
package sqlitesink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/sink"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

func New(log *slog.Logger, pool *sqlitex.Pool) *Sqlite {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Sqlite{
		Log:  log,
		Pool: pool,
		Now:  time.Now,
	}
}

type Sqlite struct {
	Log  *slog.Logger
	Pool *sqlitex.Pool
	Now  func() time.Time
	// BatchSize is the number of rows per insert statement. Zero uses gfx.DefaultBatchSize.
	BatchSize int
}

var _ sink.Sink = (*Sqlite)(nil)

func (s *Sqlite) Init(ctx context.Context) error {
	if err := gfx.NewMigrationRunner(s.Log, &Executor{pool: s.Pool}, migrationsFS).Migrate(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (s *Sqlite) Write(ctx context.Context, name string, g *graph.Graph) (err error) {
	rows, err := sink.Flatten(name, g, s.Now())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	stmts, err := sink.SQLite.Statements(ctx, rows, s.BatchSize)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	conn, err := s.Pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.Pool.Put(conn)
	defer sqlitex.Transaction(conn)(&err)

	for i, stmt := range stmts {
		if err = sqlitex.Execute(conn, stmt.SQL, &sqlitex.ExecOptions{Named: stmt.Args}); err != nil {
			return fmt.Errorf("write: statement %d: %w", i, err)
		}
	}
	s.Log.Debug("wrote graph", slog.String("name", name), slog.Int("statements", len(stmts)))
	return nil
}

// Graphs lists the stored graphs by name.
func (s *Sqlite) Graphs(ctx context.Context) (graphs []sink.GraphRow, err error) {
	conn, err := s.Pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Pool.Put(conn)
	opts := &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			graphs = append(graphs, sink.GraphRow{
				Name:         stmt.GetText("name"),
				Version:      stmt.GetText("version"),
				Creator:      stmt.GetText("creator"),
				Description:  stmt.GetText("description"),
				Keywords:     stmt.GetText("keywords"),
				LastModified: stmt.GetText("last_modified"),
				Mode:         stmt.GetText("mode"),
				TimeMode:     stmt.GetText("time_mode"),
				NodeCount:    int(stmt.GetInt64("node_count")),
				EdgeCount:    int(stmt.GetInt64("edge_count")),
				Exported:     stmt.GetText("exported"),
			})
			return nil
		},
	}
	sql := `select name, version, creator, description, keywords, last_modified, mode, time_mode, node_count, edge_count, exported from gexf_graph order by name;`
	if err = sqlitex.Execute(conn, sql, opts); err != nil {
		return nil, fmt.Errorf("graphs: %w", err)
	}
	return graphs, nil
}

// QueryScalarInt64 runs a query that returns a single integer.
func (s *Sqlite) QueryScalarInt64(ctx context.Context, sql string, params map[string]any) (v int, err error) {
	conn, err := s.Pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.Pool.Put(conn)
	opts := &sqlitex.ExecOptions{
		Named: params,
		ResultFunc: func(stmt *sqlite.Stmt) (err error) {
			if stmt.ColumnType(0) != sqlite.TypeInteger {
				return fmt.Errorf("expected integer, got %s", stmt.ColumnType(0).String())
			}
			v = int(stmt.ColumnInt64(0))
			return nil
		},
	}
	if err := sqlitex.Execute(conn, sql, opts); err != nil {
		return 0, err
	}
	return v, nil
}
