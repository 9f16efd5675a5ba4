// Package rqlitesink exports graphs to an rqlite cluster.
package rqlitesink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/sink"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
)

func New(log *slog.Logger, client *rqlitehttp.Client) *Rqlite {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Rqlite{
		Log:             log,
		Client:          client,
		Timeout:         time.Second * 10,
		ReadConsistency: rqlitehttp.ReadConsistencyLevelStrong,
		Now:             time.Now,
	}
}

type Rqlite struct {
	Log             *slog.Logger
	Client          *rqlitehttp.Client
	Timeout         time.Duration
	ReadConsistency rqlitehttp.ReadConsistencyLevel
	Now             func() time.Time
	// BatchSize is the number of rows per insert statement. Zero uses gfx.DefaultBatchSize.
	BatchSize int
}

var _ sink.Sink = (*Rqlite)(nil)

func (rq *Rqlite) executor() *Executor {
	return &Executor{client: rq.Client, timeout: rq.Timeout, readConsistency: rq.ReadConsistency}
}

func (rq *Rqlite) Init(ctx context.Context) error {
	if err := gfx.NewMigrationRunner(rq.Log, rq.executor(), migrationsFS).Migrate(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

// Write sends every statement in one request so that rqlite applies them in a
// single transaction.
func (rq *Rqlite) Write(ctx context.Context, name string, g *graph.Graph) error {
	rows, err := sink.Flatten(name, g, rq.Now())
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	stmts, err := sink.Rqlite.Statements(ctx, rows, rq.BatchSize)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	req := make(rqlitehttp.SQLStatements, len(stmts))
	for i, stmt := range stmts {
		req[i] = rqlitehttp.SQLStatement{SQL: stmt.SQL, NamedParams: stmt.Args}
	}
	opts := &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Wait:        true,
		Timeout:     rq.Timeout,
	}
	qr, err := rq.Client.Execute(ctx, req, opts)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	errs := make([]error, 0)
	for i, result := range qr.Results {
		if result.Error != "" {
			errs = append(errs, fmt.Errorf("write: statement %d: %s", i, result.Error))
		}
	}
	if err = errors.Join(errs...); err != nil {
		return err
	}
	rq.Log.Debug("wrote graph", slog.String("name", name), slog.Int("statements", len(stmts)))
	return nil
}

// Graphs lists the stored graphs by name.
func (rq *Rqlite) Graphs(ctx context.Context) (graphs []sink.GraphRow, err error) {
	opts := &rqlitehttp.QueryOptions{
		Timeout: rq.Timeout,
		Level:   rq.ReadConsistency,
	}
	q := rqlitehttp.SQLStatement{
		SQL: `select name, version, creator, description, keywords, last_modified, mode, time_mode, node_count, edge_count, exported from gexf_graph order by name`,
	}
	qr, err := rq.Client.Query(ctx, rqlitehttp.SQLStatements{q}, opts)
	if err != nil {
		return nil, fmt.Errorf("graphs: %w", err)
	}
	if len(qr.Results) != 1 {
		return nil, fmt.Errorf("graphs: expected 1 result, got %d", len(qr.Results))
	}
	if qr.Results[0].Error != "" {
		return nil, fmt.Errorf("graphs: %s", qr.Results[0].Error)
	}
	for _, values := range qr.Results[0].Values {
		r, err := newGraphRow(values)
		if err != nil {
			return nil, fmt.Errorf("graphs: %w", err)
		}
		graphs = append(graphs, r)
	}
	return graphs, nil
}

func newGraphRow(values []any) (r sink.GraphRow, err error) {
	if len(values) != 11 {
		return r, fmt.Errorf("row: expected 11 columns, got %d", len(values))
	}
	text := []*string{&r.Name, &r.Version, &r.Creator, &r.Description, &r.Keywords, &r.LastModified, &r.Mode, &r.TimeMode}
	for i, dst := range text {
		s, ok := values[i].(string)
		if !ok {
			return r, fmt.Errorf("row: column %d: expected string, got %T", i, values[i])
		}
		*dst = s
	}
	nodes, ok := values[8].(float64)
	if !ok {
		return r, fmt.Errorf("row: node_count: expected float64, got %T", values[8])
	}
	edges, ok := values[9].(float64)
	if !ok {
		return r, fmt.Errorf("row: edge_count: expected float64, got %T", values[9])
	}
	r.NodeCount, r.EdgeCount = int(nodes), int(edges)
	if r.Exported, ok = values[10].(string); !ok {
		return r, fmt.Errorf("row: exported: expected string, got %T", values[10])
	}
	return r, nil
}

// QueryScalarInt64 runs a query that returns a single integer.
func (rq *Rqlite) QueryScalarInt64(ctx context.Context, sql string, params map[string]any) (int, error) {
	opts := &rqlitehttp.QueryOptions{
		Timeout: rq.Timeout,
		Level:   rq.ReadConsistency,
	}
	q := rqlitehttp.SQLStatement{
		SQL:         sql,
		NamedParams: params,
	}
	qr, err := rq.Client.Query(ctx, rqlitehttp.SQLStatements{q}, opts)
	if err != nil {
		return 0, err
	}
	if len(qr.Results) != 1 {
		return 0, fmt.Errorf("expected 1 result, got %d", len(qr.Results))
	}
	if qr.Results[0].Error != "" {
		return 0, fmt.Errorf("%s", qr.Results[0].Error)
	}
	return scalarInt(qr.Results[0])
}
