package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/gfx"
)

// Dialect describes how a database names query parameters.
type Dialect struct {
	// Prefix introduces a named parameter in SQL text.
	Prefix string
	// KeyPrefix is prepended to parameter names in argument maps.
	KeyPrefix string
	// JSON wraps a placeholder that carries JSON text.
	JSON func(placeholder string) string
}

var (
	// SQLite is the dialect of zombiezen.com/go/sqlite named parameters.
	SQLite = Dialect{Prefix: ":", KeyPrefix: ":", JSON: sqlJSON}
	// Rqlite is the dialect of rqlite named parameters.
	Rqlite = Dialect{Prefix: ":", JSON: sqlJSON}
	// Postgres is the dialect of pgx.NamedArgs.
	Postgres = Dialect{Prefix: "@", JSON: func(p string) string { return p + "::jsonb" }}
)

func sqlJSON(p string) string { return "json(" + p + ")" }

// Statement is a SQL statement with named arguments.
type Statement struct {
	SQL  string
	Args map[string]any
}

type column struct {
	name string
	json bool
}

type table struct {
	name    string
	columns []column
}

var (
	graphTable = table{name: "gexf_graph", columns: []column{
		{name: "name"}, {name: "version"}, {name: "creator"}, {name: "description"},
		{name: "keywords"}, {name: "last_modified"}, {name: "mode"}, {name: "time_mode"},
		{name: "node_count"}, {name: "edge_count"}, {name: "exported"},
	}}
	attributeTable = table{name: "gexf_attribute", columns: []column{
		{name: "graph"}, {name: "class"}, {name: "id"}, {name: "title"}, {name: "type"},
		{name: "position"}, {name: "default_value"},
	}}
	nodeTable = table{name: "gexf_node", columns: []column{
		{name: "graph"}, {name: "id"}, {name: "position"}, {name: "label"},
		{name: "attributes", json: true},
	}}
	edgeTable = table{name: "gexf_edge", columns: []column{
		{name: "graph"}, {name: "id"}, {name: "position"}, {name: "source"}, {name: "target"},
		{name: "weight"}, {name: "directed"}, {name: "label"}, {name: "attributes", json: true},
	}}
)

// insert builds one multi-row insert statement. Parameter names are suffixed with
// the row number within the batch.
func (d Dialect) insert(t table, rows [][]any) Statement {
	var sb strings.Builder
	args := make(map[string]any, len(rows)*len(t.columns))
	sb.WriteString("insert into ")
	sb.WriteString(t.name)
	sb.WriteString(" (")
	for i, c := range t.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.name)
	}
	sb.WriteString(") values")
	for r, values := range rows {
		if r > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("\n(")
		for i, c := range t.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			name := fmt.Sprintf("%s_%d", c.name, r)
			placeholder := d.Prefix + name
			if c.json {
				placeholder = d.JSON(placeholder)
			}
			sb.WriteString(placeholder)
			args[d.KeyPrefix+name] = values[i]
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(';')
	return Statement{SQL: sb.String(), Args: args}
}

func batched[T any](ctx context.Context, d Dialect, t table, items []T, size int, values func(T) []any) (stmts []Statement, err error) {
	for batch, err := range gfx.Batches(ctx, items, size) {
		if err != nil {
			return nil, err
		}
		rows := make([][]any, len(batch))
		for i, item := range batch {
			rows[i] = values(item)
		}
		stmts = append(stmts, d.insert(t, rows))
	}
	return stmts, nil
}

// Statements returns the statements that replace the stored graph with rows. They
// must be executed in order within a single transaction. Inserts carry at most
// batchSize rows each; zero uses gfx.DefaultBatchSize.
func (d Dialect) Statements(ctx context.Context, rows Rows, batchSize int) ([]Statement, error) {
	name := rows.Graph.Name
	var stmts []Statement
	for _, t := range []table{edgeTable, nodeTable, attributeTable} {
		stmts = append(stmts, Statement{
			SQL:  fmt.Sprintf("delete from %s where graph = %sgraph;", t.name, d.Prefix),
			Args: map[string]any{d.KeyPrefix + "graph": name},
		})
	}
	stmts = append(stmts, Statement{
		SQL:  fmt.Sprintf("delete from %s where name = %sname;", graphTable.name, d.Prefix),
		Args: map[string]any{d.KeyPrefix + "name": name},
	})

	gr := rows.Graph
	stmts = append(stmts, d.insert(graphTable, [][]any{{
		gr.Name, gr.Version, gr.Creator, gr.Description, gr.Keywords, gr.LastModified,
		gr.Mode, gr.TimeMode, gr.NodeCount, gr.EdgeCount, gr.Exported,
	}}))

	attrs, err := batched(ctx, d, attributeTable, rows.Attributes, batchSize, func(r AttributeRow) []any {
		return []any{r.Graph, r.Class, r.ID, r.Title, r.Type, r.Position, r.Default}
	})
	if err != nil {
		return nil, err
	}
	nodes, err := batched(ctx, d, nodeTable, rows.Nodes, batchSize, func(r NodeRow) []any {
		return []any{r.Graph, r.ID, r.Position, r.Label, r.Attributes}
	})
	if err != nil {
		return nil, err
	}
	edges, err := batched(ctx, d, edgeTable, rows.Edges, batchSize, func(r EdgeRow) []any {
		return []any{r.Graph, r.ID, r.Position, r.Source, r.Target, r.Weight, r.Directed, r.Label, r.Attributes}
	})
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, attrs...)
	stmts = append(stmts, nodes...)
	return append(stmts, edges...), nil
}
