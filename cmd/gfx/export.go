package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/natspusher"
	"github.com/a-h/gfx/postgressink"
	"github.com/a-h/gfx/rqlitesink"
	"github.com/a-h/gfx/sink"
	"github.com/a-h/gfx/sqlitesink"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"zombiezen.com/go/sqlite/sqlitex"
)

type ExportCommand struct {
	File       string `arg:"" help:"GEXF file to read, or - for standard input."`
	To         string `help:"Target format or store." enum:"gexf,json,adjlist,dot,mermaid,sqlite,postgres,rqlite,nats" default:"gexf"`
	Output     string `help:"File to write to, standard output when empty." short:"o" type:"path"`
	Connection string `help:"Store connection string: a SQLite URI, a PostgreSQL URL, an rqlite URL (user and password as query parameters) or a NATS URL." env:"GFX_CONNECTION"`
	Name       string `help:"Name the graph is stored under, defaults to the file name without its extension."`
	BatchSize  int    `help:"Rows per insert statement." default:"256"`

	SubjectPrefix string `help:"NATS subject prefix for published messages." default:"gfx"`
	MaxRetries    int    `help:"Maximum number of retries for failed NATS publishes." default:"3"`
}

func (c *ExportCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	if f, err := gexf.ParseFormat(c.To); err == nil {
		return serializeTo(g, c.Output, gr, f)
	}

	s, closer, err := c.sink(ctx, g.Logger())
	if err != nil {
		return fmt.Errorf("failed to create %s sink: %w", c.To, err)
	}
	defer closer()
	if err = s.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialise %s sink: %w", c.To, err)
	}
	name := c.Name
	if name == "" {
		name = graphName(c.File)
	}
	start := time.Now()
	if err = s.Write(ctx, name, gr); err != nil {
		return fmt.Errorf("failed to export to %s: %w", c.To, err)
	}
	g.Logger().Info("Exported graph",
		slog.String("to", c.To),
		slog.String("name", name),
		slog.Int("nodes", gr.NodeCount()),
		slog.Int("edges", gr.EdgeCount()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// defaultConnections are used when --connection is not set.
var defaultConnections = map[string]string{
	"sqlite":   "file:gfx.db?mode=rwc",
	"postgres": "postgres://localhost:5432/gfx",
	"rqlite":   "http://localhost:4001",
	"nats":     nats.DefaultURL,
}

func (c *ExportCommand) sink(ctx context.Context, log *slog.Logger) (s sink.Sink, closer func(), err error) {
	connection := c.Connection
	if connection == "" {
		connection = defaultConnections[c.To]
	}
	switch c.To {
	case "sqlite":
		pool, err := sqlitex.NewPool(connection, sqlitex.PoolOptions{})
		if err != nil {
			return nil, nil, err
		}
		sq := sqlitesink.New(log, pool)
		sq.BatchSize = c.BatchSize
		return sq, func() {
			if err := pool.Close(); err != nil {
				log.Warn("Failed to close SQLite pool", slog.String("error", err.Error()))
			}
		}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, connection)
		if err != nil {
			return nil, nil, err
		}
		pg := postgressink.New(log, pool)
		pg.BatchSize = c.BatchSize
		return pg, pool.Close, nil
	case "rqlite":
		u, err := url.Parse(connection)
		if err != nil {
			return nil, nil, err
		}
		user := u.Query().Get("user")
		password := u.Query().Get("password")
		// Remove user and password from the connection string.
		u.RawQuery = ""
		client := rqlitehttp.NewClient(u.String(), nil)
		if user != "" && password != "" {
			client.SetBasicAuth(user, password)
		}
		rq := rqlitesink.New(log, client)
		rq.BatchSize = c.BatchSize
		return rq, func() {}, nil
	case "nats":
		nc, err := nats.Connect(connection, nats.Name("gfx"))
		if err != nil {
			return nil, nil, err
		}
		pusher, err := natspusher.New(nc, natspusher.Config{
			SubjectPrefix: c.SubjectPrefix,
			Logger:        log,
			MaxRetries:    c.MaxRetries,
			Headers:       nats.Header{"source": []string{"gfx"}},
		})
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return pusher, func() {
			if err := nc.Drain(); err != nil {
				log.Warn("Failed to drain NATS connection", slog.String("error", err.Error()))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown export target %q", c.To)
}
