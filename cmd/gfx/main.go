package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/query"
	"github.com/alecthomas/kong"
)

type GlobalFlags struct {
	Config      kong.ConfigFlag `help:"YAML configuration file that supplies flag defaults."`
	Format      string          `help:"Output format." enum:"table,json" default:"table" env:"GFX_FORMAT"`
	Filter      string          `help:"Filter expression, for example 'type = server and weight > 1'." env:"GFX_FILTER"`
	LogLevel    string          `help:"Log level (debug, info, warn, error)." enum:"debug,info,warn,error" default:"warn" env:"GFX_LOG_LEVEL"`
	LogFormat   string          `help:"Log format (json, text)." enum:"json,text" default:"text"`
	GexfVersion string          `help:"Require the document to declare this GEXF version (1.0, 1.1, 1.2, 1.3)." name:"gexf-version"`

	MaxPaths      int     `help:"Maximum number of paths enumerated without --max-length." default:"10000"`
	MaxSteps      int     `help:"Maximum search steps of a path enumeration without --max-length." default:"10000000"`
	Workers       int     `help:"Betweenness worker pool size, 0 for one per CPU." default:"0"`
	MaxIterations int     `help:"Maximum eigenvector power iterations." default:"100"`
	Tolerance     float64 `help:"Eigenvector convergence tolerance." default:"1e-6"`

	log *slog.Logger
	out io.Writer
}

// Logger returns the configured logger, or one that discards everything.
func (g GlobalFlags) Logger() *slog.Logger {
	if g.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.log
}

// Stdout is where command results are written.
func (g GlobalFlags) Stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

// Load parses the GEXF document at path, or standard input for "-".
func (g GlobalFlags) Load(path string) (*graph.Graph, error) {
	log := g.Logger()
	opts := []gexf.Option{gexf.WithLogger(log)}
	if g.GexfVersion != "" {
		opts = append(opts, gexf.WithVersion(g.GexfVersion))
	}
	start := time.Now()
	gr, err := gexf.ParseFile(path, opts...)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded graph",
		slog.String("file", path),
		slog.String("version", gr.Meta().Version),
		slog.Int("nodes", gr.NodeCount()),
		slog.Int("edges", gr.EdgeCount()),
		slog.Duration("elapsed", time.Since(start)))
	return gr, nil
}

// CentralityOptions returns the engine knobs for centrality computations.
func (g GlobalFlags) CentralityOptions() query.CentralityOptions {
	return query.CentralityOptions{
		Workers:       g.Workers,
		MaxIterations: g.MaxIterations,
		Tolerance:     g.Tolerance,
	}
}

type CLI struct {
	GlobalFlags

	Info            InfoCommand            `cmd:"info" help:"Show document version, edge type, counts and attributes."`
	Meta            MetaCommand            `cmd:"meta" help:"Show document metadata."`
	Nodes           NodesCommand           `cmd:"nodes" help:"List nodes."`
	Edges           EdgesCommand           `cmd:"edges" help:"List edges."`
	Neighbors       NeighborsCommand       `cmd:"neighbors" help:"List the neighbors of a node."`
	Path            PathCommand            `cmd:"path" help:"Find the shortest path between two nodes."`
	AllPaths        AllPathsCommand        `cmd:"all-paths" help:"List every simple path between two nodes."`
	HasPath         HasPathCommand         `cmd:"has-path" help:"Check whether a path exists between two nodes."`
	Reachable       ReachableCommand       `cmd:"reachable" help:"List the nodes reachable from a node."`
	CommonNeighbors CommonNeighborsCommand `cmd:"common-neighbors" help:"List the neighbors shared by two nodes."`
	Stats           StatsCommand           `cmd:"stats" help:"Show graph statistics."`
	Centrality      CentralityCommand      `cmd:"centrality" help:"Compute node centrality."`
	Components      ComponentsCommand      `cmd:"components" help:"List connected components."`
	Degree          DegreeCommand          `cmd:"degree" help:"Show node degrees."`
	Ego             EgoCommand             `cmd:"ego" help:"Extract the neighborhood of a node."`
	Subgraph        SubgraphCommand        `cmd:"subgraph" help:"Extract the subgraph induced by a set of nodes."`
	Export          ExportCommand          `cmd:"export" help:"Export the graph to a file format or an external store."`
}

// configPaths are read in order when present, before any --config file.
var configPaths = []string{"~/.config/gfx/config.yaml", ".gfx.yaml"}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gfx"),
		kong.Description("Query and analyse GEXF graph files."),
		kong.UsageOnError(),
		kong.Configuration(yamlConfig, configPaths...),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	cli.GlobalFlags.log = newLogger(os.Stderr, cli.LogLevel, cli.LogFormat)
	err := kctx.Run(ctx, cli.GlobalFlags)
	cancel()
	if err != nil {
		kind, code := classify(err)
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", kind, err)
		os.Exit(code)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitParse       = 2
	exitNotFound    = 3
	exitValidation  = 4
	exitLimit       = 5
	exitConvergence = 6
	exitInterrupted = 130
)

// classify maps an error to the kind printed to the user and the exit code.
func classify(err error) (kind string, code int) {
	var (
		parseErr       *gfx.ParseError
		notFoundErr    *gfx.NotFoundError
		validationErr  *gfx.ValidationError
		limitErr       *gfx.LimitExceededError
		convergenceErr *gfx.ConvergenceError
	)
	switch {
	case err == nil:
		return "", exitOK
	case errors.Is(err, context.Canceled):
		return "interrupted", exitInterrupted
	case errors.As(err, &parseErr):
		return "parse", exitParse
	case errors.As(err, &notFoundErr):
		return "not found", exitNotFound
	case errors.As(err, &validationErr):
		return "validation", exitValidation
	case errors.As(err, &limitErr):
		return "limit exceeded", exitLimit
	case errors.As(err, &convergenceErr):
		return "convergence", exitConvergence
	}
	return "error", exitError
}

// graphName derives a sink graph name from an input path.
func graphName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
