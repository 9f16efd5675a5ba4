// Package natspusher publishes graph nodes and edges to NATS.
package natspusher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/sink"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Publisher defines the interface for publishing messages to NATS.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// Config configures the NATS pusher.
type Config struct {
	// SubjectPrefix is the subject prefix for published messages.
	SubjectPrefix string
	// Logger is used for structured logging.
	Logger *slog.Logger
	// MaxRetries is the number of retries for failed publishes.
	MaxRetries int
	// RetryDelay is multiplied by the attempt number to wait between retries.
	RetryDelay time.Duration
	// Headers are added to NATS messages.
	Headers nats.Header
}

// Pusher publishes one message per node and edge of a graph.
type Pusher struct {
	config    Config
	publisher Publisher
	logger    *slog.Logger
}

var _ sink.Sink = (*Pusher)(nil)

// dedupeNamespace scopes the Nats-Msg-Id values generated for published messages.
var dedupeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/a-h/gfx/natspusher"))

// New creates a new NATS pusher with an existing NATS connection.
func New(nc *nats.Conn, config Config) (*Pusher, error) {
	if nc == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	return NewWithPublisher(nc, config)
}

// NewWithPublisher creates a new NATS pusher with a custom publisher.
func NewWithPublisher(publisher Publisher, config Config) (*Pusher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	return &Pusher{
		config:    config,
		publisher: publisher,
		logger:    config.Logger,
	}, nil
}

// Init does nothing: subjects need no preparation.
func (p *Pusher) Init(ctx context.Context) error { return nil }

type message struct {
	kind     string
	id       string
	position int
	payload  any
}

// Write publishes every node, then every edge, of g. Each message carries a
// Nats-Msg-Id derived from its subject and payload, so JetStream streams discard
// unchanged records when a graph is exported again.
func (p *Pusher) Write(ctx context.Context, name string, g *graph.Graph) error {
	if name == "" {
		return fmt.Errorf("graph name must not be empty")
	}
	msgs := make([]message, 0, g.NodeCount()+g.EdgeCount())
	for _, n := range g.Nodes() {
		msgs = append(msgs, message{kind: "node", id: n.ID, position: n.Index(), payload: gexf.NewNodeRecord(g, n)})
	}
	for _, e := range g.Edges() {
		msgs = append(msgs, message{kind: "edge", id: e.ID, position: e.Index(), payload: gexf.NewEdgeRecord(g, e)})
	}

	var published int
	for batch, err := range gfx.Batches(ctx, msgs, gfx.DefaultBatchSize) {
		if err != nil {
			return err
		}
		for _, m := range batch {
			if err := p.publish(ctx, name, m); err != nil {
				p.logger.Error("Failed to publish after all retries",
					slog.String("graph", name),
					slog.String("kind", m.kind),
					slog.String("id", m.id),
					slog.String("error", err.Error()))
				return fmt.Errorf("failed to publish %s %q: %w", m.kind, m.id, err)
			}
			published++
		}
		p.logger.Debug("Published batch", slog.String("graph", name), slog.Int("count", len(batch)), slog.Int("total", published))
	}
	p.logger.Info("Published graph", slog.String("graph", name), slog.Int("messages", published))
	return nil
}

func (p *Pusher) publish(ctx context.Context, graphName string, m message) error {
	data, err := json.Marshal(m.payload)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: p.buildSubject(graphName, m.kind, m.id),
		Data:    data,
		Header:  make(nats.Header),
	}
	maps.Copy(msg.Header, p.config.Headers)
	msg.Header.Set("gfx-graph", graphName)
	msg.Header.Set("gfx-kind", m.kind)
	msg.Header.Set("gfx-id", m.id)
	msg.Header.Set("gfx-position", strconv.Itoa(m.position))
	msg.Header.Set(nats.MsgIdHdr, uuid.NewSHA1(dedupeNamespace, append([]byte(msg.Subject+"\x00"), data...)).String())

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * p.config.RetryDelay):
			}
		}
		err := p.publisher.PublishMsg(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		p.logger.Warn("Failed to publish, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("maxRetries", p.config.MaxRetries),
			slog.String("error", err.Error()))
	}
	return fmt.Errorf("failed to publish after %d attempts: %w", p.config.MaxRetries+1, lastErr)
}

// subjectToken makes s usable as a single NATS subject token.
func subjectToken(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "_"
	}
	return s
}

// buildSubject constructs <prefix>.<graph>.<kind>.<id>.
func (p *Pusher) buildSubject(graphName, kind, id string) string {
	var parts []string
	if prefix := strings.Trim(p.config.SubjectPrefix, "."); prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, subjectToken(graphName), kind, subjectToken(id))
	return strings.Join(parts, ".")
}
