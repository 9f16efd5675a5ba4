// Package gexf reads GEXF documents into graphs and writes graphs back out as GEXF
// and other export formats.
package gexf

import (
	"io"
	"log/slog"
	"strings"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
)

// Namespaces maps supported GEXF versions to their XML namespaces.
var Namespaces = map[string]string{
	"1.0": "http://www.gephi.org/gexf",
	"1.1": "http://www.gephi.org/gexf/1.1draft",
	"1.2": "http://gexf.net/1.2draft",
	"1.3": "http://gexf.net/1.3",
}

// DefaultVersion is written when the graph does not carry a supported version.
const DefaultVersion = "1.3"

// Format is an export format.
type Format string

const (
	FormatGEXF    Format = "gexf"
	FormatJSON    Format = "json"
	FormatAdjList Format = "adjlist"
	FormatDot     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatGEXF, FormatJSON, FormatAdjList, FormatDot, FormatMermaid}

// ParseFormat parses an export format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", gfx.NewValidationError("format", "unsupported format %q (supported: gexf, json, adjlist, dot, mermaid)", s)
}

// Serialize writes the graph in the given format. Output is deterministic.
func Serialize(w io.Writer, g *graph.Graph, f Format) error {
	switch f {
	case FormatGEXF:
		return writeGEXF(w, g)
	case FormatJSON:
		return writeJSON(w, g)
	case FormatAdjList:
		return writeAdjList(w, g)
	case FormatDot:
		return writeDot(w, g)
	case FormatMermaid:
		return writeMermaid(w, g)
	}
	return gfx.NewValidationError("format", "unsupported format %q", f)
}

type options struct {
	version string
	logger  *slog.Logger
}

// Option configures Parse.
type Option func(*options)

// WithVersion requires the document to declare the given GEXF version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithLogger sets the logger used to report ignored elements.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func normalizeVersion(v string) string {
	return strings.TrimSuffix(strings.TrimSpace(v), "draft")
}

func versionOf(namespace string) (string, bool) {
	for v, ns := range Namespaces {
		if ns == namespace {
			return v, true
		}
	}
	return "", false
}

func checkVersion(declared, namespace string, required string) (string, error) {
	version := normalizeVersion(declared)
	if version == "" {
		var ok bool
		if version, ok = versionOf(namespace); !ok {
			version = "1.2"
		}
	}
	if _, ok := Namespaces[version]; !ok {
		return "", gfx.NewParseError(gfx.ParseVersion, "unsupported GEXF version %q", declared)
	}
	if required != "" {
		required = normalizeVersion(required)
		if _, ok := Namespaces[required]; !ok {
			return "", gfx.NewParseError(gfx.ParseVersion, "unsupported GEXF version %q requested", required)
		}
		if required != version {
			return "", gfx.NewParseError(gfx.ParseVersion, "document is GEXF %s, expected %s", version, required)
		}
	}
	return version, nil
}
