package gfx

import (
	"fmt"
	"strings"
)

// ParseErrorKind classifies why a document could not be loaded.
type ParseErrorKind string

const (
	ParseSyntax    ParseErrorKind = "syntax"
	ParseSchema    ParseErrorKind = "schema"
	ParseType      ParseErrorKind = "type"
	ParseIntegrity ParseErrorKind = "integrity"
	ParseVersion   ParseErrorKind = "version"
)

// ParseError is returned when a document cannot be turned into a graph.
type ParseError struct {
	Kind ParseErrorKind
	// Line is the 1-based line of the offending element, or 0 when unknown.
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString("parse error (")
	sb.WriteString(string(e.Kind))
	sb.WriteString(")")
	if e.Line > 0 {
		fmt.Fprintf(&sb, " at line %d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a ParseError with a formatted message.
func NewParseError(kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a referenced node or edge does not exist.
type NotFoundError struct {
	// Kind is "node" or "edge".
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NodeNotFound returns a NotFoundError for a node id.
func NodeNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "node", ID: id}
}

// ValidationError is returned for semantically invalid parameters.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// LimitExceededError is returned when an unbounded enumeration hits its safety cap.
type LimitExceededError struct {
	Limit int
	What  string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s exceeded maximum (%d) - consider setting a bound", e.What, e.Limit)
}

// ConvergenceError is returned when an iterative numeric method does not converge.
type ConvergenceError struct {
	Iterations int
	Tolerance  float64
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("failed to converge within %d iterations (tolerance %g, residual %g)", e.Iterations, e.Tolerance, e.Residual)
}
