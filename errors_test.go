package gfx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{
			err:      &ParseError{Kind: ParseIntegrity, Line: 12, Msg: `edge "e1" references unknown node "x"`},
			expected: `parse error (integrity) at line 12: edge "e1" references unknown node "x"`,
		},
		{
			err:      &ParseError{Kind: ParseSyntax, Msg: "invalid XML", Err: errors.New("unexpected EOF")},
			expected: "parse error (syntax): invalid XML: unexpected EOF",
		},
		{
			err:      NodeNotFound("db1"),
			expected: `node "db1" not found`,
		},
		{
			err:      NewValidationError("radius", "must not be negative, got %d", -1),
			expected: "invalid radius: must not be negative, got -1",
		},
		{
			err:      &ValidationError{Msg: "bad"},
			expected: "invalid input: bad",
		},
		{
			err:      &LimitExceededError{Limit: 10, What: "path enumeration"},
			expected: "path enumeration exceeded maximum (10) - consider setting a bound",
		},
		{
			err:      &ConvergenceError{Iterations: 100, Tolerance: 1e-6, Residual: 0.5},
			expected: "failed to converge within 100 iterations (tolerance 1e-06, residual 0.5)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.expected)
		})
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("load: %w", &ParseError{Kind: ParseSyntax, Msg: "invalid XML", Err: cause})
	assert.ErrorIs(t, err, cause)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, ParseSyntax, parseErr.Kind)
}
