package query

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
)

// Filter is a compiled boolean expression over node or edge fields and attributes.
//
// Grammar:
//
//	expr    = and { ("or" | "||") and }
//	and     = unary { ("and" | "&&") unary }
//	unary   = ("not" | "!") unary | "(" expr ")" | compare
//	compare = name op literal
//	op      = "=" | "==" | "!=" | "<" | "<=" | ">" | ">=" | "~" | "contains" | "in"
//	literal = word | quoted | "[" literal { "," literal } "]"
//
// Names resolve to the built-in fields id and label (nodes also have degree; edges
// have source, target, weight and type), then to attribute ids, then to titles.
// Comparisons against absent values are false. "~" is a glob match.
//
// A nil *Filter matches everything.
type Filter struct {
	class graph.Class
	root  expr
	text  string
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.text
}

// MatchNode reports whether node n of g satisfies the filter.
func (f *Filter) MatchNode(g *graph.Graph, n *graph.Node) bool {
	if f == nil {
		return true
	}
	return f.root.eval(func(a accessor) graph.Value { return a.node(g, n) })
}

// MatchEdge reports whether edge e satisfies the filter.
func (f *Filter) MatchEdge(e *graph.Edge) bool {
	if f == nil {
		return true
	}
	return f.root.eval(func(a accessor) graph.Value { return a.edge(e) })
}

// Compile parses and type-checks a filter for the class of the schema. An empty
// expression compiles to a nil filter.
func Compile(text string, schema *graph.Schema) (*Filter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, schema: schema}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokenEOF {
		return nil, filterError("unexpected %q at position %d", t.text, t.pos)
	}
	return &Filter{class: schema.Class(), root: root, text: text}, nil
}

// And combines filters so that all must match. Nil filters are skipped.
func And(filters ...*Filter) *Filter {
	var combined *Filter
	for _, f := range filters {
		if f == nil {
			continue
		}
		if combined == nil {
			combined = f
			continue
		}
		combined = &Filter{
			class: combined.class,
			root:  andExpr{combined.root, f.root},
			text:  "(" + combined.text + ") and (" + f.text + ")",
		}
	}
	return combined
}

func filterError(format string, args ...any) error {
	return gfx.NewValidationError("filter", format, args...)
}

type field int

const (
	fieldAttribute field = iota
	fieldID
	fieldLabel
	fieldDegree
	fieldSource
	fieldTarget
	fieldWeight
	fieldType
)

// accessor reads one field or attribute from a node or edge.
type accessor struct {
	field field
	attr  int
	typ   graph.Type
}

func optionalString(s string) graph.Value {
	if s == "" {
		return graph.Value{}
	}
	return graph.StringValue(s)
}

func (a accessor) node(g *graph.Graph, n *graph.Node) graph.Value {
	switch a.field {
	case fieldID:
		return graph.StringValue(n.ID)
	case fieldLabel:
		return optionalString(n.Label)
	case fieldDegree:
		return graph.IntValue(int64(g.Degree(n.Index(), graph.Both)))
	case fieldAttribute:
		return n.AttrAt(a.attr)
	}
	return graph.Value{}
}

func (a accessor) edge(e *graph.Edge) graph.Value {
	switch a.field {
	case fieldID:
		return graph.StringValue(e.ID)
	case fieldLabel:
		return optionalString(e.Label)
	case fieldSource:
		return graph.StringValue(e.Source)
	case fieldTarget:
		return graph.StringValue(e.Target)
	case fieldWeight:
		return graph.FloatValue(e.Weight)
	case fieldType:
		if e.Directed {
			return graph.StringValue("directed")
		}
		return graph.StringValue("undirected")
	case fieldAttribute:
		return e.AttrAt(a.attr)
	}
	return graph.Value{}
}

func builtinFields(class graph.Class) map[string]accessor {
	fields := map[string]accessor{
		"id":    {field: fieldID, typ: graph.TypeString},
		"label": {field: fieldLabel, typ: graph.TypeString},
	}
	if class == graph.NodeClass {
		fields["degree"] = accessor{field: fieldDegree, typ: graph.TypeInteger}
		return fields
	}
	fields["source"] = accessor{field: fieldSource, typ: graph.TypeString}
	fields["target"] = accessor{field: fieldTarget, typ: graph.TypeString}
	fields["weight"] = accessor{field: fieldWeight, typ: graph.TypeFloat}
	fields["type"] = accessor{field: fieldType, typ: graph.TypeString}
	return fields
}

// resolve finds the accessor for a name. Attributes shadow built-in fields only when
// the name is not a built-in field, so "weight" on edges is always the edge weight.
func resolve(schema *graph.Schema, name string) (accessor, error) {
	if a, ok := builtinFields(schema.Class())[strings.ToLower(name)]; ok {
		return a, nil
	}
	if i, ok := schema.Lookup(name); ok {
		return accessor{field: fieldAttribute, attr: i, typ: schema.At(i).Type}, nil
	}
	return accessor{}, gfx.NewValidationError("filter", "unknown %s attribute %q", schema.Class(), name)
}

type expr interface {
	eval(get func(accessor) graph.Value) bool
}

type andExpr struct{ l, r expr }

func (e andExpr) eval(get func(accessor) graph.Value) bool { return e.l.eval(get) && e.r.eval(get) }

type orExpr struct{ l, r expr }

func (e orExpr) eval(get func(accessor) graph.Value) bool { return e.l.eval(get) || e.r.eval(get) }

type notExpr struct{ e expr }

func (e notExpr) eval(get func(accessor) graph.Value) bool { return !e.e.eval(get) }

type compareExpr struct {
	acc     accessor
	op      string
	literal graph.Value
	list    []graph.Value
}

func (e compareExpr) eval(get func(accessor) graph.Value) bool {
	v := get(e.acc)
	if v.IsNull() {
		return false
	}
	switch e.op {
	case "=":
		return v.Equal(e.literal) || (isNumeric(v) && graph.Compare(v, e.literal) == 0)
	case "!=":
		return !(v.Equal(e.literal) || (isNumeric(v) && graph.Compare(v, e.literal) == 0))
	case "<":
		return graph.Compare(v, e.literal) < 0
	case "<=":
		return graph.Compare(v, e.literal) <= 0
	case ">":
		return graph.Compare(v, e.literal) > 0
	case ">=":
		return graph.Compare(v, e.literal) >= 0
	case "~":
		ok, _ := path.Match(e.literal.Str(), v.Str())
		return ok
	case "contains":
		if v.Type() == graph.TypeListString {
			return slices.Contains(v.List(), e.literal.Str())
		}
		return strings.Contains(v.Str(), e.literal.Str())
	case "in":
		if v.Type() == graph.TypeListString {
			for _, item := range v.List() {
				if slices.ContainsFunc(e.list, func(l graph.Value) bool { return l.Str() == item }) {
					return true
				}
			}
			return false
		}
		return slices.ContainsFunc(e.list, func(l graph.Value) bool {
			return v.Equal(l) || (isNumeric(v) && graph.Compare(v, l) == 0)
		})
	}
	return false
}

func isNumeric(v graph.Value) bool {
	_, ok := v.Number()
	return ok
}

// literalValue types a literal against the declared type of the compared value.
func literalValue(t graph.Type, text string) (graph.Value, error) {
	switch t {
	case graph.TypeInteger, graph.TypeFloat:
		if v, err := graph.ParseValue(t, text); err == nil {
			return v, nil
		}
		v, err := graph.ParseValue(graph.TypeFloat, text)
		if err != nil {
			return v, fmt.Errorf("%q is not a number", text)
		}
		return v, nil
	case graph.TypeListString:
		return graph.StringValue(text), nil
	}
	return graph.ParseValue(t, text)
}

func newCompare(acc accessor, name, op string, lit literal) (expr, error) {
	if op == "==" {
		op = "="
	}
	e := compareExpr{acc: acc, op: op}
	if op == "in" {
		if !lit.isList {
			return nil, filterError("%q in requires a list literal such as [a, b]", name)
		}
		for _, item := range lit.items {
			v, err := literalValue(acc.typ, item)
			if err != nil {
				return nil, filterError("%s: %v", name, err)
			}
			e.list = append(e.list, v)
		}
		return e, nil
	}
	if lit.isList {
		if acc.typ != graph.TypeListString || (op != "=" && op != "!=") {
			return nil, filterError("list literal not allowed with %s %s", name, op)
		}
		e.literal = graph.ListValue(lit.items)
		return e, nil
	}
	switch op {
	case "~":
		if acc.typ != graph.TypeString {
			return nil, filterError("%s is %v, glob match needs a string", name, acc.typ)
		}
		if _, err := path.Match(lit.text, ""); err != nil {
			return nil, filterError("invalid glob pattern %q", lit.text)
		}
		e.literal = graph.StringValue(lit.text)
		return e, nil
	case "contains":
		if acc.typ != graph.TypeString && acc.typ != graph.TypeListString {
			return nil, filterError("%s is %v, contains needs a string or list", name, acc.typ)
		}
		e.literal = graph.StringValue(lit.text)
		return e, nil
	case "<", "<=", ">", ">=":
		if acc.typ == graph.TypeBoolean || acc.typ == graph.TypeListString {
			return nil, filterError("%s is %v and cannot be ordered", name, acc.typ)
		}
	}
	if acc.typ == graph.TypeListString {
		// A bare literal compared with a list is a one or more element list.
		parsed, _ := graph.ParseValue(graph.TypeListString, lit.text)
		e.literal = parsed
		return e, nil
	}
	v, err := literalValue(acc.typ, lit.text)
	if err != nil {
		return nil, filterError("%s is %v: %v", name, acc.typ, err)
	}
	e.literal = v
	return e, nil
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenWord
	tokenString
	tokenOp
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

const specialRunes = `()[],=!<>~"'&|`

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case r == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case r == '[':
			tokens = append(tokens, token{tokenLBracket, "[", i})
			i++
		case r == ']':
			tokens = append(tokens, token{tokenRBracket, "]", i})
			i++
		case r == ',':
			tokens = append(tokens, token{tokenComma, ",", i})
			i++
		case r == '"':
			end := i + 1
			for end < len(runes) && runes[end] != '"' {
				if runes[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(runes) {
				return nil, filterError("unterminated string at position %d", i)
			}
			s, err := strconv.Unquote(string(runes[i : end+1]))
			if err != nil {
				return nil, filterError("invalid string at position %d", i)
			}
			tokens = append(tokens, token{tokenString, s, i})
			i = end + 1
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return nil, filterError("unterminated string at position %d", i)
			}
			tokens = append(tokens, token{tokenString, string(runes[i+1 : end]), i})
			i = end + 1
		case strings.ContainsRune("=!<>~&|", r):
			op := string(r)
			if i+1 < len(runes) {
				two := string(runes[i : i+2])
				switch two {
				case "==", "!=", "<=", ">=", "&&", "||":
					op = two
				}
			}
			if op == "&" || op == "|" {
				return nil, filterError("unexpected %q at position %d", op, i)
			}
			tokens = append(tokens, token{tokenOp, op, i})
			i += len([]rune(op))
		default:
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) && !strings.ContainsRune(specialRunes, runes[i]) {
				i++
			}
			tokens = append(tokens, token{tokenWord, string(runes[start:i]), start})
		}
	}
	return append(tokens, token{kind: tokenEOF, pos: len(runes)}), nil
}

type parser struct {
	tokens []token
	pos    int
	schema *graph.Schema
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(words ...string) bool {
	t := p.peek()
	if t.kind != tokenWord && t.kind != tokenOp {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			p.pos++
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or", "||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("and", "&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.keyword("not", "!") {
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{e}, nil
	}
	if p.peek().kind == tokenLParen {
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokenRParen {
			return nil, filterError("expected ) at position %d", t.pos)
		}
		return e, nil
	}
	return p.parseCompare()
}

var operators = []string{"=", "==", "!=", "<", "<=", ">", ">=", "~", "contains", "in"}

func (p *parser) parseCompare() (expr, error) {
	nameTok := p.next()
	if nameTok.kind != tokenWord && nameTok.kind != tokenString {
		return nil, filterError("expected attribute name at position %d", nameTok.pos)
	}
	acc, err := resolve(p.schema, nameTok.text)
	if err != nil {
		return nil, err
	}
	opTok := p.next()
	op := strings.ToLower(opTok.text)
	if (opTok.kind != tokenOp && opTok.kind != tokenWord) || !slices.Contains(operators, op) {
		return nil, filterError("expected operator after %q at position %d", nameTok.text, opTok.pos)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return newCompare(acc, nameTok.text, op, lit)
}

type literal struct {
	text   string
	isList bool
	items  []string
}

func (p *parser) parseLiteral() (literal, error) {
	t := p.next()
	switch t.kind {
	case tokenWord, tokenString:
		return literal{text: t.text}, nil
	case tokenLBracket:
		lit := literal{isList: true, items: []string{}}
		if p.peek().kind == tokenRBracket {
			p.next()
			return lit, nil
		}
		for {
			item := p.next()
			if item.kind != tokenWord && item.kind != tokenString {
				return lit, filterError("expected list item at position %d", item.pos)
			}
			lit.items = append(lit.items, item.text)
			sep := p.next()
			if sep.kind == tokenRBracket {
				return lit, nil
			}
			if sep.kind != tokenComma {
				return lit, filterError("expected , or ] at position %d", sep.pos)
			}
		}
	}
	return literal{}, filterError("expected value at position %d", t.pos)
}
