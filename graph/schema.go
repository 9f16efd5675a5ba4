package graph

import (
	"fmt"
	"slices"
)

// Class is the element class an attribute applies to.
type Class int

const (
	NodeClass Class = iota
	EdgeClass
)

func (c Class) String() string {
	if c == EdgeClass {
		return "edge"
	}
	return "node"
}

// AttributeDefinition declares a typed attribute.
type AttributeDefinition struct {
	ID    string
	Title string
	Type  Type
	Class Class
	// Declared is the type name as written in the source document, e.g. "double".
	Declared string
	// Default is null when the definition has no default.
	Default Value
}

// Schema is the ordered set of attribute definitions for one class.
type Schema struct {
	class   Class
	defs    []AttributeDefinition
	byID    map[string]int
	byTitle map[string]int
}

// NewSchema creates an empty schema for the class.
func NewSchema(class Class) *Schema {
	return &Schema{
		class:   class,
		byID:    make(map[string]int),
		byTitle: make(map[string]int),
	}
}

// Add appends a definition. Definition ids must be unique within the schema and the
// default, if any, must match the declared type.
func (s *Schema) Add(def AttributeDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("%s attribute id cannot be empty", s.class)
	}
	if _, exists := s.byID[def.ID]; exists {
		return fmt.Errorf("duplicate %s attribute id %q", s.class, def.ID)
	}
	if !def.Default.IsNull() && def.Default.Type() != def.Type {
		return fmt.Errorf("default for %s attribute %q is %v, expected %v", s.class, def.ID, def.Default.Type(), def.Type)
	}
	if def.Declared == "" {
		def.Declared = def.Type.String()
	}
	def.Class = s.class
	s.byID[def.ID] = len(s.defs)
	if def.Title != "" {
		if _, exists := s.byTitle[def.Title]; exists {
			// Ambiguous titles can only be addressed by id.
			s.byTitle[def.Title] = -1
		} else {
			s.byTitle[def.Title] = len(s.defs)
		}
	}
	s.defs = append(s.defs, def)
	return nil
}

func (s *Schema) Class() Class { return s.class }
func (s *Schema) Len() int     { return len(s.defs) }

// At returns the definition at position i in declaration order.
func (s *Schema) At(i int) AttributeDefinition { return s.defs[i] }

// Definitions returns a copy of the definitions in declaration order.
func (s *Schema) Definitions() []AttributeDefinition { return slices.Clone(s.defs) }

// IndexOf returns the position of the definition with the given id.
func (s *Schema) IndexOf(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}

// Lookup resolves a key by attribute id first, then by title.
func (s *Schema) Lookup(key string) (int, bool) {
	if i, ok := s.byID[key]; ok {
		return i, true
	}
	if i, ok := s.byTitle[key]; ok && i >= 0 {
		return i, true
	}
	return 0, false
}

// Key returns the name used for the attribute in output: the title when it
// identifies the attribute unambiguously, otherwise the id. A title that is another
// attribute's id is not used, so keys are unique and resolve back through Lookup.
func (s *Schema) Key(i int) string {
	def := s.defs[i]
	if def.Title == "" || s.byTitle[def.Title] != i {
		return def.ID
	}
	if j, ok := s.byID[def.Title]; ok && j != i {
		return def.ID
	}
	return def.Title
}

// Titles returns the sorted output keys of all definitions.
func (s *Schema) Titles() []string {
	titles := make([]string, len(s.defs))
	for i := range s.defs {
		titles[i] = s.Key(i)
	}
	slices.Sort(titles)
	return titles
}

// Equal reports whether two schemas declare the same attributes in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s.class != o.class || len(s.defs) != len(o.defs) {
		return false
	}
	for i, d := range s.defs {
		od := o.defs[i]
		if d.ID != od.ID || d.Title != od.Title || d.Type != od.Type || !d.Default.Equal(od.Default) {
			return false
		}
	}
	return true
}
