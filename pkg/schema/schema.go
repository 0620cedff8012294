package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Property is a property key and the value types observed for it.
type Property struct {
	Name  string   `json:"name"`
	Types []string `json:"types,omitempty"`
}

// NodeType lists the properties present on nodes with a label.
type NodeType struct {
	Label      string     `json:"label"`
	Properties []Property `json:"properties"`
}

// RelationshipType lists the properties present on a relationship type.
type RelationshipType struct {
	Type       string     `json:"type"`
	Properties []Property `json:"properties"`
}

// Pattern is an observed (from)-[type]->(to) label combination.
type Pattern struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

// Schema describes the labels, relationship types and properties present
// in the graph. It is read-only once built.
type Schema struct {
	Nodes         []NodeType         `json:"nodes"`
	Relationships []RelationshipType `json:"relationships"`
	Patterns      []Pattern          `json:"patterns"`

	labels    map[string]map[string]bool
	relTypes  map[string]map[string]bool
	propNames map[string]bool
}

// New builds a Schema, sorting its contents so the rendered text is stable.
func New(nodes []NodeType, rels []RelationshipType, patterns []Pattern) *Schema {
	s := &Schema{
		Nodes:         append([]NodeType(nil), nodes...),
		Relationships: append([]RelationshipType(nil), rels...),
		Patterns:      append([]Pattern(nil), patterns...),
		labels:        make(map[string]map[string]bool),
		relTypes:      make(map[string]map[string]bool),
		propNames:     make(map[string]bool),
	}

	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].Label < s.Nodes[j].Label })
	sort.Slice(s.Relationships, func(i, j int) bool { return s.Relationships[i].Type < s.Relationships[j].Type })
	sort.Slice(s.Patterns, func(i, j int) bool {
		a, b := s.Patterns[i], s.Patterns[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.To < b.To
	})

	for _, n := range s.Nodes {
		props := s.labels[n.Label]
		if props == nil {
			props = make(map[string]bool)
			s.labels[n.Label] = props
		}
		for _, p := range n.Properties {
			props[p.Name] = true
			s.propNames[p.Name] = true
		}
	}
	for _, r := range s.Relationships {
		props := s.relTypes[r.Type]
		if props == nil {
			props = make(map[string]bool)
			s.relTypes[r.Type] = props
		}
		for _, p := range r.Properties {
			props[p.Name] = true
			s.propNames[p.Name] = true
		}
	}
	for _, p := range s.Patterns {
		if _, ok := s.labels[p.From]; !ok {
			s.labels[p.From] = make(map[string]bool)
		}
		if _, ok := s.labels[p.To]; !ok {
			s.labels[p.To] = make(map[string]bool)
		}
		if _, ok := s.relTypes[p.Type]; !ok {
			s.relTypes[p.Type] = make(map[string]bool)
		}
	}
	return s
}

// HasLabel reports whether label exists in the graph.
func (s *Schema) HasLabel(label string) bool {
	_, ok := s.labels[label]
	return ok
}

// HasRelationship reports whether the relationship type exists in the graph.
func (s *Schema) HasRelationship(relType string) bool {
	_, ok := s.relTypes[relType]
	return ok
}

// HasProperty reports whether any node or relationship carries the property.
func (s *Schema) HasProperty(name string) bool {
	return s.propNames[name]
}

// HasLabelProperty reports whether nodes with label carry the property.
func (s *Schema) HasLabelProperty(label, name string) bool {
	return s.labels[label][name]
}

// HasRelationshipProperty reports whether relationships of relType carry the property.
func (s *Schema) HasRelationshipProperty(relType, name string) bool {
	return s.relTypes[relType][name]
}

// Empty reports whether the graph holds no labels at all.
func (s *Schema) Empty() bool {
	return len(s.labels) == 0
}

// String renders the schema as the text given to the query generator.
func (s *Schema) String() string {
	var b strings.Builder

	b.WriteString("Node properties:\n")
	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "%s {%s}\n", n.Label, renderProperties(n.Properties))
	}

	b.WriteString("Relationship properties:\n")
	for _, r := range s.Relationships {
		if len(r.Properties) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s {%s}\n", r.Type, renderProperties(r.Properties))
	}

	b.WriteString("The relationships:\n")
	for _, p := range s.Patterns {
		fmt.Fprintf(&b, "(:%s)-[:%s]->(:%s)\n", p.From, p.Type, p.To)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderProperties(props []Property) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		typ := "ANY"
		if len(p.Types) > 0 {
			typ = strings.Join(p.Types, " | ")
		}
		parts = append(parts, fmt.Sprintf("%s: %s", p.Name, typ))
	}
	return strings.Join(parts, ", ")
}
