package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/types"
)

const (
	nodePropertiesQuery = `CALL db.schema.nodeTypeProperties()
YIELD nodeLabels, propertyName, propertyTypes
RETURN nodeLabels, propertyName, propertyTypes`

	relPropertiesQuery = `CALL db.schema.relTypeProperties()
YIELD relType, propertyName, propertyTypes
RETURN relType, propertyName, propertyTypes`

	patternsQuery = `MATCH (a)-[r]->(b)
WITH DISTINCT labels(a) AS from, type(r) AS rel, labels(b) AS to
RETURN from, rel, to`
)

// Reader is the part of the graph store the introspector needs.
type Reader interface {
	ExecuteRead(ctx context.Context, query string, params map[string]any) (*types.Result, error)
}

// Introspector reads the live schema from the graph store.
type Introspector struct {
	store  Reader
	logger *slog.Logger
}

// NewIntrospector creates an Introspector. A nil logger uses slog.Default().
func NewIntrospector(store Reader, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{store: store, logger: logger}
}

// Fetch returns the labels, relationship types and properties currently
// present in the graph. Embedding properties are left out.
func (i *Introspector) Fetch(ctx context.Context) (*Schema, error) {
	nodes, err := i.nodeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read node properties: %w", err)
	}
	rels, err := i.relationshipTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationship properties: %w", err)
	}
	patterns, err := i.patterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationship patterns: %w", err)
	}

	s := New(nodes, rels, patterns)
	i.logger.Debug("schema fetched",
		"labels", len(s.Nodes),
		"relationship_types", len(s.Relationships),
		"patterns", len(s.Patterns))
	return s, nil
}

func (i *Introspector) nodeTypes(ctx context.Context) ([]NodeType, error) {
	res, err := i.store.ExecuteRead(ctx, nodePropertiesQuery, nil)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string][]Property)
	var order []string
	for _, rec := range res.Records {
		raw, _ := rec.Get("nodeLabels")
		labels, err := driver.MustStringSlice(raw, "nodeLabels")
		if err != nil {
			return nil, err
		}
		name, _ := rec.Get("propertyName")
		propName, _ := driver.AsString(name)
		rawTypes, _ := rec.Get("propertyTypes")
		propTypes, _ := driver.AsStringSlice(rawTypes)

		for _, label := range labels {
			if _, ok := byLabel[label]; !ok {
				order = append(order, label)
				byLabel[label] = nil
			}
			if propName == "" || driver.IsEmbeddingProperty(propName) {
				continue
			}
			byLabel[label] = addProperty(byLabel[label], propName, propTypes)
		}
	}

	out := make([]NodeType, 0, len(order))
	for _, label := range order {
		out = append(out, NodeType{Label: label, Properties: sortProperties(byLabel[label])})
	}
	return out, nil
}

func (i *Introspector) relationshipTypes(ctx context.Context) ([]RelationshipType, error) {
	res, err := i.store.ExecuteRead(ctx, relPropertiesQuery, nil)
	if err != nil {
		return nil, err
	}

	byType := make(map[string][]Property)
	var order []string
	for _, rec := range res.Records {
		raw, _ := rec.Get("relType")
		relType, err := driver.MustString(raw, "relType")
		if err != nil {
			return nil, err
		}
		relType = cleanRelType(relType)
		if _, ok := byType[relType]; !ok {
			order = append(order, relType)
			byType[relType] = nil
		}

		name, _ := rec.Get("propertyName")
		propName, _ := driver.AsString(name)
		if propName == "" || driver.IsEmbeddingProperty(propName) {
			continue
		}
		rawTypes, _ := rec.Get("propertyTypes")
		propTypes, _ := driver.AsStringSlice(rawTypes)
		byType[relType] = addProperty(byType[relType], propName, propTypes)
	}

	out := make([]RelationshipType, 0, len(order))
	for _, t := range order {
		out = append(out, RelationshipType{Type: t, Properties: sortProperties(byType[t])})
	}
	return out, nil
}

func (i *Introspector) patterns(ctx context.Context) ([]Pattern, error) {
	res, err := i.store.ExecuteRead(ctx, patternsQuery, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[Pattern]bool)
	var out []Pattern
	for _, rec := range res.Records {
		rawFrom, _ := rec.Get("from")
		rawRel, _ := rec.Get("rel")
		rawTo, _ := rec.Get("to")
		from, _ := driver.AsStringSlice(rawFrom)
		to, _ := driver.AsStringSlice(rawTo)
		rel, err := driver.MustString(rawRel, "rel")
		if err != nil {
			return nil, err
		}
		for _, f := range from {
			for _, t := range to {
				p := Pattern{From: f, Type: rel, To: t}
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	return out, nil
}

// cleanRelType turns ":`PLAYS_FOR`" into "PLAYS_FOR".
func cleanRelType(s string) string {
	s = strings.TrimPrefix(s, ":")
	return strings.Trim(s, "`")
}

// typeNames maps driver property type names to Cypher type names.
var typeNames = map[string]string{
	"String":        "STRING",
	"Long":          "INTEGER",
	"Integer":       "INTEGER",
	"Double":        "FLOAT",
	"Float":         "FLOAT",
	"Boolean":       "BOOLEAN",
	"Date":          "DATE",
	"LocalDateTime": "LOCAL_DATETIME",
	"DateTime":      "DATETIME",
	"StringArray":   "LIST<STRING>",
	"LongArray":     "LIST<INTEGER>",
	"DoubleArray":   "LIST<FLOAT>",
	"FloatArray":    "LIST<FLOAT>",
}

func addProperty(props []Property, name string, rawTypes []string) []Property {
	mapped := make([]string, 0, len(rawTypes))
	for _, t := range rawTypes {
		if m, ok := typeNames[t]; ok {
			mapped = append(mapped, m)
		} else {
			mapped = append(mapped, strings.ToUpper(t))
		}
	}
	for idx := range props {
		if props[idx].Name == name {
			props[idx].Types = mergeTypes(props[idx].Types, mapped)
			return props
		}
	}
	return append(props, Property{Name: name, Types: mapped})
}

func mergeTypes(a, b []string) []string {
	for _, t := range b {
		found := false
		for _, existing := range a {
			if existing == t {
				found = true
				break
			}
		}
		if !found {
			a = append(a, t)
		}
	}
	return a
}

func sortProperties(props []Property) []Property {
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}
