// Package driver provides safe type conversion helpers for Neo4j database types.
package driver

import (
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/soundprediction/footballkg/pkg/types"
)

// TypeConversionError represents an error during type conversion from database types.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

// NewTypeConversionError creates a new TypeConversionError.
func NewTypeConversionError(expected, actual, field string) *TypeConversionError {
	return &TypeConversionError{
		Expected: expected,
		Actual:   actual,
		Field:    field,
	}
}

// IsEmbeddingProperty reports whether a property name holds an embedding
// vector. Embeddings are never returned to callers.
func IsEmbeddingProperty(name string) bool {
	return name == types.EmbeddingProperty || strings.HasSuffix(name, "_embedding") || name == "embedding"
}

// NormalizeRecord converts a driver record into a types.Record whose values
// contain only plain Go values.
func NormalizeRecord(keys []string, values []any) types.Record {
	out := types.Record{
		Keys:   append([]string(nil), keys...),
		Values: make([]any, len(values)),
	}
	for i, v := range values {
		out.Values[i] = NormalizeValue(v)
	}
	return out
}

// NormalizeValue flattens nodes and relationships into property maps,
// drops embedding properties and renders temporal values as strings.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case dbtype.Node:
		props := stripEmbeddings(val.Props)
		props["_labels"] = append([]string(nil), val.Labels...)
		return props
	case dbtype.Relationship:
		props := stripEmbeddings(val.Props)
		props["_type"] = val.Type
		return props
	case dbtype.Path:
		nodes := make([]any, len(val.Nodes))
		for i, n := range val.Nodes {
			nodes[i] = NormalizeValue(n)
		}
		rels := make([]any, len(val.Relationships))
		for i, r := range val.Relationships {
			rels[i] = NormalizeValue(r)
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case dbtype.Date:
		return val.Time().Format("2006-01-02")
	case dbtype.LocalDateTime:
		return val.Time().Format("2006-01-02T15:04:05")
	case dbtype.Duration:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = NormalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsEmbeddingProperty(k) {
				continue
			}
			out[k] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func stripEmbeddings(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		if IsEmbeddingProperty(k) {
			continue
		}
		out[k] = NormalizeValue(v)
	}
	return out
}

// AsString safely converts an interface{} to string.
// Returns the string and true if successful, empty string and false otherwise.
func AsString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsInt64 safely converts an interface{} to int64.
// Returns the int64 and true if successful, 0 and false otherwise.
func AsInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// AsFloat64 safely converts an interface{} to float64.
// Returns the float64 and true if successful, 0 and false otherwise.
func AsFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// AsStringSlice converts a []string, or a []any holding only strings, to
// []string. Lists returned by the driver are always []any.
func AsStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsMap safely converts an interface{} to map[string]any.
// Returns the map and true if successful, nil and false otherwise.
func AsMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// MustString converts an interface{} to string or returns an error.
func MustString(v any, field string) (string, error) {
	s, ok := AsString(v)
	if !ok {
		return "", NewTypeConversionError("string", fmt.Sprintf("%T", v), field)
	}
	return s, nil
}

// MustStringSlice converts an interface{} to []string or returns an error.
func MustStringSlice(v any, field string) ([]string, error) {
	s, ok := AsStringSlice(v)
	if !ok {
		return nil, NewTypeConversionError("[]string", fmt.Sprintf("%T", v), field)
	}
	return s, nil
}
