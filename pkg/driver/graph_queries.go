package driver

import (
	"fmt"
	"strings"
)

// SimilarityFunction is the vector index similarity function.
type SimilarityFunction string

const (
	SimilarityCosine    SimilarityFunction = "cosine"
	SimilarityEuclidean SimilarityFunction = "euclidean"
)

// VectorIndex describes a node vector index.
type VectorIndex struct {
	Name       string
	Label      string
	Property   string
	Dimensions int
	Similarity SimilarityFunction
}

// QuoteIdentifier backtick-quotes a label, relationship type or property
// name for interpolation into Cypher.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// UniqueConstraintQuery returns the statement declaring label.property
// unique. The constraint is named <label>_<property> in lower case and is
// a no-op when already present.
func UniqueConstraintQuery(label, property string) string {
	name := strings.ToLower(label + "_" + property)
	return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		QuoteIdentifier(name), QuoteIdentifier(label), QuoteIdentifier(property))
}

// VectorIndexQuery returns the statement declaring idx. Repeating it is a no-op.
func VectorIndexQuery(idx VectorIndex) string {
	similarity := idx.Similarity
	if similarity == "" {
		similarity = SimilarityCosine
	}
	return fmt.Sprintf(
		"CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s) "+
			"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: '%s'}}",
		QuoteIdentifier(idx.Name), QuoteIdentifier(idx.Label), QuoteIdentifier(idx.Property),
		idx.Dimensions, similarity)
}

// ShowIndexQuery lists indexes with the given name. Expects $name.
const ShowIndexQuery = "SHOW INDEXES YIELD name, type, labelsOrTypes, properties WHERE name = $name RETURN name, type, labelsOrTypes, properties"

// MergeNodeQuery returns a merge-by-key upsert for label keyed on name.
// Expects $name and $props; properties in $props overwrite stored values.
func MergeNodeQuery(label string) string {
	return fmt.Sprintf("MERGE (n:%s {name: $name}) SET n += $props RETURN n.name AS name", QuoteIdentifier(label))
}

// MergeNameQuery returns a merge-by-key upsert for a node with no
// attributes besides its name. Expects $name.
func MergeNameQuery(label string) string {
	return fmt.Sprintf("MERGE (n:%s {name: $name}) RETURN n.name AS name", QuoteIdentifier(label))
}

// Hop is one relationship merged between two existing nodes.
type Hop struct {
	FromLabel string
	FromParam string
	Type      string
	ToLabel   string
	ToParam   string
}

// LinkQuery returns a statement merging every hop in one round trip. Each
// endpoint is matched optionally, so a missing node skips only the hops
// that touch it. Relationships are merged without direction.
func LinkQuery(hops []Hop) string {
	var (
		b    strings.Builder
		vars []string
	)
	seen := make(map[string]string)
	varFor := func(label, param string) string {
		key := label + "|" + param
		if v, ok := seen[key]; ok {
			return v
		}
		v := fmt.Sprintf("n%d", len(vars))
		seen[key] = v
		vars = append(vars, v)
		fmt.Fprintf(&b, "OPTIONAL MATCH (%s:%s {name: $%s})\n", v, QuoteIdentifier(label), param)
		return v
	}

	pairs := make([][2]string, len(hops))
	for i, h := range hops {
		pairs[i] = [2]string{varFor(h.FromLabel, h.FromParam), varFor(h.ToLabel, h.ToParam)}
	}
	fmt.Fprintf(&b, "WITH %s\n", strings.Join(vars, ", "))

	for i, h := range hops {
		from, to := pairs[i][0], pairs[i][1]
		fmt.Fprintf(&b, "FOREACH (_ IN CASE WHEN %s IS NULL OR %s IS NULL THEN [] ELSE [1] END | MERGE (%s)-[:%s]-(%s))\n",
			from, to, from, QuoteIdentifier(h.Type), to)
	}
	b.WriteString("RETURN count(*) AS linked")
	return b.String()
}
