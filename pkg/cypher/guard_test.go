package cypher

import (
	"testing"

	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func footballSchema() *schema.Schema {
	props := func(names ...string) []schema.Property {
		out := make([]schema.Property, len(names))
		for i, n := range names {
			out[i] = schema.Property{Name: n}
		}
		return out
	}
	return schema.New(
		[]schema.NodeType{
			{Label: "PLAYER", Properties: props("name", "matches", "goals", "xG", "shots", "year", "mins", "substitution")},
			{Label: "CLUB", Properties: props("name")},
			{Label: "LEAGUE", Properties: props("name")},
			{Label: "COUNTRY", Properties: props("name")},
		},
		nil,
		[]schema.Pattern{
			{From: "PLAYER", Type: "PLAYS_FOR", To: "CLUB"},
			{From: "CLUB", Type: "PART_OF", To: "LEAGUE"},
			{From: "LEAGUE", Type: "IN_COUNTRY", To: "COUNTRY"},
		},
	)
}

func TestGuardAcceptsExemplars(t *testing.T) {
	g := NewGuard(footballSchema())
	for _, e := range prompts.DefaultExemplars() {
		assert.NoError(t, g.Check(e.Query), e.Description)
	}
}

func TestGuardAcceptsReadQueries(t *testing.T) {
	g := NewGuard(footballSchema())
	queries := []string{
		"MATCH (p:PLAYER) WHERE p.goals > 10 RETURN p.name AS name, p.xG ORDER BY p.goals DESC LIMIT 10",
		"MATCH (p:PLAYER)-[:PLAYS_FOR]-(c:CLUB)-[:PART_OF]-(l:LEAGUE)-[:IN_COUNTRY]-(:COUNTRY {name: 'Spain'}) RETURN c.name, count(p) AS players",
		"MATCH (p:PLAYER) WHERE toLower(p.name) CONTAINS 'messi' RETURN p.name, sum(p.goals) AS total",
		"MATCH (p:PLAYER) RETURN {player: p.name, goals: p.goals} AS row",
		"MATCH (p:PLAYER) RETURN p {.name, .goals, ratio: p.goals / p.matches}",
		"CALL db.index.vector.queryNodes('football_players_embeddings', 5, $embedding) YIELD node, score RETURN node.name, score",
		"MATCH path = (p:PLAYER)-[:PLAYS_FOR*1..2]-(c:CLUB) RETURN [n IN nodes(path) WHERE n:CLUB | n.name] AS clubs",
		"MATCH (p:`PLAYER`)-[r:`PLAYS_FOR`]->(c) RETURN p.`name`, c.name",
		"MATCH (p:PLAYER) WHERE p.name = 'CREATE (x)' RETURN p.name // SET is only in a comment",
		"MATCH (c:CLUB) WHERE NOT (c)-[:PART_OF]->(:LEAGUE) RETURN c.name;",
	}
	for _, q := range queries {
		assert.NoError(t, g.Check(q), q)
	}
}

func TestGuardRejectsWrites(t *testing.T) {
	g := NewGuard(footballSchema())
	queries := []string{
		"CREATE (p:PLAYER {name: 'X'})",
		"MATCH (p:PLAYER) SET p.goals = 100",
		"MATCH (p:PLAYER) DETACH DELETE p",
		"MERGE (c:CLUB {name: 'Y'}) RETURN c",
		"MATCH (p:PLAYER) REMOVE p.goals",
		"DROP INDEX football_players_embeddings",
		"LOAD CSV FROM 'file:///x.csv' AS row RETURN row",
		"MATCH (p:PLAYER) FOREACH (x IN [1] | SET p.goals = x)",
		"CALL apoc.periodic.iterate('MATCH (n) RETURN n', 'DELETE n', {})",
		"call dbms.security.createUser('x', 'y')",
	}
	for _, q := range queries {
		assert.ErrorIs(t, g.Check(q), ErrWriteClause, q)
	}
}

func TestGuardRejectsMultipleStatements(t *testing.T) {
	g := NewGuard(footballSchema())
	assert.ErrorIs(t, g.Check("MATCH (p:PLAYER) RETURN p.name; MATCH (c:CLUB) RETURN c.name"), ErrMultipleStatements)
	assert.ErrorIs(t, g.Check(""), ErrEmptyQuery)
}

func TestGuardGrounding(t *testing.T) {
	g := NewGuard(footballSchema())

	tests := []struct {
		query string
		want  error
	}{
		{"MATCH (p:ATHLETE) RETURN p.name", ErrUnknownLabel},
		{"MATCH (p:PLAYER|COACH) RETURN p.name", ErrUnknownLabel},
		{"MATCH (p) WHERE p:MANAGER RETURN p.name", ErrUnknownLabel},
		{"MATCH (p:PLAYER)-[:MANAGES]->(c:CLUB) RETURN p.name", ErrUnknownRelationship},
		{"MATCH (p:PLAYER)-[:PLAYS_FOR|LOANED_TO]->(c:CLUB) RETURN p.name", ErrUnknownRelationship},
		{"MATCH (p:PLAYER) RETURN p.assists", ErrUnknownProperty},
		{"MATCH (p:PLAYER {nationality: 'Brazil'}) RETURN p.name", ErrUnknownProperty},
		{"MATCH (p:PLAYER) RETURN p.name_embedding", ErrUnknownProperty},
		{"MATCH (p:PLAYER)-[r:PLAYS_FOR {since: 2020}]->(c:CLUB) RETURN p.name", ErrUnknownProperty},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, g.Check(tt.query), tt.want, tt.query)
	}
}

func TestGuardEmptySchemaSkipsGrounding(t *testing.T) {
	g := NewGuard(schema.New(nil, nil, nil))
	assert.NoError(t, g.Check("MATCH (p:ATHLETE) RETURN p.assists"))
	assert.ErrorIs(t, g.Check("CREATE (p:ATHLETE)"), ErrWriteClause)

	assert.NoError(t, NewGuard(nil).Check("MATCH (n) RETURN count(n)"))
}
