package prompts

import (
	"fmt"
	"strings"

	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/types"
)

// cypherGenerationPrompt translates a question into a Cypher query grounded
// on the schema text and the exemplar pack.
func cypherGenerationPrompt(context map[string]any) ([]types.Message, error) {
	sysPrompt := `You are an expert Neo4j Developer translating user questions into Cypher queries for a football knowledge graph.
Convert the user's question based on the schema.

Use only the provided node labels, relationship types and properties in the schema.
Do not use any other relationship types or properties that are not provided.

Do not return entire nodes or embedding properties.
The query must only read from the graph: never use CREATE, MERGE, SET, DELETE, REMOVE, DROP or LOAD CSV.

Respond with the Cypher statement only, without explanations.`

	schema, err := requireString(context, KeySchema)
	if err != nil {
		return nil, err
	}
	question, err := requireString(context, KeyQuestion)
	if err != nil {
		return nil, err
	}

	exemplars, _ := context[KeyExemplars].([]Exemplar)
	if exemplars == nil {
		exemplars = DefaultExemplars()
	}

	userPrompt := fmt.Sprintf(`Example Cypher Statements:

%s
Schema:
%s

Question:
%s
`, renderExemplars(exemplars), schema, question)

	logPrompts(loggerFrom(context), "cypher_generation", sysPrompt, userPrompt)
	return []types.Message{
		nlp.NewSystemMessage(sysPrompt),
		nlp.NewUserMessage(userPrompt),
	}, nil
}

func renderExemplars(exemplars []Exemplar) string {
	var b strings.Builder
	for i, e := range exemplars {
		fmt.Fprintf(&b, "%d. %s:\n```\n%s\n```\n\n", i+1, e.Description, strings.TrimSpace(e.Query))
	}
	return b.String()
}
