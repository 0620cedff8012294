package prompts

import (
	"fmt"

	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/types"
)

// answerSynthesisPrompt turns query results into a detailed answer.
// Results are provided in TSV format to reduce token usage.
func answerSynthesisPrompt(context map[string]any) ([]types.Message, error) {
	sysPrompt := `You are a football statistics expert providing detailed information from a football knowledge graph.
Always provide comprehensive, well-formatted answers that include ALL the data points from the query results.

For statistical queries, include:
- The player's full name
- The specific statistic values (goals, matches, etc.)
- The year/season of the statistic
- Any club or league affiliations if available
- Sort or group data in a meaningful way if appropriate

Include contextual insights when possible, such as notable achievements, records, or comparisons.
When presenting multiple players, use appropriate formatting like bullet points or tables in markdown.

Use only the facts present in the context. Never invent names, statistics or seasons that the context does not contain.`

	question, err := requireString(context, KeyQuestion)
	if err != nil {
		return nil, err
	}
	results, err := requireString(context, KeyContext)
	if err != nil {
		return nil, err
	}

	note := ""
	if truncated, _ := context[KeyTruncated].(bool); truncated {
		note = "\nOnly the first rows of a larger result are shown; say so in the answer.\n"
	}

	userPrompt := fmt.Sprintf(`Context from the knowledge graph, in TSV (tab-separated values) format:
%s%s
Question: %s

Detailed Answer:`, results, note, question)

	logPrompts(loggerFrom(context), "answer_synthesis", sysPrompt, userPrompt)
	return []types.Message{
		nlp.NewSystemMessage(sysPrompt),
		nlp.NewUserMessage(userPrompt),
	}, nil
}
