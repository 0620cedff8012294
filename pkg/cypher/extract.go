package cypher

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	thinkTags   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedBlock = regexp.MustCompile("(?s)```[ \\t]*(?:([A-Za-z]+)[ \\t]*\\r?\\n)?(.*?)```")
	leadingWord = regexp.MustCompile(`(?i)^cypher\b[:\s]*`)
)

// jsonQueryKeys are the fields checked, in order, when a model answers with
// a JSON object instead of a bare statement.
var jsonQueryKeys = []string{"query", "cypher", "statement"}

// ExtractQuery recovers the Cypher statement from a model completion. It
// removes reasoning tags and markdown fences, unwraps JSON objects such as
// {"query": "..."} (repairing malformed JSON first), drops a leading
// "cypher" label and trailing semicolons.
func ExtractQuery(completion string) (string, error) {
	s := strings.TrimSpace(thinkTags.ReplaceAllString(completion, ""))

	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		lang := strings.ToLower(m[1])
		s = strings.TrimSpace(m[2])
		if lang == "json" {
			if q, ok := queryFromJSON(s); ok {
				s = q
			}
		}
	}

	if strings.HasPrefix(s, "{") {
		if q, ok := queryFromJSON(s); ok {
			s = q
		}
	}

	s = leadingWord.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}

	if s == "" {
		return "", ErrEmptyQuery
	}
	return s, nil
}

func queryFromJSON(s string) (string, bool) {
	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return "", false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return "", false
	}
	for _, k := range jsonQueryKeys {
		if q, ok := obj[k].(string); ok && strings.TrimSpace(q) != "" {
			return strings.TrimSpace(q), true
		}
	}
	return "", false
}
