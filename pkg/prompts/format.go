package prompts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/footballkg/pkg/types"
)

// RecordsToTSV renders query results as TSV with the result keys as the
// header row. At most maxRows rows are written when maxRows > 0; the
// second return value reports whether rows were dropped.
func RecordsToTSV(result *types.Result, maxRows int, ensureASCII bool) (string, bool, error) {
	if result.Empty() {
		return "", false, nil
	}

	keys := result.Keys
	if len(keys) == 0 {
		keys = result.Records[0].Keys
	}

	rows := result.Records
	truncated := false
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
		truncated = true
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	if err := w.Write(keys); err != nil {
		return "", false, err
	}
	for _, rec := range rows {
		row := make([]string, len(keys))
		for i, key := range keys {
			if v, ok := rec.Get(key); ok {
				row[i] = formatValue(v, ensureASCII)
			}
		}
		if err := w.Write(row); err != nil {
			return "", false, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", false, err
	}
	return buf.String(), truncated, nil
}

// formatValue converts a value to its string representation for TSV
func formatValue(v any, ensureASCII bool) string {
	if v == nil {
		return ""
	}

	var result string

	switch val := v.(type) {
	case string:
		result = val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		result = strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item, false)
		}
		result = strings.Join(parts, ", ")
	default:
		// For other complex types, use JSON representation
		b, err := json.Marshal(v)
		if err != nil {
			result = fmt.Sprint(v)
		} else {
			result = string(b)
		}
	}

	if ensureASCII {
		return escapeNonASCII(result)
	}
	return result
}

// escapeNonASCII escapes non-ASCII characters in a string
func escapeNonASCII(s string) string {
	var buf strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			fmt.Fprintf(&buf, "\\u%04x", r)
		} else {
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// ToPromptYAML serializes data to YAML for use in prompts.
func ToPromptYAML(data any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// debugPrompts reports whether prompt text should be logged.
func debugPrompts() bool {
	return os.Getenv("DEBUG_LLM_PROMPTS") == "true"
}

// logPrompts logs system and user prompts at debug level when
// DEBUG_LLM_PROMPTS=true.
func logPrompts(logger *slog.Logger, name, sysPrompt, userPrompt string) {
	if logger == nil || !debugPrompts() {
		return
	}
	logger.Debug("generated prompt", "prompt", name, "system", sysPrompt, "user", userPrompt)
}

// LogResponse logs a model completion at debug level when
// DEBUG_LLM_PROMPTS=true.
func LogResponse(logger *slog.Logger, name string, response *types.Response) {
	if logger == nil || response == nil || !debugPrompts() {
		return
	}
	logger.Debug("llm response", "prompt", name, "model", response.Model, "content", response.Content)
}
