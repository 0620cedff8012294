package prompts

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed exemplars.yaml
var defaultExemplars []byte

// Exemplar is one few-shot question pattern and its query.
type Exemplar struct {
	Description string `yaml:"description" json:"description"`
	Query       string `yaml:"query" json:"query"`
}

// DefaultExemplars returns the built-in exemplar pack.
func DefaultExemplars() []Exemplar {
	ex, err := parseExemplars(defaultExemplars)
	if err != nil {
		panic(fmt.Sprintf("embedded exemplars are invalid: %v", err))
	}
	return ex
}

// LoadExemplars reads an exemplar pack from path. An empty path returns
// the built-in pack.
func LoadExemplars(path string) ([]Exemplar, error) {
	if path == "" {
		return DefaultExemplars(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exemplars: %w", err)
	}
	defer f.Close()
	return ReadExemplars(f)
}

// ReadExemplars decodes an exemplar pack in YAML.
func ReadExemplars(r io.Reader) ([]Exemplar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read exemplars: %w", err)
	}
	return parseExemplars(data)
}

func parseExemplars(data []byte) ([]Exemplar, error) {
	var ex []Exemplar
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("failed to parse exemplars: %w", err)
	}
	for i, e := range ex {
		if e.Query == "" {
			return nil, fmt.Errorf("exemplar %d has no query", i+1)
		}
	}
	return ex, nil
}
