package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soundprediction/footballkg/pkg/types"
)

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) ([]types.PlayerSeason, []*RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a comma-separated table with a header row. Rows that fail
// to parse are returned as RowErrors and reading continues.
func ReadCSV(r io.Reader) ([]types.PlayerSeason, []*RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty input", ErrMissingColumns)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var rows []types.PlayerSeason
	var rowErrs []*RowError
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrs = append(rowErrs, &RowError{Line: parseErr.StartLine, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		if isBlank(cells) {
			continue
		}
		line, _ := cr.FieldPos(0)

		row, err := parseRow(idx, cells)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
