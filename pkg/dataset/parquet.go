package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/footballkg/pkg/types"
)

// ReadParquet reads a flat Parquet table. Column types are not fixed: every
// value is read through its string form and parsed like a CSV cell, so
// integer, floating point and string encodings of the same column all load.
func ReadParquet(path string) ([]types.PlayerSeason, []*RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := parquet.NewReader(f)
	defer reader.Close()

	columns := reader.Schema().Columns()
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col[len(col)-1]
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var rows []types.PlayerSeason
	var rowErrs []*RowError
	buf := make(parquet.Row, 0, len(columns))
	for n := 1; ; n++ {
		row, err := reader.ReadRow(buf[:0])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read dataset: %w", err)
		}

		cells := make([]string, len(columns))
		for _, v := range row {
			if c := v.Column(); c >= 0 && c < len(cells) && !v.IsNull() {
				cells[c] = v.String()
			}
		}

		season, err := parseRow(idx, cells)
		if err != nil {
			rowErrs = append(rowErrs, &RowError{Line: n, Err: err})
			continue
		}
		rows = append(rows, season)
	}
	return rows, rowErrs, nil
}
