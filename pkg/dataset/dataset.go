// Package dataset reads player-season tables from CSV and Parquet files.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/soundprediction/footballkg/pkg/types"
)

// Column identifies one input field.
type Column string

// Input columns, named after the reference dataset headers.
const (
	ColName         Column = "Player Names"
	ColMatches      Column = "Matches_Played"
	ColGoals        Column = "Goals"
	ColXG           Column = "xG"
	ColShots        Column = "Shots"
	ColYear         Column = "Year"
	ColMinutes      Column = "Mins"
	ColSubstitution Column = "Substitution"
	ColClub         Column = "Club"
	ColLeague       Column = "League"
	ColCountry      Column = "Country"
)

// Columns lists every required column.
var Columns = []Column{
	ColName, ColMatches, ColGoals, ColXG, ColShots, ColYear,
	ColMinutes, ColSubstitution, ColClub, ColLeague, ColCountry,
}

// aliases maps normalised header spellings to columns.
var aliases = map[string]Column{
	"playernames":   ColName,
	"playername":    ColName,
	"player":        ColName,
	"name":          ColName,
	"matchesplayed": ColMatches,
	"matches":       ColMatches,
	"goals":         ColGoals,
	"xg":            ColXG,
	"shots":         ColShots,
	"year":          ColYear,
	"season":        ColYear,
	"mins":          ColMinutes,
	"minutes":       ColMinutes,
	"substitution":  ColSubstitution,
	"substitutions": ColSubstitution,
	"club":          ColClub,
	"league":        ColLeague,
	"country":       ColCountry,
}

// ErrMissingColumns is returned when the header lacks required columns.
var ErrMissingColumns = errors.New("dataset is missing required columns")

// RowError reports a row that could not be parsed. Line is the 1-based
// line for CSV input and the 1-based row number for Parquet input.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadFile reads path as Parquet when it has a .parquet extension and as
// CSV otherwise.
func ReadFile(path string) ([]types.PlayerSeason, []*RowError, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return ReadParquet(path)
	}
	return ReadCSVFile(path)
}

// normalizeHeader lowercases h and drops everything but letters and digits,
// so "Matches_Played", "matches played" and "MatchesPlayed" compare equal.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// headerIndex maps each column to its position in header.
func headerIndex(header []string) (map[Column]int, error) {
	idx := make(map[Column]int, len(Columns))
	for i, h := range header {
		col, ok := aliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := idx[col]; !dup {
			idx[col] = i
		}
	}

	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// parseRow builds a PlayerSeason from string cells. Empty numeric cells are
// zero.
func parseRow(idx map[Column]int, cells []string) (types.PlayerSeason, error) {
	cell := func(c Column) string {
		i := idx[c]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	var errs []error
	integer := func(c Column) int64 {
		v, err := parseInt(cell(c))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
		return v
	}

	row := types.PlayerSeason{
		Name:          cell(ColName),
		MatchesPlayed: integer(ColMatches),
		Goals:         integer(ColGoals),
		Shots:         integer(ColShots),
		Year:          formatYear(cell(ColYear)),
		Minutes:       integer(ColMinutes),
		Substitution:  integer(ColSubstitution),
		Club:          cell(ColClub),
		League:        cell(ColLeague),
		Country:       cell(ColCountry),
	}
	if s := cell(ColXG); s != "" {
		xg, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ColXG, err))
		}
		row.XG = xg
	}
	return row, errors.Join(errs...)
}

// parseInt accepts integers and integral floats such as "30.0", which
// spreadsheet exports produce for integer columns with missing values.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if math.IsNaN(f) {
		return 0, nil
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int64(f), nil
}

// formatYear drops a trailing ".0" from numeric years.
func formatYear(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
