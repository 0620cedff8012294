package dataset

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/footballkg/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceCSV = `Country,League,Club,Player Names,Matches_Played,Substitution ,Mins,Goals,xG,xG Per Avg Match,Shots,OnTarget,Shots Per Avg Match,On Target Per Avg Match,Year
Spain,La Liga,(BET),Juanmi Callejon,19,16,1849,11,6.62,0.34,48,20,2.47,1.03,2016
Spain,La Liga,(BAR),Lionel Messi,34,2,2997,37,26.61,0.84,196,93,6.21,2.95,2016
`

func TestReadCSVReferenceHeaders(t *testing.T) {
	rows, rowErrs, err := ReadCSV(strings.NewReader(referenceCSV))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 2)

	assert.Equal(t, types.PlayerSeason{
		Name:          "Lionel Messi",
		MatchesPlayed: 34,
		Goals:         37,
		XG:            26.61,
		Shots:         196,
		Year:          "2016",
		Minutes:       2997,
		Substitution:  2,
		Club:          "(BAR)",
		League:        "La Liga",
		Country:       "Spain",
	}, rows[1])
}

func TestReadCSVHeaderNormalisation(t *testing.T) {
	input := "\uFEFFplayer_names,matches played,GOALS,xg,shots,season,minutes,substitutions,club,league,country\n" +
		"A. Striker,30,20,15.5,80,2020,2700,0,FC Sample,Sample League,Sampleland\n"

	rows, rowErrs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	assert.Equal(t, "A. Striker", rows[0].Name)
	assert.Equal(t, int64(30), rows[0].MatchesPlayed)
	assert.Equal(t, "FC Sample", rows[0].Club)
}

func TestReadCSVRowErrors(t *testing.T) {
	input := "Player Names,Matches_Played,Goals,xG,Shots,Year,Mins,Substitution,Club,League,Country\n" +
		"Good,10,5,1.5,20,2019,900,1,C,L,K\n" +
		"BadGoals,10,five,1.5,20,2019,900,1,C,L,K\n" +
		",,,,,,,,,,\n" +
		"Floats,10.0,5.0,,20,2019.0,,1,C,L,K\n" +
		"Fraction,10.5,5,1,20,2019,900,1,C,L,K\n"

	rows, rowErrs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Good", rows[0].Name)
	assert.Equal(t, "Floats", rows[1].Name)
	assert.Equal(t, int64(10), rows[1].MatchesPlayed)
	assert.Equal(t, "2019", rows[1].Year)
	assert.Zero(t, rows[1].XG)
	assert.Zero(t, rows[1].Minutes)

	require.Len(t, rowErrs, 2)
	assert.Equal(t, 3, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Error(), "Goals")
	assert.Equal(t, 6, rowErrs[1].Line)
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("Player Names,Goals\nX,1\n"))
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "Club")

	_, _, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestReadParquet(t *testing.T) {
	want := []types.PlayerSeason{
		{Name: "A. Striker", MatchesPlayed: 30, Goals: 20, XG: 15.5, Shots: 80, Year: "2020", Minutes: 2700, Club: "FC Sample", League: "Sample League", Country: "Sampleland"},
		{Name: "B. Keeper", MatchesPlayed: 38, Year: "2020", Minutes: 3420, Club: "FC Sample", League: "Sample League", Country: "Sampleland"},
	}
	path := filepath.Join(t.TempDir(), "players.parquet")
	require.NoError(t, parquet.WriteFile(path, want))

	rows, rowErrs, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	assert.Equal(t, want, rows)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"12", 12, false},
		{"12.0", 12, false},
		{"NaN", 0, false},
		{"12.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
