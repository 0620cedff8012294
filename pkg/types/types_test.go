package types

import (
	"encoding/json"
	"testing"
)

func TestPlayerSeasonValidation(t *testing.T) {
	valid := PlayerSeason{Name: "A. Striker", Club: "FC Sample", League: "Sample League", Country: "Sampleland"}

	tests := []struct {
		name    string
		mutate  func(p *PlayerSeason)
		wantErr error
	}{
		{name: "valid row", mutate: func(p *PlayerSeason) {}, wantErr: nil},
		{name: "empty name", mutate: func(p *PlayerSeason) { p.Name = "" }, wantErr: ErrEmptyName},
		{name: "blank name", mutate: func(p *PlayerSeason) { p.Name = "   " }, wantErr: ErrEmptyName},
		{name: "empty club", mutate: func(p *PlayerSeason) { p.Club = "" }, wantErr: ErrEmptyClub},
		{name: "empty league", mutate: func(p *PlayerSeason) { p.League = "" }, wantErr: ErrEmptyLeague},
		{name: "empty country", mutate: func(p *PlayerSeason) { p.Country = "" }, wantErr: ErrEmptyCountry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid
			tt.mutate(&row)
			if err := row.Validate(); err != tt.wantErr {
				t.Errorf("PlayerSeason.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayerSeasonDescription(t *testing.T) {
	row := PlayerSeason{Name: "A. Striker", MatchesPlayed: 30, Goals: 20, XG: 17.4, Shots: 99}
	want := "A. Striker played 30 matches and scored 20 goals."
	if got := row.Description(); got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}

	// Attributes outside name, matches and goals do not affect the sentence.
	other := row
	other.XG = 2.1
	other.Shots = 3
	other.Club = "Elsewhere"
	if other.Description() != row.Description() {
		t.Error("Description() depends on fields other than name, matches and goals")
	}
}

func TestPlayerSeasonProperties(t *testing.T) {
	row := PlayerSeason{Name: "A. Striker", MatchesPlayed: 30, Goals: 20, Year: "2020", Club: "FC Sample"}
	props := row.Properties()

	if props["name"] != "A. Striker" {
		t.Errorf("expected name property, got %v", props["name"])
	}
	if props["goals"] != int64(20) {
		t.Errorf("expected goals 20, got %v", props["goals"])
	}
	if props["matches"] != int64(30) {
		t.Errorf("expected matches 30, got %v", props["matches"])
	}
	if props["year"] != int64(2020) {
		t.Errorf("expected numeric year, got %T %v", props["year"], props["year"])
	}
	if _, ok := props["club"]; ok {
		t.Error("club is a node of its own and must not be a player property")
	}
	if _, ok := props[EmbeddingProperty]; ok {
		t.Error("embedding must be set by the ingestor, not Properties()")
	}

	row.Year = "2020/21"
	if got := row.Properties()["year"]; got != "2020/21" {
		t.Errorf("expected non-numeric year kept as string, got %v", got)
	}
}

func TestRecordAccess(t *testing.T) {
	rec := Record{Keys: []string{"name", "goals"}, Values: []any{"A. Striker", int64(20)}}

	v, ok := rec.Get("goals")
	if !ok || v != int64(20) {
		t.Errorf("Get(goals) = %v, %v", v, ok)
	}
	if _, ok := rec.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}

	m := rec.AsMap()
	if len(m) != 2 || m["name"] != "A. Striker" {
		t.Errorf("AsMap() = %v", m)
	}
}

func TestResultEmpty(t *testing.T) {
	var nilResult *Result
	if !nilResult.Empty() {
		t.Error("nil result should be empty")
	}
	if !(&Result{}).Empty() {
		t.Error("result without records should be empty")
	}
	r := &Result{Records: []Record{{Keys: []string{"n"}, Values: []any{1}}}}
	if r.Empty() {
		t.Error("result with records should not be empty")
	}
}

func TestResultJSON(t *testing.T) {
	r := Result{
		Keys:    []string{"name"},
		Records: []Record{{Keys: []string{"name"}, Values: []any{"A. Striker"}}},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["records"]; !ok {
		t.Errorf("expected records field in %s", data)
	}
}
