package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validation errors
var (
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrEmptyClub     = errors.New("club cannot be empty")
	ErrEmptyLeague   = errors.New("league cannot be empty")
	ErrEmptyCountry  = errors.New("country cannot be empty")
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrEmptyQuery    = errors.New("query cannot be empty")
)

// EntityType is a node label in the football graph.
type EntityType string

const (
	// PlayerEntity labels player nodes.
	PlayerEntity EntityType = "PLAYER"
	// ClubEntity labels club nodes.
	ClubEntity EntityType = "CLUB"
	// LeagueEntity labels league nodes.
	LeagueEntity EntityType = "LEAGUE"
	// CountryEntity labels country nodes.
	CountryEntity EntityType = "COUNTRY"
)

// AllEntityTypes lists every node label written during ingestion.
var AllEntityTypes = []EntityType{PlayerEntity, ClubEntity, LeagueEntity, CountryEntity}

// RelationshipType is a relationship type in the football graph.
type RelationshipType string

const (
	// PlaysFor links a player and a club.
	PlaysFor RelationshipType = "PLAYS_FOR"
	// PartOf links a club and a league.
	PartOf RelationshipType = "PART_OF"
	// InCountry links a league and a country.
	InCountry RelationshipType = "IN_COUNTRY"
)

// EmbeddingProperty is the player property holding the name embedding.
const EmbeddingProperty = "name_embedding"

// PlayerSeason is one input row: a player's statistics for one season at one club.
type PlayerSeason struct {
	Name          string  `json:"name" parquet:"Player Names"`
	MatchesPlayed int64   `json:"matches_played" parquet:"Matches_Played"`
	Goals         int64   `json:"goals" parquet:"Goals"`
	XG            float64 `json:"xg" parquet:"xG"`
	Shots         int64   `json:"shots" parquet:"Shots"`
	Year          string  `json:"year" parquet:"Year"`
	Minutes       int64   `json:"minutes" parquet:"Mins"`
	Substitution  int64   `json:"substitution" parquet:"Substitution"`
	Club          string  `json:"club" parquet:"Club"`
	League        string  `json:"league" parquet:"League"`
	Country       string  `json:"country" parquet:"Country"`
}

// Validate checks that the row carries every identity key.
func (p *PlayerSeason) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrEmptyName
	case strings.TrimSpace(p.Club) == "":
		return ErrEmptyClub
	case strings.TrimSpace(p.League) == "":
		return ErrEmptyLeague
	case strings.TrimSpace(p.Country) == "":
		return ErrEmptyCountry
	}
	return nil
}

// Description is the sentence the player embedding is computed from.
// It depends only on name, matches and goals.
func (p *PlayerSeason) Description() string {
	return fmt.Sprintf("%s played %d matches and scored %d goals.", p.Name, p.MatchesPlayed, p.Goals)
}

// Properties returns the player attributes stored on the PLAYER node,
// excluding the embedding. A numeric year is stored as an integer.
func (p *PlayerSeason) Properties() map[string]any {
	var year any = p.Year
	if y, err := strconv.ParseInt(strings.TrimSpace(p.Year), 10, 64); err == nil {
		year = y
	}
	return map[string]any{
		"name":         p.Name,
		"matches":      p.MatchesPlayed,
		"goals":        p.Goals,
		"xG":           p.XG,
		"shots":        p.Shots,
		"year":         year,
		"mins":         p.Minutes,
		"substitution": p.Substitution,
	}
}

// Record is a single result row. Keys and Values are positionally aligned.
type Record struct {
	Keys   []string `json:"keys"`
	Values []any    `json:"values"`
}

// Get returns the value for key and whether it was present.
func (r Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// AsMap returns the record as a key to value map.
func (r Record) AsMap() map[string]any {
	m := make(map[string]any, len(r.Keys))
	for i, k := range r.Keys {
		if i < len(r.Values) {
			m[k] = r.Values[i]
		}
	}
	return m
}

// Result is the outcome of a successful store call. A Result with no
// records means the query matched nothing; failures are reported as errors.
type Result struct {
	Keys    []string `json:"keys"`
	Records []Record `json:"records"`
	// Counters summarises what a write changed.
	Counters Counters `json:"counters"`
}

// Empty reports whether the query returned no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// Counters summarises the effect of a write query.
type Counters struct {
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
	PropertiesSet        int `json:"properties_set"`
	IndexesAdded         int `json:"indexes_added"`
	ConstraintsAdded     int `json:"constraints_added"`
}
