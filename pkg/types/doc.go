// Package types defines the core data types shared across footballkg.
//
// This package contains:
//   - PlayerSeason: one tabular input row (player statistics for a season at a club)
//   - EntityType / RelationshipType: the labels and relationship types of the graph
//   - Record / Result: rows returned by the graph store
//   - Message / Response: language model messages and completions
//
// # Validation
//
//	row := &types.PlayerSeason{Name: "A. Striker", Club: "FC Sample"}
//	if err := row.Validate(); err != nil {
//	    // league and country are missing
//	}
package types
