// Package driver provides the graph store client for footballkg.
//
// GraphDriver executes parameterised Cypher and returns a *types.Result.
// An empty result means the query matched nothing; a failed call is
// always reported as a *StoreError, after being logged once here.
//
// # Usage
//
//	d, err := driver.NewNeo4jDriver(uri, username, password, "neo4j",
//	    driver.WithReadCredentials(readUser, readPassword),
//	    driver.WithLogger(logger))
//	res, err := d.ExecuteRead(ctx, "MATCH (p:PLAYER) RETURN p.name AS name", nil)
//
// Reads use AccessModeRead and, when configured, a separate read-only user,
// so generated queries run with the least privilege available.
//
// # Type Helpers
//
// Values are normalised to plain Go types (see NormalizeValue): nodes and
// relationships become property maps and embedding properties are removed.
//
// # Query Builders
//
// graph_queries.go builds the DDL and merge statements used by ingestion:
// uniqueness constraints, the vector index, merge-by-name upserts and the
// single-round-trip relationship link.
package driver
