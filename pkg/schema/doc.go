// Package schema introspects the live graph schema.
//
// The rendered Schema text is what the query generator is grounded on, and
// the structured form backs the guard that rejects queries naming labels,
// relationship types or properties absent from the graph.
package schema
