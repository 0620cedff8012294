// Package cypher turns natural-language questions into Cypher queries and
// checks generated queries before they reach the graph.
//
// Generator asks the language model for a query grounded on the schema text
// and the exemplar pack. ExtractQuery recovers the statement from whatever
// the model wrapped it in. Guard rejects statements that could write to the
// graph or that name labels, relationship types or properties the schema
// does not contain.
package cypher
