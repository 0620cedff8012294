package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soundprediction/footballkg/pkg/types"
)

// GraphProvider represents the type of graph database provider
type GraphProvider string

const (
	GraphProviderNeo4j GraphProvider = "neo4j"
)

// GraphDriver executes parameterised Cypher against the graph store.
//
// Both execute methods open and close a session per call. A query that
// matches nothing returns an empty *types.Result and a nil error; any
// failure is returned as a *StoreError.
type GraphDriver interface {
	// ExecuteWrite runs query in a write transaction.
	ExecuteWrite(ctx context.Context, query string, params map[string]any) (*types.Result, error)

	// ExecuteRead runs query in a read transaction. Implementations may
	// route reads through a least-privilege credential.
	ExecuteRead(ctx context.Context, query string, params map[string]any) (*types.Result, error)

	// VerifyConnectivity checks that the store is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases all resources held by the driver.
	Close(ctx context.Context) error

	// Provider returns the type of graph database provider.
	Provider() GraphProvider
}

// Operation names reported in StoreError.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// StoreError is returned when a store call fails.
type StoreError struct {
	Op    string
	Query string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graph store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsAlreadyExists reports whether err is the store refusing to declare an
// index or constraint that is already present.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "An equivalent")
}

// truncateQuery shortens a query for log output.
func truncateQuery(query string, max int) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) <= max {
		return query
	}
	return query[:max] + "..."
}

// paramKeys returns the parameter names without their values, which may
// be large embedding vectors.
func paramKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	return keys
}
