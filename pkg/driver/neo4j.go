package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/footballkg/pkg/types"
)

const logQueryLength = 200

// Neo4jDriver implements the GraphDriver interface for Neo4j databases.
type Neo4jDriver struct {
	client     neo4j.DriverWithContext
	readClient neo4j.DriverWithContext
	database   string
	logger     *slog.Logger
}

// Neo4jOption configures a Neo4jDriver.
type Neo4jOption func(*neo4jOptions)

type neo4jOptions struct {
	readUsername string
	readPassword string
	logger       *slog.Logger
}

// WithReadCredentials routes ExecuteRead through a separate, read-only
// database user.
func WithReadCredentials(username, password string) Neo4jOption {
	return func(o *neo4jOptions) {
		o.readUsername = username
		o.readPassword = password
	}
}

// WithLogger sets the logger used to report failed store calls.
func WithLogger(logger *slog.Logger) Neo4jOption {
	return func(o *neo4jOptions) {
		o.logger = logger
	}
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string, opts ...Neo4jOption) (*Neo4jDriver, error) {
	var o neo4jOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	readClient := client
	if o.readUsername != "" {
		readClient, err = neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(o.readUsername, o.readPassword, ""))
		if err != nil {
			client.Close(context.Background())
			return nil, fmt.Errorf("failed to create read-only neo4j driver: %w", err)
		}
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{
		client:     client,
		readClient: readClient,
		database:   database,
		logger:     o.logger,
	}, nil
}

// ExecuteWrite runs query in a write transaction.
func (n *Neo4jDriver) ExecuteWrite(ctx context.Context, query string, params map[string]any) (*types.Result, error) {
	return n.execute(ctx, n.client, neo4j.AccessModeWrite, query, params)
}

// ExecuteRead runs query in a read transaction, using the read-only
// credential when one was configured.
func (n *Neo4jDriver) ExecuteRead(ctx context.Context, query string, params map[string]any) (*types.Result, error) {
	return n.execute(ctx, n.readClient, neo4j.AccessModeRead, query, params)
}

func (n *Neo4jDriver) execute(ctx context.Context, client neo4j.DriverWithContext, mode neo4j.AccessMode, query string, params map[string]any) (*types.Result, error) {
	session := client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database, AccessMode: mode})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		keys, err := res.Keys()
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}

		out := &types.Result{Keys: keys, Records: make([]types.Record, 0, len(records))}
		for _, rec := range records {
			out.Records = append(out.Records, NormalizeRecord(rec.Keys, rec.Values))
		}
		if summary != nil {
			c := summary.Counters()
			out.Counters = types.Counters{
				NodesCreated:         c.NodesCreated(),
				RelationshipsCreated: c.RelationshipsCreated(),
				PropertiesSet:        c.PropertiesSet(),
				IndexesAdded:         c.IndexesAdded(),
				ConstraintsAdded:     c.ConstraintsAdded(),
			}
		}
		return out, nil
	}

	op := OpWrite
	var (
		result any
		err    error
	)
	if mode == neo4j.AccessModeRead {
		op = OpRead
		result, err = session.ExecuteRead(ctx, work)
	} else {
		result, err = session.ExecuteWrite(ctx, work)
	}
	if err != nil {
		keys := paramKeys(params)
		sort.Strings(keys)
		n.logger.Error("graph store call failed",
			"op", op,
			"query", truncateQuery(query, logQueryLength),
			"params", keys,
			"error", err)
		return nil, &StoreError{Op: op, Query: query, Err: err}
	}

	return result.(*types.Result), nil
}

// Provider returns the provider type.
func (n *Neo4jDriver) Provider() GraphProvider {
	return GraphProviderNeo4j
}

// Close closes the Neo4j driver.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	var readErr error
	if n.readClient != n.client {
		readErr = n.readClient.Close(ctx)
	}
	if err := n.client.Close(ctx); err != nil {
		return err
	}
	return readErr
}

// VerifyConnectivity checks if the driver can connect to the database.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	if err := n.client.VerifyConnectivity(ctx); err != nil {
		return err
	}
	if n.readClient != n.client {
		return n.readClient.VerifyConnectivity(ctx)
	}
	return nil
}
