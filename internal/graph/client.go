package graph

import (
	"context"
	"regexp"
	"time"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// GraphClient provides an interface for graph database operations.
// Implementations must be thread-safe for concurrent access.
type GraphClient interface {
	// Connect establishes a connection to the graph database.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	Close(ctx context.Context) error

	// Health returns the current health status of the graph database connection.
	Health(ctx context.Context) types.HealthStatus

	// Query runs a Cypher statement in a read transaction.
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// Write runs a Cypher statement in a write transaction.
	Write(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// MergeNode upserts the node (label {name}) and sets props on it.
	MergeNode(ctx context.Context, label, name string, props map[string]any) error

	// MergeRelationship upserts (from)-[relType]->(to) between two existing
	// nodes matched by label and name, setting props on the relationship.
	// It reports false when either endpoint does not exist.
	MergeRelationship(ctx context.Context, fromLabel, fromName, toLabel, toName, relType string, props map[string]any) (bool, error)

	// DeleteAll removes every node and relationship and returns the number
	// of nodes deleted.
	DeleteAll(ctx context.Context) (int, error)
}

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	ExecutionTime        time.Duration
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// GraphClientConfig contains configuration options for graph database clients.
type GraphClientConfig struct {
	// URI is the connection URI for the graph database.
	// For Neo4j, use:
	//   - "bolt://host:port" for unencrypted connections
	//   - "bolt+s://host:port" for TLS encrypted connections
	//   - "neo4j://" or "neo4j+s://" for routing
	URI string

	// Username for authentication. Empty disables authentication.
	Username string

	// Password for authentication.
	Password string

	// Database name to connect to.
	// Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime is the maximum time to retry failed transactions.
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a GraphClientConfig for a local Neo4j.
func DefaultConfig() GraphClientConfig {
	return GraphClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// FromConfig maps the graph section of the application config.
func FromConfig(cfg config.GraphConfig) GraphClientConfig {
	return GraphClientConfig{
		URI:                     cfg.URI,
		Username:                cfg.Username,
		Password:                cfg.Password,
		Database:                cfg.Database,
		MaxConnectionPoolSize:   cfg.MaxConnections,
		ConnectionTimeout:       cfg.ConnectionTimeout,
		MaxTransactionRetryTime: cfg.MaxTransactionRetryTime,
	}
}

// Validate checks if the configuration is valid.
func (c GraphClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" && c.Password != "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password set without Username")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be interpolated into Cypher as a
// label or relationship type.
func ValidIdentifier(s string) bool {
	return identifierRE.MatchString(s)
}

func checkIdentifiers(ids ...string) error {
	for _, id := range ids {
		if !ValidIdentifier(id) {
			return types.NewError(ErrCodeGraphInvalidQuery, "invalid label or relationship type: "+id)
		}
	}
	return nil
}
