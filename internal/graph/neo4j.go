package graph

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Neo4jClient implements GraphClient for Neo4j graph databases.
type Neo4jClient struct {
	config GraphClientConfig
	driver neo4j.DriverWithContext
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jClient(config GraphClientConfig) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Neo4jClient{
		config: config,
	}, nil
}

// Connect establishes a connection to the Neo4j database.
// Uses exponential backoff for connection retries.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	auth := neo4j.NoAuth()
	if c.config.Username != "" {
		auth = neo4j.BasicAuth(c.config.Username, c.config.Password, "")
	}

	driverConfig := func(config *neo4j.Config) {
		if c.config.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
	}

	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				c.driver = driver
				return nil
			}
			driver.Close(ctx)
		}

		lastErr = err

		if ctx.Err() != nil {
			return types.WrapError(ErrCodeGraphConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}

		// baseDelay * 2^attempt, capped at the connection timeout
		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return types.WrapError(ErrCodeGraphConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}
	}

	return types.WrapError(ErrCodeGraphConnectionFailed,
		fmt.Sprintf("failed to connect to %s after %d attempts", c.config.URI, maxRetries), lastErr)
}

// Close releases all resources and closes the database connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeGraphConnectionClosed,
			"failed to close driver", err)
	}

	c.driver = nil
	return nil
}

// Health returns the current health status of the Neo4j connection.
func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	if c.driver == nil {
		return types.Unhealthy("driver not initialized").For("graph")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := c.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err)).For("graph")
	}

	status := types.Healthy("connected to " + c.config.URI).For("graph")
	status.Latency = time.Since(start)
	return status
}

// Query executes a Cypher query in a read transaction.
func (c *Neo4jClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	return c.run(ctx, neo4j.AccessModeRead, cypher, params, ErrCodeGraphQueryFailed)
}

// Write executes a Cypher statement in a write transaction.
func (c *Neo4jClient) Write(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	return c.run(ctx, neo4j.AccessModeWrite, cypher, params, ErrCodeGraphQueryFailed)
}

// MergeNode upserts a node keyed by label and name.
func (c *Neo4jClient) MergeNode(ctx context.Context, label, name string, props map[string]any) error {
	if err := checkIdentifiers(label); err != nil {
		return err
	}

	cypher := fmt.Sprintf("MERGE (n:%s {name: $name}) SET n += $props", label)
	params := map[string]any{
		"name":  name,
		"props": nonNil(props),
	}

	_, err := c.run(ctx, neo4j.AccessModeWrite, cypher, params, ErrCodeGraphNodeMergeFailed)
	return err
}

// MergeRelationship upserts a relationship between two nodes found by name.
func (c *Neo4jClient) MergeRelationship(ctx context.Context, fromLabel, fromName, toLabel, toName, relType string, props map[string]any) (bool, error) {
	if err := checkIdentifiers(fromLabel, toLabel, relType); err != nil {
		return false, err
	}

	cypher := fmt.Sprintf(`
		MATCH (a:%s {name: $from}), (b:%s {name: $to})
		MERGE (a)-[r:%s]->(b)
		SET r += $props
		RETURN count(r) AS merged
	`, fromLabel, toLabel, relType)

	params := map[string]any{
		"from":  fromName,
		"to":    toName,
		"props": nonNil(props),
	}

	res, err := c.run(ctx, neo4j.AccessModeWrite, cypher, params, ErrCodeGraphRelationshipMergeFailed)
	if err != nil {
		return false, err
	}
	if len(res.Records) == 0 {
		return false, nil
	}
	n, _ := res.Records[0]["merged"].(int64)
	return n > 0, nil
}

// DeleteAll detaches and deletes every node.
func (c *Neo4jClient) DeleteAll(ctx context.Context) (int, error) {
	res, err := c.run(ctx, neo4j.AccessModeWrite, "MATCH (n) DETACH DELETE n", nil, ErrCodeGraphDeleteFailed)
	if err != nil {
		return 0, err
	}
	return res.Summary.NodesDeleted, nil
}

func (c *Neo4jClient) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any, code types.ErrorCode) (QueryResult, error) {
	if c.driver == nil {
		return QueryResult{}, types.NewError(ErrCodeGraphConnectionClosed,
			"driver not connected")
	}

	startTime := time.Now()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		summary, err := neoResult.Consume(ctx)
		if err != nil {
			return nil, err
		}

		return convertNeo4jResult(records, summary), nil
	}

	var (
		result any
		err    error
	)
	if mode == neo4j.AccessModeWrite {
		result, err = session.ExecuteWrite(ctx, work)
	} else {
		result, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return QueryResult{}, types.WrapError(code, "query execution failed", err)
	}

	queryResult := result.(QueryResult)
	queryResult.Summary.ExecutionTime = time.Since(startTime)

	return queryResult, nil
}

func nonNil(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}

// convertNeo4jResult converts Neo4j records and summary to our QueryResult format.
func convertNeo4jResult(records []*neo4j.Record, summary neo4j.ResultSummary) QueryResult {
	result := QueryResult{
		Records: make([]map[string]any, 0, len(records)),
		Columns: []string{},
	}

	if len(records) > 0 {
		result.Columns = records[0].Keys
	}

	for _, record := range records {
		recordMap := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			recordMap[key] = record.Values[i]
		}
		result.Records = append(result.Records, recordMap)
	}

	if summary != nil && summary.Counters() != nil {
		counters := summary.Counters()
		result.Summary = QuerySummary{
			NodesCreated:         counters.NodesCreated(),
			NodesDeleted:         counters.NodesDeleted(),
			RelationshipsCreated: counters.RelationshipsCreated(),
			RelationshipsDeleted: counters.RelationshipsDeleted(),
			PropertiesSet:        counters.PropertiesSet(),
		}
	}

	return result
}
