package graph

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

// Graph database error codes
const (
	// Connection errors
	ErrCodeGraphConnectionFailed types.ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeGraphConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"

	// Configuration errors
	ErrCodeGraphInvalidConfig types.ErrorCode = "GRAPH_INVALID_CONFIG"

	// Query errors
	ErrCodeGraphQueryFailed  types.ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeGraphInvalidQuery types.ErrorCode = "GRAPH_INVALID_QUERY"

	// Write errors
	ErrCodeGraphNodeMergeFailed         types.ErrorCode = "GRAPH_NODE_MERGE_FAILED"
	ErrCodeGraphRelationshipMergeFailed types.ErrorCode = "GRAPH_RELATIONSHIP_MERGE_FAILED"
	ErrCodeGraphDeleteFailed            types.ErrorCode = "GRAPH_DELETE_FAILED"
)
