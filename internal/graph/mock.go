package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// MockCall represents a recorded method call on the mock graph client.
type MockCall struct {
	Method    string
	Args      []any
	Timestamp time.Time
}

// MockNode is a node held by MockGraphClient.
type MockNode struct {
	Label string
	Name  string
	Props map[string]any
}

// MockRelationship is a relationship held by MockGraphClient.
type MockRelationship struct {
	FromLabel string
	FromName  string
	ToLabel   string
	ToName    string
	Type      string
	Props     map[string]any
}

type nodeKey struct{ label, name string }

type relKey struct {
	from, to nodeKey
	relType  string
}

// MockGraphClient is an in-memory GraphClient with MERGE semantics. It
// records every call; Query and Write return queued results in order.
type MockGraphClient struct {
	mu sync.RWMutex

	connected    bool
	healthStatus types.HealthStatus
	nodes        map[nodeKey]*MockNode
	rels         map[relKey]*MockRelationship
	calls        []MockCall

	queryResults []QueryResult
	queryError   error
	connectError error
	mergeError   error
}

// NewMockGraphClient creates a new mock graph client for testing.
func NewMockGraphClient() *MockGraphClient {
	return &MockGraphClient{
		healthStatus: types.Healthy("mock graph client").For("graph"),
		nodes:        make(map[nodeKey]*MockNode),
		rels:         make(map[relKey]*MockRelationship),
	}
}

func (m *MockGraphClient) record(method string, args ...any) {
	m.calls = append(m.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

func (m *MockGraphClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Connect")
	if m.connectError != nil {
		return m.connectError
	}
	m.connected = true
	return nil
}

func (m *MockGraphClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Close")
	m.connected = false
	return nil
}

func (m *MockGraphClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Health")
	if !m.connected {
		return types.Unhealthy("not connected").For("graph")
	}
	return m.healthStatus
}

func (m *MockGraphClient) Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Query", cypher, params)
	return m.nextResult()
}

func (m *MockGraphClient) Write(ctx context.Context, cypher string, params map[string]any) (QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("Write", cypher, params)
	return m.nextResult()
}

func (m *MockGraphClient) nextResult() (QueryResult, error) {
	if !m.connected {
		return QueryResult{}, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if m.queryError != nil {
		return QueryResult{}, m.queryError
	}
	if len(m.queryResults) == 0 {
		return QueryResult{Records: []map[string]any{}, Columns: []string{}}, nil
	}
	res := m.queryResults[0]
	m.queryResults = m.queryResults[1:]
	return res, nil
}

func (m *MockGraphClient) MergeNode(ctx context.Context, label, name string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("MergeNode", label, name, props)
	if !m.connected {
		return types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if err := checkIdentifiers(label); err != nil {
		return err
	}
	if m.mergeError != nil {
		return m.mergeError
	}

	k := nodeKey{label, name}
	n, ok := m.nodes[k]
	if !ok {
		n = &MockNode{Label: label, Name: name, Props: map[string]any{"name": name}}
		m.nodes[k] = n
	}
	for key, v := range props {
		n.Props[key] = v
	}
	return nil
}

func (m *MockGraphClient) MergeRelationship(ctx context.Context, fromLabel, fromName, toLabel, toName, relType string, props map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("MergeRelationship", fromLabel, fromName, toLabel, toName, relType, props)
	if !m.connected {
		return false, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	if err := checkIdentifiers(fromLabel, toLabel, relType); err != nil {
		return false, err
	}
	if m.mergeError != nil {
		return false, m.mergeError
	}

	from, to := nodeKey{fromLabel, fromName}, nodeKey{toLabel, toName}
	if m.nodes[from] == nil || m.nodes[to] == nil {
		return false, nil
	}

	k := relKey{from: from, to: to, relType: relType}
	r, ok := m.rels[k]
	if !ok {
		r = &MockRelationship{
			FromLabel: fromLabel, FromName: fromName,
			ToLabel: toLabel, ToName: toName,
			Type: relType, Props: map[string]any{},
		}
		m.rels[k] = r
	}
	for key, v := range props {
		r.Props[key] = v
	}
	return true, nil
}

func (m *MockGraphClient) DeleteAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record("DeleteAll")
	if !m.connected {
		return 0, types.NewError(ErrCodeGraphConnectionClosed, "not connected")
	}
	n := len(m.nodes)
	m.nodes = make(map[nodeKey]*MockNode)
	m.rels = make(map[relKey]*MockRelationship)
	return n, nil
}

// SetQueryResults queues results returned by Query and Write.
func (m *MockGraphClient) SetQueryResults(results ...QueryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryResults = append(m.queryResults, results...)
}

// SetQueryError makes Query and Write fail with err.
func (m *MockGraphClient) SetQueryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryError = err
}

// SetConnectError makes Connect fail with err.
func (m *MockGraphClient) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetMergeError makes MergeNode and MergeRelationship fail with err.
func (m *MockGraphClient) SetMergeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeError = err
}

// SetHealthStatus overrides the status reported while connected.
func (m *MockGraphClient) SetHealthStatus(status types.HealthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthStatus = status
}

// Node returns a copy of the node, or nil.
func (m *MockGraphClient) Node(label, name string) *MockNode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[nodeKey{label, name}]
	if !ok {
		return nil
	}
	cp := *n
	cp.Props = copyProps(n.Props)
	return &cp
}

// Nodes returns the nodes with label sorted by name; an empty label
// returns all nodes sorted by label then name.
func (m *MockGraphClient) Nodes(label string) []MockNode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []MockNode
	for _, n := range m.nodes {
		if label == "" || n.Label == label {
			cp := *n
			cp.Props = copyProps(n.Props)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Relationships returns relationships of relType (all when empty) in a
// stable order.
func (m *MockGraphClient) Relationships(relType string) []MockRelationship {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []MockRelationship
	for _, r := range m.rels {
		if relType == "" || r.Type == relType {
			cp := *r
			cp.Props = copyProps(r.Props)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.FromName != b.FromName {
			return a.FromName < b.FromName
		}
		return a.ToName < b.ToName
	})
	return out
}

// Calls returns a copy of the recorded calls.
func (m *MockGraphClient) Calls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was called.
func (m *MockGraphClient) CallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func copyProps(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ GraphClient = (*MockGraphClient)(nil)
var _ GraphClient = (*Neo4jClient)(nil)
