package graph

import (
	"context"
	"sync"
)

// MemoryClient answers reads from canned results keyed by query name. It
// lets repository and HTTP tests run without a graph database.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []Query
	responses    map[string][]Result
	failures     map[string]error
	connectivity error
	closed       bool
}

// NewMemoryClient instantiates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		responses: make(map[string][]Result),
		failures:  make(map[string]error),
	}
}

// Respond queues res for the next read of the named query. A query with no
// queued result reads as empty.
func (m *MemoryClient) Respond(name string, res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[name] = append(m.responses[name], res)
	return m
}

// Fail makes every read of the named query return err.
func (m *MemoryClient) Fail(name string, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name] = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) Read(_ context.Context, q Query) (Result, error) {
	if err := q.validate(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q.Params = cloneParams(q.Params)
	m.calls = append(m.calls, q)
	if err := m.failures[q.Name]; err != nil {
		return Result{}, err
	}
	queued := m.responses[q.Name]
	if len(queued) == 0 {
		return Result{}, nil
	}
	m.responses[q.Name] = queued[1:]
	return queued[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns the reads executed so far, oldest first.
func (m *MemoryClient) Calls() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Query(nil), m.calls...)
}

func cloneParams(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
