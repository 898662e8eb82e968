package graph

import (
	"context"
	"errors"
	"time"
)

// Query is a named, parameterised cypher read. Name labels logs and metrics.
type Query struct {
	Name   string
	Cypher string
	Params map[string]any
}

// Client is what the case repository needs from the graph database: reads,
// a liveness check, and shutdown. Traces are never written back.
type Client interface {
	Read(ctx context.Context, q Query) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds the rows returned by a read.
type Result struct {
	Records []Record
}

// Record maps a RETURN alias to its value.
type Record map[string]any

// Options configures the Bolt client.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// QueryTimeout bounds each read transaction on the server side. Zero
	// leaves the server default in place.
	QueryTimeout time.Duration
}

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")
	// ErrUnnamedQuery is returned for queries without a Name.
	ErrUnnamedQuery = errors.New("graph query needs a name")
)

func (q Query) validate() error {
	if q.Name == "" {
		return ErrUnnamedQuery
	}
	return nil
}
