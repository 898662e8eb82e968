package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient opens a Bolt driver and checks that the server answers.
// Neptune's openCypher endpoint speaks the same protocol.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &boltClient{driver: driver, opts: opts}, nil
}

type boltClient struct {
	driver neo4j.DriverWithContext
	opts   Options
}

// Read runs q in a managed read transaction, which the driver retries on
// transient cluster errors.
func (c *boltClient) Read(ctx context.Context, q Query) (Result, error) {
	if err := q.validate(); err != nil {
		return Result{}, err
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.opts.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	var configurers []func(*neo4j.TransactionConfig)
	if c.opts.QueryTimeout > 0 {
		configurers = append(configurers, neo4j.WithTxTimeout(c.opts.QueryTimeout))
	}
	configurers = append(configurers, neo4j.WithTxMetadata(map[string]any{"query": q.Name}))

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q.Cypher, q.Params)
		if err != nil {
			return nil, err
		}
		return collect(ctx, res)
	}, configurers...)
	if err != nil {
		return Result{}, fmt.Errorf("graph query %s: %w", q.Name, err)
	}
	return out.(Result), nil
}

func (c *boltClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *boltClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func collect(ctx context.Context, res neo4j.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		row := make(Record, len(rec.Keys))
		for i, key := range rec.Keys {
			row[key] = rec.Values[i]
		}
		records = append(records, row)
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}
