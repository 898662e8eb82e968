package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/vanshika/paisatrail/internal/metrics"
)

// Observe wraps c so every read is timed, counted and logged at debug level.
func Observe(c Client, logger *slog.Logger) Client {
	return &observedClient{Client: c, logger: logger.With("component", "graph")}
}

type observedClient struct {
	Client
	logger *slog.Logger
}

func (o *observedClient) Read(ctx context.Context, q Query) (Result, error) {
	start := time.Now()
	res, err := o.Client.Read(ctx, q)
	elapsed := time.Since(start)

	metrics.GraphQueryDuration.WithLabelValues(q.Name).Observe(float64(elapsed.Milliseconds()))
	outcome := "ok"
	if err != nil {
		outcome = "error"
		o.logger.Warn("graph read failed", "query", q.Name, "error", err, "durationMs", elapsed.Milliseconds())
	} else {
		o.logger.Debug("graph read", "query", q.Name, "records", len(res.Records), "durationMs", elapsed.Milliseconds())
	}
	metrics.GraphQueries.WithLabelValues(q.Name, outcome).Inc()
	return res, err
}
