package server

import (
	"context"
	"time"

	"github.com/vanshika/paisatrail/internal/graph"
)

// Readiness is the body of /healthz.
type Readiness struct {
	Status string `json:"status"`
	Graph  string `json:"graph"`
	Error  string `json:"error,omitempty"`
}

// Ready reports whether every configured dependency answered.
func (r Readiness) Ready() bool { return r.Status == "ok" }

// ReadinessChecker inspects the dependencies behind the API.
type ReadinessChecker interface {
	Check(ctx context.Context) Readiness
}

// GraphReadiness pings the graph database. Uploads keep working while the
// graph is down, so only the case routes are affected by a failed check.
type GraphReadiness struct {
	Client  graph.Client
	Timeout time.Duration
}

func (g GraphReadiness) Check(ctx context.Context) Readiness {
	if g.Client == nil {
		return Readiness{Status: "ok", Graph: "disabled"}
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.Client.VerifyConnectivity(ctx); err != nil {
		return Readiness{Status: "degraded", Graph: "unreachable", Error: err.Error()}
	}
	return Readiness{Status: "ok", Graph: "ok"}
}
