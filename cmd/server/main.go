package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/paisatrail/internal/config"
	"github.com/vanshika/paisatrail/internal/graph"
	"github.com/vanshika/paisatrail/internal/logging"
	"github.com/vanshika/paisatrail/internal/repository"
	"github.com/vanshika/paisatrail/internal/schema"
	"github.com/vanshika/paisatrail/internal/server"
	"github.com/vanshika/paisatrail/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	settings, err := traceSettings(cfg.Trace)
	if err != nil {
		return fmt.Errorf("load alias table: %w", err)
	}
	traceService := service.NewTraceService(logger.With("component", "trace"), settings)

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}

	var cases server.CaseSource
	if graphClient != nil {
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
		cases = repository.New(graphClient)
	} else {
		logger.Info("graph source disabled, case routes will return 501")
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Readiness:        server.GraphReadiness{Client: graphClient},
		API:              server.NewAPIHandlers(logger, traceService, cases, cfg.HTTP.MaxUploadBytes),
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	return server.New(logger, cfg.HTTP, router).Run(ctx)
}

func traceSettings(cfg config.TraceConfig) (service.Settings, error) {
	settings := service.Settings{
		MinAmount:      cfg.MinAmount,
		HighWithdrawal: cfg.HighWithdrawal,
	}
	if cfg.AliasesFile != "" {
		aliases, err := schema.LoadAliases(cfg.AliasesFile)
		if err != nil {
			return service.Settings{}, err
		}
		settings.Aliases = aliases
	}
	return settings, nil
}

// buildGraphClient returns a nil client when no graph URI is configured.
func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if !cfg.Graph.Enabled() {
		return nil, nil
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
		QueryTimeout:   cfg.Graph.QueryTimeout,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return graph.Observe(client, logger), nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
