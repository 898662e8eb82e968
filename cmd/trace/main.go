package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/paisatrail/internal/config"
	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/graph"
	"github.com/vanshika/paisatrail/internal/logging"
	"github.com/vanshika/paisatrail/internal/report"
	"github.com/vanshika/paisatrail/internal/repository"
	"github.com/vanshika/paisatrail/internal/schema"
	"github.com/vanshika/paisatrail/internal/service"
)

var errNoInputs = errors.New("no input files or cases given")

func main() {
	var (
		outDir   = flag.String("out", "", "Directory for reports (defaults to each input's directory)")
		format   = flag.String("format", "xlsx", "Report format: xlsx, json or text")
		workers  = flag.Int("workers", 0, "Number of datasets traced concurrently (defaults to TRACE_WORKERS)")
		aliases  = flag.String("aliases", "", "YAML alias table (overrides TRACE_ALIASES_FILE)")
		casesCSV = flag.String("cases", "", "Comma separated case IDs to load from the graph")
		quiet    = flag.Bool("quiet", false, "Do not print trace trees to stdout")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: trace [flags] file.xlsx|file.csv ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *aliases != "" {
		cfg.Trace.AliasesFile = *aliases
	}
	if *workers > 0 {
		cfg.Trace.Workers = *workers
	}

	logger := logging.New(os.Stderr, cfg.Logging).With("component", "trace")

	renderer, err := report.ForFormat(*format)
	if err != nil {
		logger.Error("invalid format", "error", err)
		os.Exit(2)
	}

	caseIDs := splitCSV(*casesCSV)
	if flag.NArg() == 0 && len(caseIDs) == 0 {
		flag.Usage()
		logger.Error("nothing to trace", "error", errNoInputs)
		os.Exit(2)
	}

	settings := service.Settings{MinAmount: cfg.Trace.MinAmount, HighWithdrawal: cfg.Trace.HighWithdrawal}
	if cfg.Trace.AliasesFile != "" {
		settings.Aliases, err = schema.LoadAliases(cfg.Trace.AliasesFile)
		if err != nil {
			logger.Error("failed to load alias table", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	jobs := fileJobs(flag.Args())
	if len(caseIDs) > 0 {
		graphClient, err := buildGraphClient(ctx, logger, cfg)
		if err != nil {
			logger.Error("failed to create graph client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
		jobs = append(jobs, caseJobs(repository.New(graphClient), caseIDs)...)
	}

	svc := service.NewTraceService(logger, settings)
	batch := service.NewBatchTracer(svc, cfg.Trace.Workers)

	start := time.Now()
	logger.Info("tracing datasets", "count", len(jobs), "workers", cfg.Trace.Workers)
	outcomes, runErr := batch.RunAll(ctx, jobs)
	if ctx.Err() != nil {
		logger.Error("trace interrupted", "error", runErr)
		os.Exit(1)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			logger.Error("trace failed", "dataset", o.Name, "error", o.Err)
			continue
		}
		path, err := writeReport(*outDir, o, renderer)
		if err != nil {
			failed++
			logger.Error("failed to write report", "dataset", o.Name, "error", err)
			continue
		}
		logger.Info("report written", "dataset", o.Name, "path", path, "traceId", o.Result.ID.String())
		if !*quiet {
			if err := printTree(os.Stdout, o); err != nil {
				logger.Warn("failed to print trace", "error", err)
			}
		}
	}

	logger.Info("tracing complete", "duration", time.Since(start).String(), "datasets", len(outcomes), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func fileJobs(paths []string) []service.Job {
	jobs := make([]service.Job, 0, len(paths))
	for _, path := range paths {
		jobs = append(jobs, service.Job{
			Name: path,
			Load: func(context.Context) (dataset.Table, error) {
				return readFile(path)
			},
		})
	}
	return jobs
}

func caseJobs(repo *repository.Repository, ids []string) []service.Job {
	jobs := make([]service.Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, service.Job{
			Name: "case_" + id,
			Load: func(ctx context.Context) (dataset.Table, error) {
				return repo.LoadCase(ctx, id)
			},
		})
	}
	return jobs
}

func readFile(path string) (dataset.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	table, err := dataset.Read(path, file)
	if err != nil {
		return dataset.Table{}, err
	}
	table.Name = path
	return table, nil
}

// writeReport places the report in outDir, or next to the input file when
// outDir is empty.
func writeReport(outDir string, o service.Outcome, renderer report.Renderer) (string, error) {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(o.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, report.OutputName(o.Name, renderer))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := renderer.Render(file, o.Result); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func printTree(w io.Writer, o service.Outcome) error {
	if _, err := fmt.Fprintf(w, "== %s\n", o.Name); err != nil {
		return err
	}
	return report.TextRenderer{}.Render(w, o.Result)
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if !cfg.Graph.Enabled() {
		return nil, fmt.Errorf("GRAPH_URI is required to trace stored cases: %w", graph.ErrMissingURI)
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

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
