package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/metrics"
	"github.com/vanshika/paisatrail/internal/schema"
)

var (
	// DefaultMinAmount is the inclusion threshold for fraud relevant rows.
	DefaultMinAmount = decimal.NewFromInt(50000)
	// DefaultHighWithdrawal is the threshold above which a withdrawal is high.
	DefaultHighWithdrawal = decimal.NewFromInt(100000)
)

// Settings tunes a TraceService.
type Settings struct {
	MinAmount      decimal.Decimal
	HighWithdrawal decimal.Decimal
	Aliases        schema.Aliases
}

// DefaultSettings returns the thresholds and alias table used by all
// existing reports.
func DefaultSettings() Settings {
	return Settings{
		MinAmount:      DefaultMinAmount,
		HighWithdrawal: DefaultHighWithdrawal,
		Aliases:        schema.DefaultAliases(),
	}
}

// Result is the outcome of one trace run.
type Result struct {
	ID        uuid.UUID
	Source    string
	Trace     domain.Trace
	Mapping   schema.Mapping
	Stats     NormalizeStats
	CreatedAt time.Time
	Duration  time.Duration
}

// TraceService chains resolve, normalize, victim inference and tracing over
// one dataset. It holds no per-run state and is safe for concurrent use.
type TraceService struct {
	logger   *slog.Logger
	settings Settings
	tracer   Tracer
	nowFn    func() time.Time
	newID    func() uuid.UUID
}

// NewTraceService constructs a TraceService. Zero thresholds and a nil alias
// table fall back to the defaults.
func NewTraceService(logger *slog.Logger, settings Settings) *TraceService {
	defaults := DefaultSettings()
	if settings.MinAmount.IsZero() {
		settings.MinAmount = defaults.MinAmount
	}
	if settings.HighWithdrawal.IsZero() {
		settings.HighWithdrawal = defaults.HighWithdrawal
	}
	if settings.Aliases == nil {
		settings.Aliases = defaults.Aliases
	}
	return &TraceService{
		logger:   logger,
		settings: settings,
		tracer:   Tracer{HighWithdrawal: settings.HighWithdrawal},
		nowFn:    time.Now,
		newID:    uuid.New,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *TraceService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Settings returns the effective settings.
func (s *TraceService) Settings() Settings {
	return s.settings
}

// Run traces a single dataset. Failures are terminal for the run: a
// SchemaError when required columns are missing, a NormalizationError when
// the amount column holds no numbers, ErrEmptyDataset when nothing is left
// after filtering.
func (s *TraceService) Run(ctx context.Context, table dataset.Table) (Result, error) {
	start := s.nowFn()
	res := Result{
		ID:        s.newID(),
		Source:    table.Name,
		CreatedAt: start.UTC(),
	}
	logger := s.logger.With("traceId", res.ID.String(), "source", table.Name)

	res, err := s.run(ctx, logger, table, res)
	res.Duration = s.nowFn().Sub(start)
	metrics.TraceDuration.Observe(float64(res.Duration.Milliseconds()))
	metrics.TracesTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		logger.Warn("trace failed", "error", err, "rows", len(table.Rows))
		return res, err
	}

	logger.Info("trace complete",
		"victim", res.Trace.Victim.String(),
		"layer1", len(res.Trace.Layer1),
		"layer2", res.Trace.Layer2Count(),
		"withdrawals", len(res.Trace.Withdrawals()),
		"high", res.Trace.HighCount(),
		"durationMs", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *TraceService) run(ctx context.Context, logger *slog.Logger, table dataset.Table, res Result) (Result, error) {
	mapping, err := schema.Resolve(table.Columns, s.settings.Aliases)
	res.Mapping = mapping
	if err != nil {
		return res, err
	}
	logger.Debug("columns resolved",
		"sender", mapping[schema.FieldSender],
		"receiver", mapping[schema.FieldReceiver],
		"amount", mapping[schema.FieldAmount],
		"bank", mapping[schema.FieldBank],
		"ifsc", mapping[schema.FieldIFSC],
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	txs, stats, err := Normalize(table, mapping, NormalizeOptions{MinAmount: s.settings.MinAmount})
	res.Stats = stats
	recordStats(stats)
	if err != nil {
		return res, err
	}
	logger.Debug("rows normalized",
		"rows", stats.Rows,
		"retained", stats.Retained,
		"malformed", stats.Malformed,
		"belowThreshold", stats.BelowThreshold,
		"missingSender", stats.MissingSender,
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	victim, err := InferVictim(txs)
	if err != nil {
		return res, err
	}

	res.Trace = s.tracer.Trace(txs, victim)
	for _, w := range res.Trace.Withdrawals() {
		metrics.WithdrawalsFlagged.WithLabelValues(string(w.Severity)).Inc()
	}
	return res, nil
}

func recordStats(stats NormalizeStats) {
	metrics.RowsRetained.Add(float64(stats.Retained))
	metrics.RowsDropped.WithLabelValues("malformed").Add(float64(stats.Malformed))
	metrics.RowsDropped.WithLabelValues("below_threshold").Add(float64(stats.BelowThreshold))
	metrics.RowsDropped.WithLabelValues("missing_sender").Add(float64(stats.MissingSender))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, schema.ErrSchema):
		return "schema_error"
	case errors.Is(err, ErrNormalization):
		return "normalization_error"
	case errors.Is(err, ErrEmptyDataset):
		return "empty"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
