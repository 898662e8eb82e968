package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/report"
	"github.com/vanshika/paisatrail/internal/repository"
	"github.com/vanshika/paisatrail/internal/schema"
	"github.com/vanshika/paisatrail/internal/service"
)

const uploadField = "file"

// Tracer runs the trace pipeline over one dataset.
type Tracer interface {
	Run(ctx context.Context, table dataset.Table) (service.Result, error)
}

// CaseSource loads investigation cases stored in the graph database.
type CaseSource interface {
	LoadCase(ctx context.Context, caseID string) (dataset.Table, error)
	ListCases(ctx context.Context) ([]repository.CaseSummary, error)
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger         *slog.Logger
	tracer         Tracer
	cases          CaseSource
	maxUploadBytes int64
}

// NewAPIHandlers constructs an APIHandlers instance. cases may be nil when no
// graph database is configured.
func NewAPIHandlers(logger *slog.Logger, tracer Tracer, cases CaseSource, maxUploadBytes int64) *APIHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &APIHandlers{
		logger:         logger,
		tracer:         tracer,
		cases:          cases,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *APIHandlers) handleTraces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	renderer, err := report.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	table, err := dataset.Read(header.Filename, file)
	if err != nil {
		h.logger.Warn("failed to read upload", "error", err, "filename", header.Filename)
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			writeError(w, http.StatusUnsupportedMediaType, "only .xlsx and .csv files are supported")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read spreadsheet")
		return
	}

	h.trace(w, r, table, renderer)
}

func (h *APIHandlers) handleCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.cases == nil {
		writeError(w, http.StatusNotImplemented, "graph source is not configured")
		return
	}

	cases, err := h.cases.ListCases(r.Context())
	if err != nil {
		h.logger.Error("failed to list cases", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list cases")
		return
	}

	resp := listCasesResponse{Items: []caseResponse{}}
	for _, c := range cases {
		resp.Items = append(resp.Items, caseResponse{CaseID: c.ID, Transfers: c.Transfers})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleCaseTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.cases == nil {
		writeError(w, http.StatusNotImplemented, "graph source is not configured")
		return
	}

	caseID := strings.TrimPrefix(r.URL.Path, "/cases/")
	caseID = strings.TrimSuffix(strings.Trim(caseID, "/"), "/trace")
	if caseID == "" || strings.Contains(caseID, "/") {
		writeError(w, http.StatusBadRequest, "case ID is required")
		return
	}

	renderer, err := report.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.cases.LoadCase(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		h.logger.Error("failed to load case", "error", err, "caseId", caseID)
		writeError(w, http.StatusBadGateway, "failed to load case from graph")
		return
	}

	h.trace(w, r, table, renderer)
}

func (h *APIHandlers) trace(w http.ResponseWriter, r *http.Request, table dataset.Table, renderer report.Renderer) {
	res, err := h.tracer.Run(r.Context(), table)
	if err != nil {
		h.writeTraceError(w, err, table.Name)
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, res); err != nil {
		h.logger.Error("failed to render report", "error", err, "traceId", res.ID.String())
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("X-Trace-Id", res.ID.String())
	if _, ok := renderer.(report.XLSXRenderer); ok {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.OutputName(table.Name, renderer)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *APIHandlers) writeTraceError(w http.ResponseWriter, err error, source string) {
	var schemaErr *schema.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusUnprocessableEntity, "Missing required columns: "+joinFields(schemaErr.Missing))
	case errors.Is(err, service.ErrNormalization):
		writeError(w, http.StatusUnprocessableEntity, "The amount column does not contain any numeric values.")
	case errors.Is(err, service.ErrEmptyDataset):
		writeError(w, http.StatusUnprocessableEntity, "No transactions above the analysis threshold.")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "trace cancelled")
	default:
		h.logger.Error("trace failed", "error", err, "source", source)
		writeError(w, http.StatusInternalServerError, "trace failed")
	}
}

func joinFields(fields []schema.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

type listCasesResponse struct {
	Items []caseResponse `json:"items"`
}

type caseResponse struct {
	CaseID    string `json:"caseId"`
	Transfers int64  `json:"transfers"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
