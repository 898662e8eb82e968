package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/graph"
)

// Column headers of tables built from the graph. They are chosen to resolve
// against the default alias table.
const (
	ColumnSender   = "Sender account"
	ColumnReceiver = "Receiver account"
	ColumnAmount   = "Transaction Amount"
	ColumnBank     = "Bank/FIs"
	ColumnIFSC     = "IFSC Code"
)

// ErrCaseNotFound is returned when a case has no recorded transfers.
var ErrCaseNotFound = errors.New("case not found")

// CaseSummary describes a case available for tracing.
type CaseSummary struct {
	ID        string
	Transfers int64
}

// Repository reads investigation cases out of the graph database.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// LoadCase returns every transfer of a case, in recorded order, as a table
// that the trace pipeline can consume like an uploaded spreadsheet.
// Transfers without a credited account come back with a blank receiver.
func (r *Repository) LoadCase(ctx context.Context, caseID string) (dataset.Table, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return dataset.Table{}, errors.New("case id is required")
	}

	res, err := r.client.Read(ctx, graph.Query{
		Name:   queryLoadCase,
		Cypher: loadCaseCypher,
		Params: map[string]any{"caseId": caseID},
	})
	if err != nil {
		return dataset.Table{}, fmt.Errorf("load case %s: %w", caseID, err)
	}
	if len(res.Records) == 0 {
		return dataset.Table{}, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	table := dataset.Table{
		Name:    "case:" + caseID,
		Columns: []string{ColumnSender, ColumnReceiver, ColumnAmount, ColumnBank, ColumnIFSC},
		Rows:    make([][]string, 0, len(res.Records)),
	}
	for _, record := range res.Records {
		table.Rows = append(table.Rows, []string{
			toString(record["sender"]),
			toString(record["receiver"]),
			toAmountString(record["amount"]),
			toString(record["bank"]),
			toString(record["ifsc"]),
		})
	}
	return table, nil
}

// ListCases returns the cases present in the graph with their transfer counts.
func (r *Repository) ListCases(ctx context.Context) ([]CaseSummary, error) {
	res, err := r.client.Read(ctx, graph.Query{Name: queryListCases, Cypher: listCasesCypher})
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	cases := make([]CaseSummary, 0, len(res.Records))
	for _, record := range res.Records {
		id := toString(record["caseId"])
		if id == "" {
			continue
		}
		cases = append(cases, CaseSummary{ID: id, Transfers: toInt64(record["transfers"])})
	}
	return cases, nil
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// toAmountString keeps amounts textual so the normalizer parses graph and
// spreadsheet input the same way.
func toAmountString(val any) string {
	switch v := val.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return toString(val)
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
