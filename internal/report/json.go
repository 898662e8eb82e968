package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/schema"
	"github.com/vanshika/paisatrail/internal/service"
)

// JSONRenderer encodes the trace for API clients.
type JSONRenderer struct{}

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Extension() string { return ".json" }

func (JSONRenderer) Render(w io.Writer, res service.Result) error {
	return json.NewEncoder(w).Encode(NewTraceResponse(res))
}

// TraceResponse is the wire form of a trace result.
type TraceResponse struct {
	TraceID    string            `json:"traceId"`
	Source     string            `json:"source"`
	CreatedAt  string            `json:"createdAt"`
	DurationMs int64             `json:"durationMs"`
	Victim     string            `json:"victim"`
	Layer1     []NodeResponse    `json:"layer1"`
	Columns    map[string]string `json:"columns"`
	Stats      StatsResponse     `json:"stats"`
}

// NodeResponse is one traced hop.
type NodeResponse struct {
	Account     string                `json:"account"`
	Incoming    TransactionResponse   `json:"incoming"`
	Repeats     []TransactionResponse `json:"repeats"`
	Withdrawals []WithdrawalResponse  `json:"withdrawals"`
	Layer2      []NodeResponse        `json:"layer2,omitempty"`
}

// TransactionResponse carries amounts as exact decimal strings.
type TransactionResponse struct {
	Row       int    `json:"row"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver,omitempty"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
	Bank      string `json:"bank,omitempty"`
	IFSC      string `json:"ifsc,omitempty"`
}

// WithdrawalResponse is a cash-out with its severity.
type WithdrawalResponse struct {
	TransactionResponse
	Layer    int    `json:"layer"`
	Severity string `json:"severity"`
}

// StatsResponse mirrors service.NormalizeStats.
type StatsResponse struct {
	Rows           int `json:"rows"`
	Retained       int `json:"retained"`
	Malformed      int `json:"malformed"`
	BelowThreshold int `json:"belowThreshold"`
	MissingSender  int `json:"missingSender"`
}

// NewTraceResponse converts a result to its wire form.
func NewTraceResponse(res service.Result) TraceResponse {
	resp := TraceResponse{
		TraceID:    res.ID.String(),
		Source:     res.Source,
		DurationMs: res.Duration.Milliseconds(),
		Victim:     res.Trace.Victim.String(),
		Layer1:     []NodeResponse{},
		Columns:    map[string]string{},
		Stats: StatsResponse{
			Rows:           res.Stats.Rows,
			Retained:       res.Stats.Retained,
			Malformed:      res.Stats.Malformed,
			BelowThreshold: res.Stats.BelowThreshold,
			MissingSender:  res.Stats.MissingSender,
		},
	}
	if !res.CreatedAt.IsZero() {
		resp.CreatedAt = res.CreatedAt.UTC().Format(time.RFC3339)
	}
	for _, f := range schema.Fields {
		if col, ok := res.Mapping.Column(f); ok {
			resp.Columns[string(f)] = col
		}
	}
	for _, l1 := range res.Trace.Layer1 {
		node := nodeResponse(l1)
		node.Layer2 = []NodeResponse{}
		for _, l2 := range l1.Children {
			node.Layer2 = append(node.Layer2, nodeResponse(l2))
		}
		resp.Layer1 = append(resp.Layer1, node)
	}
	return resp
}

func nodeResponse(n domain.LayerNode) NodeResponse {
	out := NodeResponse{
		Account:     n.Account.String(),
		Incoming:    transactionResponse(n.Incoming),
		Repeats:     []TransactionResponse{},
		Withdrawals: []WithdrawalResponse{},
	}
	for _, tx := range n.Repeats {
		out.Repeats = append(out.Repeats, transactionResponse(tx))
	}
	for _, wd := range n.Withdrawals {
		out.Withdrawals = append(out.Withdrawals, WithdrawalResponse{
			TransactionResponse: transactionResponse(wd.Transaction),
			Layer:               wd.Layer,
			Severity:            string(wd.Severity),
		})
	}
	return out
}

func transactionResponse(tx domain.Transaction) TransactionResponse {
	receiver, _ := tx.Receiver.Account()
	return TransactionResponse{
		Row:       tx.Row,
		Sender:    tx.Sender.String(),
		Receiver:  receiver.String(),
		Amount:    tx.Amount.String(),
		Formatted: FormatAmount(tx.Amount),
		Bank:      tx.Bank,
		IFSC:      tx.IFSC,
	}
}
