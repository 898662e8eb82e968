package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/schema"
)

var testColumns = []string{"Sender account", "Receiver account", "Transaction Amount", "Bank/FIs", "IFSC Code"}

func newTable(rows ...[]string) dataset.Table {
	return dataset.Table{Name: "case.xlsx", Columns: testColumns, Rows: rows}
}

func testMapping(t *testing.T) schema.Mapping {
	t.Helper()
	m, err := schema.Resolve(testColumns, schema.DefaultAliases())
	require.NoError(t, err)
	return m
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"₹12,34,567", "1234567", true},
		{"1234567", "1234567", true},
		{" 60,000.50 ", "60000.5", true},
		{"Rs. 75,000", "75000", true},
		{"INR 75000", "75000", true},
		{"N/A", "", false},
		{"", "", false},
		{"₹", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "input %q got %s", tc.in, got)
		}
	}
}

func TestNormalize_FiltersAndTypes(t *testing.T) {
	table := newTable(
		[]string{"V", "A", "60,000", "  State  Bank ", "SBIN0001"},
		[]string{"V", "B", "40000", "", ""},
		[]string{"V", "C", "N/A", "", ""},
		[]string{"", "D", "90000", "", ""},
		[]string{"C", "", "₹1,20,000"},
		[]string{"V", "E", "50000", "", ""},
	)

	txs, stats, err := Normalize(table, testMapping(t), NormalizeOptions{MinAmount: DefaultMinAmount})
	require.NoError(t, err)

	assert.Equal(t, NormalizeStats{Rows: 6, Malformed: 1, BelowThreshold: 2, MissingSender: 1, Retained: 2}, stats)
	require.Len(t, txs, 2)

	assert.Equal(t, 1, txs[0].Row)
	assert.Equal(t, domain.AccountID("V"), txs[0].Sender)
	assert.True(t, txs[0].Receiver.Is("A"))
	assert.Equal(t, "State Bank", txs[0].Bank)
	assert.Equal(t, "SBIN0001", txs[0].IFSC)

	assert.Equal(t, 5, txs[1].Row)
	assert.True(t, txs[1].IsWithdrawal())
	assert.True(t, txs[1].Amount.Equal(amount(120000)))
	assert.Equal(t, "", txs[1].Bank)
}

func TestNormalize_IsIdempotent(t *testing.T) {
	table := newTable(
		[]string{"V", "A", "60000", "HDFC", "HDFC0001"},
		[]string{"A", "", "70000", "", ""},
		[]string{"A", "B", "10000", "", ""},
	)
	opts := NormalizeOptions{MinAmount: DefaultMinAmount}
	first, _, err := Normalize(table, testMapping(t), opts)
	require.NoError(t, err)

	again := newTable()
	for _, tx := range first {
		receiver, _ := tx.Receiver.Account()
		again.Rows = append(again.Rows, []string{string(tx.Sender), string(receiver), tx.Amount.String(), tx.Bank, tx.IFSC})
	}
	second, stats, err := Normalize(again, testMapping(t), opts)
	require.NoError(t, err)

	assert.Equal(t, len(first), stats.Retained)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Sender, second[i].Sender)
		assert.Equal(t, first[i].Receiver, second[i].Receiver)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
}

func TestNormalize_WhollyUnparsableAmounts(t *testing.T) {
	table := newTable(
		[]string{"V", "A", "N/A"},
		[]string{"V", "B", "-"},
	)
	_, _, err := Normalize(table, testMapping(t), NormalizeOptions{MinAmount: DefaultMinAmount})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNormalization))
	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, "Transaction Amount", nerr.Column)
	assert.Equal(t, 2, nerr.Rows)
}

func TestNormalize_EmptyTableIsNotANormalizationError(t *testing.T) {
	txs, stats, err := Normalize(newTable(), testMapping(t), NormalizeOptions{MinAmount: DefaultMinAmount})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 0, stats.Rows)
}

func TestInferVictim(t *testing.T) {
	txs := []domain.Transaction{
		{Sender: "A", Receiver: domain.Transfer("X"), Amount: amount(60000)},
		{Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(60000)},
		{Sender: "V", Receiver: domain.Transfer("B"), Amount: amount(60000)},
		{Sender: "B", Receiver: domain.Cash, Amount: amount(60000)},
	}
	for i := 0; i < 3; i++ {
		victim, err := InferVictim(txs)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountID("V"), victim)
	}
}

func TestInferVictim_TieGoesToFirstSeen(t *testing.T) {
	txs := []domain.Transaction{
		{Sender: "A", Receiver: domain.Transfer("X")},
		{Sender: "B", Receiver: domain.Transfer("X")},
		{Sender: "B", Receiver: domain.Transfer("Y")},
		{Sender: "A", Receiver: domain.Transfer("Y")},
	}
	victim, err := InferVictim(txs)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("A"), victim)
}

func TestInferVictim_Empty(t *testing.T) {
	_, err := InferVictim(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestTrace_VictimToWithdrawalScenario(t *testing.T) {
	table := newTable(
		[]string{"V", "A", "60000", "SBI", "SBIN0001"},
		[]string{"V", "B", "40000", "ICICI", "ICIC0001"},
		[]string{"A", "C", "70000", "HDFC", "HDFC0001"},
		[]string{"C", "", "120000", "", ""},
	)
	svc := NewTraceService(discardLogger(), DefaultSettings())

	res, err := svc.Run(context.Background(), table)
	require.NoError(t, err)

	tr := res.Trace
	assert.Equal(t, domain.AccountID("V"), tr.Victim)
	require.Len(t, tr.Layer1, 1)
	a := tr.Layer1[0]
	assert.Equal(t, domain.AccountID("A"), a.Account)
	assert.True(t, a.Incoming.Amount.Equal(amount(60000)))
	assert.Empty(t, a.Withdrawals)

	require.Len(t, a.Children, 1)
	c := a.Children[0]
	assert.Equal(t, domain.AccountID("C"), c.Account)
	assert.True(t, c.Incoming.Amount.Equal(amount(70000)))
	assert.Empty(t, c.Children)

	require.Len(t, c.Withdrawals, 1)
	assert.True(t, c.Withdrawals[0].Amount.Equal(amount(120000)))
	assert.Equal(t, domain.SeverityHigh, c.Withdrawals[0].Severity)
	assert.Equal(t, 2, c.Withdrawals[0].Layer)

	for _, acct := range tr.Accounts() {
		assert.NotEqual(t, domain.AccountID("B"), acct)
	}
	assert.Equal(t, "case.xlsx", res.Source)
	assert.Equal(t, 1, res.Stats.BelowThreshold)
}

func TestTrace_DeduplicatesRepeatTransfers(t *testing.T) {
	txs := []domain.Transaction{
		{Row: 1, Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(60000), Bank: "SBI"},
		{Row: 2, Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(60000), Bank: "AXIS"},
	}
	tr := Tracer{HighWithdrawal: DefaultHighWithdrawal}.Trace(txs, "V")

	require.Len(t, tr.Layer1, 1)
	assert.Equal(t, 1, tr.Layer1[0].Incoming.Row)
	assert.Equal(t, "SBI", tr.Layer1[0].Incoming.Bank)
	require.Len(t, tr.Layer1[0].Repeats, 1)
	assert.Equal(t, 2, tr.Layer1[0].Repeats[0].Row)
}

func TestTrace_NeverLinksBackToVictimOrSelf(t *testing.T) {
	txs := []domain.Transaction{
		{Sender: "V", Receiver: domain.Transfer("V"), Amount: amount(60000)},
		{Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(60000)},
		{Sender: "V", Receiver: domain.Cash, Amount: amount(60000)},
		{Sender: "A", Receiver: domain.Transfer("A"), Amount: amount(60000)},
		{Sender: "A", Receiver: domain.Transfer("V"), Amount: amount(60000)},
		{Sender: "A", Receiver: domain.Transfer("B"), Amount: amount(60000)},
		{Sender: "B", Receiver: domain.Transfer("V"), Amount: amount(60000)},
	}
	tr := Tracer{HighWithdrawal: DefaultHighWithdrawal}.Trace(txs, "V")

	require.Len(t, tr.Layer1, 1)
	assert.Equal(t, domain.AccountID("A"), tr.Layer1[0].Account)
	require.Len(t, tr.Layer1[0].Children, 1)
	assert.Equal(t, domain.AccountID("B"), tr.Layer1[0].Children[0].Account)
	for _, acct := range tr.Accounts() {
		assert.NotEqual(t, tr.Victim, acct)
	}
}

func TestTrace_WithdrawalsOnBothLayersAndSeverityBoundary(t *testing.T) {
	txs := []domain.Transaction{
		{Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(200000)},
		{Sender: "A", Receiver: domain.Cash, Amount: amount(100000)},
		{Sender: "A", Receiver: domain.Cash, Amount: amount(100001)},
		{Sender: "A", Receiver: domain.Transfer("B"), Amount: amount(90000)},
		{Sender: "B", Receiver: domain.Cash, Amount: amount(80000)},
	}
	tr := Tracer{HighWithdrawal: DefaultHighWithdrawal}.Trace(txs, "V")

	a := tr.Layer1[0]
	require.Len(t, a.Withdrawals, 2)
	assert.Equal(t, domain.SeverityNormal, a.Withdrawals[0].Severity)
	assert.Equal(t, domain.SeverityHigh, a.Withdrawals[1].Severity)
	assert.Equal(t, 1, a.Withdrawals[0].Layer)

	require.Len(t, a.Children[0].Withdrawals, 1)
	assert.Equal(t, domain.SeverityNormal, a.Children[0].Withdrawals[0].Severity)

	assert.Len(t, tr.Withdrawals(), 3)
	assert.Equal(t, 1, tr.HighCount())
}

func TestTrace_SameMuleUnderTwoParentsIsTwoNodes(t *testing.T) {
	txs := []domain.Transaction{
		{Sender: "V", Receiver: domain.Transfer("A"), Amount: amount(60000)},
		{Sender: "V", Receiver: domain.Transfer("B"), Amount: amount(60000)},
		{Sender: "A", Receiver: domain.Transfer("M"), Amount: amount(60000)},
		{Sender: "B", Receiver: domain.Transfer("M"), Amount: amount(60000)},
		{Sender: "B", Receiver: domain.Transfer("A"), Amount: amount(60000)},
	}
	tr := Tracer{HighWithdrawal: DefaultHighWithdrawal}.Trace(txs, "V")

	require.Len(t, tr.Layer1, 2)
	assert.Equal(t, domain.AccountID("M"), tr.Layer1[0].Children[0].Account)
	require.Len(t, tr.Layer1[1].Children, 2)
	assert.Equal(t, domain.AccountID("M"), tr.Layer1[1].Children[0].Account)
	assert.Equal(t, domain.AccountID("A"), tr.Layer1[1].Children[1].Account)
	assert.Equal(t, 3, tr.Layer2Count())
}

func TestTraceService_Errors(t *testing.T) {
	svc := NewTraceService(discardLogger(), Settings{})

	_, err := svc.Run(context.Background(), dataset.Table{Columns: []string{"Foo"}, Rows: [][]string{{"x"}}})
	assert.ErrorIs(t, err, schema.ErrSchema)

	_, err = svc.Run(context.Background(), newTable([]string{"V", "A", "40000"}))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = svc.Run(context.Background(), newTable([]string{"V", "A", "abc"}))
	assert.ErrorIs(t, err, ErrNormalization)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Run(ctx, newTable([]string{"V", "A", "60000"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTraceService_Clock(t *testing.T) {
	svc := NewTraceService(discardLogger(), DefaultSettings())
	now := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	res, err := svc.Run(context.Background(), newTable([]string{"V", "A", "60000"}))
	require.NoError(t, err)
	assert.Equal(t, now, res.CreatedAt)
	assert.Equal(t, time.Duration(0), res.Duration)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.ID.String())
}

func TestTraceService_CustomThresholds(t *testing.T) {
	svc := NewTraceService(discardLogger(), Settings{
		MinAmount:      amount(1000),
		HighWithdrawal: amount(5000),
	})
	res, err := svc.Run(context.Background(), newTable(
		[]string{"V", "A", "2000"},
		[]string{"A", "", "6000"},
	))
	require.NoError(t, err)
	require.Len(t, res.Trace.Layer1, 1)
	assert.Equal(t, domain.SeverityHigh, res.Trace.Layer1[0].Withdrawals[0].Severity)
}

func TestRun_LogsCompletionWithCamelCaseKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewTraceService(logger, DefaultSettings())

	_, err := svc.Run(context.Background(), newTable(
		[]string{"V", "A", "60000", "SBI", "SBIN0001"},
		[]string{"A", "", "120000", "", ""},
	))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace complete", entry["msg"])
	assert.Equal(t, "V", entry["victim"])
	assert.Contains(t, entry, "durationMs")
	assert.NotContains(t, entry, "duration_ms")
}
