package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/paisatrail/internal/dataset"
	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/schema"
)

var currencyPrefixes = []string{"INR", "Rs.", "Rs"}

// NormalizeOptions controls row retention.
type NormalizeOptions struct {
	// MinAmount is exclusive: rows must carry an amount strictly above it.
	MinAmount decimal.Decimal
}

// NormalizeStats counts what happened to each input row.
type NormalizeStats struct {
	Rows           int
	Malformed      int
	BelowThreshold int
	MissingSender  int
	Retained       int
}

// ParseAmount strips thousand separators and the rupee glyph from s and
// parses what is left.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.TrimSpace(s)
	for _, prefix := range currencyPrefixes {
		if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Normalize copies the mapped columns of table into typed transactions,
// keeping rows with a parseable amount above opts.MinAmount and a sender.
// A blank receiver marks a cash withdrawal. Malformed rows are dropped and
// only counted; a NormalizationError is returned when the table has rows but
// none of them carries a parseable amount.
func Normalize(table dataset.Table, mapping schema.Mapping, opts NormalizeOptions) ([]domain.Transaction, NormalizeStats, error) {
	stats := NormalizeStats{Rows: len(table.Rows)}

	senderIdx, err := columnIndex(table, mapping, schema.FieldSender)
	if err != nil {
		return nil, stats, err
	}
	receiverIdx, err := columnIndex(table, mapping, schema.FieldReceiver)
	if err != nil {
		return nil, stats, err
	}
	amountIdx, err := columnIndex(table, mapping, schema.FieldAmount)
	if err != nil {
		return nil, stats, err
	}
	bankIdx := optionalIndex(table, mapping, schema.FieldBank)
	ifscIdx := optionalIndex(table, mapping, schema.FieldIFSC)

	txs := make([]domain.Transaction, 0, len(table.Rows))
	for i := range table.Rows {
		amount, ok := ParseAmount(table.Cell(i, amountIdx))
		if !ok {
			stats.Malformed++
			continue
		}
		if !amount.GreaterThan(opts.MinAmount) {
			stats.BelowThreshold++
			continue
		}
		sender := table.Cell(i, senderIdx)
		if strings.TrimSpace(sender) == "" {
			stats.MissingSender++
			continue
		}

		receiver := domain.Cash
		if r := table.Cell(i, receiverIdx); strings.TrimSpace(r) != "" {
			receiver = domain.Transfer(domain.AccountID(r))
		}

		txs = append(txs, domain.Transaction{
			Row:      i + 1,
			Sender:   domain.AccountID(sender),
			Receiver: receiver,
			Amount:   amount,
			Bank:     sanitizeString(table.Cell(i, bankIdx)),
			IFSC:     sanitizeString(table.Cell(i, ifscIdx)),
		})
	}
	stats.Retained = len(txs)

	if stats.Rows > 0 && stats.Malformed == stats.Rows {
		return nil, stats, &NormalizationError{Column: mapping[schema.FieldAmount], Rows: stats.Rows}
	}
	return txs, stats, nil
}

func columnIndex(table dataset.Table, mapping schema.Mapping, field schema.Field) (int, error) {
	col, ok := mapping.Column(field)
	if !ok {
		return -1, &schema.SchemaError{Missing: []schema.Field{field}}
	}
	idx := table.Index(col)
	if idx < 0 {
		return -1, fmt.Errorf("column %q for %s not in dataset", col, field)
	}
	return idx, nil
}

func optionalIndex(table dataset.Table, mapping schema.Mapping, field schema.Field) int {
	col, ok := mapping.Column(field)
	if !ok {
		return -1
	}
	return table.Index(col)
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
