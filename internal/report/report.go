package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/service"
)

// Renderer turns a trace result into a document.
type Renderer interface {
	Render(w io.Writer, res service.Result) error
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer registered for format (json, xlsx, text).
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return JSONRenderer{}, nil
	case "xlsx", "excel":
		return XLSXRenderer{}, nil
	case "text", "txt":
		return TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// OutputName derives the report file name from the uploaded file name.
func OutputName(input string, r Renderer) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "trace"
	}
	return base + "_fixed_final_flowchart" + r.Extension()
}

// FormatAmount renders amount in rupees with thousands separators, dropping
// any fractional part.
func FormatAmount(amount decimal.Decimal) string {
	digits := amount.Truncate(0).String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "₹" + b.String()
}

// hopBlock describes the account funded by a transfer.
func hopBlock(node domain.LayerNode, label string) string {
	var parts []string
	if node.Incoming.Bank != "" {
		parts = append(parts, "Bank: "+node.Incoming.Bank)
	}
	parts = append(parts, "A/c No: "+node.Account.String())
	if node.Incoming.IFSC != "" {
		parts = append(parts, "IFSC: "+node.Incoming.IFSC)
	}
	parts = append(parts, fmt.Sprintf("Amount %s: %s", label, FormatAmount(node.Incoming.Amount)))
	if n := len(node.Repeats); n > 0 {
		parts = append(parts, fmt.Sprintf("Repeat transfers: %d", n))
	}
	return strings.Join(parts, "\n")
}

func withdrawalBlock(w domain.Withdrawal) string {
	return strings.Join([]string{
		"💸 Withdrawal Made",
		fmt.Sprintf("From: Layer %d", w.Layer),
		"A/c No: " + w.Sender.String(),
		"Amount: " + FormatAmount(w.Amount),
	}, "\n")
}
