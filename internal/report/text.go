package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/service"
)

// TextRenderer prints the trace as an indented tree.
type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Extension() string { return ".txt" }

func (TextRenderer) Render(w io.Writer, res service.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Victim: %s\n", res.Trace.Victim)
	if len(res.Trace.Layer1) == 0 {
		fmt.Fprintln(bw, "  (no onward transfers)")
	}
	for _, l1 := range res.Trace.Layer1 {
		writeHop(bw, 1, l1, "Sent")
		for _, wd := range l1.Withdrawals {
			writeWithdrawal(bw, 2, wd)
		}
		for _, l2 := range l1.Children {
			writeHop(bw, 2, l2, "Received")
			for _, wd := range l2.Withdrawals {
				writeWithdrawal(bw, 3, wd)
			}
		}
	}
	fmt.Fprintf(bw, "Rows: %d read, %d traced, %d below threshold, %d malformed\n",
		res.Stats.Rows, res.Stats.Retained, res.Stats.BelowThreshold, res.Stats.Malformed)
	return bw.Flush()
}

func writeHop(w io.Writer, depth int, node domain.LayerNode, label string) {
	line := fmt.Sprintf("%sL%d %s  Amount %s: %s", indent(depth), depth, node.Account, label, FormatAmount(node.Incoming.Amount))
	if node.Incoming.Bank != "" {
		line += "  Bank: " + node.Incoming.Bank
	}
	if node.Incoming.IFSC != "" {
		line += "  IFSC: " + node.Incoming.IFSC
	}
	if n := len(node.Repeats); n > 0 {
		line += fmt.Sprintf("  (+%d repeat)", n)
	}
	fmt.Fprintln(w, line)
}

func writeWithdrawal(w io.Writer, depth int, wd domain.Withdrawal) {
	marker := ""
	if wd.Severity == domain.SeverityHigh {
		marker = "  [HIGH]"
	}
	fmt.Fprintf(w, "%sWithdrawal %s%s\n", indent(depth), FormatAmount(wd.Amount), marker)
}

func indent(depth int) string { return strings.Repeat("  ", depth) }
