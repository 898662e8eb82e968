package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vanshika/paisatrail/internal/domain"
	"github.com/vanshika/paisatrail/internal/service"
)

const (
	flowchartSheet = "Flowchart"
	summarySheet   = "Summary"
	headerSpan     = 50
	firstBlockRow  = 3
	branchStride   = 2
	blockColWidth  = 38
	downArrow      = "↓"
)

// XLSXRenderer lays the trace out as a flowchart workbook: one column per
// Layer 1 branch, blocks stacked downwards, high withdrawals highlighted.
type XLSXRenderer struct{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Extension() string { return ".xlsx" }

func (XLSXRenderer) Render(w io.Writer, res service.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := newSheetWriter(f)
	if err != nil {
		return err
	}
	sw.flowchart(res.Trace)
	sw.summary(res)
	if sw.err != nil {
		return fmt.Errorf("render workbook: %w", sw.err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type sheetWriter struct {
	f          *excelize.File
	center     int
	header     int
	highlight  int
	err        error
	lastColumn int
}

func newSheetWriter(f *excelize.File) (*sheetWriter, error) {
	if err := f.SetSheetName(f.GetSheetName(0), flowchartSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}

	align := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	sw := &sheetWriter{f: f}
	var err error
	if sw.center, err = f.NewStyle(&excelize.Style{Alignment: align}); err != nil {
		return nil, err
	}
	if sw.header, err = f.NewStyle(&excelize.Style{
		Alignment: align,
		Font:      &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return nil, err
	}
	if sw.highlight, err = f.NewStyle(&excelize.Style{
		Alignment: align,
		Font:      &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	}); err != nil {
		return nil, err
	}
	return sw, nil
}

func (sw *sheetWriter) flowchart(tr domain.Trace) {
	last, _ := excelize.ColumnNumberToName(headerSpan)
	sw.do(func() error { return sw.f.MergeCell(flowchartSheet, "A1", last+"1") })
	sw.put(flowchartSheet, 1, 1, "Victim: "+tr.Victim.String(), sw.header)

	col := 1
	for _, l1 := range tr.Layer1 {
		row := firstBlockRow
		sw.put(flowchartSheet, col, row, hopBlock(l1, "Sent"), sw.center)
		sw.put(flowchartSheet, col, row+1, downArrow, sw.center)
		row += 2

		for _, wd := range l1.Withdrawals {
			sw.withdrawal(col, row, wd)
			row += 2
		}
		for _, l2 := range l1.Children {
			sw.put(flowchartSheet, col, row, hopBlock(l2, "Received"), sw.center)
			sw.put(flowchartSheet, col, row+1, downArrow, sw.center)
			row += 2
			for _, wd := range l2.Withdrawals {
				sw.withdrawal(col, row, wd)
				row += 2
			}
		}
		sw.lastColumn = col
		col += branchStride
	}

	if sw.lastColumn > 0 {
		name, _ := excelize.ColumnNumberToName(sw.lastColumn)
		sw.do(func() error { return sw.f.SetColWidth(flowchartSheet, "A", name, blockColWidth) })
	}
}

func (sw *sheetWriter) withdrawal(col, row int, wd domain.Withdrawal) {
	style := sw.center
	if wd.Severity == domain.SeverityHigh {
		style = sw.highlight
	}
	sw.put(flowchartSheet, col, row, withdrawalBlock(wd), style)
}

func (sw *sheetWriter) summary(res service.Result) {
	rows := [][2]any{
		{"Trace ID", res.ID.String()},
		{"Source", res.Source},
		{"Victim", res.Trace.Victim.String()},
		{"Layer 1 accounts", len(res.Trace.Layer1)},
		{"Layer 2 accounts", res.Trace.Layer2Count()},
		{"Withdrawals", len(res.Trace.Withdrawals())},
		{"High withdrawals", res.Trace.HighCount()},
		{"Rows read", res.Stats.Rows},
		{"Rows traced", res.Stats.Retained},
		{"Rows below threshold", res.Stats.BelowThreshold},
		{"Rows with malformed amount", res.Stats.Malformed},
		{"Rows without sender", res.Stats.MissingSender},
	}
	for i, r := range rows {
		sw.put(summarySheet, 1, i+1, r[0], 0)
		sw.put(summarySheet, 2, i+1, r[1], 0)
	}
	sw.do(func() error { return sw.f.SetColWidth(summarySheet, "A", "B", blockColWidth) })
}

func (sw *sheetWriter) put(sheet string, col, row int, value any, style int) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.do(func() error { return sw.f.SetCellValue(sheet, cell, value) })
	if style != 0 {
		sw.do(func() error { return sw.f.SetCellStyle(sheet, cell, cell, style) })
	}
}

func (sw *sheetWriter) do(fn func() error) {
	if sw.err != nil {
		return
	}
	sw.err = fn()
}
