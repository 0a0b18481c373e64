package extract

import (
	"context"
	"strings"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

// FixedWidthStrategy is the last-resort parser for the oldest plain-text
// filings. It slices data lines at the character offsets recovered by
// LocateHeader.
type FixedWidthStrategy struct {
	margin int
}

// NewFixedWidthStrategy sets the offset margin used for missing voting
// sub-column keywords. margin <= 0 selects DefaultOffsetMargin.
func NewFixedWidthStrategy(margin int) *FixedWidthStrategy {
	if margin <= 0 {
		margin = DefaultOffsetMargin
	}
	return &FixedWidthStrategy{margin: margin}
}

func (s *FixedWidthStrategy) Name() string { return StrategyFixedWidth }

func (s *FixedWidthStrategy) Extract(ctx context.Context, in *Input) Result {
	text, err := in.text(ctx)
	if err != nil {
		return failed(errs.Wrap(err, "load submission text"))
	}
	block := infoTableBlock(text)
	lines := dropSeparatorLines(strings.Split(block, "\n"))
	layout, err := LocateHeader(lines, s.margin)
	if err != nil {
		return failed(err)
	}
	table := parseFixedWidth(lines, layout)
	if len(table.Rows) == 0 {
		return failedNote("no data rows under header")
	}
	return succeeded(table)
}

// parseFixedWidth slices every data line at the layout's spans. Data
// starts two lines below the header; the voting sub-header occupies the
// line between. Consumption stops at the grand total line. A line whose
// cusip and value slices are both empty is noise and is dropped, even
// when other slices hold text.
func parseFixedWidth(lines []string, layout *HeaderLayout) *models.RawTable {
	spans := layout.Spans()
	cols := make([]string, len(spans))
	cusipIdx, valueIdx := -1, -1
	for i, sp := range spans {
		cols[i] = sp.Field
		switch sp.Field {
		case "cusip":
			cusipIdx = i
		case "value":
			valueIdx = i
		}
	}

	dataStart := layout.HeaderIdx + 2
	if dataStart > len(lines) {
		dataStart = len(lines)
	}
	var rows [][]string
	for _, ln := range lines[dataStart:] {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if strings.Contains(upperASCII(ln), "GRAND TOTAL") {
			break
		}
		row := make([]string, len(spans))
		for i, sp := range spans {
			row[i] = sliceSpan(ln, sp)
		}
		if cellEmpty(row, cusipIdx) && cellEmpty(row, valueIdx) {
			continue
		}
		rows = append(rows, row)
	}
	return &models.RawTable{Columns: cols, Rows: rows}
}

// sliceSpan cuts one span out of a line, tolerating lines shorter than
// the span.
func sliceSpan(ln string, sp Span) string {
	if sp.Start >= len(ln) {
		return ""
	}
	end := len(ln)
	if sp.End >= 0 && sp.End < end {
		end = sp.End
	}
	return strings.TrimSpace(ln[sp.Start:end])
}

func cellEmpty(row []string, idx int) bool {
	return idx < 0 || row[idx] == ""
}
