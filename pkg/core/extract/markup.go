package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

// legacyColumns names the text-era table fields in their printed order.
// Both text strategies emit these names so a single rename table covers
// them during normalization.
var legacyColumns = []string{
	"name", "title", "cusip", "value", "shares", "sh_prn",
	"putcall", "discr", "mgrs", "v_sole", "v_shared", "v_none",
}

var (
	headerCellPattern    = regexp.MustCompile(`(?i)name of issuer|title|cusip|market value`)
	separatorCellPattern = regexp.MustCompile(`^[-=_]+$`)
)

// MarkupStrategy parses table fragments embedded in the submission's text
// block. A fragment qualifies when its flattened text mentions the
// information table or an issuer-name header.
type MarkupStrategy struct{}

func NewMarkupStrategy() *MarkupStrategy { return &MarkupStrategy{} }

func (s *MarkupStrategy) Name() string { return StrategyMarkup }

func (s *MarkupStrategy) Extract(ctx context.Context, in *Input) Result {
	text, err := in.text(ctx)
	if err != nil {
		return failed(errs.Wrap(err, "load submission text"))
	}
	block := infoTableBlock(text)
	if !strings.Contains(strings.ToLower(block), "<table") {
		return notApplicable("no markup table in text block")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(block))
	if err != nil {
		return failed(errs.NewParsef("parse markup block: %v", err))
	}

	var table *models.RawTable
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		flat := strings.ToLower(sel.Text())
		if !strings.Contains(flat, "information table") && !strings.Contains(flat, "name of issuer") {
			return true
		}
		rows := tableRows(sel)
		if len(rows) == 0 {
			return true
		}
		table = &models.RawTable{Columns: markupColumns(rows), Rows: rows}
		return false
	})
	if table == nil {
		return failedNote("no usable markup table")
	}
	return succeeded(table)
}

// tableRows collects the data rows of one markup table. Rows that repeat
// header tokens, rows drawn from separator characters, and all-empty rows
// are dropped.
func tableRows(sel *goquery.Selection) [][]string {
	var rows [][]string
	sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		empty := true
		for _, c := range cells {
			if c != "" {
				empty = false
				break
			}
		}
		if empty {
			return
		}
		for _, c := range cells {
			if separatorCellPattern.MatchString(c) {
				return
			}
		}
		for _, c := range cells {
			if headerCellPattern.MatchString(c) {
				return
			}
		}
		rows = append(rows, cells)
	})
	return rows
}

// markupColumns assigns legacy positional names up to the widest row.
// Cells beyond the known layout get col_N names and pass through
// normalization untouched.
func markupColumns(rows [][]string) []string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([]string, width)
	for i := range cols {
		if i < len(legacyColumns) {
			cols[i] = legacyColumns[i]
		} else {
			cols[i] = fmt.Sprintf("col_%d", i)
		}
	}
	return cols
}
