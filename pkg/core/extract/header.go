package extract

import (
	"sort"
	"strings"

	"holdings_pipeline/pkg/core/errs"
)

// DefaultOffsetMargin is the assumed spacing between adjacent voting
// sub-columns when their keywords are missing from the sub-header line.
// Legacy filings typically print them about 10 characters apart. The
// value is a heuristic, not a guaranteed parse; rows it misaligns end up
// flagged low-confidence during normalization.
const DefaultOffsetMargin = 10

// fieldKeyword ties a span name to the header keywords located by
// substring search. Keywords are tried in order; the first hit wins.
type fieldKeyword struct {
	field    string
	keywords []string
}

// headerKeywords lists the recognized columns in their printed order.
var headerKeywords = []fieldKeyword{
	{"name", []string{"NAME OF ISSUER"}},
	{"title", []string{"TITLE OF"}},
	{"cusip", []string{"CUSIP"}},
	{"value", []string{"VALUE"}},
	{"shares", []string{"SHRS OR PRN AMT", "SHRS OR"}},
	{"sh_prn", []string{"SH/"}},
	{"putcall", []string{"PUT/CALL"}},
	{"discr", []string{"INVESTMENT DISCRETION"}},
	{"mgrs", []string{"OTHER MANAGERS"}},
}

// Span is one column slice of a fixed-width line. End of -1 means the
// span runs to the end of the line.
type Span struct {
	Field string
	Start int
	End   int
}

// HeaderLayout is a located header line plus the character offsets of its
// recognized columns.
type HeaderLayout struct {
	// HeaderIdx is the header line's index within the filtered lines.
	HeaderIdx int
	// Offsets maps span names to character offsets in the header line.
	Offsets map[string]int
	// Inferred marks voting offsets derived from the margin rather than
	// found in the sub-header line.
	Inferred map[string]bool
}

// LocateHeader finds the information table header among pre-filtered
// lines: the first line containing NAME OF ISSUER, CUSIP, and VALUE. The
// voting-authority sub-columns SOLE, SHARED, and NONE may sit on the line
// after the header; when a sub-column keyword is missing there, its
// offset falls back to the previous offset plus margin and is marked
// inferred. margin <= 0 selects DefaultOffsetMargin.
func LocateHeader(lines []string, margin int) (*HeaderLayout, error) {
	if margin <= 0 {
		margin = DefaultOffsetMargin
	}
	headerIdx := -1
	for i, ln := range lines {
		u := upperASCII(ln)
		if strings.Contains(u, "NAME OF ISSUER") && strings.Contains(u, "CUSIP") && strings.Contains(u, "VALUE") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, errs.NewHeaderNotFoundf("no line contains NAME OF ISSUER, CUSIP, and VALUE")
	}

	hdr := upperASCII(lines[headerIdx])
	next := ""
	if headerIdx+1 < len(lines) {
		next = upperASCII(lines[headerIdx+1])
	}

	layout := &HeaderLayout{
		HeaderIdx: headerIdx,
		Offsets:   make(map[string]int),
		Inferred:  make(map[string]bool),
	}
	for _, fk := range headerKeywords {
		for _, kw := range fk.keywords {
			if p := strings.Index(hdr, kw); p != -1 {
				layout.Offsets[fk.field] = p
				break
			}
		}
	}

	// The VOTING AUTHORITY banner may sit on either line. Without it no
	// voting offsets are recorded at all.
	vaBlock := strings.Index(hdr, "VOTING AUTHORITY")
	if vaBlock == -1 {
		vaBlock = strings.Index(next, "VOTING AUTHORITY")
	}
	if vaBlock != -1 {
		sole := strings.Index(next, "SOLE")
		if sole == -1 {
			sole = vaBlock
			layout.Inferred["v_sole"] = true
		}
		layout.Offsets["v_sole"] = sole

		shared := strings.Index(next, "SHARED")
		if shared == -1 {
			shared = sole + margin
			layout.Inferred["v_shared"] = true
		}
		layout.Offsets["v_shared"] = shared

		none := strings.Index(next, "NONE")
		if none == -1 {
			none = shared + margin
			layout.Inferred["v_none"] = true
		}
		layout.Offsets["v_none"] = none
	}
	return layout, nil
}

// Spans returns the recognized fields sorted ascending by offset, each
// bounded by the next field's offset. Field name breaks offset ties so
// the order is deterministic.
func (h *HeaderLayout) Spans() []Span {
	type fieldOffset struct {
		field string
		off   int
	}
	fos := make([]fieldOffset, 0, len(h.Offsets))
	for f, o := range h.Offsets {
		fos = append(fos, fieldOffset{f, o})
	}
	sort.Slice(fos, func(i, j int) bool {
		if fos[i].off != fos[j].off {
			return fos[i].off < fos[j].off
		}
		return fos[i].field < fos[j].field
	})
	spans := make([]Span, len(fos))
	for i, fo := range fos {
		end := -1
		if i+1 < len(fos) {
			end = fos[i+1].off
		}
		spans[i] = Span{Field: fo.field, Start: fo.off, End: end}
	}
	return spans
}
