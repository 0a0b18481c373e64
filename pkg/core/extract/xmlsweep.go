package extract

import (
	"context"
	"strings"

	"github.com/antchfx/xmlquery"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

// sweepXPaths are the known information table locations, tried in order.
// The last one handles a rare doubled-wrapper layout whose entry elements
// carry nonstandard names.
var sweepXPaths = []string{
	"//informationTable/infoTable",
	"//infoTable",
	"//informationTable/informationTable/*",
}

// xmlPayloads carves the <XML>...</XML> payloads out of an SGML
// submission. EDGAR writes the markers uppercase on their own lines.
func xmlPayloads(text string) []string {
	var payloads []string
	rest := text
	for {
		start := strings.Index(rest, "<XML>")
		if start == -1 {
			break
		}
		rest = rest[start+len("<XML>"):]
		end := strings.Index(rest, "</XML>")
		if end == -1 {
			// Unterminated payload, keep what is there.
			payloads = append(payloads, strings.TrimSpace(rest))
			break
		}
		payloads = append(payloads, strings.TrimSpace(rest[:end]))
		rest = rest[end+len("</XML>"):]
	}
	return payloads
}

// SGMLXMLStrategy parses every <XML> payload in the submission and sweeps
// a short list of XPath locations for info table entries. It tolerates
// wrapper layouts the typed decoder rejects.
type SGMLXMLStrategy struct{}

func NewSGMLXMLStrategy() *SGMLXMLStrategy { return &SGMLXMLStrategy{} }

func (s *SGMLXMLStrategy) Name() string { return StrategySGMLXML }

func (s *SGMLXMLStrategy) Extract(ctx context.Context, in *Input) Result {
	text, err := in.text(ctx)
	if err != nil {
		return failed(errs.Wrap(err, "load submission text"))
	}
	payloads := xmlPayloads(text)
	if len(payloads) == 0 {
		return notApplicable("no <XML> payload in submission")
	}

	var parseErr error
	for _, p := range payloads {
		doc, err := xmlquery.Parse(strings.NewReader(p))
		if err != nil {
			parseErr = err
			continue
		}
		for _, xp := range sweepXPaths {
			nodes, err := xmlquery.QueryAll(doc, xp)
			if err != nil || len(nodes) == 0 {
				continue
			}
			rows := make([][]string, 0, len(nodes))
			for _, n := range nodes {
				if row, ok := entryRow(n); ok {
					rows = append(rows, row)
				}
			}
			if len(rows) > 0 {
				return succeeded(&models.RawTable{
					Columns: append([]string(nil), xbrlColumns...),
					Rows:    rows,
				})
			}
		}
	}
	if parseErr != nil {
		return failed(errs.NewParsef("parse <XML> payload: %v", parseErr))
	}
	return failedNote("no info table entries matched")
}

// entryRow flattens one info table entry node into xbrlColumns order.
// Lookups match on local names, so namespace prefixes do not matter.
// An entry with every field empty is discarded.
func entryRow(n *xmlquery.Node) ([]string, bool) {
	get := func(path string) string {
		if c := xmlquery.FindOne(n, path); c != nil {
			return strings.TrimSpace(c.InnerText())
		}
		return ""
	}
	row := []string{
		get("nameOfIssuer"),
		get("titleOfClass"),
		get("cusip"),
		get("value"),
		get("shrsOrPrnAmt/sshPrnamt"),
		get("shrsOrPrnAmt/sshPrnamtType"),
		get("putCall"),
		get("investmentDiscretion"),
		get("otherManager"),
		get("votingAuthority/Sole"),
		get("votingAuthority/Shared"),
		get("votingAuthority/None"),
	}
	for _, cell := range row {
		if cell != "" {
			return row, true
		}
	}
	return nil, false
}
