package extract

import (
	"context"
	"encoding/xml"
	"strings"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

// xbrlColumns is the native field order of the structured information
// table, shared by the structured-object and sgml-xml strategies.
var xbrlColumns = []string{
	"nameOfIssuer",
	"titleOfClass",
	"cusip",
	"value",
	"sshPrnamt",
	"sshPrnamtType",
	"putCall",
	"investmentDiscretion",
	"otherManager",
	"votingAuthoritySole",
	"votingAuthorityShared",
	"votingAuthorityNone",
}

// informationTable mirrors the EDGAR 13F information table schema. Tag
// names match on local name, so namespace prefixes in the wild decode
// the same way. Values stay raw strings; numeric coercion happens during
// normalization.
type informationTable struct {
	XMLName xml.Name         `xml:"informationTable"`
	Entries []infoTableEntry `xml:"infoTable"`
}

type infoTableEntry struct {
	NameOfIssuer         string          `xml:"nameOfIssuer"`
	TitleOfClass         string          `xml:"titleOfClass"`
	CUSIP                string          `xml:"cusip"`
	Value                string          `xml:"value"`
	ShrsOrPrnAmt         shrsOrPrnAmt    `xml:"shrsOrPrnAmt"`
	PutCall              string          `xml:"putCall"`
	InvestmentDiscretion string          `xml:"investmentDiscretion"`
	OtherManager         string          `xml:"otherManager"`
	VotingAuthority      votingAuthority `xml:"votingAuthority"`
}

type shrsOrPrnAmt struct {
	Amount string `xml:"sshPrnamt"`
	Type   string `xml:"sshPrnamtType"`
}

type votingAuthority struct {
	Sole   string `xml:"Sole"`
	Shared string `xml:"Shared"`
	None   string `xml:"None"`
}

func (e infoTableEntry) row() []string {
	return []string{
		strings.TrimSpace(e.NameOfIssuer),
		strings.TrimSpace(e.TitleOfClass),
		strings.TrimSpace(e.CUSIP),
		strings.TrimSpace(e.Value),
		strings.TrimSpace(e.ShrsOrPrnAmt.Amount),
		strings.TrimSpace(e.ShrsOrPrnAmt.Type),
		strings.TrimSpace(e.PutCall),
		strings.TrimSpace(e.InvestmentDiscretion),
		strings.TrimSpace(e.OtherManager),
		strings.TrimSpace(e.VotingAuthority.Sole),
		strings.TrimSpace(e.VotingAuthority.Shared),
		strings.TrimSpace(e.VotingAuthority.None),
	}
}

// StructuredStrategy returns a table handed over by the caller, or
// decodes the typed information table straight out of the submission's
// <XML> payloads.
type StructuredStrategy struct{}

func NewStructuredStrategy() *StructuredStrategy { return &StructuredStrategy{} }

func (s *StructuredStrategy) Name() string { return StrategyStructured }

func (s *StructuredStrategy) Extract(ctx context.Context, in *Input) Result {
	if in.Structured != nil {
		if len(in.Structured.Rows) == 0 {
			return notApplicable("pre-parsed table is empty")
		}
		t := *in.Structured
		return succeeded(&t)
	}

	text, err := in.text(ctx)
	if err != nil {
		return failed(errs.Wrap(err, "load submission text"))
	}
	payloads := xmlPayloads(text)
	if len(payloads) == 0 {
		return notApplicable("no <XML> payload in submission")
	}

	var decodeErr error
	seen := false
	for _, p := range payloads {
		// Payloads without the table element are cover pages and other
		// companion documents.
		if !strings.Contains(strings.ToLower(p), "informationtable") {
			continue
		}
		seen = true
		var tbl informationTable
		if err := xml.Unmarshal([]byte(p), &tbl); err != nil {
			decodeErr = err
			continue
		}
		if len(tbl.Entries) == 0 {
			continue
		}
		rows := make([][]string, 0, len(tbl.Entries))
		for _, e := range tbl.Entries {
			rows = append(rows, e.row())
		}
		return succeeded(&models.RawTable{
			Columns: append([]string(nil), xbrlColumns...),
			Rows:    rows,
		})
	}
	if !seen {
		return notApplicable("no information table payload")
	}
	if decodeErr != nil {
		return failed(errs.NewParsef("decode information table: %v", decodeErr))
	}
	return failedNote("information table payload decoded empty")
}
