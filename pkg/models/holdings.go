// Package models defines the shared data types passed between the ingest,
// extraction, normalization, and output layers.
package models

// 13F form types as they appear in EDGAR submission indexes.
const (
	Form13F          = "13F-HR"
	Form13FAmendment = "13F-HR/A"
)

// Filing identifies a single 13F submission on EDGAR.
// Immutable once retrieved; dates stay in their EDGAR "YYYY-MM-DD" form so
// ordering is plain lexicographic comparison.
type Filing struct {
	CIK             string `json:"cik"`              // zero-padded to 10 digits
	AccessionNumber string `json:"accession_number"` // e.g., "0000950123-13-004518"
	FilingDate      string `json:"filing_date"`      // "YYYY-MM-DD"
	FormType        string `json:"form_type"`        // "13F-HR" or "13F-HR/A"
	PeriodOfReport  string `json:"period_of_report"` // quarter end, "YYYY-MM-DD"
	CompanyName     string `json:"company_name"`
	PrimaryDocument string `json:"primary_document"` // infotable XML for modern filings
}

// IsAmendment reports whether this filing supersedes a base filing for the
// same reporting period.
func (f Filing) IsAmendment() bool { return f.FormType == Form13FAmendment }

// Holding is one row of a 13F information table in the canonical schema.
// Numeric fields are nil when the source value was absent or unparseable;
// they are never carried as unparsed strings.
type Holding struct {
	PeriodOfReport string `col:"period_of_report" parquet:"period_of_report"`
	Name           string `col:"name" parquet:"name"`
	Title          string `col:"title" parquet:"title"`
	CUSIP          string `col:"cusip" parquet:"cusip"`
	ValueX1000     *int64 `col:"value_x1000" parquet:"value_x1000,optional"`
	Shares         *int64 `col:"shares" parquet:"shares,optional"`
	ShareUnit      string `col:"share_unit" parquet:"share_unit"`
	PutCall        string `col:"put_call" parquet:"put_call"`
	Discretion     string `col:"discretion" parquet:"discretion"`
	OtherManagers  string `col:"other_managers" parquet:"other_managers"`
	VotingSole     *int64 `col:"voting_sole" parquet:"voting_sole,optional"`
	VotingShared   *int64 `col:"voting_shared" parquet:"voting_shared,optional"`
	VotingNone     *int64 `col:"voting_none" parquet:"voting_none,optional"`

	// LowConfidence marks rows sliced with heuristic voting offsets whose
	// voting fields all came back empty. Excluded from CSV output, kept
	// for the database sink.
	LowConfidence bool `col:"-" parquet:"low_confidence"`

	// Extra carries source columns that have no canonical mapping.
	Extra map[string]string `col:"-" parquet:"-"`
}

// RawTable is a strategy's pre-normalization output: native column names
// and string cells, in source order.
type RawTable struct {
	Strategy string
	Columns  []string
	Rows     [][]string
}

// HoldingsTable is the canonical extraction result for one filing: ordered
// holdings, the column list, and the provenance tag of the strategy that
// produced them.
type HoldingsTable struct {
	Filing   Filing
	Strategy string
	Columns  []string // always CanonicalColumns()
	Holdings []Holding
}

// CanonicalColumns returns the fixed output column order shared by every
// strategy. The set is identical no matter which strategy succeeded.
func CanonicalColumns() []string {
	return []string{
		"period_of_report",
		"name",
		"title",
		"cusip",
		"value_x1000",
		"shares",
		"share_unit",
		"put_call",
		"discretion",
		"other_managers",
		"voting_sole",
		"voting_shared",
		"voting_none",
	}
}
