package normalize

import (
	"reflect"
	"testing"

	"holdings_pipeline/pkg/core/extract"
	"holdings_pipeline/pkg/models"
)

func filing13F() models.Filing {
	return models.Filing{
		CIK:             "0000102909",
		AccessionNumber: "0000102909-13-000123",
		FormType:        models.Form13F,
		FilingDate:      "2013-05-15",
		PeriodOfReport:  "2013-03-31",
	}
}

func TestNormalizeXBRLTable(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategyStructured,
		Columns: []string{
			"nameOfIssuer", "titleOfClass", "cusip", "value", "sshPrnamt",
			"sshPrnamtType", "putCall", "investmentDiscretion", "otherManager",
			"votingAuthoritySole", "votingAuthorityShared", "votingAuthorityNone",
		},
		Rows: [][]string{
			{"APPLE INC", "COM", "037833100", "1234567", "9876543", "SH", "", "SOLE", "4", "9876543", "0", "0"},
		},
	}

	table := Table(filing13F(), raw)
	if len(table.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(table.Holdings))
	}
	h := table.Holdings[0]
	if h.PeriodOfReport != "2013-03-31" {
		t.Errorf("period = %q, want 2013-03-31", h.PeriodOfReport)
	}
	if h.Name != "APPLE INC" || h.Title != "COM" || h.CUSIP != "037833100" {
		t.Errorf("identity fields = %q %q %q", h.Name, h.Title, h.CUSIP)
	}
	if h.ValueX1000 == nil || *h.ValueX1000 != 1234567 {
		t.Errorf("value = %v, want 1234567", h.ValueX1000)
	}
	if h.Shares == nil || *h.Shares != 9876543 {
		t.Errorf("shares = %v, want 9876543", h.Shares)
	}
	if h.ShareUnit != "SH" || h.Discretion != "SOLE" || h.OtherManagers != "4" {
		t.Errorf("detail fields = %q %q %q", h.ShareUnit, h.Discretion, h.OtherManagers)
	}
	if h.VotingSole == nil || *h.VotingSole != 9876543 {
		t.Errorf("voting sole = %v", h.VotingSole)
	}
	if h.LowConfidence {
		t.Error("structured row flagged low-confidence")
	}
}

func TestNormalizeFixedWidthTable(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategyFixedWidth,
		Columns:  []string{"name", "title", "cusip", "value", "shares", "sh_prn", "v_sole", "v_shared", "v_none"},
		Rows: [][]string{
			{"EXXON MOBIL CORP", "COM", "30231G102", "98765", "1,200,000", "SH", "1200000", "0", "0"},
		},
	}

	table := Table(filing13F(), raw)
	h := table.Holdings[0]
	if h.Shares == nil || *h.Shares != 1200000 {
		t.Errorf("shares = %v, want 1200000 after separator strip", h.Shares)
	}
	if h.ValueX1000 == nil || *h.ValueX1000 != 98765 {
		t.Errorf("value = %v, want 98765", h.ValueX1000)
	}
	if h.ShareUnit != "SH" {
		t.Errorf("share unit = %q, want SH", h.ShareUnit)
	}
	if h.PutCall != "" {
		t.Errorf("put_call = %q, want empty for absent column", h.PutCall)
	}
	if h.LowConfidence {
		t.Error("row with parsed voting fields flagged low-confidence")
	}
}

func TestNormalizeCoercionNeverAborts(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategyFixedWidth,
		Columns:  []string{"name", "cusip", "value", "shares", "v_sole", "v_shared", "v_none"},
		Rows: [][]string{
			{"ODD ROW", "123456789", "N/A", "", "x", "-", ""},
		},
	}

	table := Table(filing13F(), raw)
	if len(table.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1 (coercion must not drop rows)", len(table.Holdings))
	}
	h := table.Holdings[0]
	if h.ValueX1000 != nil || h.Shares != nil {
		t.Errorf("unparseable numerics = %v %v, want nil", h.ValueX1000, h.Shares)
	}
	if !h.LowConfidence {
		t.Error("fixed-width row with no voting values must be low-confidence")
	}
}

func TestNormalizeLowConfidenceScopedToFixedWidth(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategySGMLXML,
		Columns:  []string{"nameOfIssuer", "cusip", "value"},
		Rows:     [][]string{{"NO VOTES GIVEN", "123456789", "1000"}},
	}
	table := Table(filing13F(), raw)
	if table.Holdings[0].LowConfidence {
		t.Error("sgml-xml row flagged low-confidence; the flag is a fixed-width heuristic")
	}
}

func TestNormalizeUnmappedColumnsLandInExtra(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategyMarkup,
		Columns:  []string{"name", "cusip", "value", "col_12", "col_13"},
		Rows: [][]string{
			{"APPLE COMPUTER INC", "037833100", "120000", "FOOTNOTE A", ""},
		},
	}

	table := Table(filing13F(), raw)
	h := table.Holdings[0]
	if h.Extra["col_12"] != "FOOTNOTE A" {
		t.Errorf("extra col_12 = %q, want FOOTNOTE A", h.Extra["col_12"])
	}
	if _, ok := h.Extra["col_13"]; ok {
		t.Error("empty extra cell recorded")
	}
}

func TestNormalizeShortRows(t *testing.T) {
	raw := &models.RawTable{
		Strategy: extract.StrategyMarkup,
		Columns:  []string{"name", "title", "cusip", "value"},
		Rows: [][]string{
			{"RAGGED ROW", "COM"},
		},
	}
	table := Table(filing13F(), raw)
	h := table.Holdings[0]
	if h.Name != "RAGGED ROW" || h.Title != "COM" {
		t.Errorf("mapped fields = %q %q", h.Name, h.Title)
	}
	if h.CUSIP != "" || h.ValueX1000 != nil {
		t.Errorf("unmapped tail = %q %v, want zero values", h.CUSIP, h.ValueX1000)
	}
}

func TestNormalizeCanonicalColumnsForEveryStrategy(t *testing.T) {
	strategies := []string{
		extract.StrategyStructured,
		extract.StrategySGMLXML,
		extract.StrategyMarkup,
		extract.StrategyFixedWidth,
	}
	want := models.CanonicalColumns()
	for _, s := range strategies {
		raw := &models.RawTable{
			Strategy: s,
			Columns:  []string{"cusip"},
			Rows:     [][]string{{"037833100"}},
		}
		table := Table(filing13F(), raw)
		if !reflect.DeepEqual(table.Columns, want) {
			t.Errorf("strategy %s columns = %v, want canonical set", s, table.Columns)
		}
		if table.Strategy != s {
			t.Errorf("provenance = %q, want %q", table.Strategy, s)
		}
	}
}
