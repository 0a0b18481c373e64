package extract

import (
	"context"
	"testing"
)

// markupSubmission embeds an HTML-era information table with a header
// row, a separator row, and two data rows.
func markupSubmission() string {
	return `<SEC-DOCUMENT>0000102909-01-500123.txt : 20010814
<SEC-HEADER>
CONFORMED SUBMISSION TYPE:   13F-HR
</SEC-HEADER>
<DOCUMENT>
<TYPE>13F-HR
<TEXT>
FORM 13F INFORMATION TABLE
<TABLE>
<TR><TD>NAME OF ISSUER</TD><TD>TITLE OF CLASS</TD><TD>CUSIP</TD><TD>MARKET VALUE</TD></TR>
<TR><TD>--------------</TD><TD>-----</TD><TD>---------</TD><TD>------------</TD></TR>
<TR><TD>APPLE COMPUTER INC</TD><TD>COM</TD><TD>037833100</TD><TD>120000</TD></TR>
<TR><TD>EXXON MOBIL CORP</TD><TD>COM</TD><TD>30231G102</TD><TD>98765</TD></TR>
</TABLE>
GRAND TOTAL 218765
</TEXT>
</DOCUMENT>`
}

func TestMarkupParsesEmbeddedTable(t *testing.T) {
	in := &Input{Filing: testFiling(), Text: staticText(markupSubmission())}
	res := NewMarkupStrategy().Extract(context.Background(), in)
	if res.Outcome != Succeeded {
		t.Fatalf("outcome = %v (%s), want Succeeded", res.Outcome, res.Reason())
	}

	wantCols := []string{"name", "title", "cusip", "value"}
	if len(res.Table.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", res.Table.Columns, wantCols)
	}
	for i, c := range wantCols {
		if res.Table.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, res.Table.Columns[i], c)
		}
	}

	wantRows := [][]string{
		{"APPLE COMPUTER INC", "COM", "037833100", "120000"},
		{"EXXON MOBIL CORP", "COM", "30231G102", "98765"},
	}
	if len(res.Table.Rows) != len(wantRows) {
		t.Fatalf("rows = %d, want %d (header and separator rows dropped)", len(res.Table.Rows), len(wantRows))
	}
	for i, want := range wantRows {
		for j, cell := range want {
			if res.Table.Rows[i][j] != cell {
				t.Errorf("row %d cell %d = %q, want %q", i, j, res.Table.Rows[i][j], cell)
			}
		}
	}
}

func TestMarkupSkipsUnrelatedTables(t *testing.T) {
	text := `FORM 13F INFORMATION TABLE
<TABLE>
<TR><TD>SUMMARY PAGE</TD><TD>ENTRY COUNT</TD></TR>
<TR><TD>TOTAL</TD><TD>2</TD></TR>
</TABLE>
<TABLE>
<TR><TD>NAME OF ISSUER</TD><TD>CUSIP</TD></TR>
<TR><TD>INTEL CORP</TD><TD>458140100</TD></TR>
</TABLE>
GRAND TOTAL`
	in := &Input{Filing: testFiling(), Text: staticText(text)}
	res := NewMarkupStrategy().Extract(context.Background(), in)
	if res.Outcome != Succeeded {
		t.Fatalf("outcome = %v (%s), want Succeeded", res.Outcome, res.Reason())
	}
	if len(res.Table.Rows) != 1 || res.Table.Rows[0][0] != "INTEL CORP" {
		t.Errorf("rows = %q, want the qualifying table only", res.Table.Rows)
	}
}

func TestMarkupWithoutTablesNotApplicable(t *testing.T) {
	in := &Input{Filing: testFiling(), Text: staticText("FORM 13F INFORMATION TABLE\nplain rows\nGRAND TOTAL")}
	res := NewMarkupStrategy().Extract(context.Background(), in)
	if res.Outcome != NotApplicable {
		t.Errorf("outcome = %v, want NotApplicable", res.Outcome)
	}
}

func TestMarkupTableWithOnlyHeaderRowsFails(t *testing.T) {
	text := `FORM 13F INFORMATION TABLE
<TABLE>
<TR><TD>NAME OF ISSUER</TD><TD>CUSIP</TD></TR>
<TR><TD>-----</TD><TD>-----</TD></TR>
</TABLE>
GRAND TOTAL`
	in := &Input{Filing: testFiling(), Text: staticText(text)}
	res := NewMarkupStrategy().Extract(context.Background(), in)
	if res.Outcome != Failed {
		t.Errorf("outcome = %v, want Failed when no data rows survive", res.Outcome)
	}
}
