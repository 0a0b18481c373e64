package extract

import (
	"strings"
	"testing"
)

func TestInfoTableBlockBounds(t *testing.T) {
	text := "COVER PAGE\nSIGNATURE\nForm 13F Information Table\nNAME OF ISSUER\nAPPLE\nGrand Total 999\nTRAILER"
	block := infoTableBlock(text)
	if !strings.HasPrefix(block, "Form 13F Information Table") {
		t.Errorf("block starts with %q", block[:min(len(block), 30)])
	}
	if !strings.HasSuffix(block, "Grand Total") {
		t.Errorf("block ends with %q, want the end marker kept inside", block[max(0, len(block)-20):])
	}
	if strings.Contains(block, "TRAILER") || strings.Contains(block, "COVER PAGE") {
		t.Error("block must exclude text outside the markers")
	}
}

func TestInfoTableBlockWithoutStartMarker(t *testing.T) {
	text := "NAME OF ISSUER   CUSIP   VALUE\nAPPLE  037833100  12345"
	if got := infoTableBlock(text); got != text {
		t.Errorf("block = %q, want whole text when start marker is absent", got)
	}
}

func TestInfoTableBlockWithoutEndMarker(t *testing.T) {
	text := "prologue\nFORM 13F INFORMATION TABLE\nrows follow"
	got := infoTableBlock(text)
	if !strings.HasPrefix(got, "FORM 13F INFORMATION TABLE") || !strings.HasSuffix(got, "rows follow") {
		t.Errorf("block = %q, want start marker through end of text", got)
	}
}

func TestIsSeparatorLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"--------", true},
		{"========", true},
		{"________", true},
		{"<<<<>>>>", true},
		{"-=-=-=-=", true},
		{"   ----   ", true},
		{"", true},
		{"   ", true},
		{"== ==", false}, // inner space is content
		{"--x--", false},
		{"APPLE COMPUTER", false},
		{"<TABLE>", false},
	}
	for _, tt := range tests {
		if got := isSeparatorLine(tt.line); got != tt.want {
			t.Errorf("isSeparatorLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestDropSeparatorLines(t *testing.T) {
	lines := []string{
		"HEADER",
		strings.Repeat("-", 40),
		"",
		"DATA ROW\r",
		strings.Repeat("=", 40),
	}
	got := dropSeparatorLines(lines)
	if len(got) != 2 {
		t.Fatalf("kept %d lines, want 2: %q", len(got), got)
	}
	if got[0] != "HEADER" || got[1] != "DATA ROW" {
		t.Errorf("kept = %q, want [HEADER, DATA ROW]", got)
	}
}

func TestXMLPayloads(t *testing.T) {
	text := "<SEC-HEADER>x</SEC-HEADER>\n<XML>\n<doc>one</doc>\n</XML>\nmiddle\n<XML>\n<doc>two</doc>\n</XML>\n"
	got := xmlPayloads(text)
	if len(got) != 2 {
		t.Fatalf("payloads = %d, want 2", len(got))
	}
	if got[0] != "<doc>one</doc>" || got[1] != "<doc>two</doc>" {
		t.Errorf("payloads = %q", got)
	}
}

func TestXMLPayloadsUnterminated(t *testing.T) {
	got := xmlPayloads("prefix <XML>\n<doc>tail</doc>")
	if len(got) != 1 || got[0] != "<doc>tail</doc>" {
		t.Errorf("payloads = %q, want the unterminated tail kept", got)
	}
}
