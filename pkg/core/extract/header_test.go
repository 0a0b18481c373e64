package extract

import (
	"testing"

	"holdings_pipeline/pkg/core/errs"
)

func TestLocateHeaderOffsets(t *testing.T) {
	header := buildLine([]placed{
		{0, "NAME OF ISSUER"}, {20, "TITLE OF CLASS"}, {36, "CUSIP"}, {47, "VALUE"},
		{55, "SHRS OR PRN AMT"}, {72, "SH/ PRN"}, {81, "PUT/CALL"}, {91, "INVESTMENT DISCRETION"},
		{114, "OTHER MANAGERS"},
	})
	lines := []string{"FORM 13F INFORMATION TABLE", header, ""}

	layout, err := LocateHeader(lines, 0)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	if layout.HeaderIdx != 1 {
		t.Errorf("header index = %d, want 1", layout.HeaderIdx)
	}
	want := map[string]int{
		"name": 0, "title": 20, "cusip": 36, "value": 47, "shares": 55,
		"sh_prn": 72, "putcall": 81, "discr": 91, "mgrs": 114,
	}
	for field, off := range want {
		got, ok := layout.Offsets[field]
		if !ok {
			t.Errorf("field %q not recognized", field)
			continue
		}
		if got != off {
			t.Errorf("offset[%q] = %d, want %d", field, got, off)
		}
	}
	if _, ok := layout.Offsets["v_sole"]; ok {
		t.Error("voting offsets recorded without a VOTING AUTHORITY banner")
	}
}

func TestLocateHeaderVotingOnSecondLine(t *testing.T) {
	header := buildLine([]placed{
		{0, "NAME OF ISSUER"}, {20, "CUSIP"}, {30, "VALUE"},
	})
	sub := buildLine([]placed{
		{40, "VOTING AUTHORITY"}, {58, "SOLE"}, {66, "SHARED"}, {75, "NONE"},
	})
	lines := []string{header, sub, "data"}

	layout, err := LocateHeader(lines, 0)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	checks := map[string]int{"v_sole": 58, "v_shared": 66, "v_none": 75}
	for field, off := range checks {
		if layout.Offsets[field] != off {
			t.Errorf("offset[%q] = %d, want %d", field, layout.Offsets[field], off)
		}
		if layout.Inferred[field] {
			t.Errorf("field %q marked inferred despite keyword present", field)
		}
	}
}

func TestLocateHeaderInfersMissingVotingOffsets(t *testing.T) {
	header := buildLine([]placed{
		{0, "NAME OF ISSUER"}, {20, "CUSIP"}, {30, "VALUE"}, {40, "VOTING AUTHORITY"},
	})
	sub := buildLine([]placed{{44, "SOLE"}})
	lines := []string{header, sub}

	layout, err := LocateHeader(lines, 0)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	if got := layout.Offsets["v_sole"]; got != 44 {
		t.Errorf("v_sole = %d, want 44", got)
	}
	if got := layout.Offsets["v_shared"]; got != 44+DefaultOffsetMargin {
		t.Errorf("v_shared = %d, want %d", got, 44+DefaultOffsetMargin)
	}
	if got := layout.Offsets["v_none"]; got != 44+2*DefaultOffsetMargin {
		t.Errorf("v_none = %d, want %d", got, 44+2*DefaultOffsetMargin)
	}
	if layout.Inferred["v_sole"] {
		t.Error("v_sole marked inferred despite keyword present")
	}
	if !layout.Inferred["v_shared"] || !layout.Inferred["v_none"] {
		t.Error("margin-derived offsets must be marked inferred")
	}
}

func TestLocateHeaderCustomMargin(t *testing.T) {
	header := buildLine([]placed{
		{0, "NAME OF ISSUER"}, {20, "CUSIP"}, {30, "VALUE"}, {40, "VOTING AUTHORITY"},
	})
	sub := buildLine([]placed{{44, "SOLE"}})

	layout, err := LocateHeader([]string{header, sub}, 6)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	if got := layout.Offsets["v_shared"]; got != 50 {
		t.Errorf("v_shared = %d, want 50", got)
	}
	if got := layout.Offsets["v_none"]; got != 56 {
		t.Errorf("v_none = %d, want 56", got)
	}
}

func TestLocateHeaderMissing(t *testing.T) {
	lines := []string{
		"COVER PAGE",
		"INSTITUTIONAL INVESTMENT MANAGER FILING",
		"REPORT FOR QUARTER ENDED 03/31/1999",
	}
	_, err := LocateHeader(lines, 0)
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	if !errs.IsHeaderNotFound(err) {
		t.Errorf("IsHeaderNotFound(%v) = false", err)
	}
}

func TestLocateHeaderShortSharesKeyword(t *testing.T) {
	header := buildLine([]placed{
		{0, "NAME OF ISSUER"}, {20, "CUSIP"}, {30, "VALUE"}, {40, "SHRS OR"},
	})
	layout, err := LocateHeader([]string{header, ""}, 0)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	if got := layout.Offsets["shares"]; got != 40 {
		t.Errorf("shares = %d, want 40", got)
	}
}

func TestSpansBoundedByNextOffset(t *testing.T) {
	layout := &HeaderLayout{
		Offsets: map[string]int{"name": 0, "cusip": 20, "value": 30},
	}
	spans := layout.Spans()
	want := []Span{
		{Field: "name", Start: 0, End: 20},
		{Field: "cusip", Start: 20, End: 30},
		{Field: "value", Start: 30, End: -1},
	}
	if len(spans) != len(want) {
		t.Fatalf("spans = %v, want %v", spans, want)
	}
	for i, w := range want {
		if spans[i] != w {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], w)
		}
	}
}
