package period

import (
	"testing"

	"holdings_pipeline/pkg/core/errs"
)

func TestQuarterEnd(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{"Q1 maps to March 31", "2013Q1", "2013-03-31", false},
		{"Q2 maps to June 30", "2013Q2", "2013-06-30", false},
		{"Q3 maps to September 30", "2013Q3", "2013-09-30", false},
		{"Q4 maps to December 31", "2013Q4", "2013-12-31", false},
		{"lowercase accepted", "2023q3", "2023-09-30", false},
		{"surrounding whitespace accepted", " 2021Q2 ", "2021-06-30", false},
		{"quarter five rejected", "2013Q5", "", true},
		{"two-digit year rejected", "13Q1", "", true},
		{"dashed token rejected", "2013-Q1", "", true},
		{"non-digit year rejected", "abcdQ1", "", true},
		{"empty token rejected", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuarterEnd(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("QuarterEnd(%q) = %q, want error", tt.token, got)
				}
				if !errs.IsConfigError(err) {
					t.Errorf("QuarterEnd(%q) error is not a ConfigError: %v", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("QuarterEnd(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("QuarterEnd(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestFilterAllow(t *testing.T) {
	tests := []struct {
		name     string
		years    []string
		quarters []string
		from     string
		to       string
		period   string
		want     bool
	}{
		{"year match", []string{"2013"}, nil, "", "", "2013-03-31", true},
		{"year mismatch", []string{"2014"}, nil, "", "", "2013-03-31", false},
		{"quarter match", nil, []string{"2013Q1"}, "", "", "2013-03-31", true},
		{"quarter mismatch", nil, []string{"2013Q2"}, "", "", "2013-03-31", false},
		{"range inclusive lower bound", nil, nil, "2013-03-31", "", "2013-03-31", true},
		{"range inclusive upper bound", nil, nil, "", "2013-03-31", "2013-03-31", true},
		{"before range", nil, nil, "2013-04-01", "", "2013-03-31", false},
		{"after range", nil, nil, "", "2013-03-30", "2013-03-31", false},
		{"AND across year and quarter", []string{"2013"}, []string{"2014Q1"}, "", "", "2013-03-31", false},
		{"AND across all three", []string{"2013"}, []string{"2013Q1"}, "2013-01-01", "2013-12-31", "2013-03-31", true},
		{"empty period rejected", []string{"2013"}, nil, "", "", "", false},
		{"unparseable period fails range check", nil, nil, "2013-01-01", "", "garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.years, tt.quarters, tt.from, tt.to)
			if err != nil {
				t.Fatalf("NewFilter: %v", err)
			}
			if got := f.Allow(tt.period); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.period, got, tt.want)
			}
		})
	}
}

func TestNewFilterValidation(t *testing.T) {
	if _, err := NewFilter(nil, []string{"2013Q9"}, "", ""); !errs.IsConfigError(err) {
		t.Errorf("bad quarter token: got %v, want ConfigError", err)
	}
	if _, err := NewFilter(nil, nil, "03/31/2013", ""); !errs.IsConfigError(err) {
		t.Errorf("bad from date: got %v, want ConfigError", err)
	}
	if _, err := NewFilter(nil, nil, "", "2013-31-03"); !errs.IsConfigError(err) {
		t.Errorf("bad to date: got %v, want ConfigError", err)
	}

	f, err := NewFilter(nil, nil, "", "")
	if err != nil {
		t.Fatalf("empty filter construction: %v", err)
	}
	if !f.Empty() {
		t.Error("filter with no inputs must report Empty")
	}
}
