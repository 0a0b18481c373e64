package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"holdings_pipeline/pkg/core/errs"
)

const bannerWidth = 80

// PeriodSuccess records one period that produced a holdings file.
type PeriodSuccess struct {
	Period        string
	Holdings      int
	LowConfidence int
	Strategy      string
	File          string // per-period CSV name relative to the output dir
}

// PeriodFailure records one period whose extraction was exhausted.
type PeriodFailure struct {
	Period  string
	Reason  string
	RawFile string // raw submission kept for inspection, "" if none
}

// RunReport summarizes one pipeline run for a company.
type RunReport struct {
	Company   string
	Succeeded []PeriodSuccess
	Failed    []PeriodFailure
}

// Render produces the report text: banner header, counts, then the
// successful and failed period sections sorted by period.
func (r *RunReport) Render() string {
	banner := strings.Repeat("=", bannerWidth)
	rule := strings.Repeat("-", bannerWidth)

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(banner)
	line("13F FILINGS PROCESSING REPORT")
	line(banner)
	line("")
	line("Company: %s", r.Company)
	line("Total periods processed: %d", len(r.Succeeded)+len(r.Failed))
	line("Successful: %d quarterly filings", len(r.Succeeded))
	line("Failed: %d quarterly filings", len(r.Failed))
	line("")

	if len(r.Succeeded) > 0 {
		line("SUCCESSFUL PERIODS:")
		line(rule)
		succeeded := append([]PeriodSuccess(nil), r.Succeeded...)
		sort.Slice(succeeded, func(i, j int) bool { return succeeded[i].Period < succeeded[j].Period })
		for _, s := range succeeded {
			switch {
			case s.LowConfidence > 0:
				line("  [OK] %s (%d holdings, %d low-confidence, via %s)", s.Period, s.Holdings, s.LowConfidence, s.Strategy)
			case s.Strategy != "":
				line("  [OK] %s (%d holdings, via %s)", s.Period, s.Holdings, s.Strategy)
			default:
				line("  [OK] %s (%d holdings)", s.Period, s.Holdings)
			}
			if s.File != "" {
				line("       Saved to: %s", s.File)
			}
		}
		line("")
	}

	if len(r.Failed) > 0 {
		line("FAILED PERIODS:")
		line(rule)
		failed := append([]PeriodFailure(nil), r.Failed...)
		sort.Slice(failed, func(i, j int) bool { return failed[i].Period < failed[j].Period })
		for _, f := range failed {
			line("  [FAIL] %s: %s", f.Period, f.Reason)
			if f.RawFile != "" {
				line("         Saved to: %s", f.RawFile)
			}
		}
		line("")
	}

	line(banner)
	return b.String()
}

// ValidateMarkdown reports whether goldmark can parse the text. Goldmark
// is permissive, so this catches only gross corruption.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	doc := parser.Parse(text.NewReader([]byte(input)))
	return doc != nil
}

// Write renders the report, checks it is still renderable, and writes it
// to path.
func (r *RunReport) Write(path string) error {
	rendered := r.Render()
	if !ValidateMarkdown(rendered) {
		return errs.New("report failed markdown validation")
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return errs.Wrapf(err, "write report %s", path)
	}
	return nil
}
