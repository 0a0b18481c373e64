// Amendment resolution: one authoritative filing per reporting period.
package ingest

import (
	"sort"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/core/period"
	"holdings_pipeline/pkg/models"
)

// BucketByPeriod groups filings by period of report, keeping only the
// periods the filter allows. Filings without a period are dropped.
func BucketByPeriod(filings []models.Filing, filter *period.Filter) map[string][]models.Filing {
	buckets := make(map[string][]models.Filing)
	for _, f := range filings {
		if f.PeriodOfReport == "" {
			continue
		}
		if !filter.Allow(f.PeriodOfReport) {
			continue
		}
		buckets[f.PeriodOfReport] = append(buckets[f.PeriodOfReport], f)
	}
	return buckets
}

// SortedPeriods returns the bucket keys in ascending order, fixing the
// processing sequence for a run.
func SortedPeriods(buckets map[string][]models.Filing) []string {
	periods := make([]string, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return periods
}

// ResolveAuthoritative picks the single authoritative filing among all
// filings sharing one period. Filings are sorted ascending by
// (filingDate, accessionNumber), stable with lexicographic accession as
// tiebreak; then the last amendment wins, else the last base filing,
// else the last filing of any type. Amendments supersede originals;
// among same-kind filings the most recently filed is authoritative.
func ResolveAuthoritative(filings []models.Filing) (models.Filing, error) {
	if len(filings) == 0 {
		return models.Filing{}, errs.New("no filings for period")
	}

	sorted := make([]models.Filing, len(filings))
	copy(sorted, filings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FilingDate != sorted[j].FilingDate {
			return sorted[i].FilingDate < sorted[j].FilingDate
		}
		return sorted[i].AccessionNumber < sorted[j].AccessionNumber
	})

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].IsAmendment() {
			return sorted[i], nil
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].FormType == models.Form13F {
			return sorted[i], nil
		}
	}
	return sorted[len(sorted)-1], nil
}
