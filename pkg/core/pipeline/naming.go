package pipeline

import (
	"fmt"
	"strings"
	"time"

	"holdings_pipeline/pkg/core/period"
)

// maxCompanyToken caps the registrant token used in per-period filenames.
const maxCompanyToken = 15

// CleanCompanyToken compresses a registrant name for filenames: spaces
// and ampersands dropped, lowercased, truncated to maxCompanyToken.
func CleanCompanyToken(name string) string {
	t := strings.ReplaceAll(name, " ", "")
	t = strings.ReplaceAll(t, "&", "")
	t = strings.ToLower(t)
	if len(t) > maxCompanyToken {
		t = t[:maxCompanyToken]
	}
	return t
}

// SafeToken keeps user-supplied company strings to a single path
// element.
func SafeToken(s string) string { return strings.ReplaceAll(s, "/", "-") }

// QuarterTag renders a period end date as Q{n}{year}, e.g. "2013-03-31"
// becomes "Q12013". Unparseable input yields "".
func QuarterTag(periodEnd string) string {
	tm, err := time.Parse(period.DateLayout, periodEnd)
	if err != nil {
		return ""
	}
	q := (int(tm.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d%d", q, tm.Year())
}

// PeriodFileName is the per-period CSV name,
// {company}_{Qnyyyy}_{yyyymmdd}.csv.
func PeriodFileName(companyName, periodEnd string) string {
	datePart := strings.ReplaceAll(periodEnd, "-", "")
	tag := QuarterTag(periodEnd)
	if tag == "" {
		return fmt.Sprintf("%s_%s.csv", CleanCompanyToken(companyName), datePart)
	}
	return fmt.Sprintf("%s_%s_%s.csv", CleanCompanyToken(companyName), tag, datePart)
}

// FailedFileName is the raw-submission dump name for a failed period.
func FailedFileName(company, periodEnd string) string {
	return SafeToken(fmt.Sprintf("%s_%s.txt", company, periodEnd))
}

// YearFileName is the per-year combined CSV name.
func YearFileName(company, year string) string {
	return SafeToken(fmt.Sprintf("%s_%s.csv", company, year))
}

// MasterFileName is the all-periods combined CSV name.
func MasterFileName(company string) string {
	return SafeToken(fmt.Sprintf("%s_MASTER.csv", company))
}

// ReportFileName is the run report name.
func ReportFileName(company string) string {
	return SafeToken(fmt.Sprintf("%s_REPORT.txt", company))
}
