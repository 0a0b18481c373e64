package datasets

import (
	"sort"
	"strings"

	"holdings_pipeline/pkg/core/errs"
)

// BaseURL is the SEC structured-data home for quarterly 13F data sets.
const BaseURL = "https://www.sec.gov/files/structureddata/data/form-13f-data-sets/"

// quarterZips maps quarter tokens to dataset ZIP names. SEC naming is
// irregular: recent quarters use a filing-window month range, older ones
// a compact quarter name, and some quarters were never published.
var quarterZips = map[string]string{
	"2025_Q2": "01jun2025-31aug2025_form13f.zip",
	"2025_Q1": "01mar2025-31may2025_form13f.zip",
	"2024_Q3": "01sep2024-30nov2024_form13f.zip",
	"2024_Q2": "01jun2024-31aug2024_form13f.zip",
	"2024_Q1": "01jan2024-29feb2024_form13f.zip",
	"2023_Q4": "2023q4_form13f.zip",
	"2023_Q3": "2023q3_form13f.zip",
	"2023_Q1": "2023q1_form13f.zip",
}

// NormalizeQuarter canonicalizes a dataset quarter token to YYYY_Qn,
// accepting "2025Q2", "2025-q2", and "2025_Q2" alike. Unrecognized
// shapes pass through uppercased so lookups fail loudly on the original
// token.
func NormalizeQuarter(token string) string {
	t := strings.ToUpper(strings.TrimSpace(token))
	t = strings.ReplaceAll(t, "-", "_")
	if len(t) == 6 && t[4] == 'Q' {
		t = t[:4] + "_" + t[4:]
	}
	return t
}

// Quarters lists every known dataset quarter, newest first.
func Quarters() []string {
	out := make([]string, 0, len(quarterZips))
	for q := range quarterZips {
		out = append(out, q)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// ZipName resolves a quarter token to its dataset ZIP name.
func ZipName(quarter string) (string, bool) {
	name, ok := quarterZips[NormalizeQuarter(quarter)]
	return name, ok
}

// ZipURL resolves a quarter token to its full download URL. Unknown
// quarters are a ConfigError: the registry is the source of truth for
// what SEC has published.
func ZipURL(quarter string) (string, error) {
	name, ok := ZipName(quarter)
	if !ok {
		return "", errs.NewConfigf("unknown dataset quarter %q: known quarters are %s",
			quarter, strings.Join(Quarters(), ", "))
	}
	return BaseURL + name, nil
}
