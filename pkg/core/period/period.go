// Package period maps quarter tokens onto canonical reporting-period end
// dates and builds the period selection predicate for a run.
package period

import (
	"strings"
	"time"

	"holdings_pipeline/pkg/core/errs"
)

// DateLayout is the canonical date form used for periods and range bounds.
const DateLayout = "2006-01-02"

// Calendar-quarter end dates, keyed by quarter digit.
var quarterEnds = map[byte]string{
	'1': "03-31",
	'2': "06-30",
	'3': "09-30",
	'4': "12-31",
}

// QuarterEnd converts a YYYYQn token to its quarter-end date, e.g.
// "2013Q1" -> "2013-03-31". Tokens are trimmed and uppercased first; any
// other deviation (length, non-digit year, quarter outside 1-4) fails with
// a ConfigError naming the token.
func QuarterEnd(token string) (string, error) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	if len(tok) != 6 || tok[4] != 'Q' {
		return "", errs.NewConfigf("invalid quarter token %q: use YYYYQn (e.g., 2013Q1)", token)
	}
	for i := 0; i < 4; i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return "", errs.NewConfigf("invalid quarter token %q: use YYYYQn (e.g., 2013Q1)", token)
		}
	}
	end, ok := quarterEnds[tok[5]]
	if !ok {
		return "", errs.NewConfigf("invalid quarter token %q: use YYYYQn (e.g., 2013Q1)", token)
	}
	return tok[:4] + "-" + end, nil
}

// Filter decides whether a filing's period of report is wanted. A period
// passes only when it satisfies every filter kind that was supplied
// (logical AND). An empty filter passes nothing by itself; callers must
// reject the no-filter case up front with a usage error.
type Filter struct {
	years    map[string]bool
	quarters map[string]bool // quarter-end dates, already canonical
	from     *time.Time
	to       *time.Time
}

// NewFilter builds a Filter from raw CLI inputs. Quarter tokens are
// validated through QuarterEnd; from/to must be YYYY-MM-DD when present.
func NewFilter(years, quarterTokens []string, from, to string) (*Filter, error) {
	f := &Filter{}

	if len(years) > 0 {
		f.years = make(map[string]bool, len(years))
		for _, y := range years {
			f.years[strings.TrimSpace(y)] = true
		}
	}

	if len(quarterTokens) > 0 {
		f.quarters = make(map[string]bool, len(quarterTokens))
		for _, q := range quarterTokens {
			end, err := QuarterEnd(q)
			if err != nil {
				return nil, err
			}
			f.quarters[end] = true
		}
	}

	if from != "" {
		d, err := time.Parse(DateLayout, from)
		if err != nil {
			return nil, errs.NewConfigf("invalid --from date %q: use YYYY-MM-DD", from)
		}
		f.from = &d
	}
	if to != "" {
		d, err := time.Parse(DateLayout, to)
		if err != nil {
			return nil, errs.NewConfigf("invalid --to date %q: use YYYY-MM-DD", to)
		}
		f.to = &d
	}

	return f, nil
}

// Empty reports whether no filter kind was supplied at all.
func (f *Filter) Empty() bool {
	return len(f.years) == 0 && len(f.quarters) == 0 && f.from == nil && f.to == nil
}

// Allow reports whether the period end-date satisfies every supplied
// filter. Unparseable periods fail the date-range check rather than
// aborting the run.
func (f *Filter) Allow(periodEnd string) bool {
	if periodEnd == "" {
		return false
	}
	if len(f.years) > 0 {
		if len(periodEnd) < 4 || !f.years[periodEnd[:4]] {
			return false
		}
	}
	if len(f.quarters) > 0 && !f.quarters[periodEnd] {
		return false
	}
	if f.from != nil || f.to != nil {
		p, err := time.Parse(DateLayout, periodEnd)
		if err != nil {
			return false
		}
		if f.from != nil && p.Before(*f.from) {
			return false
		}
		if f.to != nil && p.After(*f.to) {
			return false
		}
	}
	return true
}
