// Package normalize maps each extraction strategy's native column names
// onto the canonical holdings schema and coerces numeric fields.
package normalize

import (
	"strconv"
	"strings"

	"holdings_pipeline/pkg/core/extract"
	"holdings_pipeline/pkg/models"
)

// xbrlRenames maps structured-era field names onto the canonical schema.
// Applied to structured-object and sgml-xml tables.
var xbrlRenames = map[string]string{
	"nameOfIssuer":          "name",
	"titleOfClass":          "title",
	"cusip":                 "cusip",
	"value":                 "value_x1000",
	"sshPrnamt":             "shares",
	"sshPrnamtType":         "share_unit",
	"putCall":               "put_call",
	"investmentDiscretion":  "discretion",
	"otherManager":          "other_managers",
	"votingAuthoritySole":   "voting_sole",
	"votingAuthorityShared": "voting_shared",
	"votingAuthorityNone":   "voting_none",
}

// legacyRenames maps text-era span names onto the canonical schema.
// Applied to embedded-markup and fixed-width tables.
var legacyRenames = map[string]string{
	"name":     "name",
	"title":    "title",
	"cusip":    "cusip",
	"value":    "value_x1000",
	"shares":   "shares",
	"sh_prn":   "share_unit",
	"putcall":  "put_call",
	"discr":    "discretion",
	"mgrs":     "other_managers",
	"v_sole":   "voting_sole",
	"v_shared": "voting_shared",
	"v_none":   "voting_none",
}

func renamesFor(strategy string) map[string]string {
	switch strategy {
	case extract.StrategyStructured, extract.StrategySGMLXML:
		return xbrlRenames
	default:
		return legacyRenames
	}
}

// Table converts one raw strategy table into the canonical holdings
// table for its filing. Every holding gets the filing's reporting period
// prepended; columns without a canonical mapping land in Extra
// untouched. Fixed-width rows whose voting fields all failed coercion
// are flagged low-confidence.
func Table(filing models.Filing, raw *models.RawTable) *models.HoldingsTable {
	renames := renamesFor(raw.Strategy)
	holdings := make([]models.Holding, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		h := models.Holding{PeriodOfReport: filing.PeriodOfReport}
		for i, col := range raw.Columns {
			if i >= len(row) {
				break
			}
			canonical, ok := renames[col]
			if !ok {
				canonical = col
			}
			assign(&h, canonical, row[i])
		}
		if raw.Strategy == extract.StrategyFixedWidth &&
			h.VotingSole == nil && h.VotingShared == nil && h.VotingNone == nil {
			h.LowConfidence = true
		}
		holdings = append(holdings, h)
	}
	return &models.HoldingsTable{
		Filing:   filing,
		Strategy: raw.Strategy,
		Columns:  models.CanonicalColumns(),
		Holdings: holdings,
	}
}

// assign routes one cell into its canonical field. Unrecognized columns
// go to Extra; empty unrecognized cells are not recorded.
func assign(h *models.Holding, canonical, value string) {
	value = strings.TrimSpace(value)
	switch canonical {
	case "name":
		h.Name = value
	case "title":
		h.Title = value
	case "cusip":
		h.CUSIP = value
	case "value_x1000":
		h.ValueX1000 = CoerceInt64(value)
	case "shares":
		h.Shares = CoerceInt64(value)
	case "share_unit":
		h.ShareUnit = value
	case "put_call":
		h.PutCall = value
	case "discretion":
		h.Discretion = value
	case "other_managers":
		h.OtherManagers = value
	case "voting_sole":
		h.VotingSole = CoerceInt64(value)
	case "voting_shared":
		h.VotingShared = CoerceInt64(value)
	case "voting_none":
		h.VotingNone = CoerceInt64(value)
	default:
		if value == "" {
			return
		}
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[canonical] = value
	}
}

// CoerceInt64 parses a count or value field, dropping thousands
// separators. Unparseable input yields nil; this field never aborts a
// row.
func CoerceInt64(s string) *int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
