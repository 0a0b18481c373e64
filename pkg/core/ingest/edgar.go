// Package ingest provides SEC EDGAR access for 13F filings: company
// resolution, submission indexes, raw submission retrieval with caching,
// and the amendment resolution that picks one authoritative filing per
// reporting period.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

const (
	// SEC EDGAR API endpoints
	SECSubmissionsURL   = "https://data.sec.gov/submissions/CIK%s.json"
	SECTickerMapURL     = "https://www.sec.gov/files/company_tickers.json"
	SECSubmissionTxtURL = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s.txt"

	// DefaultIdentity satisfies the SEC User-Agent requirement when the
	// caller supplies nothing; real runs should pass a contact identity.
	DefaultIdentity = "HoldingsPipeline/1.0 (contact@example.com)"

	// SEC fair-access guidance allows ~10 req/s; stay under it.
	DefaultRateLimit = 8

	maxFetchRetries = 5
	retryPause      = 500 * time.Millisecond
)

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// SECCompanyInfo represents the top-level company submission response.
type SECCompanyInfo struct {
	CIK        string     `json:"cik"`
	EntityType string     `json:"entityType"`
	Name       string     `json:"name"`
	Tickers    []string   `json:"tickers"`
	Filings    SECFilings `json:"filings"`
}

// SECFilings contains recent and older filing lists.
type SECFilings struct {
	Recent SECRecentFilings `json:"recent"`
}

// SECRecentFilings holds arrays of filing attributes (parallel arrays).
type SECRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"` // e.g., "0000950123-13-004518"
	FilingDate      []string `json:"filingDate"`      // e.g., "2013-05-15"
	ReportDate      []string `json:"reportDate"`      // period of report (quarter end for 13F)
	Form            []string `json:"form"`            // "13F-HR", "13F-HR/A", ...
	PrimaryDocument []string `json:"primaryDocument"` // infotable XML for modern filings
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// EDGARClient handles SEC EDGAR API requests. All requests share one rate
// limiter and retry policy; SEC rejects clients without a User-Agent
// identity, so every request carries one.
type EDGARClient struct {
	httpClient *http.Client
	identity   string
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

// NewEDGARClient creates a new SEC EDGAR API client. rps caps outbound
// requests per second; zero selects DefaultRateLimit.
func NewEDGARClient(identity string, rps float64, logger *zap.SugaredLogger) *EDGARClient {
	if identity == "" {
		identity = DefaultIdentity
	}
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EDGARClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		identity:   identity,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:     logger,
	}
}

// SetTimeout overrides the per-request timeout on API calls. Zero or
// negative keeps the default. Bulk downloads are unaffected.
func (c *EDGARClient) SetTimeout(seconds int) {
	if seconds > 0 {
		c.httpClient.Timeout = time.Duration(seconds) * time.Second
	}
}

// get performs a rate-limited GET with constant-backoff retries. 429
// responses honor Retry-After before counting as a retryable failure;
// 404s are permanent.
func (c *EDGARClient) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(err, "rate limiter")
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.identity)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if d := parseRetryAfter(resp.Header.Get("Retry-After")); d > 0 {
				time.Sleep(d)
			}
			return errs.Newf("SEC returned 429 for %s", url)
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(errs.Newf("SEC returned 404 for %s", url))
		case resp.StatusCode != http.StatusOK:
			return errs.Newf("SEC returned status %d for %s", resp.StatusCode, url)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	notify := func(err error, d time.Duration) {
		c.logger.Warnw("retrying SEC request", "url", url, "backoff", d, "error", err)
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(retryPause), maxFetchRetries)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, errs.Wrapf(err, "SEC request failed: %s", url)
	}
	return body, nil
}

// parseRetryAfter interprets a Retry-After header as either seconds or an
// HTTP date.
func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// DownloadFile streams url into path, honoring the shared rate limiter
// and identity header. Bulk dataset archives run to hundreds of
// megabytes, so the transfer bypasses the API client's overall timeout;
// cancellation comes from ctx.
func (c *EDGARClient) DownloadFile(ctx context.Context, url, path string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.identity)

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return errs.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.Newf("SEC returned status %d for %s", resp.StatusCode, url)
	}

	out, err := os.Create(path)
	if err != nil {
		return errs.Wrapf(err, "create %s", path)
	}
	written, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return errs.Wrapf(err, "download %s", url)
	}
	c.logger.Infow("downloaded file", "url", url, "path", path, "bytes", written)
	return nil
}

// FetchCompanyInfo retrieves company submission data from SEC EDGAR.
//
// CIK should be zero-padded to 10 digits; if not padded, this function
// pads it automatically.
func (c *EDGARClient) FetchCompanyInfo(ctx context.Context, cik string) (*SECCompanyInfo, error) {
	cik = PadCIK(cik)

	body, err := c.get(ctx, fmt.Sprintf(SECSubmissionsURL, cik))
	if err != nil {
		return nil, err
	}

	var info SECCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errs.Wrap(err, "failed to parse SEC submissions response")
	}

	return &info, nil
}

// ListFilings returns the company's 13F-HR and 13F-HR/A filings,
// denormalized from the submissions index's parallel arrays. Filings
// without a period of report are dropped.
func (c *EDGARClient) ListFilings(ctx context.Context, cik string) ([]models.Filing, error) {
	info, err := c.FetchCompanyInfo(ctx, cik)
	if err != nil {
		return nil, err
	}

	recent := info.Filings.Recent
	filings := make([]models.Filing, 0)

	for i := range recent.AccessionNumber {
		form := recent.Form[i]
		if form != models.Form13F && form != models.Form13FAmendment {
			continue
		}
		if recent.ReportDate[i] == "" {
			continue
		}
		filings = append(filings, models.Filing{
			CIK:             PadCIK(cik),
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      recent.FilingDate[i],
			FormType:        form,
			PeriodOfReport:  recent.ReportDate[i],
			CompanyName:     info.Name,
			PrimaryDocument: recent.PrimaryDocument[i],
		})
	}

	c.logger.Infow("listed 13F filings", "cik", PadCIK(cik), "company", info.Name, "count", len(filings))
	return filings, nil
}

// =============================================================================
// COMPANY RESOLUTION
// =============================================================================

// PadCIK zero-pads a CIK to the 10 digits the submissions API expects.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(strings.TrimSpace(cik), "0"))
}

// unpadCIK strips leading zeros for Archives URLs, which use the bare CIK.
func unpadCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// ResolveCompany turns a company argument (CIK, ticker, or company title)
// into a zero-padded CIK. All-digit input is treated as a CIK directly;
// otherwise the SEC ticker map is searched by ticker first, then by exact
// title, then by title substring.
func (c *EDGARClient) ResolveCompany(ctx context.Context, company string) (string, error) {
	arg := strings.TrimSpace(company)
	if arg == "" {
		return "", errs.NewConfigf("empty company argument")
	}
	if isAllDigits(arg) {
		return PadCIK(arg), nil
	}

	body, err := c.get(ctx, SECTickerMapURL)
	if err != nil {
		return "", errs.Wrap(err, "failed to fetch ticker mapping")
	}

	// Response structure: { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", errs.Wrap(err, "failed to parse ticker mapping")
	}

	upper := strings.ToUpper(arg)
	for _, entry := range mapping {
		if strings.ToUpper(entry.Ticker) == upper {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	for _, entry := range mapping {
		if strings.EqualFold(entry.Title, arg) {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	for _, entry := range mapping {
		if strings.Contains(strings.ToUpper(entry.Title), upper) {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}

	return "", errs.Newf("company %q not found in SEC ticker map (pass a CIK instead)", company)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
