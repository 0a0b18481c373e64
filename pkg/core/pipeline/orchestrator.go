// Package pipeline coordinates a full holdings-extraction run: resolve
// the company, enumerate its 13F filings, pick the authoritative filing
// per quarter, run the extraction chain, normalize, and write outputs.
//
// A single period failing never aborts the run. The failure is recorded
// in the run report, the raw submission is saved for inspection, and
// the loop moves on to the next quarter.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/core/extract"
	"holdings_pipeline/pkg/core/ingest"
	"holdings_pipeline/pkg/core/normalize"
	"holdings_pipeline/pkg/core/output"
	"holdings_pipeline/pkg/core/period"
	"holdings_pipeline/pkg/models"
)

// FilingLister resolves a company reference to a CIK and enumerates its
// 13F filings. *ingest.EDGARClient satisfies it.
type FilingLister interface {
	ResolveCompany(ctx context.Context, company string) (string, error)
	ListFilings(ctx context.Context, cik string) ([]models.Filing, error)
}

// TextFetcher supplies the full submission text for a filing.
// *ingest.SubmissionFetcher satisfies it.
type TextFetcher interface {
	FetchText(ctx context.Context, cik, accession string) (string, error)
}

// Sink receives extraction results as they are produced. Implementations
// must tolerate repeated runs over the same filings.
type Sink interface {
	SaveTable(ctx context.Context, runID string, table *models.HoldingsTable) error
	FinishRun(ctx context.Context, summary RunSummary) error
}

// Options control a single run.
type Options struct {
	// Company is the user-supplied company reference: a CIK, a ticker,
	// or a registrant name fragment.
	Company string

	// OutDir receives every artifact the run produces.
	OutDir string

	// PerYearCombined additionally writes one combined CSV per calendar
	// year.
	PerYearCombined bool

	// MasterCombined additionally writes one combined CSV covering
	// every successful period.
	MasterCombined bool

	// MasterParquet mirrors the master CSV as a Parquet file. Only
	// meaningful together with MasterCombined.
	MasterParquet bool

	// OffsetMargin overrides the fallback column spacing used when a
	// fixed-width header omits voting sub-labels. Zero keeps the
	// default.
	OffsetMargin int
}

// RunSummary is the sink-facing digest of a finished run.
type RunSummary struct {
	RunID     string
	Company   string
	CIK       string
	Periods   int
	Succeeded int
	Failed    int
}

// RunResult is what Run hands back to the caller.
type RunResult struct {
	RunSummary

	Report     *output.RunReport
	ReportPath string
	OutputDir  string
}

// Orchestrator wires the ingestion, extraction, and output stages
// together and owns the per-period loop.
type Orchestrator struct {
	lister  FilingLister
	fetcher TextFetcher
	chain   *extract.Chain
	sink    Sink
	logger  *zap.SugaredLogger
	opts    Options
}

// NewOrchestrator builds an orchestrator. A nil chain gets the default
// strategy order; a nil logger is replaced with a no-op logger.
func NewOrchestrator(lister FilingLister, fetcher TextFetcher, chain *extract.Chain, logger *zap.SugaredLogger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if chain == nil {
		chain = extract.NewDefaultChain(logger, opts.OffsetMargin)
	}
	if opts.OutDir == "" {
		opts.OutDir = "13f_outputs"
	}
	return &Orchestrator{
		lister:  lister,
		fetcher: fetcher,
		chain:   chain,
		logger:  logger,
		opts:    opts,
	}
}

// SetSink injects an optional persistence sink (database repository).
func (o *Orchestrator) SetSink(sink Sink) {
	o.sink = sink
}

// Run executes the pipeline for the configured company over the periods
// the filter admits.
func (o *Orchestrator) Run(ctx context.Context, filter *period.Filter) (*RunResult, error) {
	if filter == nil || filter.Empty() {
		return nil, errs.NewConfigf("provide at least one filter: --years, --quarters, or --from/--to")
	}

	cik, err := o.lister.ResolveCompany(ctx, o.opts.Company)
	if err != nil {
		return nil, err
	}
	filings, err := o.lister.ListFilings(ctx, cik)
	if err != nil {
		return nil, err
	}

	buckets := ingest.BucketByPeriod(filings, filter)
	periods := ingest.SortedPeriods(buckets)

	result := &RunResult{
		RunSummary: RunSummary{
			RunID:   uuid.NewString(),
			Company: o.opts.Company,
			CIK:     cik,
			Periods: len(periods),
		},
		Report:    &output.RunReport{Company: o.opts.Company},
		OutputDir: o.opts.OutDir,
	}

	if len(periods) == 0 {
		o.logger.Warnw("no filings matched the given filters",
			"company", o.opts.Company, "cik", cik, "total_filings", len(filings))
		return result, nil
	}

	if err := os.MkdirAll(o.opts.OutDir, 0o755); err != nil {
		return nil, errs.Wrapf(err, "create output directory %s", o.opts.OutDir)
	}

	o.logger.Infow("starting extraction run",
		"run_id", result.RunID, "company", o.opts.Company, "cik", cik, "periods", len(periods))

	var master []models.Holding
	perYear := make(map[string][]models.Holding)

	for _, p := range periods {
		filing, err := ingest.ResolveAuthoritative(buckets[p])
		if err != nil {
			o.recordFailure(ctx, result, p, filing, err)
			continue
		}

		table, err := o.extractPeriod(ctx, filing)
		var fileName string
		if err == nil {
			fileName, err = o.writePeriodCSV(table)
		}
		if err != nil {
			o.recordFailure(ctx, result, p, filing, err)
			continue
		}

		low := countLowConfidence(table.Holdings)
		result.Succeeded++
		result.Report.Succeeded = append(result.Report.Succeeded, output.PeriodSuccess{
			Period:        p,
			Holdings:      len(table.Holdings),
			LowConfidence: low,
			Strategy:      table.Strategy,
			File:          fileName,
		})
		o.logger.Infow("period extracted",
			"period", p, "strategy", table.Strategy, "holdings", len(table.Holdings), "low_confidence", low)

		master = append(master, table.Holdings...)
		if o.opts.PerYearCombined && len(p) >= 4 {
			perYear[p[:4]] = append(perYear[p[:4]], table.Holdings...)
		}

		if o.sink != nil {
			if err := o.sink.SaveTable(ctx, result.RunID, table); err != nil {
				o.logger.Warnw("sink rejected table", "period", p, "error", err)
			}
		}
	}

	if err := o.writeCombined(master, perYear); err != nil {
		return nil, err
	}

	reportPath := filepath.Join(o.opts.OutDir, ReportFileName(o.opts.Company))
	if err := result.Report.Write(reportPath); err != nil {
		o.logger.Warnw("report not written", "path", reportPath, "error", err)
	} else {
		result.ReportPath = reportPath
	}

	if o.sink != nil {
		if err := o.sink.FinishRun(ctx, result.RunSummary); err != nil {
			o.logger.Warnw("sink rejected run summary", "run_id", result.RunID, "error", err)
		}
	}

	o.logger.Infow("run finished",
		"run_id", result.RunID, "succeeded", result.Succeeded, "failed", result.Failed, "report", reportPath)
	return result, nil
}

// extractPeriod runs the strategy chain for one filing and normalizes
// the winning table.
func (o *Orchestrator) extractPeriod(ctx context.Context, filing models.Filing) (*models.HoldingsTable, error) {
	in := &extract.Input{
		Filing: filing,
		Text: func(ctx context.Context) (string, error) {
			return o.fetcher.FetchText(ctx, filing.CIK, filing.AccessionNumber)
		},
	}
	raw, err := o.chain.Extract(ctx, in)
	if err != nil {
		return nil, err
	}
	return normalize.Table(filing, raw), nil
}

// writePeriodCSV writes one period's holdings and returns the file name
// relative to the output directory.
func (o *Orchestrator) writePeriodCSV(table *models.HoldingsTable) (string, error) {
	name := PeriodFileName(displayName(table.Filing, o.opts.Company), table.Filing.PeriodOfReport)
	if err := output.WriteCSV(filepath.Join(o.opts.OutDir, name), table.Holdings); err != nil {
		return "", err
	}
	return name, nil
}

// recordFailure books a failed period into the report and saves the raw
// submission text for offline inspection.
func (o *Orchestrator) recordFailure(ctx context.Context, result *RunResult, p string, filing models.Filing, cause error) {
	o.logger.Warnw("period failed", "period", p, "accession", filing.AccessionNumber, "error", cause)

	result.Failed++
	failure := output.PeriodFailure{Period: p, Reason: cause.Error()}
	if raw := o.persistRawSubmission(ctx, filing, p); raw != "" {
		failure.RawFile = raw
	}
	result.Report.Failed = append(result.Report.Failed, failure)
}

// persistRawSubmission dumps the submission text under failed/ and
// returns the saved path relative to the output directory, or "" when
// nothing could be saved.
func (o *Orchestrator) persistRawSubmission(ctx context.Context, filing models.Filing, p string) string {
	if filing.AccessionNumber == "" {
		return ""
	}
	text, err := o.fetcher.FetchText(ctx, filing.CIK, filing.AccessionNumber)
	if err != nil {
		o.logger.Warnw("could not fetch raw submission for failed period", "period", p, "error", err)
		return ""
	}

	dir := filepath.Join(o.opts.OutDir, "failed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		o.logger.Warnw("could not create failed directory", "error", err)
		return ""
	}
	name := FailedFileName(o.opts.Company, p)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		o.logger.Warnw("could not save raw submission", "period", p, "error", err)
		return ""
	}
	return filepath.ToSlash(filepath.Join("failed", name))
}

// writeCombined emits the optional per-year and master artifacts.
func (o *Orchestrator) writeCombined(master []models.Holding, perYear map[string][]models.Holding) error {
	if o.opts.PerYearCombined {
		for year, holdings := range perYear {
			path := filepath.Join(o.opts.OutDir, YearFileName(o.opts.Company, year))
			if err := output.WriteCSV(path, holdings); err != nil {
				return err
			}
			o.logger.Infow("wrote per-year combined CSV", "year", year, "holdings", len(holdings))
		}
	}

	if o.opts.MasterCombined && len(master) > 0 {
		csvPath := filepath.Join(o.opts.OutDir, MasterFileName(o.opts.Company))
		if err := output.WriteCSV(csvPath, master); err != nil {
			return err
		}
		o.logger.Infow("wrote master CSV", "holdings", len(master), "path", csvPath)

		if o.opts.MasterParquet {
			parquetPath := csvPath[:len(csvPath)-len(".csv")] + ".parquet"
			if err := output.WriteParquet(parquetPath, master); err != nil {
				return err
			}
			o.logger.Infow("wrote master Parquet", "holdings", len(master), "path", parquetPath)
		}
	}
	return nil
}

// displayName prefers the registrant name EDGAR reports over the
// user-supplied company string.
func displayName(filing models.Filing, fallback string) string {
	if filing.CompanyName != "" {
		return filing.CompanyName
	}
	return fallback
}

func countLowConfidence(holdings []models.Holding) int {
	n := 0
	for i := range holdings {
		if holdings[i].LowConfidence {
			n++
		}
	}
	return n
}
