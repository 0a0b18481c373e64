// Package datasets ingests SEC structured quarterly 13F data sets: the
// bulk alternative to per-filing extraction. Each quarter is one ZIP of
// tab-delimited tables; holdings columns are flattened onto the same
// canonical column set the extraction chain produces.
package datasets

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/core/ingest"
	"holdings_pipeline/pkg/core/normalize"
	"holdings_pipeline/pkg/core/output"
	"holdings_pipeline/pkg/core/period"
	"holdings_pipeline/pkg/models"
)

// tsvColumns maps dataset TSV headers (lowercased) onto canonical
// holding fields. The data sets use display-style headers, not the XBRL
// tag names.
var tsvColumns = map[string]string{
	"cusip":                  "cusip",
	"name of issuer":         "name",
	"title of class":         "title",
	"market value (x$1000)":  "value_x1000",
	"shrs or prin amt":       "shares",
	"sh/prn":                 "share_unit",
	"inv. discretion":        "discretion",
	"put/call":               "put_call",
	"sole voting":            "voting_sole",
	"shared voting":          "voting_shared",
	"no voting":              "voting_none",
}

// Client downloads and flattens quarterly data sets. Downloads reuse the
// EDGAR client's rate limiter and identity header; a ZIP already on disk
// is never fetched again.
type Client struct {
	edgar  *ingest.EDGARClient
	logger *zap.SugaredLogger
	outDir string
}

// NewClient builds a dataset client writing into outDir.
func NewClient(edgar *ingest.EDGARClient, logger *zap.SugaredLogger, outDir string) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{edgar: edgar, logger: logger, outDir: outDir}
}

// QuarterResult describes one processed quarter.
type QuarterResult struct {
	Quarter  string
	Holdings int
	File     string
}

// FetchResult summarizes a dataset run.
type FetchResult struct {
	Quarters []QuarterResult
	Skipped  []string
}

// FetchQuarters downloads, extracts, and flattens the named quarters.
// nil means every quarter in the registry. Unknown tokens are recorded
// in Skipped and do not abort the batch; download and extraction errors
// do.
func (c *Client) FetchQuarters(ctx context.Context, quarters []string) (*FetchResult, error) {
	if len(quarters) == 0 {
		quarters = Quarters()
	}

	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return nil, errs.Wrapf(err, "create output directory %s", c.outDir)
	}
	tempRoot, err := os.MkdirTemp("", "sec_13f_datasets_")
	if err != nil {
		return nil, errs.Wrap(err, "create temp directory")
	}
	defer os.RemoveAll(tempRoot)

	result := &FetchResult{}
	for _, token := range quarters {
		quarter := NormalizeQuarter(token)
		zipName, ok := ZipName(quarter)
		if !ok {
			c.logger.Warnw("unknown dataset quarter, skipping", "quarter", token)
			result.Skipped = append(result.Skipped, token)
			continue
		}

		qr, err := c.fetchQuarter(ctx, quarter, zipName, filepath.Join(tempRoot, quarter))
		if err != nil {
			return nil, errs.Wrapf(err, "dataset quarter %s", quarter)
		}
		result.Quarters = append(result.Quarters, *qr)
	}
	return result, nil
}

func (c *Client) fetchQuarter(ctx context.Context, quarter, zipName, extractDir string) (*QuarterResult, error) {
	zipPath := filepath.Join(c.outDir, zipName)
	if _, err := os.Stat(zipPath); os.IsNotExist(err) {
		c.logger.Infow("downloading dataset", "quarter", quarter, "url", BaseURL+zipName)
		if err := c.edgar.DownloadFile(ctx, BaseURL+zipName, zipPath); err != nil {
			return nil, err
		}
	} else {
		c.logger.Infow("dataset already downloaded", "quarter", quarter, "zip", zipName)
	}

	files, err := extractZip(zipPath, extractDir)
	if err != nil {
		return nil, err
	}

	periodEnd, err := period.QuarterEnd(strings.Replace(quarter, "_", "", 1))
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	tsvCount := 0
	for _, path := range files {
		if !strings.EqualFold(filepath.Ext(path), ".tsv") {
			continue
		}
		tsvCount++
		rows, err := parseTSV(path, periodEnd)
		if err != nil {
			c.logger.Warnw("skipping unreadable TSV", "file", filepath.Base(path), "error", err)
			continue
		}
		holdings = append(holdings, rows...)
	}

	fileName := "13f_dataset_" + quarter + ".csv"
	if err := output.WriteCSV(filepath.Join(c.outDir, fileName), holdings); err != nil {
		return nil, err
	}
	c.logger.Infow("quarter flattened",
		"quarter", quarter, "tsv_files", tsvCount, "holdings", len(holdings), "file", fileName)

	return &QuarterResult{Quarter: quarter, Holdings: len(holdings), File: fileName}, nil
}

// extractZip unpacks an archive into targetDir and returns the extracted
// file paths. Entries that would escape targetDir are dropped.
func extractZip(zipPath, targetDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, errs.Wrapf(err, "open zip %s", zipPath)
	}
	defer zr.Close()

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create extraction directory")
	}

	var extracted []string
	for _, entry := range zr.File {
		path := filepath.Join(targetDir, entry.Name)
		if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(targetDir)+string(os.PathSeparator)) {
			continue
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return extracted, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return extracted, err
		}

		rc, err := entry.Open()
		if err != nil {
			return extracted, errs.Wrapf(err, "open zip entry %s", entry.Name)
		}
		out, err := os.Create(path)
		if err != nil {
			rc.Close()
			return extracted, errs.Wrapf(err, "create %s", path)
		}
		_, err = io.Copy(out, rc)
		out.Close()
		rc.Close()
		if err != nil {
			return extracted, errs.Wrapf(err, "extract %s", entry.Name)
		}
		extracted = append(extracted, path)
	}
	return extracted, nil
}

// parseTSV flattens one tab-delimited holdings table. Rows where every
// mapped cell is empty are dropped; numeric fields use the tolerant
// coercion, so a bad number never drops a row.
func parseTSV(path, periodEnd string) ([]models.Holding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errs.Wrap(err, "read header")
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		if canonical, ok := tsvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			colIdx[canonical] = i
		}
	}

	var holdings []models.Holding
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		cell := func(canonical string) string {
			i, ok := colIdx[canonical]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		h := models.Holding{
			PeriodOfReport: periodEnd,
			Name:           cell("name"),
			Title:          cell("title"),
			CUSIP:          cell("cusip"),
			ValueX1000:     normalize.CoerceInt64(cell("value_x1000")),
			Shares:         normalize.CoerceInt64(cell("shares")),
			ShareUnit:      cell("share_unit"),
			PutCall:        cell("put_call"),
			Discretion:     cell("discretion"),
			VotingSole:     normalize.CoerceInt64(cell("voting_sole")),
			VotingShared:   normalize.CoerceInt64(cell("voting_shared")),
			VotingNone:     normalize.CoerceInt64(cell("voting_none")),
		}
		if h.Name == "" && h.CUSIP == "" && h.ValueX1000 == nil && h.Shares == nil {
			continue
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}
