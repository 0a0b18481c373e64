// Raw submission retrieval for the extraction chain.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SubmissionFetcher retrieves full submission text files, preferring the
// on-disk cache. The extraction chain receives its raw text through this
// type's FetchText, so a cache hit means zero network traffic for the
// filing.
type SubmissionFetcher struct {
	client *EDGARClient
	cache  *SubmissionCache
	logger *zap.SugaredLogger

	fetchCount int
}

// NewSubmissionFetcher creates a fetcher. cache may be nil to disable
// caching (tests exercising the network path).
func NewSubmissionFetcher(client *EDGARClient, cache *SubmissionCache, logger *zap.SugaredLogger) *SubmissionFetcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SubmissionFetcher{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// FetchText returns the full submission text for a filing. Bytes are
// decoded as Latin-1, matching how legacy filings were written; every
// byte maps to a code point, so decoding cannot fail.
func (f *SubmissionFetcher) FetchText(ctx context.Context, cik, accession string) (string, error) {
	if f.cache != nil {
		if text := f.cache.Get(cik, accession); text != "" {
			f.logger.Debugw("submission cache hit", "cik", cik, "accession", accession)
			return text, nil
		}
	}

	url := SubmissionTxtURL(cik, accession)
	raw, err := f.client.get(ctx, url)
	if err != nil {
		return "", err
	}
	f.fetchCount++

	text := decodeLatin1(raw)
	if f.cache != nil {
		if err := f.cache.Set(cik, accession, text); err != nil {
			f.logger.Warnw("failed to cache submission", "cik", cik, "accession", accession, "error", err)
		}
	}
	f.logger.Infow("fetched submission", "url", url, "bytes", len(raw))
	return text, nil
}

// FetchCount reports how many network fetches this fetcher performed.
// Used to verify that cached runs add no request volume.
func (f *SubmissionFetcher) FetchCount() int {
	return f.fetchCount
}

// SubmissionTxtURL builds the Archives URL for a full submission text:
// the bare CIK, the dashless accession directory, then the dashed
// accession as filename.
func SubmissionTxtURL(cik, accession string) string {
	noDashes := strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf(SECSubmissionTxtURL, unpadCIK(cik), noDashes, accession)
}

// decodeLatin1 maps each byte to its Unicode code point.
func decodeLatin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
