// Caching for raw SEC submission text files.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SubmissionCache provides file-based caching for raw submission text.
// A cache hit must skip the network entirely: repeated runs over the same
// inputs may not increase external request volume.
type SubmissionCache struct {
	cacheDir string
}

// NewSubmissionCache creates a cache under .cache/edgar/submissions in the
// current working directory.
func NewSubmissionCache() *SubmissionCache {
	cacheDir := filepath.Join(".cache", "edgar", "submissions")
	os.MkdirAll(cacheDir, 0755)
	return &SubmissionCache{cacheDir: cacheDir}
}

// NewSubmissionCacheWithDir creates a cache with a custom directory.
func NewSubmissionCacheWithDir(dir string) *SubmissionCache {
	os.MkdirAll(dir, 0755)
	return &SubmissionCache{cacheDir: dir}
}

// cacheKey generates a unique key for a filing.
func (c *SubmissionCache) cacheKey(cik, accession string) string {
	accession = strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf("%s_%s", cik, accession)
}

// filePath returns the file path for a cache entry.
func (c *SubmissionCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".txt")
}

// Get retrieves cached submission text for a filing.
// Returns empty string if not cached.
func (c *SubmissionCache) Get(cik, accession string) string {
	data, err := os.ReadFile(c.filePath(c.cacheKey(cik, accession)))
	if err != nil {
		return ""
	}
	return string(data)
}

// Set stores submission text in the cache.
func (c *SubmissionCache) Set(cik, accession, text string) error {
	return os.WriteFile(c.filePath(c.cacheKey(cik, accession)), []byte(text), 0644)
}

// Has checks if a filing is cached.
func (c *SubmissionCache) Has(cik, accession string) bool {
	_, err := os.Stat(c.filePath(c.cacheKey(cik, accession)))
	return err == nil
}

// GetCacheDir returns the cache directory path.
func (c *SubmissionCache) GetCacheDir() string {
	return c.cacheDir
}

// ClearCache removes all cached files.
func (c *SubmissionCache) ClearCache() error {
	return os.RemoveAll(c.cacheDir)
}
