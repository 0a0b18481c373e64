// Package errs provides error handling for the pipeline.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping,
// errors.Is compatibility) and defines the error taxonomy shared across
// the extraction chain:
//
//   - ErrConfig: malformed filters or missing identity; fatal at setup.
//   - ErrHeaderNotFound: fixed-width header search failed; soft failure.
//   - ErrParse: one strategy's transformation failed; soft failure.
//   - ErrExtractionExhausted: every strategy failed for one filing; fatal
//     for that period only.
//
// Classify with errs.Is against the sentinels; wrap with errs.Wrap to add
// context while preserving the class.
package errs

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core creation, wrapping, and inspection.
var (
	New    = crdb.New
	Newf   = crdb.Newf
	Wrap   = crdb.Wrap
	Wrapf  = crdb.Wrapf
	Is     = crdb.Is
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Sentinel errors for the taxonomy. Use with errs.Is.
var (
	// ErrConfig indicates invalid setup input (bad quarter token, no
	// filter, missing SEC identity). Never raised at extraction time.
	ErrConfig = New("invalid configuration")

	// ErrHeaderNotFound indicates the fixed-width strategy found no
	// header line. Fatal only for that strategy, not the filing.
	ErrHeaderNotFound = New("header not found")

	// ErrParse indicates a single strategy's transformation failed.
	ErrParse = New("parse failed")

	// ErrExtractionExhausted indicates every strategy failed for one
	// filing. The batch continues with the next period.
	ErrExtractionExhausted = New("extraction strategies exhausted")
)

// NewConfigf creates a ConfigError with a formatted message.
func NewConfigf(format string, args ...interface{}) error {
	return Wrap(ErrConfig, fmt.Sprintf(format, args...))
}

// NewHeaderNotFoundf creates a HeaderNotFoundError with a formatted message.
func NewHeaderNotFoundf(format string, args ...interface{}) error {
	return Wrap(ErrHeaderNotFound, fmt.Sprintf(format, args...))
}

// NewParsef creates a ParseError with a formatted message.
func NewParsef(format string, args ...interface{}) error {
	return Wrap(ErrParse, fmt.Sprintf(format, args...))
}

// Attempt records one strategy's outcome while walking the fallback chain.
type Attempt struct {
	Strategy string
	Reason   string
}

// ExhaustedError reports that every strategy failed for one filing. It
// carries the ordered attempt list so the fallback path can be
// reconstructed from the error alone.
type ExhaustedError struct {
	Period          string
	AccessionNumber string
	Attempts        []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Strategy, a.Reason))
	}
	return fmt.Sprintf("all extraction strategies failed for period %s, accession %s: tried %s",
		e.Period, e.AccessionNumber, strings.Join(parts, ", "))
}

// Unwrap ties ExhaustedError into the sentinel so errs.Is(err,
// ErrExtractionExhausted) holds.
func (e *ExhaustedError) Unwrap() error { return ErrExtractionExhausted }

// NewExhausted creates an ExhaustedError for one filing.
func NewExhausted(period, accession string, attempts []Attempt) error {
	return &ExhaustedError{Period: period, AccessionNumber: accession, Attempts: attempts}
}

// IsConfigError reports whether err is or wraps ErrConfig.
func IsConfigError(err error) bool {
	return err != nil && Is(err, ErrConfig)
}

// IsHeaderNotFound reports whether err is or wraps ErrHeaderNotFound.
func IsHeaderNotFound(err error) bool {
	return err != nil && Is(err, ErrHeaderNotFound)
}

// IsParseError reports whether err is or wraps ErrParse.
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// IsExhausted reports whether err is or wraps ErrExtractionExhausted.
func IsExhausted(err error) bool {
	return err != nil && Is(err, ErrExtractionExhausted)
}
