// Package extract turns a raw 13F submission into a holdings table.
//
// Filings span three decades of format drift: modern submissions carry a
// structured XML information table, older ones wrap XML inside an SGML
// envelope, and the oldest are plain text with markup fragments or
// fixed-width columns. The package runs a fixed chain of strategies from
// most to least structured and stops at the first one that yields rows.
package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/errs"
	"holdings_pipeline/pkg/models"
)

// Strategy name tags recorded in logs, exhaustion errors, and the
// provenance column of every output table.
const (
	StrategyStructured = "structured-object"
	StrategySGMLXML    = "sgml-xml"
	StrategyMarkup     = "embedded-markup"
	StrategyFixedWidth = "fixed-width"
)

// Outcome classifies a single strategy attempt.
type Outcome int

const (
	// NotApplicable means the strategy had nothing to work on, for
	// example no <XML> payload in a text-era filing.
	NotApplicable Outcome = iota
	// Failed means the strategy found applicable input but produced no
	// usable table from it.
	Failed
	// Succeeded means the strategy produced a non-empty table.
	Succeeded
)

func (o Outcome) String() string {
	switch o {
	case NotApplicable:
		return "not-applicable"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result reports one strategy attempt. Table is set only when Outcome is
// Succeeded; Err or Note carries the reason otherwise.
type Result struct {
	Outcome Outcome
	Table   *models.RawTable
	Err     error
	Note    string
}

// Reason renders the reason string recorded in the attempt log.
func (r Result) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.Note != "" {
		return r.Note
	}
	return r.Outcome.String()
}

func notApplicable(note string) Result { return Result{Outcome: NotApplicable, Note: note} }

func failed(err error) Result { return Result{Outcome: Failed, Err: err} }

func failedNote(note string) Result { return Result{Outcome: Failed, Note: note} }

func succeeded(t *models.RawTable) Result { return Result{Outcome: Succeeded, Table: t} }

// TextSupplier loads the full submission text. The chain memoizes it so
// the text is loaded at most once per filing no matter how many
// strategies ask for it.
type TextSupplier func(ctx context.Context) (string, error)

// Input bundles everything the strategies may consume for one filing.
type Input struct {
	Filing models.Filing

	// Structured is an optional table handed over by an upstream parser.
	// When present and non-empty, the structured-object strategy returns
	// it without touching the submission text.
	Structured *models.RawTable

	// Text supplies the raw submission text. Required unless Structured
	// is set.
	Text TextSupplier
}

func (in *Input) text(ctx context.Context) (string, error) {
	if in.Text == nil {
		return "", errs.New("no submission text supplier")
	}
	return in.Text(ctx)
}

// memoizeText caches the first load. The chain runs strategies
// sequentially, so no locking is needed.
func memoizeText(fn TextSupplier) TextSupplier {
	var (
		done bool
		text string
		err  error
	)
	return func(ctx context.Context) (string, error) {
		if !done {
			text, err = fn(ctx)
			done = true
		}
		return text, err
	}
}

// Strategy is one extraction tier. Implementations are stateless and are
// reused across filings.
type Strategy interface {
	// Name returns the provenance tag recorded with every table this
	// strategy produces.
	Name() string

	// Extract attempts the strategy against one filing.
	Extract(ctx context.Context, in *Input) Result
}

// Chain tries strategies in a fixed total order until one yields a
// non-empty table. A strategy is skipped only when an earlier one has
// already succeeded.
type Chain struct {
	strategies []Strategy
	logger     *zap.SugaredLogger
}

// NewChain builds a chain over an explicit strategy order.
func NewChain(logger *zap.SugaredLogger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// NewDefaultChain wires the four standard tiers from most to least
// structured: structured-object, sgml-xml, embedded-markup, fixed-width.
// margin tunes the fixed-width voting-column fallback spacing; margin <= 0
// selects DefaultOffsetMargin.
func NewDefaultChain(logger *zap.SugaredLogger, margin int) *Chain {
	return NewChain(logger,
		NewStructuredStrategy(),
		NewSGMLXMLStrategy(),
		NewMarkupStrategy(),
		NewFixedWidthStrategy(margin),
	)
}

// Extract runs the chain for one filing. On success the returned table's
// Strategy field carries the winning tag. On exhaustion the error lists
// every attempt in order with its failure reason.
func (c *Chain) Extract(ctx context.Context, in *Input) (*models.RawTable, error) {
	if in.Text != nil {
		in.Text = memoizeText(in.Text)
	}
	attempts := make([]errs.Attempt, 0, len(c.strategies))
	for _, s := range c.strategies {
		res := s.Extract(ctx, in)
		if res.Outcome == Succeeded && res.Table != nil && len(res.Table.Rows) > 0 {
			res.Table.Strategy = s.Name()
			c.logger.Infow("extraction succeeded",
				"strategy", s.Name(),
				"accession", in.Filing.AccessionNumber,
				"rows", len(res.Table.Rows))
			return res.Table, nil
		}
		if res.Outcome == Succeeded {
			res = failedNote("empty table")
		}
		attempts = append(attempts, errs.Attempt{Strategy: s.Name(), Reason: res.Reason()})
		if res.Outcome == Failed {
			c.logger.Warnw("extraction strategy failed",
				"strategy", s.Name(),
				"accession", in.Filing.AccessionNumber,
				"reason", res.Reason())
		} else {
			c.logger.Debugw("extraction strategy not applicable",
				"strategy", s.Name(),
				"accession", in.Filing.AccessionNumber,
				"reason", res.Reason())
		}
	}
	return nil, errs.NewExhausted(in.Filing.PeriodOfReport, in.Filing.AccessionNumber, attempts)
}
