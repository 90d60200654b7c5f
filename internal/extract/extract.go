// Package extract converts raw bank alert text into structured transaction
// candidates. Extraction is layered: deterministic per-sender rule-sets run
// first, then a model-based fallback, and a message that defeats both is
// left unextracted for a later retry.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kvashee/bankfeed/pkg/models"
)

// Extraction is the structured result of parsing one message body. All
// fields except Currency are required; a missing currency falls back to
// the user's configured default.
type Extraction struct {
	Amount     decimal.Decimal
	Currency   string // may be empty
	Date       time.Time
	Direction  models.Direction
	Merchant   string
	Confidence models.Confidence
}

// Extractor is one extraction strategy. Returning (nil, nil) means the
// strategy does not apply to this message; an error means it applied but
// failed. Either way the engine moves on to the next strategy.
type Extractor interface {
	Name() string
	Confidence() models.Confidence
	Extract(ctx context.Context, text, sender string) (*Extraction, error)
}

// Engine tries an ordered list of extractors in sequence.
type Engine struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewEngine creates an Engine that tries extractors in the given order
func NewEngine(logger *slog.Logger, extractors ...Extractor) *Engine {
	return &Engine{
		extractors: extractors,
		logger:     logger.With("component", "extract"),
	}
}

// Extract runs the extraction chain. A nil result with a nil error means
// the message could not be extracted by any layer; the caller must leave
// it unprocessed.
func (e *Engine) Extract(ctx context.Context, text, sender string) (*Extraction, error) {
	if text == "" {
		return nil, nil
	}

	for _, ex := range e.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := ex.Extract(ctx, text, sender)
		if err != nil {
			e.logger.Warn("extractor failed", "extractor", ex.Name(), "sender", sender, "error", err)
			continue
		}
		if result == nil {
			e.logger.Debug("extractor did not match", "extractor", ex.Name(), "sender", sender)
			continue
		}

		result.Confidence = ex.Confidence()
		e.logger.Debug("extraction succeeded",
			"extractor", ex.Name(),
			"merchant", result.Merchant,
			"amount", result.Amount,
			"confidence", result.Confidence)
		return result, nil
	}

	return nil, nil
}
