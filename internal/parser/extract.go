package parser

import (
	"context"
	"fmt"
	"time"

	"plinvoice/internal/domain"
	"plinvoice/internal/port"
)

// defaultPacing is the fixed delay between the two upstream calls. The same
// large document payload is sent twice per extraction; spacing the calls
// keeps one extraction under the per-minute request ceiling.
const defaultPacing = 3 * time.Second

// ExtractInput carries one document to extract.
type ExtractInput struct {
	FileBytes   []byte
	FileName    string
	ContentType string
	APIKey      string
}

// Extractor orchestrates a full extraction: two sequential generation calls
// (metadata, then the line-item matrix), each wrapped in the retry
// controller, each response fed through the repair parser, and the two halves
// merged into one record.
type Extractor struct {
	gen     port.Generator
	retrier *Retrier
	pacing  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewExtractor creates an Extractor. maxAttempts bounds the retry loop of
// each upstream call (0 means the default of 5).
func NewExtractor(gen port.Generator, maxAttempts int) *Extractor {
	return NewExtractorWithPacing(gen, maxAttempts, defaultPacing)
}

// NewExtractorWithPacing creates an Extractor with a custom inter-call delay
// (for testing).
func NewExtractorWithPacing(gen port.Generator, maxAttempts int, pacing time.Duration) *Extractor {
	return &Extractor{
		gen:     gen,
		retrier: NewRetrier(maxAttempts),
		pacing:  pacing,
		sleep:   sleepContext,
	}
}

// Extract runs the two-prompt pipeline. The line-items request is never
// issued before the metadata retry loop has fully resolved. A repair failure
// on either response aborts the extraction; no partial record is returned.
func (e *Extractor) Extract(ctx context.Context, input ExtractInput) (*domain.InvoiceRecord, error) {
	metaText, err := e.generate(ctx, input, metadataPrompt)
	if err != nil {
		return nil, fmt.Errorf("metadata extraction: %w", err)
	}

	if err := e.sleep(ctx, e.pacing); err != nil {
		return nil, err
	}

	itemsText, err := e.generate(ctx, input, lineItemsPrompt)
	if err != nil {
		return nil, fmt.Errorf("line items extraction: %w", err)
	}

	metaVal, err := RepairOrDefault(metaText, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("repairing metadata response: %w", err)
	}
	itemsVal, err := RepairOrDefault(itemsText, []any{})
	if err != nil {
		return nil, fmt.Errorf("repairing line items response: %w", err)
	}

	return Merge(metaVal, itemsVal)
}

func (e *Extractor) generate(ctx context.Context, input ExtractInput, prompt string) (string, error) {
	return e.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		return e.gen.Generate(ctx, port.GenerateInput{
			APIKey:      input.APIKey,
			FileName:    input.FileName,
			FileBytes:   input.FileBytes,
			ContentType: input.ContentType,
			Prompt:      prompt,
		})
	})
}
