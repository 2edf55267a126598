package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/pension-mcp/internal/extract"
	"github.com/Epistemic-Technology/pension-mcp/internal/layout"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/internal/pdf"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// Strategy names a candidate source.
type Strategy string

const (
	StrategyCoordinate Strategy = "coordinate"
	StrategyText       Strategy = "text"
	StrategyLLMText    Strategy = "llm-text"
	StrategyLLMVision  Strategy = "llm-vision"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyCoordinate, StrategyText, StrategyLLMText, StrategyLLMVision}

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", name)
}

// NeedsOracle reports whether the strategy calls the language model.
func (s Strategy) NeedsOracle() bool {
	return s == StrategyLLMText || s == StrategyLLMVision
}

// CandidateSource produces unrepaired candidate rows for a document.
type CandidateSource interface {
	Name() string
	Candidates(ctx context.Context, doc Document) (models.TableSet, error)
}

// NewSource builds the candidate source for a strategy. The oracle is only
// required by the model-backed strategies.
func NewSource(strategy Strategy, opts Options, oracle llm.Oracle, log logger.Logger) (CandidateSource, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if strategy.NeedsOracle() && oracle == nil {
		return nil, fmt.Errorf("strategy %s requires a language model", strategy)
	}

	text := &TextHeuristic{Keywords: opts.Keywords}
	switch strategy {
	case StrategyCoordinate:
		return &CoordinateHeuristic{Layout: opts.Layout, Keywords: opts.Keywords, Text: text}, nil
	case StrategyText:
		return text, nil
	case StrategyLLMText:
		return &RawTextLLM{Oracle: oracle, Log: log}, nil
	case StrategyLLMVision:
		return &VisionLLM{Oracle: oracle, Log: log, Text: &RawTextLLM{Oracle: oracle, Log: log}}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}

// pageTexts returns one flat text per page for PDFs and form-feed separated
// pages for plain text.
func pageTexts(doc Document) ([]string, error) {
	switch doc.Type {
	case "pdf":
		return pdf.PageTexts(doc.Data)
	case "txt":
		return strings.Split(string(doc.Data), "\f"), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, doc.Type)
}

// CoordinateHeuristic groups positioned words into lines and runs the
// section locator and row extractors over them. Plain-text documents have no
// coordinates and go through Text instead.
type CoordinateHeuristic struct {
	Layout   layout.Options
	Keywords sections.Keywords
	Text     *TextHeuristic
}

func (c *CoordinateHeuristic) Name() string { return string(StrategyCoordinate) }

func (c *CoordinateHeuristic) Candidates(ctx context.Context, doc Document) (models.TableSet, error) {
	if doc.Type == "txt" && c.Text != nil {
		return c.Text.Candidates(ctx, doc)
	}
	if doc.Type != "pdf" {
		return models.TableSet{}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, doc.Type)
	}

	tokens, pageCount, err := pdf.Tokens(doc.Data)
	if err != nil {
		return models.TableSet{}, err
	}
	opts := c.Layout
	opts.PageCount = pageCount
	pages := layout.GroupLines(tokens, opts)
	return extract.Document(pages, c.Keywords, extract.Coordinate), nil
}

// TextHeuristic runs the extractors over flat page text, one token per line.
type TextHeuristic struct {
	Keywords sections.Keywords
}

func (t *TextHeuristic) Name() string { return string(StrategyText) }

func (t *TextHeuristic) Candidates(ctx context.Context, doc Document) (models.TableSet, error) {
	texts, err := pageTexts(doc)
	if err != nil {
		return models.TableSet{}, err
	}
	return extract.Document(layout.PagesFromText(texts), t.Keywords, extract.RawText), nil
}

// RawTextLLM sends the statement text to the model in one request.
type RawTextLLM struct {
	Oracle llm.Oracle
	Log    logger.Logger
}

func (r *RawTextLLM) Name() string { return string(StrategyLLMText) }

func (r *RawTextLLM) Candidates(ctx context.Context, doc Document) (models.TableSet, error) {
	texts, err := pageTexts(doc)
	if err != nil {
		return models.TableSet{}, err
	}
	text := strings.TrimSpace(strings.Join(texts, "\n"))
	if text == "" {
		return models.TableSet{}, fmt.Errorf("%w: document has no text layer", pdf.ErrNoInput)
	}

	output, err := r.Oracle.Extract(ctx, llm.Prompt{Text: text})
	if err != nil {
		return models.TableSet{}, err
	}
	raw, err := llm.ParseRaw(output)
	if err != nil {
		return models.TableSet{}, err
	}
	return extract.FromRaw(raw), nil
}

// VisionLLM sends each page as its own single-page PDF and concatenates the
// returned rows in page order. Plain-text documents go through Text.
type VisionLLM struct {
	Oracle llm.Oracle
	Log    logger.Logger
	Text   *RawTextLLM
}

func (v *VisionLLM) Name() string { return string(StrategyLLMVision) }

func (v *VisionLLM) Candidates(ctx context.Context, doc Document) (models.TableSet, error) {
	if doc.Type == "txt" && v.Text != nil {
		return v.Text.Candidates(ctx, doc)
	}
	if doc.Type != "pdf" {
		return models.TableSet{}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, doc.Type)
	}

	pages, err := pdf.SplitPdf(doc.Data)
	if err != nil {
		return models.TableSet{}, err
	}
	if len(pages) == 0 {
		return models.TableSet{}, fmt.Errorf("%w: PDF has no pages", pdf.ErrNoInput)
	}
	v.Log.Info("Sending %d pages to the model", len(pages))

	perPage, err := llm.ParallelProcess(ctx, pages, v.Log, func(ctx context.Context, idx int, page models.PdfPageData) (models.RawExtraction, error) {
		output, err := v.Oracle.Extract(ctx, llm.Prompt{Pages: models.PdfPages{page}})
		if err != nil {
			return models.RawExtraction{}, fmt.Errorf("page %d: %w", idx+1, err)
		}
		raw, err := llm.ParseRaw(output)
		if err != nil {
			return models.RawExtraction{}, fmt.Errorf("page %d: %w", idx+1, err)
		}
		return raw, nil
	})
	if err != nil {
		return models.TableSet{}, err
	}

	var merged models.RawExtraction
	for _, raw := range perPage {
		merged.TableA = append(merged.TableA, raw.TableA...)
		merged.TableB = append(merged.TableB, raw.TableB...)
		merged.TableC = append(merged.TableC, raw.TableC...)
		merged.TableD = append(merged.TableD, raw.TableD...)
		merged.TableE = append(merged.TableE, raw.TableE...)
	}
	return extract.FromRaw(merged), nil
}
