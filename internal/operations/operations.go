package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Epistemic-Technology/pension-mcp/internal/extract"
	"github.com/Epistemic-Technology/pension-mcp/internal/layout"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/internal/pdf"
	"github.com/Epistemic-Technology/pension-mcp/internal/repair"
	"github.com/Epistemic-Technology/pension-mcp/internal/sections"
	"github.com/Epistemic-Technology/pension-mcp/internal/validate"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// ErrUnsupportedDocument is returned for input that is neither a PDF nor
// plain text.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// Document is a fetched statement ready for extraction.
type Document struct {
	Source models.SourceInfo
	models.DocumentData
}

// LoadDocument fetches a statement from its source, or wraps rawData when it
// is given.
func LoadDocument(ctx context.Context, source models.SourceInfo, rawData []byte) (Document, error) {
	if rawData != nil {
		if len(rawData) == 0 {
			return Document{}, pdf.ErrNoInput
		}
		return Document{
			Source:       source,
			DocumentData: models.DocumentData{Data: rawData, Type: pdf.DetectDocumentType(rawData)},
		}, nil
	}

	data, err := pdf.GetData(ctx, source)
	if err != nil {
		return Document{}, err
	}
	return Document{Source: source, DocumentData: data}, nil
}

// Options carries the tunables of every pipeline stage.
type Options struct {
	Layout   layout.Options
	Keywords sections.Keywords
	Repair   repair.Options
	Validate validate.Options
}

func DefaultOptions() Options {
	return Options{
		Layout:   layout.DefaultOptions(),
		Keywords: sections.DefaultKeywords(),
		Repair:   repair.DefaultOptions(),
		Validate: validate.DefaultOptions(),
	}
}

// Pipeline turns a statement into repaired tables and a verdict. Every
// candidate source converges on the same repair and validation passes.
type Pipeline struct {
	Source  CandidateSource
	Options Options
	Log     logger.Logger
}

func NewPipeline(source CandidateSource, opts Options, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Pipeline{Source: source, Options: opts, Log: log}
}

// Run extracts, repairs and validates one document. Only upstream failures
// are returned as errors; data quality problems show up in the verdict.
func (p *Pipeline) Run(ctx context.Context, doc Document) (*models.Report, error) {
	runID := uuid.NewString()
	log := p.Log.WithField("run_id", runID)

	log.Info("Extracting %s with %s strategy (%d bytes, type %s)", doc.Source.Label(), p.Source.Name(), len(doc.Data), doc.Type)
	tables, err := p.Source.Candidates(ctx, doc)
	if err != nil {
		log.Error("Extraction failed: %v", err)
		return nil, fmt.Errorf("%s extraction failed: %w", p.Source.Name(), err)
	}

	report := &models.Report{
		RunID:    runID,
		Source:   doc.Source.Label(),
		Strategy: p.Source.Name(),
		Tables:   tables,
	}
	p.finish(log, report)
	return report, nil
}

// RepairRaw runs the repair and validation passes over model output that was
// produced elsewhere.
func (p *Pipeline) RepairRaw(output string) (*models.Report, error) {
	if output == "" {
		return nil, pdf.ErrNoInput
	}
	raw, err := llm.ParseRaw(output)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	report := &models.Report{
		RunID:    runID,
		Source:   "raw",
		Strategy: "raw-json",
		Tables:   extract.FromRaw(raw),
		Repairs:  models.Repairs{DigitOrderReversed: raw.DigitOrderReversed},
	}
	p.finish(p.Log.WithField("run_id", runID), report)
	return report, nil
}

func (p *Pipeline) finish(log logger.Logger, report *models.Report) {
	log.Debug("Candidate rows: A=%d B=%d C=%d D=%d E=%d",
		len(report.Tables.TableA.Rows), len(report.Tables.TableB.Rows), len(report.Tables.TableC.Rows),
		len(report.Tables.TableD.Rows), len(report.Tables.TableE.Rows))

	reversed := report.Repairs.DigitOrderReversed
	repair.Apply(report, p.Options.Repair)
	if report.Repairs.DigitOrderReversed && !reversed {
		log.Warn("Fee percentage above %.0f%%; reversed fractional digits in tables C and D", p.Options.Repair.DigitAnchorThreshold)
	}

	report.Verdict = validate.CrossCheck(report.Tables.TableB.Rows, report.Tables.TableE.Rows, p.Options.Validate)
	log.Info("%s", report.Verdict.Message())
}
