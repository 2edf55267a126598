package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/pension-mcp/models"
)

// ErrUnreadablePDF wraps every failure to parse statement bytes as a PDF.
var ErrUnreadablePDF = errors.New("unreadable PDF")

// Validate checks the PDF structure and returns its page count.
func Validate(data models.PdfData) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	return pdfContext.PageCount, nil
}

// SplitPdf returns one single-page PDF per page, in page order.
func SplitPdf(pdf models.PdfData) (models.PdfPages, error) {
	var pages models.PdfPages
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return pages, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	for pageNum := 1; pageNum <= pdfContext.PageCount; pageNum++ {
		pageReader, err := api.ExtractPage(pdfContext, pageNum)
		if err != nil {
			return pages, fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		pageData, err := io.ReadAll(pageReader)
		if err != nil {
			return pages, fmt.Errorf("read page %d: %w", pageNum, err)
		}
		pages = append(pages, models.PdfPageData(pageData))
	}
	return pages, nil
}
