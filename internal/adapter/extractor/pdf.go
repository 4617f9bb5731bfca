package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// PDFExtractor concatenates the plain text of every page in page order.
type PDFExtractor struct {
	conf *model.Configuration
}

func NewPDFExtractor() *PDFExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFExtractor{conf: conf}
}

// Extract validates path and returns its text. Files that fail
// validation or parsing are reported as domain.ErrCorruptDocument.
func (e *PDFExtractor) Extract(path string) (text string, err error) {
	name := filepath.Base(path)

	if err := api.ValidateFile(path, e.conf); err != nil {
		return "", fmt.Errorf("%s: %w: %v", name, domain.ErrCorruptDocument, err)
	}

	// The parser panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%s: %w: %v", name, domain.ErrCorruptDocument, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", name, domain.ErrCorruptDocument, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%s: page %d: %w: %v", name, i, domain.ErrCorruptDocument, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
