package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// ErrEncrypted is reported for password-protected or otherwise encrypted documents.
var ErrEncrypted = errors.New("encrypted PDF documents are not supported")

// ExtractionError wraps any failure to turn an uploaded document into text.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	if e == nil || e.Cause == nil {
		return "pdf extraction failed"
	}
	return e.Cause.Error()
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// Extractor turns PDF bytes into plain text.
// Libraries used: github.com/ledongthuc/pdf (parsing) and github.com/gabriel-vasile/mimetype (sniffing).
type Extractor struct{}

// New returns a PDF extractor.
func New() *Extractor { return &Extractor{} }

// Extract implements the planner's text extractor contract.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	return ExtractPDF(ctx, data)
}

// ExtractPDF returns the text of every page in document order, concatenated
// without separators. A document with no pages or no text yields "".
func ExtractPDF(ctx context.Context, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if mt := mimetype.Detect(data); !mt.Is(mimePDF) {
		return "", &ExtractionError{Cause: fmt.Errorf("unsupported content type: %s", mt.String())}
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ExtractionError{Cause: fmt.Errorf("corrupt pdf: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", &ExtractionError{Cause: ErrEncrypted}
		}
		return "", &ExtractionError{Cause: fmt.Errorf("open pdf: %w", err)}
	}
	if !reader.Trailer().Key("Encrypt").IsNull() {
		return "", &ExtractionError{Cause: ErrEncrypted}
	}

	var buf strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", &ExtractionError{Cause: fmt.Errorf("page %d: %w", i, err)}
		}
		// GetPlainText opens every page with a line break.
		buf.WriteString(strings.TrimPrefix(pageText, "\n"))
	}
	return buf.String(), nil
}
