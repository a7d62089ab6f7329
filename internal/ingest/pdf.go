package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// MinPDFChars is the fewest non-space characters a text layer must yield
// before the PDF decoder accepts it.
const MinPDFChars = 50

// PDFDecoder extracts the text layer of a PDF.
type PDFDecoder struct{}

func (PDFDecoder) Name() string { return "pdf" }

func (PDFDecoder) Accepts(mime string, data []byte) bool { return isPDF(mime, data) }

// Decode reads page by page. Pages that fail to parse are skipped.
func (PDFDecoder) Decode(ctx context.Context, data []byte) (out *Decoded, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()
	fonts := make(map[string]*pdf.Font)
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	text := b.String()
	if nonSpace(text) < MinPDFChars {
		return nil, fmt.Errorf("%w: %d pages", ErrTooLittleText, pages)
	}
	return &Decoded{Text: text, Pages: pages}, nil
}

// pageCount returns the page count of a PDF, or 0 if it cannot be read.
func pageCount(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}

func nonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
