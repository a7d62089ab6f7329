package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Decoded is the plain text of a source document.
type Decoded struct {
	Text string
	// Pages is the real page count, or 0 when the format has no pages.
	Pages   int
	Decoder string
}

// Decoder turns raw document bytes into text.
type Decoder interface {
	Name() string
	// Accepts reports whether the decoder can try data of the given MIME type.
	Accepts(mime string, data []byte) bool
	Decode(ctx context.Context, data []byte) (*Decoded, error)
}

// DecoderFailure records one decoder that could not handle a source.
type DecoderFailure struct {
	Decoder string
	Err     error
}

// DecodeError is returned when no decoder produced text.
type DecodeError struct {
	Filename string
	MIME     string
	Failures []DecoderFailure
}

func (e *DecodeError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("decode %s: unsupported type %q", e.Filename, e.MIME)
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Decoder, f.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Filename, strings.Join(parts, "; "))
}

func (e *DecodeError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// ErrTooLittleText means a decoder extracted almost nothing, as happens
// with scanned PDFs that have no text layer.
var ErrTooLittleText = errors.New("too little text extracted")

const (
	mimePDF   = "application/pdf"
	mimePlain = "text/plain"
)

func isPDF(mime string, data []byte) bool {
	return mime == mimePDF || bytes.HasPrefix(data, []byte("%PDF-"))
}

// decode runs decoders in order and returns the first success.
func decode(ctx context.Context, decoders []Decoder, src Source) (*Decoded, error) {
	derr := &DecodeError{Filename: src.Filename, MIME: src.MIME}
	for _, d := range decoders {
		if !d.Accepts(src.MIME, src.Data) {
			continue
		}
		out, err := d.Decode(ctx, src.Data)
		if err == nil {
			out.Decoder = d.Name()
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		derr.Failures = append(derr.Failures, DecoderFailure{Decoder: d.Name(), Err: err})
	}
	return nil, derr
}
