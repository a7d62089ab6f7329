package ingest

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// TextDecoder reads UTF-8 plain text.
type TextDecoder struct{}

func (TextDecoder) Name() string { return "text" }

func (TextDecoder) Accepts(mime string, data []byte) bool {
	if isPDF(mime, data) {
		return false
	}
	return (mime == "" || strings.HasPrefix(mime, "text/")) && utf8.Valid(data)
}

func (TextDecoder) Decode(_ context.Context, data []byte) (*Decoded, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("text is not valid UTF-8")
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, ErrTooLittleText
	}
	return &Decoded{Text: text}, nil
}
