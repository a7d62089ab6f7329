package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultOCRCommand runs ocrmypdf and writes the recognized text to a
// sidecar file. {input} and {output} are replaced with file paths.
const DefaultOCRCommand = "ocrmypdf --force-ocr -l spa --sidecar {output} {input} /dev/null"

// OCRDecoder runs an external OCR command over a PDF.
type OCRDecoder struct {
	// Command is a template with {input} and {output} placeholders. The
	// command must write plain text to {output}.
	Command string
	Timeout time.Duration
}

func (d OCRDecoder) Name() string { return "ocr" }

func (d OCRDecoder) Accepts(mime string, data []byte) bool {
	return strings.TrimSpace(d.Command) != "" && isPDF(mime, data)
}

func (d OCRDecoder) Decode(ctx context.Context, data []byte) (*Decoded, error) {
	dir, err := os.MkdirTemp("", "repaso-ocr-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	output := filepath.Join(dir, "output.txt")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write ocr input: %w", err)
	}

	args := expandCommand(d.Command, input, output)
	if len(args) == 0 {
		return nil, errors.New("empty ocr command")
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[len(msg)-200:]
		}
		return nil, fmt.Errorf("run %s: %w: %s", args[0], err, msg)
	}

	text, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read ocr output: %w", err)
	}
	if nonSpace(string(text)) < MinPDFChars {
		return nil, ErrTooLittleText
	}
	return &Decoded{Text: string(text), Pages: pageCount(data)}, nil
}

// expandCommand splits the template on spaces and substitutes the
// placeholders per argument, so paths with spaces stay one argument.
func expandCommand(tmpl, input, output string) []string {
	fields := strings.Fields(tmpl)
	for i, f := range fields {
		f = strings.ReplaceAll(f, "{input}", input)
		fields[i] = strings.ReplaceAll(f, "{output}", output)
	}
	return fields
}
