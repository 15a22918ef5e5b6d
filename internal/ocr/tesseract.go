package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// Tesseract extracts image text using the tesseract CLI tool.
type Tesseract struct {
	binPath  string
	language string
}

// NewTesseract creates a Tesseract engine. Empty binPath defaults to
// "tesseract"; empty language defaults to "eng".
func NewTesseract(binPath, language string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{binPath: binPath, language: language}
}

// ExtractImage writes the image to a temp file, runs tesseract on it, and
// returns the recognized text from stdout.
func (t *Tesseract) ExtractImage(ctx context.Context, image []byte) (string, error) {
	tmp, err := os.CreateTemp("", "deckcheck-ocr-*.png")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp image")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(image); err != nil {
		tmp.Close() //nolint:errcheck
		return "", eris.Wrap(err, "ocr: write temp image")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "ocr: close temp image")
	}

	cmd := exec.CommandContext(ctx, t.binPath, tmpPath, "stdout", "-l", t.language)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", stderr.String())
	}

	return strings.TrimSpace(stdout.String()), nil
}
