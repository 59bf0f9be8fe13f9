// Package tesseract provides a Recognizer backed by the tesseract command-line tool.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Recognizer implements the interface.
var _ driven.Recognizer = (*Recognizer)(nil)

// Default configuration values.
const (
	DefaultBinary   = "tesseract"
	DefaultLanguage = "eng"
)

// Config holds configuration for the tesseract recognizer.
type Config struct {
	// Binary is the tesseract executable (default: tesseract, resolved from PATH).
	Binary string

	// Language is the traineddata language code (default: eng).
	Language string
}

// Recognizer pipes each image through `tesseract stdin stdout`.
type Recognizer struct {
	binary   string
	language string
}

// NewRecognizer creates a tesseract recognizer.
func NewRecognizer(cfg Config) *Recognizer {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Recognizer{binary: cfg.Binary, language: cfg.Language}
}

// Recognize runs tesseract on the encoded image and returns its trimmed output.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	cmd := exec.CommandContext(ctx, r.binary, "stdin", "stdout", "-l", r.language)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: tesseract: %w", domain.ErrTimeout, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: tesseract: %s", domain.ErrUnavailable, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Ping checks the binary can be found.
func (r *Recognizer) Ping() error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("%w: tesseract not found: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (r *Recognizer) Close() error {
	return nil
}
