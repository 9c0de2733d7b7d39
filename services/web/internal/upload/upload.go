// Package upload checks document uploads before they are forwarded to the backend.
package upload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const DefaultMaxBytes int64 = 20 << 20

var DefaultExtensions = []string{".pdf", ".doc", ".docx"}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUnreadablePDF   = errors.New("pdf could not be read")
)

// Checker validates a file by extension, size and, for PDFs, structure.
type Checker struct {
	maxBytes   int64
	extensions map[string]struct{}
}

// NewChecker builds a checker. Zero or empty arguments use the defaults.
func NewChecker(maxBytes int64, extensions []string) *Checker {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Checker{maxBytes: maxBytes, extensions: normalizeExtensions(extensions)}
}

// MaxBytes is the largest accepted file.
func (c *Checker) MaxBytes() int64 {
	return c.maxBytes
}

// Allowed reports whether filename carries an accepted extension.
func (c *Checker) Allowed(filename string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Check validates one file of the given size.
func (c *Checker) Check(filename string, file io.ReaderAt, size int64) error {
	if !c.Allowed(filename) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > c.maxBytes {
		return ErrTooLarge
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		pages, err := countPages(file, size)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
		}
		if pages < 1 {
			return fmt.Errorf("%w: no pages", ErrUnreadablePDF)
		}
	}
	return nil
}

// countPages recovers from the parser's panics on malformed input.
func countPages(file io.ReaderAt, size int64) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(file, size)
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
