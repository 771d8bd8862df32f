// Package ingest loads speakable text from files and streams. Plain text
// is passed through as-is; PDFs are reduced to their text content, one
// page per paragraph.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when a source contains no speakable text.
var ErrEmptyDocument = errors.New("ingest: document contains no text")

// Load reads the text of the file at path. PDF files are detected by
// extension; everything else is treated as plain text.
func Load(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return LoadPDF(path)
	}
	return LoadText(path)
}

// LoadText reads a plain-text file.
func LoadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%q does not exist", path)
		}
		return "", fmt.Errorf("could not read %q: %w", path, err)
	}
	return string(data), nil
}

// LoadPDF extracts the text of a PDF file, joining pages with blank
// lines so page breaks read as paragraph breaks.
func LoadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%q does not exist", path)
		}
		if strings.Contains(strings.ToLower(err.Error()), "encrypted") {
			return "", fmt.Errorf("%q is password-protected and cannot be read", path)
		}
		return "", fmt.Errorf("%q is not a readable PDF: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn("Skipping unreadable PDF page", "file", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", ErrEmptyDocument
	}

	log.Debug("PDF loaded", "file", path, "pages", len(pages))
	return strings.Join(pages, "\n\n"), nil
}

// ReadAll slurps a stream, typically stdin.
func ReadAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("could not read input: %w", err)
	}
	return string(data), nil
}
