// Package docparse extracts plain text from uploaded documents such as
// offer letters and registration certificates.
package docparse

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat marks a file type the parser cannot handle.
var ErrUnsupportedFormat = eris.New("docparse: unsupported file format")

// Document is the extracted content of a parsed file.
type Document struct {
	Path     string
	Content  string
	Metadata map[string]any
}

// Parse extracts text from the file at path. PDF, plain text, and
// markdown files are supported.
func Parse(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return parsePDF(path)
	case ".txt", ".md":
		return parsePlain(path)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "docparse: %s", path)
	}
}

func parsePDF(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "docparse: open pdf")
	}
	defer f.Close() //nolint:errcheck

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, eris.Wrap(err, "docparse: extract pdf text")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, eris.Wrap(err, "docparse: read pdf text")
	}

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return nil, eris.New("docparse: pdf contains no extractable text")
	}
	return &Document{
		Path:     path,
		Content:  content,
		Metadata: map[string]any{"format": "pdf", "pages": r.NumPage()},
	}, nil
}

func parsePlain(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "docparse: read file")
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil, eris.New("docparse: file is empty")
	}
	return &Document{
		Path:     path,
		Content:  content,
		Metadata: map[string]any{"format": strings.TrimPrefix(filepath.Ext(path), "."), "bytes": len(raw)},
	}, nil
}
