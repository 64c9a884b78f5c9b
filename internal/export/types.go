// Package export renders notes as markdown, HTML, or PDF downloads.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ParseFormat maps a query-string value onto a Format.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatMarkdown, FormatHTML, FormatPDF:
		return Format(value), nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", errors.New("unsupported export format")
	}
}

// Note carries the note fields the renderer needs.
type Note struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	Author    string
	UpdatedAt time.Time
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
