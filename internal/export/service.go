package export

import (
	"fmt"
	"html/template"
)

// Export renders the note in the requested format.
func Export(note Note, format Format) (*Result, error) {
	switch format {
	case FormatMarkdown:
		return &Result{
			Data:     []byte(note.Content),
			Filename: sanitizeFilename(note.Title) + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}, nil
	case FormatHTML, FormatPDF:
		// rendered below
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	contentHTML, err := MarkdownToHTML(note.Content)
	if err != nil {
		return nil, err
	}
	page, err := RenderNoteHTML(TemplateData{
		Title:       note.Title,
		Tags:        note.Tags,
		ContentHTML: template.HTML(contentHTML),
		Author:      note.Author,
		UpdatedAt:   note.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	if format == FormatHTML {
		return &Result{
			Data:     []byte(page),
			Filename: sanitizeFilename(note.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	}
	return exportPDF(page, note.Title)
}
