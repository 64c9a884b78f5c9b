package export

import (
	"bytes"
	"html/template"
	"time"
)

// TemplateData holds data for note template rendering
type TemplateData struct {
	Title       string
	Tags        []string
	ContentHTML template.HTML
	Author      string
	UpdatedAt   time.Time
}

var noteTemplate = template.Must(template.New("note").Parse(notePage))

// RenderNoteHTML renders the full standalone page used for HTML and PDF
// exports.
func RenderNoteHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const notePage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1.note-title { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .tag { background: #eef; border-radius: 3px; padding: 0 0.4em; margin-right: 0.3em; font-size: 0.85em; }
    pre { background: #f5f5f5; padding: 1rem; overflow-x: auto; }
    blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; }
  </style>
</head>
<body>
  <h1 class="note-title">{{.Title}}</h1>
  <div class="meta">
    {{.Author}} | {{.UpdatedAt.Format "Jan 2, 2006 15:04"}}
    {{range .Tags}}<span class="tag">{{.}}</span>{{end}}
  </div>
  <div>{{.ContentHTML}}</div>
</body>
</html>`
