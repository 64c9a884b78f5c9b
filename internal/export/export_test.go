package export

import (
	"strings"
	"testing"
	"time"
)

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("# Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("MarkdownToHTML: %v", err)
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "Title") {
		t.Errorf("missing heading in %q", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("missing bold run in %q", out)
	}
}

func TestMarkdownToHTMLTables(t *testing.T) {
	out, err := MarkdownToHTML("| A | B |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("MarkdownToHTML: %v", err)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("GFM table not rendered: %q", out)
	}
}

func TestExportMarkdown(t *testing.T) {
	res, err := Export(Note{Title: "My Note", Content: "# hi"}, FormatMarkdown)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(res.Data) != "# hi" {
		t.Errorf("data = %q", res.Data)
	}
	if res.Filename != "My-Note.md" {
		t.Errorf("filename = %q", res.Filename)
	}
	if !strings.HasPrefix(res.MimeType, "text/markdown") {
		t.Errorf("mime = %q", res.MimeType)
	}
}

func TestExportHTML(t *testing.T) {
	note := Note{
		Title:     "Weekly Plan",
		Content:   "## Monday\n\n- standup",
		Tags:      []string{"work", "planning"},
		Author:    "ada",
		UpdatedAt: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}
	res, err := Export(note, FormatHTML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	page := string(res.Data)
	for _, want := range []string{"Weekly Plan", "<h2", "standup", "work", "planning", "ada"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if res.Filename != "Weekly-Plan.html" {
		t.Errorf("filename = %q", res.Filename)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	if _, err := Export(Note{Title: "x"}, Format("docx")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"html":     FormatHTML,
		"pdf":      FormatPDF,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("expected error for docx")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My Note":       "My-Note",
		"a/b\\c":        "abc",
		"":              "note",
		"...":           "note",
		"draft_v2 (wip)": "draft_v2-wip",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
