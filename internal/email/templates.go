package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// emailTemplates holds base.html paired with each content template.
var emailTemplates = map[string]*template.Template{
	"review_flagged.html": mustParseEmail("review_flagged.html"),
	"run_summary.html":    mustParseEmail("run_summary.html"),
}

type baseEmailData struct {
	Title   string
	Heading string
}

type reviewFlaggedEmailData struct {
	baseEmailData
	ReviewFlagged
}

type runSummaryEmailData struct {
	baseEmailData
	RunSummary
}

func mustParseEmail(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
