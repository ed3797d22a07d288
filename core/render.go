package core

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// loadTemplates parses the embedded views. Templates are addressed by file
// name, e.g. "login.tmpl".
func loadTemplates() (*template.Template, error) {
	return template.New("").ParseFS(templatesFS, "templates/*.tmpl")
}
