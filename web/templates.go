package web

import (
	"embed"
	"html/template"
	"io/fs"
	"sync"
)

//go:embed *.html app.css
var content embed.FS

var (
	tmpl *template.Template
	once sync.Once
)

// Templates returns the parsed HTML templates for the UI, embedded at build time.
// The layout.html template includes the per-page component templates
// (users.html, cohorts.html, accounts.html, settings.html, docs.html)
// via the "content" template block.
func Templates() *template.Template {
	once.Do(func() {
		tmpl = template.Must(template.ParseFS(content, "*.html"))
	})
	return tmpl
}

// StaticFS exposes embedded static assets such as CSS.
func StaticFS() fs.FS {
	return content
}
