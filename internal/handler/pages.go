package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"os"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// LoadTemplates parses the page templates from dir, or from the embedded copies
// when dir is empty.
func LoadTemplates(dir string) (*template.Template, error) {
	if dir != "" {
		return template.ParseFS(os.DirFS(dir), "*.html")
	}
	return template.ParseFS(embeddedTemplates, "templates/*.html")
}

// render buffers the page; nothing is written if execution fails.
func render(w http.ResponseWriter, tmpl *template.Template, name string, data any, logger *logger.Logger) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Error rendering %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
