package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// pageTemplate parses the base layout together with templates/{name}.gohtml.
func pageTemplate(name string) (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "templates/base.gohtml", "templates/"+name+".gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func renderToBuf(name string, data any) (*bytes.Buffer, error) {
	t, err := pageTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("retrieve page template %s: %w", name, err)
	}
	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf, nil
}

// render writes the page to the response only after it rendered without errors.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	buf, err := renderToBuf(name, data)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
