// Package views renders the HTML pages from embedded templates.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
)

//go:embed templates
var files embed.FS

// Pages are the renderable page names.
var Pages = []string{
	"products/index",
	"products/show",
	"products/form",
	"error",
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"selected": func(a, b string) bool {
		return a == b
	},
}

// Engine implements fiber.Views. Every page is rendered inside the layout.
type Engine struct {
	once      sync.Once
	loadErr   error
	templates map[string]*template.Template
}

// New creates an Engine. Templates are parsed by Load or on first Render.
func New() *Engine {
	return &Engine{}
}

// Load parses every page together with the layout.
func (e *Engine) Load() error {
	e.once.Do(func() {
		e.templates = make(map[string]*template.Template, len(Pages))
		for _, page := range Pages {
			tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files,
				"templates/layout.html",
				"templates/"+page+".html",
			)
			if err != nil {
				e.loadErr = fmt.Errorf("failed to parse %s: %w", page, err)
				return
			}
			e.templates[page] = tmpl
		}
	})
	return e.loadErr
}

// Render writes page name with data to out. Layout names are ignored.
func (e *Engine) Render(out io.Writer, name string, data interface{}, _ ...string) error {
	if err := e.Load(); err != nil {
		return err
	}
	tmpl, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("template %s does not exist", name)
	}
	return tmpl.ExecuteTemplate(out, "layout.html", data)
}
