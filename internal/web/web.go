// Package web holds the embedded page templates and static assets and
// renders pages for gin.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates static
var files embed.FS

// layouts maps each page directory to the layout wrapping its pages. Public
// pages are registered by file name, admin pages as "admin/<file>".
var layouts = map[string]string{
	"public": "templates/layouts/public.html",
	"admin":  "templates/layouts/admin.html",
}

// Renderer implements gin's render.HTMLRender over the embedded templates.
// Every page is parsed once with its layout and the shared partials.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page. funcs are added to the built in helpers and
// may override them.
func NewRenderer(funcs template.FuncMap) (*Renderer, error) {
	helpers := baseFuncs()
	for name, fn := range funcs {
		helpers[name] = fn
	}

	r := &Renderer{pages: make(map[string]*template.Template)}

	// top level pages carry their own "layout" definition
	standalone, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range standalone {
		t, err := template.New(path.Base(page)).Funcs(helpers).ParseFS(files, "templates/partials/*.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[path.Base(page)] = t
	}

	for dir, layout := range layouts {
		pages, err := fs.Glob(files, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			name := path.Base(page)
			if dir != "public" {
				name = dir + "/" + name
			}
			t, err := template.New(path.Base(layout)).
				Funcs(helpers).
				ParseFS(files, layout, "templates/partials/*.html", page)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", page, err)
			}
			r.pages[name] = t
		}
	}
	return r, nil
}

// Pages lists the registered page names.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}

func (r *Renderer) Instance(name string, data interface{}) render.Render {
	t, ok := r.pages[name]
	if !ok {
		return missingPage(name)
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

type missingPage string

func (m missingPage) Render(http.ResponseWriter) error {
	return fmt.Errorf("unknown page %q", string(m))
}

func (m missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// Static returns the embedded assets rooted at the static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"add":   func(a, b int) int { return a + b },
		"lower": strings.ToLower,
		"join":  strings.Join,
		// markdown is replaced by the content service's renderer.
		"markdown": func(s string) template.HTML {
			return template.HTML(template.HTMLEscapeString(s))
		},
		"field": func(errs map[string]string, name string) string {
			return errs[name]
		},
		"dict": func(kv ...interface{}) (map[string]interface{}, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict needs key value pairs")
			}
			m := make(map[string]interface{}, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", kv[i])
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
	}
}
