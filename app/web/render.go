package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sync"

	"github.com/gorilla/csrf"
)

const (
	// LayoutFile defines the "layout" template every page is executed through.
	LayoutFile = "layout.html"
	// HelpersFile holds macros shared by all pages. It is optional.
	HelpersFile = "helpers.html"
)

// Templates loads page templates from an ordered list of file systems.
// The first file system holding a file wins, so application templates
// override blueprint ones.
type Templates struct {
	mu      sync.Mutex
	sources []fs.FS
	funcs   template.FuncMap
	reload  bool
	cache   map[string]*template.Template
}

// NewTemplates returns a loader over sources. With reload set templates
// are parsed again on every render.
func NewTemplates(reload bool, sources ...fs.FS) *Templates {
	t := &Templates{
		sources: sources,
		funcs:   template.FuncMap{},
		reload:  reload,
		cache:   map[string]*template.Template{},
	}
	t.Funcs(requestFuncs(nil, nil, nil))
	return t
}

// Add appends a template source.
func (t *Templates) Add(fsys fs.FS) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, fsys)
	clear(t.cache)
}

// Funcs adds template functions. Later calls override earlier names.
func (t *Templates) Funcs(funcs template.FuncMap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, fn := range funcs {
		t.funcs[name] = fn
	}
	clear(t.cache)
}

// Lookup returns the template set for page ("post/index.html"): the
// layout, the helpers, the partials next to the page (files starting
// with "_") and the page itself.
func (t *Templates) Lookup(page string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[page]; ok && !t.reload {
		return tmpl, nil
	}
	tmpl, err := t.build(page)
	if err != nil {
		return nil, err
	}
	t.cache[page] = tmpl
	return tmpl, nil
}

func (t *Templates) build(page string) (*template.Template, error) {
	root := template.New(page).Funcs(t.funcs)

	for _, shared := range []string{LayoutFile, HelpersFile} {
		fsys := t.find(shared)
		if fsys == nil {
			if shared == LayoutFile {
				return nil, fmt.Errorf("template %s: %w", shared, fs.ErrNotExist)
			}
			continue
		}
		if err := parseFile(root, fsys, shared); err != nil {
			return nil, err
		}
	}

	fsys := t.find(page)
	if fsys == nil {
		return nil, fmt.Errorf("template %s: %w", page, fs.ErrNotExist)
	}
	partials, err := fs.Glob(fsys, path.Join(path.Dir(page), "_*.html"))
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		if err := parseFile(root, fsys, p); err != nil {
			return nil, err
		}
	}
	if err := parseFile(root, fsys, page); err != nil {
		return nil, err
	}
	return root, nil
}

func (t *Templates) find(name string) fs.FS {
	for _, fsys := range t.sources {
		if _, err := fs.Stat(fsys, name); err == nil {
			return fsys
		}
	}
	return nil
}

func parseFile(root *template.Template, fsys fs.FS, name string) error {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	var tmpl *template.Template
	if name == root.Name() {
		tmpl = root
	} else {
		tmpl = root.New(name)
	}
	if _, err := tmpl.Parse(string(src)); err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	return nil
}

// Render executes page through the layout with a 200 status.
func Render(w http.ResponseWriter, r *http.Request, page string, data Data) {
	RenderStatus(w, r, http.StatusOK, page, data)
}

// RenderStatus executes page through the layout. The template context
// holds the context processor values, "request", "endpoint" and data.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data Data) {
	env := EnvFrom(r.Context())
	if env == nil || env.Templates == nil {
		http.Error(w, "templates not configured", http.StatusInternalServerError)
		return
	}
	body, err := env.execute(w, r, page, data)
	if err != nil {
		env.logger().ErrorContext(r.Context(), "render failed",
			slog.String("template", page),
			slog.Any("error", err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func (e *Env) execute(w http.ResponseWriter, r *http.Request, page string, data Data) ([]byte, error) {
	base, err := e.Templates.Lookup(page)
	if err != nil {
		return nil, err
	}
	tmpl, err := base.Clone()
	if err != nil {
		return nil, err
	}
	tmpl.Funcs(requestFuncs(e, w, r))

	ctx := Data{}
	bp := Blueprint(r)
	for _, p := range e.processors {
		if p.blueprint == "" || p.blueprint == bp {
			for k, v := range p.fn(r) {
				ctx[k] = v
			}
		}
	}
	ctx["request"] = r
	ctx["endpoint"] = Endpoint(r)
	for k, v := range data {
		ctx[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var errNoRequest = errors.New("template function used outside a request")

// requestFuncs returns the template functions bound to one request. With a
// nil request they only reserve the names for parsing.
func requestFuncs(e *Env, w http.ResponseWriter, r *http.Request) template.FuncMap {
	if r == nil {
		return template.FuncMap{
			"url_for": func(string, ...string) (string, error) { return "", errNoRequest },
			"static":  func(string) string { return "" },
			"gettext": func(key string, args ...any) string { return key },
			"_":       func(key string, args ...any) string { return key },
			"locale":  func() string { return "" },
			"flashes": func() []Flashed { return nil },
			"assets":  func(string) []string { return nil },

			"csrf_field": func() template.HTML { return "" },
			"csrf_token": func() string { return "" },
		}
	}
	funcs := template.FuncMap{
		"url_for": func(name string, pairs ...string) (string, error) {
			return URLFor(r, name, pairs...)
		},
		"static": func(name string) string {
			return e.staticURL() + "/" + name
		},
		"gettext": fmt.Sprintf,
		"_":       fmt.Sprintf,
		"locale":  func() string { return "" },
		"flashes": func() []Flashed {
			flashes, err := Flashes(w, r)
			if err != nil {
				e.logger().WarnContext(r.Context(), "read flashes", slog.Any("error", err))
			}
			return flashes
		},
		"assets": func(string) []string { return nil },

		// Empty unless the CSRF middleware ran.
		"csrf_field": func() template.HTML { return csrf.TemplateField(r) },
		"csrf_token": func() string { return csrf.Token(r) },
	}
	if e.I18n != nil {
		for name, fn := range e.I18n.Funcs(r) {
			funcs[name] = fn
		}
	}
	if e.Assets != nil {
		for name, fn := range e.Assets.Funcs() {
			funcs[name] = fn
		}
	}
	return funcs
}

func (e *Env) staticURL() string {
	if e.StaticURL != "" {
		return e.StaticURL
	}
	return "/static"
}
