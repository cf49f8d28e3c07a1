// Package assets collects the css and js files of the application and its
// blueprints into the css_all and js_all bundles.
package assets

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

const (
	CSSBundle = "css_all"
	JSBundle  = "js_all"
)

// File is one source file of a bundle.
type File struct {
	// Name is the file path relative to its static folder, prefixed with
	// the blueprint name for blueprint files ("post/css/post.css").
	Name string
	// URL serves the unbundled file.
	URL string

	fsys fs.FS
	path string
}

type bundle struct {
	name     string
	output   string
	mimeType string
	// The application's own files come before any blueprint's.
	app        []File
	blueprints []File
	content    []byte
	digest     string
}

// Pipeline builds and serves the asset bundles.
type Pipeline struct {
	debug   bool
	prefix  string
	logger  *slog.Logger
	minify  *minify.M
	mu      sync.RWMutex
	bundles map[string]*bundle
	built   time.Time
}

// New returns an empty pipeline serving bundles under urlPrefix
// ("/static"). In debug mode bundles are neither concatenated nor minified.
func New(urlPrefix string, debug bool, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return &Pipeline{
		debug:  debug,
		prefix: strings.TrimSuffix(urlPrefix, "/"),
		logger: logger,
		minify: m,
		bundles: map[string]*bundle{
			CSSBundle: {name: CSSBundle, output: "css/application.css", mimeType: "text/css"},
			JSBundle:  {name: JSBundle, output: "js/application.js", mimeType: "application/javascript"},
		},
	}
}

var sources = []struct {
	bundle, dir, ext string
	compiled         bool
}{
	{CSSBundle, "css", ".css", false},
	{CSSBundle, "css", ".less", true},
	{JSBundle, "js", ".js", false},
	{JSBundle, "js", ".coffee", true},
}

// Register adds the css and js files of one static folder. name is empty
// for the application folder and the blueprint name otherwise; urlBase is
// where the folder is served.
func (p *Pipeline) Register(fsys fs.FS, name, urlBase string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	urlBase = strings.TrimSuffix(urlBase, "/")
	for _, src := range sources {
		matches, err := fs.Glob(fsys, src.dir+"/*"+src.ext)
		if err != nil {
			return fmt.Errorf("assets: glob %s: %w", src.dir, err)
		}
		sort.Strings(matches)
		b := p.bundles[src.bundle]
		for _, m := range matches {
			if src.compiled {
				p.logger.Warn("asset needs a compiler and is not bundled", slog.String("file", m))
				continue
			}
			fileName := m
			if name != "" {
				fileName = name + "/" + m
			}
			f := File{Name: fileName, URL: urlBase + "/" + m, fsys: fsys, path: m}
			if name == "" {
				b.app = append(b.app, f)
			} else {
				b.blueprints = append(b.blueprints, f)
			}
		}
	}
	return nil
}

func (b *bundle) files() []File {
	files := make([]File, 0, len(b.app)+len(b.blueprints))
	return append(append(files, b.app...), b.blueprints...)
}

// Build concatenates and minifies every bundle.
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range p.bundles {
		var buf bytes.Buffer
		files := b.files()
		for _, f := range files {
			data, err := fs.ReadFile(f.fsys, f.path)
			if err != nil {
				return fmt.Errorf("assets: read %s: %w", f.Name, err)
			}
			buf.Write(data)
			if b.mimeType == "application/javascript" {
				buf.WriteString(";")
			}
			buf.WriteString("\n")
		}
		content := buf.Bytes()
		if !p.debug {
			out, err := p.minify.Bytes(b.mimeType, content)
			if err != nil {
				return fmt.Errorf("assets: minify %s: %w", b.name, err)
			}
			content = out
		}
		sum := sha256.Sum256(content)
		b.content = content
		b.digest = hex.EncodeToString(sum[:])[:12]
		p.logger.Debug("asset bundle built",
			slog.String("bundle", b.name),
			slog.Int("files", len(files)),
			slog.Int("bytes", len(content)),
		)
	}
	p.built = time.Now()
	return nil
}

// Files lists the sources of the named bundle.
func (p *Pipeline) Files(name string) []File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.bundles[name]
	if !ok {
		return nil
	}
	return b.files()
}

// URLs returns the URLs a page includes for the named bundle: every
// source file in debug mode, otherwise the single built bundle.
func (p *Pipeline) URLs(name string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.bundles[name]
	if !ok {
		return nil
	}
	files := b.files()
	if len(files) == 0 {
		return nil
	}
	if p.debug {
		urls := make([]string, len(files))
		for i, f := range files {
			urls[i] = f.URL
		}
		return urls
	}
	return []string{p.prefix + "/" + b.output + "?v=" + b.digest}
}

// Paths returns the URL paths of the built bundles.
func (p *Pipeline) Paths() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	paths := make([]string, 0, len(p.bundles))
	for _, b := range p.bundles {
		paths = append(paths, p.prefix+"/"+b.output)
	}
	sort.Strings(paths)
	return paths
}

// ServeHTTP serves a built bundle.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, b := range p.bundles {
		if r.URL.Path != p.prefix+"/"+b.output {
			continue
		}
		w.Header().Set("Content-Type", b.mimeType+"; charset=utf-8")
		w.Header().Set("ETag", `"`+b.digest+`"`)
		http.ServeContent(w, r, b.output, p.built, bytes.NewReader(b.content))
		return
	}
	http.NotFound(w, r)
}

// Funcs returns the "assets" template function.
func (p *Pipeline) Funcs() map[string]any {
	return map[string]any{"assets": p.URLs}
}
