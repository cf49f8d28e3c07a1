// Package app builds the web application from configuration and the
// ordered hook lists in Settings.
package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"

	"stencil/app/assets"
	"stencil/app/cache"
	"stencil/app/i18n"
	"stencil/app/logging"
	"stencil/app/router"
	"stencil/app/store"
	"stencil/app/web"
	"stencil/config"
)

// Settings lists what the application installs at start-up. Every list
// is installed in order in a single pass.
type Settings struct {
	Middlewares       []Middleware
	BeforeRequests    []BeforeFunc
	AfterRequests     []AfterFunc
	ContextProcessors []web.ContextProcessor
	TemplateFilters   []TemplateFilter
	ErrorHandlers     []ErrorHandler
	LogHandlers       []slog.Handler
	Blueprints        []Mount
	Routes            []router.Rule

	// Templates holds layout.html and the application's own pages.
	Templates fs.FS
	// Static overrides the STATIC_DIR folder.
	Static       fs.FS
	Translations i18n.Translations
}

// App is the configured web application.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *badger.DB
	ownDB      bool
	cache      cache.Cache
	i18n       *i18n.Bundle
	assets     *assets.Pipeline
	router     *mux.Router
	env        *web.Env
	hooks      *hookChain
	blueprints []Mount
	handler    http.Handler
}

// Option customises New.
type Option func(*App)

// WithDB makes the app use db instead of opening DATABASE_PATH. The
// caller keeps ownership of db.
func WithDB(db *badger.DB) Option {
	return func(a *App) { a.db = db }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithCache replaces the cache built from CACHE_TYPE.
func WithCache(c cache.Cache) Option {
	return func(a *App) { a.cache = c }
}

// New builds the application.
func New(cfg *config.Config, s Settings, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.New(logging.Options{
			Debug: cfg.Debug,
			Level: cfg.LogLevel,
			File:  cfg.LogFile,
			Extra: s.LogHandlers,
		})
	}

	if err := a.openStore(); err != nil {
		return nil, err
	}

	if a.cache == nil {
		c, err := cache.New(cache.Config{Type: cfg.CacheType, RedisURL: cfg.RedisURL, Prefix: "stencil:"})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = c
	}

	bundle, err := i18n.New(cfg.DefaultLocale, s.Translations)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.i18n = bundle

	a.router = mux.NewRouter()
	a.assets = assets.New("/static", cfg.AssetsDebug, a.logger)

	templates := web.NewTemplates(cfg.Debug)
	if s.Templates != nil {
		templates.Add(s.Templates)
	}
	a.env = &web.Env{
		Templates: templates,
		Router:    a.router,
		Sessions:  web.NewCookieStore(cfg.SecretKey, cfg.IsProduction()),
		Cache:     a.cache,
		CacheTTL:  time.Duration(cfg.CacheTTL) * time.Second,
		I18n:      a.i18n,
		Assets:    a.assets,
		Logger:    a.logger,
		StaticURL: "/static",
	}

	a.hooks = &hookChain{errors: errorHandlers{}, logger: a.logger}
	if err := a.install(s); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore() error {
	if a.db != nil {
		store.Use(a.db)
		return nil
	}
	var (
		db  *badger.DB
		err error
	)
	if a.cfg.DatabaseInMemory {
		db, err = store.OpenInMemory()
	} else {
		db, err = store.Open(a.cfg.DatabasePath)
	}
	if err != nil {
		return err
	}
	a.db, a.ownDB = db, true
	store.Use(db)
	return nil
}

func (a *App) install(s Settings) error {
	for _, p := range s.ContextProcessors {
		a.env.AddContextProcessor("", p)
	}
	filters := map[string]any{}
	for _, f := range s.TemplateFilters {
		filters[f.Name] = f.Func
	}
	a.env.Templates.Funcs(filters)
	a.hooks.before = append(a.hooks.before, s.BeforeRequests...)
	a.hooks.after = append(a.hooks.after, s.AfterRequests...)
	a.hooks.errors.add(s.ErrorHandlers)
	a.router.Use(a.hooks.middleware)

	static := s.Static
	if static == nil {
		if info, err := os.Stat(a.cfg.StaticDir); err == nil && info.IsDir() {
			static = os.DirFS(a.cfg.StaticDir)
		}
	}
	if static != nil {
		if err := a.assets.Register(static, "", "/static"); err != nil {
			return err
		}
	}

	// Bundles shadow same-named files in the static folder.
	for _, path := range a.assets.Paths() {
		a.router.Handle(path, a.assets).Methods(http.MethodGet, http.MethodHead).Name("_assets" + path)
	}
	if static != nil {
		a.router.PathPrefix("/static/").
			Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))).
			Name("static")
	}

	for _, m := range s.Blueprints {
		if err := a.registerBlueprint(m); err != nil {
			return fmt.Errorf("blueprint %s: %w", m.Blueprint.Name, err)
		}
	}

	if _, err := router.SetURLs(a.router, "", s.Routes); err != nil {
		return err
	}

	if err := a.assets.Build(); err != nil {
		return err
	}

	var h http.Handler = a.i18n.Middleware(a.env.Middleware(http.HandlerFunc(a.serve)))
	for i := len(s.Middlewares) - 1; i >= 0; i-- {
		h = s.Middlewares[i](a, h)
	}
	a.handler = h
	return nil
}

// serve runs the router over a buffered response. The locale and the web
// env are already in the request context.
func (a *App) serve(w http.ResponseWriter, r *http.Request) {
	resp := newResponse()
	func() {
		defer func() {
			if p := recover(); p != nil {
				a.logger.ErrorContext(r.Context(), "panic serving request",
					slog.Any("error", p),
					slog.String("path", r.URL.Path),
				)
				resp.reset(http.StatusInternalServerError)
				http.Error(resp, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		a.router.ServeHTTP(resp, r)
	}()
	// Unmatched routes and panics never reach the hook chain.
	a.hooks.errors.handle(resp, r, a.logger)
	resp.flush(w)
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Close releases the cache and the database opened by New.
func (a *App) Close() error {
	var firstErr error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil && a.ownDB {
		if store.Default() == a.db {
			store.Use(nil)
		}
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) Config() *config.Config   { return a.cfg }
func (a *App) Logger() *slog.Logger     { return a.logger }
func (a *App) DB() *badger.DB           { return a.db }
func (a *App) Cache() cache.Cache       { return a.cache }
func (a *App) Router() *mux.Router      { return a.router }
func (a *App) Env() *web.Env            { return a.env }
func (a *App) Assets() *assets.Pipeline { return a.assets }

// Models lists the tables declared by the registered blueprints.
func (a *App) Models() []string {
	var names []string
	for _, m := range a.blueprints {
		names = append(names, m.Blueprint.Models...)
	}
	return names
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Name    string
	Path    string
	Methods []string
}

// Routes lists the route table in registration order.
func (a *App) Routes() []RouteInfo {
	var routes []RouteInfo
	a.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if route.GetHandler() == nil {
			return nil
		}
		tpl, err := route.GetPathTemplate()
		if err != nil {
			tpl, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}
		methods, _ := route.GetMethods()
		routes = append(routes, RouteInfo{Name: route.GetName(), Path: tpl, Methods: methods})
		return nil
	})
	return routes
}
