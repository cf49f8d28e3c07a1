package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"stencil/app/router"
	"stencil/app/web"
)

// Blueprint groups the routes, templates, static files and hooks of one
// resource area. Hooks without the App prefix only run for the
// blueprint's own routes.
type Blueprint struct {
	Name      string
	Routes    []router.Rule
	Templates fs.FS
	Static    fs.FS

	BeforeRequests       []BeforeFunc
	BeforeAppRequests    []BeforeFunc
	AfterRequests        []AfterFunc
	AfterAppRequests     []AfterFunc
	ContextProcessors    []web.ContextProcessor
	AppContextProcessors []web.ContextProcessor
	ErrorHandlers        []ErrorHandler
	AppErrorHandlers     []ErrorHandler

	// Models names the store tables the blueprint defines.
	Models []string
}

// Mount places a blueprint under an optional URL prefix.
type Mount struct {
	Blueprint *Blueprint
	URLPrefix string
}

func (a *App) registerBlueprint(m Mount) error {
	bp := m.Blueprint
	prefix := strings.TrimSuffix(m.URLPrefix, "/")

	var sub *mux.Router
	if prefix != "" {
		sub = a.router.PathPrefix(prefix).Subrouter()
	} else {
		sub = a.router.NewRoute().Subrouter()
	}

	chain := &hookChain{
		before: bp.BeforeRequests,
		after:  bp.AfterRequests,
		errors: errorHandlers{},
		logger: a.logger,
	}
	chain.errors.add(bp.ErrorHandlers)
	sub.Use(chain.middleware)

	if bp.Static != nil {
		staticURL := prefix + "/static"
		sub.PathPrefix("/static/").
			Handler(http.StripPrefix(staticURL+"/", http.FileServer(http.FS(bp.Static)))).
			Name(bp.Name + ".static")
		if err := a.assets.Register(bp.Static, bp.Name, staticURL); err != nil {
			return err
		}
	}

	if _, err := router.SetURLs(sub, bp.Name, bp.Routes); err != nil {
		return err
	}

	if bp.Templates != nil {
		a.env.Templates.Add(bp.Templates)
	}
	for _, p := range bp.ContextProcessors {
		a.env.AddContextProcessor(bp.Name, p)
	}
	for _, p := range bp.AppContextProcessors {
		a.env.AddContextProcessor("", p)
	}
	a.hooks.before = append(a.hooks.before, bp.BeforeAppRequests...)
	a.hooks.after = append(a.hooks.after, bp.AfterAppRequests...)
	a.hooks.errors.add(bp.AppErrorHandlers)

	a.blueprints = append(a.blueprints, m)
	a.logger.Debug("blueprint registered",
		slog.String("name", bp.Name),
		slog.String("prefix", prefix),
		slog.Int("routes", len(bp.Routes)),
	)
	return nil
}
