// Package settings lists what the application installs at start-up:
// middlewares, hooks, template helpers, error pages and blueprints.
// Lists run in the order written here.
package settings

import (
	"net/http"
	"strings"

	"stencil/app"
	"stencil/app/middleware"
	"stencil/app/web"
	"stencil/blueprints/post"
	"stencil/config"
	"stencil/templates"
)

// Load returns the settings for cfg.
func Load(cfg *config.Config) app.Settings {
	return app.Settings{
		// The first middleware is the outermost.
		Middlewares: []app.Middleware{
			app.Use(middleware.RequestID),
			app.RequestLogger,
			app.PanicRecoverer,
			// Emulate a RESTful API for clients that only send GET and POST.
			app.MethodRewrite,
			app.CSRFProtect,
		},
		BeforeRequests: []app.BeforeFunc{},
		AfterRequests: []app.AfterFunc{
			securityHeaders,
		},
		ContextProcessors: []web.ContextProcessor{
			func(*http.Request) map[string]any {
				return map[string]any{"site_name": "stencil", "debug": cfg.Debug}
			},
		},
		TemplateFilters: []app.TemplateFilter{
			{Name: "custom_reverse", Func: reverse},
			{Name: "upper", Func: strings.ToUpper},
		},
		ErrorHandlers: []app.ErrorHandler{
			{Code: http.StatusNotFound, Handler: notFound},
			{Code: http.StatusInternalServerError, Handler: serverError},
		},
		Blueprints: []app.Mount{
			{Blueprint: post.New(cfg), URLPrefix: "/post"},
		},
		Templates:    templates.FS,
		Translations: Translations,
	}
}

func securityHeaders(resp *app.Response, r *http.Request) {
	h := resp.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	web.RenderStatus(w, r, http.StatusNotFound, "errors/404.html", web.Data{"path": r.URL.Path})
}

func serverError(w http.ResponseWriter, r *http.Request) {
	web.RenderStatus(w, r, http.StatusInternalServerError, "errors/500.html", nil)
}
