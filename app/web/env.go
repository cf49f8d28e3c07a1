// Package web holds the helpers views use to render templates, bind forms,
// flash messages and build URLs.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"stencil/app/assets"
	"stencil/app/cache"
	"stencil/app/i18n"
)

// Data is the template context.
type Data map[string]any

// ContextProcessor adds values to the context of every rendered template.
type ContextProcessor func(r *http.Request) map[string]any

// Env is the per-application state shared by every request.
type Env struct {
	Templates *Templates
	Router    *mux.Router
	Sessions  sessions.Store
	Cache     cache.Cache
	CacheTTL  time.Duration
	I18n      *i18n.Bundle
	Assets    *assets.Pipeline
	Logger    *slog.Logger
	StaticURL string

	processors []scopedProcessor
}

type scopedProcessor struct {
	blueprint string
	fn        ContextProcessor
}

// AddContextProcessor registers fn for templates rendered by the named
// blueprint's views, or by every view when blueprint is empty.
func (e *Env) AddContextProcessor(blueprint string, fn ContextProcessor) {
	e.processors = append(e.processors, scopedProcessor{blueprint: blueprint, fn: fn})
}

func (e *Env) logger() *slog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

type envKey struct{}

// WithEnv stores env in ctx.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env stored by WithEnv, or nil.
func EnvFrom(ctx context.Context) *Env {
	env, _ := ctx.Value(envKey{}).(*Env)
	return env
}

// Middleware makes env available to every request.
func (e *Env) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithEnv(r.Context(), e)))
	})
}

// Endpoint returns the name of the route that matched r ("post.show").
func Endpoint(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// Blueprint returns the blueprint part of the matched route name.
func Blueprint(r *http.Request) string {
	name := Endpoint(r)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}
