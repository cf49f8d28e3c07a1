package app

import (
	"log/slog"
	"net/http"

	"stencil/app/middleware"
)

// Middleware wraps the application handler. It receives the app so it can
// reach the logger and configuration.
type Middleware func(a *App, next http.Handler) http.Handler

// BeforeFunc runs before the view. Returning true means it has written
// the response and the view is skipped.
type BeforeFunc func(w http.ResponseWriter, r *http.Request) bool

// AfterFunc may change the buffered response before it is sent.
type AfterFunc func(resp *Response, r *http.Request)

// ErrorHandler replaces every response with status Code by the output of
// Handler.
type ErrorHandler struct {
	Code    int
	Handler http.HandlerFunc
}

// TemplateFilter is a named template function.
type TemplateFilter struct {
	Name string
	Func any
}

// Use adapts a plain net/http middleware.
func Use(mw func(http.Handler) http.Handler) Middleware {
	return func(_ *App, next http.Handler) http.Handler {
		return mw(next)
	}
}

// RequestLogger logs every request with the application logger.
func RequestLogger(a *App, next http.Handler) http.Handler {
	return middleware.Logger(a.Logger())(next)
}

// PanicRecoverer answers 500 when a handler outside the application
// core panics.
func PanicRecoverer(a *App, next http.Handler) http.Handler {
	return middleware.Recoverer(a.Logger())(next)
}

// MethodRewrite lets forms override the request method with the
// configured METHOD_OVERRIDE_FIELD.
func MethodRewrite(a *App, next http.Handler) http.Handler {
	return middleware.MethodRewrite(a.Config().MethodOverrideField)(next)
}

// CSRFProtect checks the csrf_token of unsafe requests when CSRF_ENABLED
// is set. Place it after MethodRewrite so rewritten methods are checked.
func CSRFProtect(a *App, next http.Handler) http.Handler {
	cfg := a.Config()
	if !cfg.CSRFEnabled {
		return next
	}
	return middleware.CSRF(cfg.SecretKey, cfg.IsProduction(), a.Logger())(next)
}

type errorHandlers map[int]http.HandlerFunc

func (h errorHandlers) add(list []ErrorHandler) {
	for _, eh := range list {
		h[eh.Code] = eh.Handler
	}
}

// handle replaces resp when a handler is registered for its status.
// A response is replaced at most once.
func (h errorHandlers) handle(resp *Response, r *http.Request, logger *slog.Logger) {
	if resp.handled {
		return
	}
	fn, ok := h[resp.StatusCode]
	if !ok {
		return
	}
	resp.handled = true
	resp.reset(resp.StatusCode)
	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(r.Context(), "error handler panicked", slog.Any("error", p))
			resp.reset(http.StatusInternalServerError)
			http.Error(resp, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()
	fn(resp, r)
}

// hookChain runs the before handlers, the view, the error handlers and the
// after handlers of one scope, the application or a blueprint.
type hookChain struct {
	before []BeforeFunc
	after  []AfterFunc
	errors errorHandlers
	logger *slog.Logger
}

func (c *hookChain) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stopped := false
		for _, before := range c.before {
			if before(w, r) {
				stopped = true
				break
			}
		}
		if !stopped {
			next.ServeHTTP(w, r)
		}

		resp, ok := w.(*Response)
		if !ok {
			return
		}
		c.errors.handle(resp, r, c.logger)
		for _, after := range c.after {
			after(resp, r)
		}
	})
}
