package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"stencil/app/store"
)

var errNoRouter = errors.New("web: router not configured")

// URLFor builds the URL of the named route. A name starting with "." is
// resolved within the current blueprint (".show" from a post view is
// "post.show").
func URLFor(r *http.Request, name string, pairs ...string) (string, error) {
	env := EnvFrom(r.Context())
	if env == nil || env.Router == nil {
		return "", errNoRouter
	}
	if strings.HasPrefix(name, ".") {
		name = Blueprint(r) + name
		name = strings.TrimPrefix(name, ".")
	}
	route := env.Router.Get(name)
	if route == nil {
		return "", fmt.Errorf("web: could not build url for endpoint %q", name)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", fmt.Errorf("web: build url for %q: %w", name, err)
	}
	return u.String(), nil
}

// Redirect sends a 302 to url.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// RedirectTo redirects to the named route, answering 500 when the URL
// cannot be built.
func RedirectTo(w http.ResponseWriter, r *http.Request, name string, pairs ...string) {
	url, err := URLFor(r, name, pairs...)
	if err != nil {
		EnvFrom(r.Context()).logger().ErrorContext(r.Context(), "redirect failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	Redirect(w, r, url)
}

// Abort answers with the bare status. Registered error handlers replace
// the body.
func Abort(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

// NotFound answers 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Abort(w, http.StatusNotFound)
}

// Var returns the route variable name.
func Var(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// IntVar returns the integer route variable name.
func IntVar(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(Var(r, name))
	return v, err == nil
}

// Fail answers 404 for store.ErrNotFound and logs anything else as a 500.
func Fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		NotFound(w, r)
		return
	}
	EnvFrom(r.Context()).logger().ErrorContext(r.Context(), msg, slog.Any("error", err))
	Abort(w, http.StatusInternalServerError)
}
