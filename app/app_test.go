package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stencil/app/i18n"
	"stencil/app/middleware"
	"stencil/app/router"
	"stencil/app/web"
	"stencil/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		Testing:             true,
		Port:                5000,
		SecretKey:           "test-secret",
		DatabaseInMemory:    true,
		CacheType:           "null",
		CacheTTL:            60,
		StaticDir:           "does-not-exist",
		DefaultLocale:       "en",
		MethodOverrideField: "_method",
	}
}

var testTemplates = fstest.MapFS{
	"layout.html":     {Data: []byte(`{{define "layout"}}[{{template "content" .}}]{{end}}`)},
	"errors/404.html": {Data: []byte(`{{define "content"}}missing {{.path}}{{end}}`)},
}

func newTestApp(t *testing.T, s Settings) *App {
	t.Helper()
	if s.Templates == nil {
		s.Templates = testTemplates
	}
	a, err := New(testConfig(), s, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func get(a http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}
}

func TestMiddlewaresFirstIsOutermost(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(_ *App, next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name+">")
				next.ServeHTTP(w, r)
				trace = append(trace, "<"+name)
			})
		}
	}
	a := newTestApp(t, Settings{
		Middlewares: []Middleware{mark("a"), mark("b")},
		Routes: []router.Rule{
			{"/", "index", func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, "view")
			}},
		},
	})

	get(a, "/")
	assert.Equal(t, []string{"a>", "b>", "view", "<b", "<a"}, trace)
}

func TestBeforeRequestsStopChain(t *testing.T) {
	var trace []string
	a := newTestApp(t, Settings{
		BeforeRequests: []BeforeFunc{
			func(w http.ResponseWriter, r *http.Request) bool {
				trace = append(trace, "first")
				return false
			},
			func(w http.ResponseWriter, r *http.Request) bool {
				trace = append(trace, "second")
				if r.URL.Query().Get("block") == "" {
					return false
				}
				http.Error(w, "blocked", http.StatusForbidden)
				return true
			},
			func(w http.ResponseWriter, r *http.Request) bool {
				trace = append(trace, "third")
				return false
			},
		},
		AfterRequests: []AfterFunc{
			func(resp *Response, r *http.Request) {
				trace = append(trace, "after")
			},
		},
		Routes: []router.Rule{
			{"/", "index", func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, "view")
			}},
		},
	})

	rec := get(a, "/?block=1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"first", "second", "after"}, trace)

	trace = nil
	rec = get(a, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second", "third", "view", "after"}, trace)
}

func TestAfterRequestsRewriteResponse(t *testing.T) {
	a := newTestApp(t, Settings{
		AfterRequests: []AfterFunc{
			func(resp *Response, r *http.Request) {
				resp.Header().Set("X-Frame-Options", "DENY")
				resp.Body.WriteString("!")
			},
			func(resp *Response, r *http.Request) {
				resp.StatusCode = http.StatusAccepted
			},
		},
		Routes: []router.Rule{{"/", text("hello")}},
	})

	rec := get(a, "/")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "hello!", rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestErrorHandlers(t *testing.T) {
	a := newTestApp(t, Settings{
		ErrorHandlers: []ErrorHandler{
			{Code: http.StatusNotFound, Handler: func(w http.ResponseWriter, r *http.Request) {
				web.RenderStatus(w, r, http.StatusNotFound, "errors/404.html", web.Data{"path": r.URL.Path})
			}},
			{Code: http.StatusInternalServerError, Handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, "oops")
			}},
		},
		Routes: []router.Rule{
			{"/gone", "gone", web.NotFound},
			{"/boom", "boom", func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}},
		},
	})

	rec := get(a, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "[missing /nowhere]", rec.Body.String())

	rec = get(a, "/gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "[missing /gone]", rec.Body.String())

	rec = get(a, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "oops", rec.Body.String())
}

func TestErrorHandlerKeepsStatus(t *testing.T) {
	a := newTestApp(t, Settings{
		ErrorHandlers: []ErrorHandler{
			{Code: http.StatusNotFound, Handler: text("missing")},
			{Code: http.StatusInternalServerError, Handler: text("broken")},
		},
		Routes: []router.Rule{{"/boom", "boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}}},
	})

	rec := get(a, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", rec.Body.String())

	rec = get(a, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "broken", rec.Body.String())
}

func TestViewsSeeEnvAndLocale(t *testing.T) {
	var (
		env    *web.Env
		locale string
	)
	a := newTestApp(t, Settings{
		Translations: i18n.Translations{"fr": {"Hello": "Bonjour"}},
		Routes: []router.Rule{{"/", "index", func(w http.ResponseWriter, r *http.Request) {
			env = web.EnvFrom(r.Context())
			locale = i18n.Locale(r.Context()).String()
		}}},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	a.ServeHTTP(httptest.NewRecorder(), req)
	assert.Same(t, a.Env(), env)
	assert.Equal(t, "fr", locale)
}

func TestNewUsesConfiguredLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "error"
	a, err := New(cfg, Settings{Templates: testTemplates})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	assert.False(t, a.Logger().Enabled(ctx, slog.LevelWarn))
	assert.True(t, a.Logger().Enabled(ctx, slog.LevelError))
}

func TestMiddlewareCookiesKept(t *testing.T) {
	a := newTestApp(t, Settings{
		Middlewares: []Middleware{Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.SetCookie(w, &http.Cookie{Name: "outer", Value: "1"})
				next.ServeHTTP(w, r)
			})
		})},
		Routes: []router.Rule{{"/", "index", func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "inner", Value: "2"})
		}}},
	})

	var names []string
	for _, c := range get(a, "/").Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"outer", "inner"}, names)
}

func TestPanicWithoutHandler(t *testing.T) {
	a := newTestApp(t, Settings{
		Routes: []router.Rule{{"/boom", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "partial")
			panic("boom")
		}}},
	})

	rec := get(a, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error\n", rec.Body.String())
}

func itemBlueprint(trace *[]string) *Blueprint {
	return &Blueprint{
		Name: "item",
		Routes: []router.Rule{
			{"/", "index", func(w http.ResponseWriter, r *http.Request) {
				web.Render(w, r, "item/index.html", web.Data{"title": "Items"})
			}},
			{"/<int:id>", "show", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, "item %s", mux.Vars(r)["id"])
			}},
			{"/<int:id>/delete", "delete", func(w http.ResponseWriter, r *http.Request) {
				web.RedirectTo(w, r, ".index")
			}, router.Options{Methods: []string{http.MethodPost, http.MethodDelete}}},
		},
		Templates: fstest.MapFS{
			"item/index.html": {Data: []byte(`{{define "content"}}{{.title}} by {{.owner}} at {{url_for "item.show" "id" "2"}}{{end}}`)},
		},
		Static: fstest.MapFS{
			"css/item.css": {Data: []byte(".item { color: blue; }")},
		},
		BeforeRequests: []BeforeFunc{func(w http.ResponseWriter, r *http.Request) bool {
			*trace = append(*trace, "item-before")
			return false
		}},
		BeforeAppRequests: []BeforeFunc{func(w http.ResponseWriter, r *http.Request) bool {
			*trace = append(*trace, "app-before")
			return false
		}},
		ContextProcessors: []web.ContextProcessor{func(*http.Request) map[string]any {
			return map[string]any{"owner": "item-bp"}
		}},
		ErrorHandlers: []ErrorHandler{{Code: http.StatusTeapot, Handler: text("bp teapot")}},
		Models:        []string{"item"},
	}
}

func TestBlueprintMount(t *testing.T) {
	var trace []string
	a := newTestApp(t, Settings{
		Middlewares: []Middleware{MethodRewrite},
		Blueprints:  []Mount{{Blueprint: itemBlueprint(&trace), URLPrefix: "/items"}},
		Routes: []router.Rule{
			{"/", "home", text("home")},
			{"/teapot", "teapot", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}},
		},
	})

	rec := get(a, "/items/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[Items by item-bp at /items/2]", rec.Body.String())
	assert.Equal(t, []string{"app-before", "item-before"}, trace)

	trace = nil
	rec = get(a, "/")
	assert.Equal(t, "home", rec.Body.String())
	assert.Equal(t, []string{"app-before"}, trace)

	rec = get(a, "/items/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Blueprint error handlers only cover blueprint routes.
	rec = get(a, "/teapot")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Body.String())

	form := url.Values{"_method": {"DELETE"}}
	req := httptest.NewRequest(http.MethodPost, "/items/3/delete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/items/", rec.Header().Get("Location"))

	rec = get(a, "/items/static/css/item.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".item")

	assert.Equal(t, []string{"item"}, a.Models())

	names := map[string]string{}
	for _, route := range a.Routes() {
		names[route.Name] = route.Path
	}
	assert.Equal(t, "/items/", names["item.index"])
	assert.Equal(t, "/items/{id:[0-9]+}", names["item.show"])
	assert.Equal(t, "/", names["home"])
	assert.Contains(t, names, "item.static")
}

func TestBlueprintHTTPAuth(t *testing.T) {
	var trace []string
	bp := itemBlueprint(&trace)
	bp.BeforeRequests = []BeforeFunc{middleware.HTTPDontAuth("admin", "secret", "item.index")}
	a := newTestApp(t, Settings{
		Blueprints: []Mount{{Blueprint: bp, URLPrefix: "/items"}},
		Routes:     []router.Rule{{"/open", "open", text("open")}},
	})

	assert.Equal(t, http.StatusOK, get(a, "/items/").Code)
	assert.Equal(t, http.StatusOK, get(a, "/open").Code)

	rec := get(a, "/items/1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Login Required"`, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "item 1", rec.Body.String())
}

func TestAppErrorHandlerFromBlueprint(t *testing.T) {
	var trace []string
	bp := itemBlueprint(&trace)
	bp.AppErrorHandlers = []ErrorHandler{{Code: http.StatusNotFound, Handler: text("bp says missing")}}
	a := newTestApp(t, Settings{Blueprints: []Mount{{Blueprint: bp}}})

	rec := get(a, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "bp says missing", rec.Body.String())
	assert.Equal(t, http.StatusOK, get(a, "/").Code)
}

func TestStaticAndAssets(t *testing.T) {
	a := newTestApp(t, Settings{
		Static: fstest.MapFS{
			"css/site.css": {Data: []byte("body {\n  margin: 0px;\n}\n")},
			"js/site.js":   {Data: []byte("var site = 1;\n")},
		},
	})

	rec := get(a, "/static/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(a, "/static/css/application.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "body{margin:0")

	urls := a.Assets().URLs("js_all")
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0], "/static/js/application.js?v="))
}

func TestTemplateFiltersAndContextProcessors(t *testing.T) {
	a := newTestApp(t, Settings{
		Templates: fstest.MapFS{
			"layout.html": {Data: []byte(`{{define "layout"}}{{template "content" .}}{{end}}`)},
			"page.html":   {Data: []byte(`{{define "content"}}{{custom_reverse .site}}{{end}}`)},
		},
		TemplateFilters: []TemplateFilter{{Name: "custom_reverse", Func: func(s string) string {
			r := []rune(s)
			for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
				r[i], r[j] = r[j], r[i]
			}
			return string(r)
		}}},
		ContextProcessors: []web.ContextProcessor{func(*http.Request) map[string]any {
			return map[string]any{"site": "stencil"}
		}},
		Routes: []router.Rule{{"/", "page", func(w http.ResponseWriter, r *http.Request) {
			web.Render(w, r, "page.html", nil)
		}}},
	})

	assert.Equal(t, "licnets", get(a, "/").Body.String())
}

func TestBadRouteFailsNew(t *testing.T) {
	_, err := New(testConfig(), Settings{Routes: []router.Rule{{"/only-url"}}},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.ErrorIs(t, err, router.ErrRuleFormat)
}

func TestServeGracefulShutdown(t *testing.T) {
	a := newTestApp(t, Settings{
		Routes: []router.Rule{{"/", "index", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			io.WriteString(w, "ok")
		}}},
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
