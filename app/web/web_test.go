package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
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

	"stencil/app/cache"
	"stencil/app/i18n"
	"stencil/app/store"
)

var testTemplates = fstest.MapFS{
	"layout.html": {Data: []byte(`{{define "layout"}}<title>{{block "title" .}}site{{end}}</title>` +
		`<h1>{{_ "Hello"}}</h1>` +
		`{{range flashes}}<p class="{{.Category}}">{{.Message}}</p>{{end}}` +
		`{{template "content" .}}{{end}}`)},
	"helpers.html":     {Data: []byte(`{{define "input"}}<input name="{{.}}">{{end}}`)},
	"item/_form.html":  {Data: []byte(`<form>{{template "input" "name"}}</form>`)},
	"item/show.html":   {Data: []byte(`{{define "title"}}Item {{.name}}{{end}}{{define "content"}}<p>{{.name}} by {{.owner}}</p><a href="{{url_for ".index"}}">back</a>{{template "item/_form.html" .}}{{end}}`)},
	"item/broken.html": {Data: []byte(`{{define "content"}}{{.missing.field.call}}{{end}}`)},
	"plain.html":       {Data: []byte(`{{define "content"}}{{range flashes}}<p class="{{.Category}}">{{.Message}}</p>{{end}}{{end}}`)},
}

type fixture struct {
	env     *Env
	router  *mux.Router
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bundle, err := i18n.New("en", i18n.Translations{"fr": {"Hello": "Bonjour"}})
	require.NoError(t, err)
	mem, err := cache.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })

	router := mux.NewRouter()
	env := &Env{
		Templates: NewTemplates(false, testTemplates),
		Router:    router,
		Sessions:  NewCookieStore("test-secret", false),
		Cache:     mem,
		CacheTTL:  time.Minute,
		I18n:      bundle,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	env.AddContextProcessor("item", func(*http.Request) map[string]any {
		return map[string]any{"owner": "alice"}
	})
	env.AddContextProcessor("other", func(*http.Request) map[string]any {
		return map[string]any{"owner": "bob"}
	})
	return &fixture{
		env:     env,
		router:  router,
		handler: env.Middleware(bundle.Middleware(router)),
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	f.router.HandleFunc("/items/", func(w http.ResponseWriter, r *http.Request) {}).Name("item.index")
	f.router.HandleFunc("/items/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		Render(w, r, "item/show.html", Data{"name": "lamp"})
	}).Name("item.show")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/items/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Item lamp</title>")
	assert.Contains(t, body, "<p>lamp by alice</p>")
	assert.Contains(t, body, `<a href="/items/">back</a>`)
	assert.Contains(t, body, `<form><input name="name"></form>`)
	assert.Contains(t, body, "<h1>Hello</h1>")

	req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	rec = f.do(req)
	assert.Contains(t, rec.Body.String(), "<h1>Bonjour</h1>")
}

func TestRenderErrors(t *testing.T) {
	f := newFixture(t)
	f.router.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		Render(w, r, "item/nope.html", nil)
	})
	f.router.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		Render(w, r, "item/broken.html", Data{"missing": 1})
	})

	assert.Equal(t, http.StatusInternalServerError, f.do(httptest.NewRequest(http.MethodGet, "/missing", nil)).Code)
	assert.Equal(t, http.StatusInternalServerError, f.do(httptest.NewRequest(http.MethodGet, "/broken", nil)).Code)

	rec := httptest.NewRecorder()
	Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "plain.html", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFlashes(t *testing.T) {
	f := newFixture(t)
	f.router.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, Flash(w, r, "info", "Saved."))
		require.NoError(t, Flash(w, r, "", "Done."))
		Redirect(w, r, "/page")
	})
	f.router.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		Render(w, r, "plain.html", nil)
	})

	rec := f.do(httptest.NewRequest(http.MethodPost, "/save", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/page", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Every save sets the cookie again; the last one holds both messages.
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.AddCookie(cookies[len(cookies)-1])
	rec = f.do(req)
	assert.Equal(t, `<p class="info">Saved.</p><p class="message">Done.</p>`, strings.TrimPrefix(rec.Body.String(), "<title>site</title><h1>Hello</h1>"))

	// Reading the flashes consumed them.
	req = httptest.NewRequest(http.MethodGet, "/page", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = f.do(req)
	assert.NotContains(t, rec.Body.String(), "Saved.")
}

func TestURLFor(t *testing.T) {
	f := newFixture(t)
	f.router.HandleFunc("/items/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {}).Name("item.show")

	var (
		got string
		err error
	)
	f.router.HandleFunc("/items/{id:[0-9]+}/edit", func(w http.ResponseWriter, r *http.Request) {
		got, err = URLFor(r, ".show", "id", mux.Vars(r)["id"])
	}).Name("item.edit")

	f.do(httptest.NewRequest(http.MethodGet, "/items/7/edit", nil))
	require.NoError(t, err)
	assert.Equal(t, "/items/7", got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithEnv(req.Context(), f.env))
	_, err = URLFor(req, "nope.index")
	assert.Error(t, err)
	_, err = URLFor(req, "item.show", "id", "abc")
	assert.Error(t, err)

	_, err = URLFor(httptest.NewRequest(http.MethodGet, "/", nil), "item.show")
	assert.Error(t, err)

	rec := httptest.NewRecorder()
	RedirectTo(rec, req, "nope.index")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVarsAndFail(t *testing.T) {
	f := newFixture(t)
	var failWith error
	f.router.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := IntVar(r, "id")
		if !ok {
			NotFound(w, r)
			return
		}
		if failWith != nil {
			Fail(w, r, "load item", failWith)
			return
		}
		fmt.Fprintf(w, "%s=%d", Var(r, "id"), id)
	})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/items/12", nil))
	assert.Equal(t, "12=12", rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failWith = fmt.Errorf("get: %w", store.ErrNotFound)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/items/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failWith = errors.New("disk on fire")
	rec = f.do(httptest.NewRequest(http.MethodGet, "/items/1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type itemForm struct {
	Name  string `schema:"name" validate:"required,min=3,max=10"`
	Count int    `schema:"count" validate:"min=0"`
	Note  string `schema:"note"`
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestBind(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		errors map[string][]string
	}{
		{"valid", url.Values{"name": {"lamp"}, "count": {"2"}, "extra": {"x"}}, map[string][]string{}},
		{"missing name", url.Values{"count": {"2"}}, map[string][]string{"name": {"This field is required."}}},
		{"short name", url.Values{"name": {"ab"}}, map[string][]string{"name": {"Field must be at least 3 characters long."}}},
		{"long name", url.Values{"name": {"abcdefghijk"}}, map[string][]string{"name": {"Field cannot be longer than 10 characters."}}},
		{"negative count", url.Values{"name": {"lamp"}, "count": {"-1"}}, map[string][]string{"count": {"Number must be at least 0."}}},
		{"bad count", url.Values{"name": {"lamp"}, "count": {"many"}}, map[string][]string{"count": {"Not a valid value."}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst itemForm
			form := Bind(postForm(tt.values), &dst)
			assert.Equal(t, tt.errors, form.Errors)
			assert.Equal(t, len(tt.errors) == 0, form.Valid())
			assert.Equal(t, tt.values.Get("name"), form.Get("name"))
		})
	}
}

func TestValidateOnSubmit(t *testing.T) {
	dst := &itemForm{Name: "lamp", Count: 3, Note: "n"}

	form, ok := ValidateOnSubmit(httptest.NewRequest(http.MethodGet, "/", nil), dst)
	assert.False(t, ok)
	assert.Equal(t, "lamp", form.Get("name"))
	assert.Equal(t, "3", form.Get("count"))
	assert.Empty(t, form.ErrorsFor("name"))

	form, ok = ValidateOnSubmit(postForm(url.Values{"name": {"chair"}, "count": {"4"}}), dst)
	assert.True(t, ok)
	assert.Equal(t, "chair", dst.Name)
	assert.Equal(t, 4, dst.Count)
	assert.Equal(t, "n", dst.Note)

	assert.True(t, NewForm(nil).Valid())
}

func TestCached(t *testing.T) {
	f := newFixture(t)
	calls := 0
	view := Cached(0)(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "call %d", calls)
	})
	f.router.HandleFunc("/cached", view).Methods(http.MethodGet, http.MethodPost)

	first := f.do(httptest.NewRequest(http.MethodGet, "/cached", nil))
	second := f.do(httptest.NewRequest(http.MethodGet, "/cached", nil))
	assert.Equal(t, "call 1", first.Body.String())
	assert.Equal(t, "call 1", second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "text/plain", second.Header().Get("Content-Type"))

	other := f.do(httptest.NewRequest(http.MethodGet, "/cached?page=2", nil))
	assert.Equal(t, "call 2", other.Body.String())

	post := f.do(httptest.NewRequest(http.MethodPost, "/cached", nil))
	assert.Equal(t, "call 3", post.Body.String())
	assert.Equal(t, 3, calls)
}

func TestCachedSkipsFlashes(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.router.HandleFunc("/flash", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, Flash(w, r, "message", "saved"))
	})
	f.router.HandleFunc("/page", Cached(0)(func(w http.ResponseWriter, r *http.Request) {
		calls++
		flashes, _ := Flashes(w, r)
		for _, fl := range flashes {
			io.WriteString(w, fl.Message)
		}
	}))

	flashed := func() *http.Request {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/flash", nil))
		req := httptest.NewRequest(http.MethodGet, "/page", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		return req
	}

	rec := f.do(flashed())
	assert.Equal(t, "saved", rec.Body.String())

	assert.Empty(t, f.do(httptest.NewRequest(http.MethodGet, "/page", nil)).Body.String())
	rec = f.do(httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	rec = f.do(flashed())
	assert.Equal(t, "saved", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}
