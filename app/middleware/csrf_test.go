package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/csrf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(secure bool, logs *bytes.Buffer) (http.Handler, *string) {
	var method string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		io.WriteString(w, csrf.Token(r))
	})
	return MethodRewrite("")(CSRF("test-secret", secure, testLogger(logs))(inner)), &method
}

func csrfPost(h http.Handler, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/posts/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCSRF(t *testing.T) {
	var logs bytes.Buffer
	h, method := csrfHandler(false, &logs)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	require.NotEmpty(t, token)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CSRFCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.False(t, cookie.Secure)

	t.Run("missing token", func(t *testing.T) {
		w := csrfPost(h, cookie, url.Values{"title": {"x"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, logs.String(), "csrf check failed")
	})

	t.Run("missing cookie", func(t *testing.T) {
		w := csrfPost(h, nil, url.Values{CSRFField: {token}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := csrfPost(h, cookie, url.Values{CSRFField: {token}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.MethodPost, *method)
	})

	t.Run("rewritten delete keeps token", func(t *testing.T) {
		w := csrfPost(h, cookie, url.Values{CSRFField: {token}, "_method": {"DELETE"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, http.MethodDelete, *method)

		w = csrfPost(h, cookie, url.Values{"_method": {"DELETE"}})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCSRFSecureRequiresReferer(t *testing.T) {
	h, _ := csrfHandler(true, &bytes.Buffer{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	token := w.Body.String()
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].Secure)

	w = csrfPost(h, cookies[0], url.Values{CSRFField: {token}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
