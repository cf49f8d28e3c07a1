package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodRewrite(t *testing.T) {
	var gotMethod string
	var gotLength int64
	var gotBody string
	handler := MethodRewrite("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotLength = r.ContentLength
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))

	post := func(target, body string) {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	t.Run("form field delete", func(t *testing.T) {
		post("/posts/1", url.Values{"_method": {"delete"}}.Encode())
		assert.Equal(t, http.MethodDelete, gotMethod)
		assert.Equal(t, int64(0), gotLength)
		assert.Empty(t, gotBody)
	})

	t.Run("query put keeps body", func(t *testing.T) {
		post("/posts/1?_method=PUT", "title=x")
		assert.Equal(t, http.MethodPut, gotMethod)
	})

	t.Run("unknown method ignored", func(t *testing.T) {
		post("/posts/1", url.Values{"_method": {"TRACE"}}.Encode())
		assert.Equal(t, http.MethodPost, gotMethod)
	})

	t.Run("non-post untouched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/1?_method=DELETE", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, http.MethodGet, gotMethod)
	})
}

func TestMethodRewriteCustomField(t *testing.T) {
	var gotMethod string
	handler := MethodRewrite("verb")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))

	req := httptest.NewRequest(http.MethodPost, "/?verb=patch", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, http.MethodPatch, gotMethod)
}
