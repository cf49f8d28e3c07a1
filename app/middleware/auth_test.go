package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authRouter(before func(http.ResponseWriter, *http.Request) bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if before(w, req) {
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	ok := func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }
	r.HandleFunc("/public", ok).Name("post.index")
	r.HandleFunc("/private", ok).Name("post.edit")
	r.HandleFunc("/internal", ok).Name("_internal")
	return r
}

func TestHTTPDontAuth(t *testing.T) {
	r := authRouter(HTTPDontAuth("admin", "secret", "post.index"))

	tests := []struct {
		name     string
		path     string
		user     string
		pass     string
		wantCode int
	}{
		{"excluded endpoint is public", "/public", "", "", http.StatusOK},
		{"other endpoint needs auth", "/private", "", "", http.StatusUnauthorized},
		{"wrong password", "/private", "admin", "nope", http.StatusUnauthorized},
		{"wrong user", "/private", "root", "secret", http.StatusUnauthorized},
		{"valid credentials", "/private", "admin", "secret", http.StatusOK},
		{"underscore endpoints skipped", "/internal", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Login Required"`, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestHTTPDoAuth(t *testing.T) {
	r := authRouter(HTTPDoAuth("admin", "secret", "post.edit"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHTTPAuthPasswordForms(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	long := strings.Repeat("x", 100)

	tests := []struct {
		name     string
		password string
		try      string
		wantCode int
	}{
		{"plain text", "secret", "secret", http.StatusOK},
		{"plain text mismatch", "secret", "secre", http.StatusUnauthorized},
		{"long plain text", long, long, http.StatusOK},
		{"bcrypt hash", string(hash), "secret", http.StatusOK},
		{"bcrypt hash mismatch", string(hash), "nope", http.StatusUnauthorized},
		{"hash is not a password", string(hash), string(hash), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authRouter(HTTPDoAuth("admin", tt.password, "post.edit"))
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			req.SetBasicAuth("admin", tt.try)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
