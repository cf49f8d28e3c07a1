package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// HTTPAuth returns a before-request hook enforcing HTTP Basic auth. With
// include set, only the named endpoints are protected; otherwise every
// endpoint except the named ones is. Endpoints whose name starts with "_"
// are never protected. The hook reports true when it has answered the
// request with 401.
//
// password may be a bcrypt hash ("$2a$...", "$2b$...", "$2y$...").
// Anything else is compared as plain text.
func HTTPAuth(username, password string, include bool, endpoints ...string) func(http.ResponseWriter, *http.Request) bool {
	matches := passwordMatcher(password)
	return func(w http.ResponseWriter, r *http.Request) bool {
		endpoint := endpointName(r)
		if endpoint == "" || strings.HasPrefix(endpoint, "_") {
			return false
		}
		listed := slices.Contains(endpoints, endpoint)
		if include != listed {
			return false
		}
		user, pass, ok := r.BasicAuth()
		if ok && equal(user, username) && matches(pass) {
			return false
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="Login Required"`)
		http.Error(w, "Could not verify your access level for that URL.\n"+
			"You have to login with proper credentials", http.StatusUnauthorized)
		return true
	}
}

// HTTPDoAuth protects only the given endpoints.
func HTTPDoAuth(username, password string, endpoints ...string) func(http.ResponseWriter, *http.Request) bool {
	return HTTPAuth(username, password, true, endpoints...)
}

// HTTPDontAuth protects every endpoint except the given ones.
func HTTPDontAuth(username, password string, endpoints ...string) func(http.ResponseWriter, *http.Request) bool {
	return HTTPAuth(username, password, false, endpoints...)
}

func passwordMatcher(password string) func(string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(password, prefix) {
			hash := []byte(password)
			return func(pass string) bool {
				return bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
			}
		}
	}
	return func(pass string) bool { return equal(pass, password) }
}

// equal compares digests so neither content nor length leaks through timing.
func equal(a, b string) bool {
	da, db := sha256.Sum256([]byte(a)), sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

func endpointName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}
