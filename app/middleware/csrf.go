package middleware

import (
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

const (
	// CSRFField is the form field carrying the token.
	CSRFField = "csrf_token"
	// CSRFCookie holds the token's secret half.
	CSRFCookie = "_csrf"
)

// CSRF rejects unsafe requests (anything but GET, HEAD, OPTIONS and TRACE)
// whose csrf_token field or X-CSRF-Token header does not match the
// cookie. The key is derived from secret. Unless secure is set, requests
// without TLS are accepted as plain HTTP and skip the Referer check.
func CSRF(secret string, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + secret))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName(CSRFCookie),
		csrf.FieldName(CSRFField),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "csrf check failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("reason", csrf.FailureReason(r)),
			)
			http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}
