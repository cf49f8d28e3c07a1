package middleware

import (
	"net/http"
	"strings"
)

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodDelete:  true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodOptions: true,
}

var bodylessMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodDelete:  true,
}

// MethodRewrite lets clients without PUT/DELETE support tunnel the method
// through a POST parameter (query string or form field) named field,
// "_method" by default.
func MethodRewrite(field string) func(http.Handler) http.Handler {
	if field == "" {
		field = "_method"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				method := r.URL.Query().Get(field)
				if method == "" {
					method = r.PostFormValue(field)
				}
				method = strings.ToUpper(method)
				if allowedMethods[method] {
					r.Method = method
				}
				if bodylessMethods[method] {
					r.ContentLength = 0
					r.Body = http.NoBody
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
