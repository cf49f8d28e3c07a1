package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"stencil/app/i18n"
)

type cachedPage struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type pageRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (p *pageRecorder) Header() http.Header         { return p.header }
func (p *pageRecorder) Write(b []byte) (int, error) { return p.body.Write(b) }
func (p *pageRecorder) WriteHeader(code int) {
	if p.status == 0 {
		p.status = code
	}
}

// Cached stores successful GET responses of the wrapped view in the
// application cache for ttl (the configured CACHE_TTL when zero), keyed by
// request URI and locale.
//
// Requests with pending flashes bypass the cache, and responses that set
// a cookie are not stored. Pages are shared between visitors, so do not
// cache pages holding per-user content such as forms with a csrf_field.
func Cached(ttl time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			env := EnvFrom(r.Context())
			if env == nil || env.Cache == nil || r.Method != http.MethodGet || hasFlashes(r) {
				next(w, r)
				return
			}
			ctx := r.Context()
			key := "view/" + r.URL.RequestURI() + "|" + i18n.Locale(ctx).String()

			if raw, ok, err := env.Cache.Get(ctx, key); err == nil && ok {
				var page cachedPage
				if err := json.Unmarshal(raw, &page); err == nil {
					w.Header().Set("Content-Type", page.ContentType)
					w.Header().Set("X-Cache", "HIT")
					w.Write(page.Body)
					return
				}
			}

			rec := &pageRecorder{header: http.Header{}}
			next(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			for k, v := range rec.header {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.status)
			w.Write(rec.body.Bytes())

			if rec.status != http.StatusOK || len(rec.header.Values("Set-Cookie")) > 0 {
				return
			}
			expire := ttl
			if expire == 0 {
				expire = env.CacheTTL
			}
			raw, err := json.Marshal(cachedPage{ContentType: rec.header.Get("Content-Type"), Body: rec.body.Bytes()})
			if err == nil {
				err = env.Cache.Set(ctx, key, raw, expire)
			}
			if err != nil {
				env.logger().WarnContext(ctx, "cache view", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
}

// flashesKey is where gorilla/sessions keeps flashes by default.
const flashesKey = "_flash"

func hasFlashes(r *http.Request) bool {
	s, _ := Session(r)
	if s == nil {
		return false
	}
	queued, _ := s.Values[flashesKey].([]any)
	return len(queued) > 0
}
