package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding the session.
const SessionName = "session"

var errNoSessions = errors.New("web: session store not configured")

// Flashed is a message queued for the next page.
type Flashed struct {
	Category string
	Message  string
}

// NewCookieStore returns a signed cookie session store.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 31,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session returns the request's session.
func Session(r *http.Request) (*sessions.Session, error) {
	env := EnvFrom(r.Context())
	if env == nil || env.Sessions == nil {
		return nil, errNoSessions
	}
	return env.Sessions.Get(r, SessionName)
}

// Flash queues message under category ("message", "error", ...) for the
// next rendered page.
func Flash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s, err := Session(r)
	if s == nil {
		return err
	}
	if category == "" {
		category = "message"
	}
	s.AddFlash(category + "|" + message)
	return s.Save(r, w)
}

// Flashes pops the queued messages.
func Flashes(w http.ResponseWriter, r *http.Request) ([]Flashed, error) {
	s, err := Session(r)
	if s == nil {
		return nil, err
	}
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	flashes := make([]Flashed, 0, len(raw))
	for _, f := range raw {
		str, ok := f.(string)
		if !ok {
			continue
		}
		category, message, found := strings.Cut(str, "|")
		if !found {
			category, message = "message", str
		}
		flashes = append(flashes, Flashed{Category: category, Message: message})
	}
	return flashes, s.Save(r, w)
}
