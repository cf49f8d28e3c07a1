// Package i18n negotiates the request locale and translates message keys
// with golang.org/x/text.
package i18n

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translations maps a locale to its message key → translation table.
type Translations map[string]map[string]string

// Bundle holds the translations for every supported locale.
type Bundle struct {
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
	cat       *catalog.Builder
}

// New builds a bundle whose fallback is defaultLocale.
func New(defaultLocale string, translations Translations) (*Bundle, error) {
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("i18n: default locale %q: %w", defaultLocale, err)
	}
	cat := catalog.NewBuilder(catalog.Fallback(fallback))

	locales := make([]string, 0, len(translations))
	for l := range translations {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	// The matcher prefers its first tag when nothing matches.
	supported := []language.Tag{fallback}
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: locale %q: %w", l, err)
		}
		for key, msg := range translations[l] {
			if err := cat.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("i18n: %s %q: %w", l, key, err)
			}
		}
		if tag != fallback {
			supported = append(supported, tag)
		}
	}

	return &Bundle{
		fallback:  fallback,
		supported: supported,
		matcher:   language.NewMatcher(supported),
		cat:       cat,
	}, nil
}

// Default returns the fallback locale.
func (b *Bundle) Default() language.Tag {
	return b.fallback
}

// Supported lists the known locales, fallback first.
func (b *Bundle) Supported() []language.Tag {
	return b.supported
}

// Match picks the best supported locale for the given Accept-Language values.
func (b *Bundle) Match(accept ...string) language.Tag {
	var want []language.Tag
	for _, a := range accept {
		tags, _, err := language.ParseAcceptLanguage(a)
		if err != nil {
			continue
		}
		want = append(want, tags...)
	}
	if len(want) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(want...)
	if conf == language.No {
		return b.fallback
	}
	return b.supported[idx]
}

// Negotiate picks the locale for r from its lang query parameter or
// its Accept-Language header.
func (b *Bundle) Negotiate(r *http.Request) language.Tag {
	return b.Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}

// Translate formats key for tag. Unknown keys are formatted as-is.
func (b *Bundle) Translate(tag language.Tag, key string, args ...any) string {
	return b.Printer(tag).Sprintf(key, args...)
}

// Printer returns a message printer for tag.
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.cat))
}

type contextKey struct{}

// WithLocale stores tag in ctx.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

// Locale returns the tag stored by WithLocale, or language.Und.
func Locale(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(contextKey{}).(language.Tag); ok {
		return tag
	}
	return language.Und
}

// Middleware negotiates the locale of every request and stores it in the
// request context.
func (b *Bundle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), b.Negotiate(r))))
	})
}

// Funcs returns the gettext template functions bound to the request locale.
func (b *Bundle) Funcs(r *http.Request) map[string]any {
	tag := Locale(r.Context())
	if tag == language.Und {
		tag = b.fallback
	}
	p := b.Printer(tag)
	gettext := func(key string, args ...any) string {
		return p.Sprintf(key, args...)
	}
	return map[string]any{
		"gettext": gettext,
		"_":       gettext,
		"locale":  func() string { return tag.String() },
	}
}
