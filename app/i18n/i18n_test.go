package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := New("en", Translations{
		"en": {"Posts": "Posts", "%d comments": "%d comments"},
		"fr": {"Posts": "Articles", "%d comments": "%d commentaires"},
		"es": {"Posts": "Entradas"},
	})
	require.NoError(t, err)
	return b
}

func TestMatch(t *testing.T) {
	b := testBundle(t)

	tests := []struct {
		accept string
		want   language.Tag
	}{
		{"", language.English},
		{"fr-FR,fr;q=0.9,en;q=0.8", language.French},
		{"de-DE,es;q=0.5", language.Spanish},
		{"ja", language.English},
		{"not a header;;;", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Match(tt.accept))
		})
	}
}

func TestTranslate(t *testing.T) {
	b := testBundle(t)

	assert.Equal(t, "Articles", b.Translate(language.French, "Posts"))
	assert.Equal(t, "3 commentaires", b.Translate(language.French, "%d comments", 3))
	assert.Equal(t, "Posts", b.Translate(language.English, "Posts"))
	assert.Equal(t, "Untranslated", b.Translate(language.French, "Untranslated"))
}

func TestMiddlewareAndFuncs(t *testing.T) {
	b := testBundle(t)

	var got string
	h := b.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gettext := b.Funcs(r)["_"].(func(string, ...any) string)
		got = gettext("Posts")
	}))

	req := httptest.NewRequest(http.MethodGet, "/?lang=es", nil)
	req.Header.Set("Accept-Language", "fr")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Entradas", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Articles", got)
}

func TestNewRejectsBadLocale(t *testing.T) {
	_, err := New("??", nil)
	assert.Error(t, err)

	_, err = New("en", Translations{"@@": {}})
	assert.Error(t, err)
}
