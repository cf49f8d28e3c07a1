package main

import (
	"net/http"

	"stencil/app/web"
)

// indexEndpoints are linked from the home page.
var indexEndpoints = []string{"post.index"}

// Index is the home page.
func Index(w http.ResponseWriter, r *http.Request) {
	var links []string
	for _, name := range indexEndpoints {
		if u, err := web.URLFor(r, name); err == nil {
			links = append(links, u)
		}
	}
	web.Render(w, r, "index.html", web.Data{"blueprints": links})
}
