// Package post is the example CRUD blueprint: posts and their comments.
package post

import (
	"embed"
	"io/fs"

	"stencil/app"
	"stencil/app/middleware"
	"stencil/config"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed all:static
var staticFS embed.FS

// New returns the blueprint. Every view except the listing, a post's page
// and commenting requires HTTP basic auth.
func New(cfg *config.Config) *app.Blueprint {
	templates, _ := fs.Sub(templatesFS, "templates")
	static, _ := fs.Sub(staticFS, "static")
	return &app.Blueprint{
		Name:      "post",
		Routes:    Routes,
		Templates: templates,
		Static:    static,
		BeforeRequests: []app.BeforeFunc{
			middleware.HTTPDontAuth(cfg.HTTPUsername, cfg.HTTPPassword,
				"post.index", "post.show", "post.comment_new"),
		},
		Models: []string{Posts.Name(), Comments.Name()},
	}
}
