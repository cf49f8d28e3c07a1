package post

import (
	"net/http"

	"stencil/app/router"
)

var (
	getPost    = router.Options{Methods: []string{http.MethodGet, http.MethodPost}}
	postDelete = router.Options{Methods: []string{http.MethodPost, http.MethodDelete}}
)

var Routes = []router.Rule{
	{"/", "index", PostIndex},
	{"/<int:id>", "show", PostShow},
	{"/new", "new", PostNew, getPost},
	{"/<int:id>/edit", "edit", PostEdit, getPost},
	{"/<int:id>/delete", "delete", PostDelete, postDelete},

	{"/<int:post_id>/comment_new", "comment_new", CommentNew, getPost},
	{"/<int:post_id>/comment_delete/<int:id>", "comment_delete", CommentDelete, getPost},
}
