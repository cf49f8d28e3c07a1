package post

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"stencil/app/web"
)

const defaultPerPage = 10

// PostIndex lists posts in id order, ten per page by default.
func PostIndex(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", defaultPerPage)

	posts, err := Posts.All()
	if err != nil {
		web.Fail(w, r, "list posts", err)
		return
	}
	total := len(posts)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	posts = posts[start:end]

	if wantsJSON(r) {
		sendJSON(w, map[string]any{"posts": posts, "page": page, "total": total})
		return
	}
	web.Render(w, r, "post/index.html", web.Data{
		"object_list": posts,
		"page":        page,
		"has_next":    end < total,
		"next_page":   page + 1,
	})
}

// PostShow displays a post with its comments and the comment form.
func PostShow(w http.ResponseWriter, r *http.Request) {
	p, ok := loadPost(w, r, "id")
	if !ok {
		return
	}
	comments, err := CommentsFor(p.ID)
	if err != nil {
		web.Fail(w, r, "list comments", err)
		return
	}
	if wantsJSON(r) {
		sendJSON(w, map[string]any{"post": p, "comments": comments})
		return
	}
	web.Render(w, r, "post/show.html", web.Data{
		"post":     p,
		"comments": comments,
		"form":     web.NewForm(&CommentForm{}),
	})
}

// PostNew shows the creation form and creates the post on a valid submit.
func PostNew(w http.ResponseWriter, r *http.Request) {
	form := &PostForm{}
	f, ok := web.ValidateOnSubmit(r, form)
	if ok {
		p := &Post{}
		form.Populate(p)
		if err := Posts.Create(p); err != nil {
			web.Fail(w, r, "create post", err)
			return
		}
		web.Flash(w, r, "success", "Post created.")
		web.RedirectTo(w, r, "post.index")
		return
	}
	web.Render(w, r, "post/new.html", web.Data{"form": f})
}

// PostEdit shows the form filled from the post and saves a valid submit.
func PostEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := loadPost(w, r, "id")
	if !ok {
		return
	}
	form := NewPostForm(p)
	f, ok := web.ValidateOnSubmit(r, form)
	if ok {
		form.Populate(p)
		if err := Posts.Save(p); err != nil {
			web.Fail(w, r, "save post", err)
			return
		}
		web.Flash(w, r, "success", "Post updated.")
		web.RedirectTo(w, r, "post.show", "id", strconv.Itoa(p.ID))
		return
	}
	web.Render(w, r, "post/edit.html", web.Data{"form": f, "post": p})
}

// PostDelete removes the post. Its comments are kept.
func PostDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := web.IntVar(r, "id")
	if err := Posts.Delete(id); err != nil {
		web.Fail(w, r, "delete post", err)
		return
	}
	web.RedirectTo(w, r, "post.index")
}

// CommentNew adds a comment to a post. An invalid submit shows the post
// page again with the errors.
func CommentNew(w http.ResponseWriter, r *http.Request) {
	p, ok := loadPost(w, r, "post_id")
	if !ok {
		return
	}
	form := &CommentForm{}
	f, ok := web.ValidateOnSubmit(r, form)
	if ok {
		c := &Comment{Commenter: form.Commenter, Body: form.Body, PostID: p.ID}
		if err := Comments.Create(c); err != nil {
			web.Fail(w, r, "create comment", err)
			return
		}
		web.RedirectTo(w, r, ".show", "id", strconv.Itoa(p.ID))
		return
	}
	comments, err := CommentsFor(p.ID)
	if err != nil {
		web.Fail(w, r, "list comments", err)
		return
	}
	web.Render(w, r, "post/show.html", web.Data{"post": p, "comments": comments, "form": f})
}

// CommentDelete removes a comment and returns to its post.
func CommentDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := web.IntVar(r, "id")
	if err := Comments.Delete(id); err != nil {
		web.Fail(w, r, "delete comment", err)
		return
	}
	web.RedirectTo(w, r, ".show", "id", web.Var(r, "post_id"))
}

func loadPost(w http.ResponseWriter, r *http.Request, param string) (*Post, bool) {
	id, ok := web.IntVar(r, param)
	if !ok {
		web.NotFound(w, r)
		return nil, false
	}
	p, err := Posts.Get(id)
	if err != nil {
		web.Fail(w, r, "load post", err)
		return nil, false
	}
	return p, true
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
