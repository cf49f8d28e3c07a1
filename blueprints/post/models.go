package post

import (
	"stencil/app/store"
)

// Post is a blog entry.
type Post struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (p *Post) GetID() int   { return p.ID }
func (p *Post) SetID(id int) { p.ID = id }

// Comment belongs to a post. Deleting the post leaves its comments.
type Comment struct {
	ID        int    `json:"id"`
	Commenter string `json:"commenter"`
	Body      string `json:"body"`
	PostID    int    `json:"post_id"`
}

func (c *Comment) GetID() int   { return c.ID }
func (c *Comment) SetID(id int) { c.ID = id }

var (
	Posts    = store.Define[Post]("post")
	Comments = store.Define[Comment]("comment")
)

// CommentsFor returns the comments of a post ordered by id.
func CommentsFor(postID int) ([]*Comment, error) {
	return Comments.Where(func(c *Comment) bool { return c.PostID == postID })
}
