package post

// PostForm is submitted by the new and edit pages.
type PostForm struct {
	Name    string `schema:"name" validate:"required,min=5,max=20"`
	Title   string `schema:"title" validate:"required,min=5,max=20"`
	Content string `schema:"content" validate:"required,min=5,max=200"`
}

// NewPostForm prefills a form from p.
func NewPostForm(p *Post) *PostForm {
	return &PostForm{Name: p.Name, Title: p.Title, Content: p.Content}
}

// Populate copies the form into p.
func (f *PostForm) Populate(p *Post) {
	p.Name = f.Name
	p.Title = f.Title
	p.Content = f.Content
}

// CommentForm is submitted from a post's page.
type CommentForm struct {
	Commenter string `schema:"commenter" validate:"required"`
	Body      string `schema:"body" validate:"required"`
}
