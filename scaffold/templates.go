package scaffold

import (
	"text/template"
)

// Go sources use the default delimiters. Page templates are themselves
// html/template files, so they are generated with [[ ]].
var (
	goTmpl   = template.Must(template.New("go").Parse(goSources))
	pageTmpl = template.Must(template.New("page").Delims("[[", "]]").Parse(pageSources))
)

const goSources = `
{{- define "model_preamble" -}}
package {{.Name.Package}}

import (
{{- if .Time}}
	"time"
{{end}}
	"{{.Module}}/app/store"
)
{{end}}

{{- define "model" -}}
// {{.Name.Model}} is stored in the "{{.Name.Resource}}" table.
type {{.Name.Model}} struct {
	ID int ` + "`json:\"id\"`" + `
{{- range .Fields}}
	{{.GoName}} {{.GoType}} {{.ModelTag}}
{{- end}}
}

func (m *{{.Name.Model}}) GetID() int   { return m.ID }
func (m *{{.Name.Model}}) SetID(id int) { m.ID = id }

var {{.Name.Table}} = store.Define[{{.Name.Model}}]("{{.Name.Resource}}")
{{end}}

{{- define "form_preamble" -}}
package {{.Name.Package}}
{{if .Time}}
import "time"
{{end}}
{{- end}}

{{- define "form" -}}
// {{.Name.Model}}Form is submitted by the {{.Name.Resource}} new and edit pages.
type {{.Name.Model}}Form struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} {{.FormTag}}
{{- end}}
}

// New{{.Name.Model}}Form prefills a form from obj.
func New{{.Name.Model}}Form(obj *{{.Name.Model}}) *{{.Name.Model}}Form {
	return &{{.Name.Model}}Form{
{{- range .Fields}}
		{{.GoName}}: obj.{{.GoName}},
{{- end}}
	}
}

// Populate copies the form into obj.
func (f *{{.Name.Model}}Form) Populate(obj *{{.Name.Model}}) {
{{- range .Fields}}
	obj.{{.GoName}} = f.{{.GoName}}
{{- end}}
}
{{end}}

{{- define "views_preamble" -}}
package {{.Name.Package}}

import (
	"net/http"

	"{{.Module}}/app/web"
)
{{end}}

{{- define "views" -}}
{{- $m := .Name.Model}}{{$t := .Name.Table}}{{$r := .Name.Resource -}}
// {{$m}}Index lists every {{$r}}.
func {{$m}}Index(w http.ResponseWriter, r *http.Request) {
	objects, err := {{$t}}.All()
	if err != nil {
		web.Fail(w, r, "list {{$r}}", err)
		return
	}
	web.Render(w, r, "{{$r}}/index.html", web.Data{"object_list": objects})
}

// {{$m}}Show displays one {{$r}}.
func {{$m}}Show(w http.ResponseWriter, r *http.Request) {
	obj, ok := load{{$m}}(w, r)
	if !ok {
		return
	}
	web.Render(w, r, "{{$r}}/show.html", web.Data{"{{$r}}": obj})
}

// {{$m}}New creates a {{$r}} from a valid submit.
func {{$m}}New(w http.ResponseWriter, r *http.Request) {
	form := &{{$m}}Form{}
	f, ok := web.ValidateOnSubmit(r, form)
	if ok {
		obj := &{{$m}}{}
		form.Populate(obj)
		if err := {{$t}}.Create(obj); err != nil {
			web.Fail(w, r, "create {{$r}}", err)
			return
		}
		web.RedirectTo(w, r, ".index")
		return
	}
	web.Render(w, r, "{{$r}}/new.html", web.Data{"form": f})
}

// {{$m}}Edit saves a valid submit over the {{$r}}.
func {{$m}}Edit(w http.ResponseWriter, r *http.Request) {
	obj, ok := load{{$m}}(w, r)
	if !ok {
		return
	}
	form := New{{$m}}Form(obj)
	f, ok := web.ValidateOnSubmit(r, form)
	if ok {
		form.Populate(obj)
		if err := {{$t}}.Save(obj); err != nil {
			web.Fail(w, r, "save {{$r}}", err)
			return
		}
		web.RedirectTo(w, r, ".show", "id", web.Var(r, "id"))
		return
	}
	web.Render(w, r, "{{$r}}/edit.html", web.Data{"form": f, "{{$r}}": obj})
}

// {{$m}}Delete removes the {{$r}}.
func {{$m}}Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := web.IntVar(r, "id")
	if err := {{$t}}.Delete(id); err != nil {
		web.Fail(w, r, "delete {{$r}}", err)
		return
	}
	web.RedirectTo(w, r, ".index")
}

func load{{$m}}(w http.ResponseWriter, r *http.Request) (*{{$m}}, bool) {
	id, ok := web.IntVar(r, "id")
	if !ok {
		web.NotFound(w, r)
		return nil, false
	}
	obj, err := {{$t}}.Get(id)
	if err != nil {
		web.Fail(w, r, "load {{$r}}", err)
		return nil, false
	}
	return obj, true
}
{{end}}

{{- define "routes_preamble" -}}
package {{.Name.Package}}

import (
	"{{.Module}}/app/router"
)
{{end}}

{{- define "rules" -}}
{{- $m := .Name.Model}}{{$p := .Name.Prefix -}}
		{"{{$p}}/", "{{.Name.Endpoint "index"}}", {{$m}}Index},
		{"{{$p}}/<int:id>", "{{.Name.Endpoint "show"}}", {{$m}}Show},
		{"{{$p}}/new", "{{.Name.Endpoint "new"}}", {{$m}}New, router.Options{Methods: []string{"GET", "POST"}}},
		{"{{$p}}/<int:id>/edit", "{{.Name.Endpoint "edit"}}", {{$m}}Edit, router.Options{Methods: []string{"GET", "POST"}}},
		{"{{$p}}/<int:id>/delete", "{{.Name.Endpoint "delete"}}", {{$m}}Delete, router.Options{Methods: []string{"POST", "DELETE"}}},
{{- end}}

{{- define "routes_new" -}}
var Routes = []router.Rule{
{{template "rules" .}}
}
{{end}}

{{- define "routes_append" -}}
func init() {
	Routes = append(Routes, []router.Rule{
{{template "rules" .}}
	}...)
}
{{end}}

{{- define "blueprint" -}}
// Package {{.Name.Package}} is the {{.Name.Blueprint}} blueprint.
package {{.Name.Package}}

import (
	"embed"
	"io/fs"

	"{{.Module}}/app"
	"{{.Module}}/config"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed all:static
var staticFS embed.FS

// New returns the blueprint. Mount it from settings.Load.
func New(cfg *config.Config) *app.Blueprint {
	templates, _ := fs.Sub(templatesFS, "templates")
	static, _ := fs.Sub(staticFS, "static")
	return &app.Blueprint{
		Name:      "{{.Name.Blueprint}}",
		Routes:    Routes,
		Templates: templates,
		Static:    static,
	}
}
{{end}}

{{- define "routes_empty" -}}
var Routes = []router.Rule{}
{{end}}
`

const pageSources = `
[[- define "form" -]]
{{csrf_field}}
{{with .form}}
{{template "errors" (.ErrorsFor "base")}}
[[- range .Fields]]
<p>
  <label for="[[.Name]]">{{_ "[[.Label]]"}}</label>
[[- if .Textarea]]
  <textarea id="[[.Name]]" name="[[.Name]]">{{.Get "[[.Name]]"}}</textarea>
[[- else if eq .InputType "checkbox"]]
  <input id="[[.Name]]" name="[[.Name]]" type="checkbox" value="true"{{if eq (.Get "[[.Name]]") "true"}} checked{{end}}>
[[- else]]
  <input id="[[.Name]]" name="[[.Name]]" type="[[.InputType]]" value="{{.Get "[[.Name]]"}}">
[[- end]]
  {{template "errors" (.ErrorsFor "[[.Name]]")}}
</p>
[[- end]]
{{end}}
[[end]]

[[- define "index" -]]
{{define "title"}}{{_ "[[.Name.Plural]]"}}{{end}}
{{define "content"}}
<table>
  <thead>
    <tr>
[[- range .Fields]]
      <th>{{_ "[[.Label]]"}}</th>
[[- end]]
      <th></th>
      <th></th>
      <th></th>
    </tr>
  </thead>
  <tbody>
    {{range .object_list}}
    <tr>
[[- range .Fields]]
      <td>{{.[[.GoName]]}}</td>
[[- end]]
      <td><a href="{{url_for ".show" "id" (print .ID)}}">{{_ "Show"}}</a></td>
      <td><a href="{{url_for ".edit" "id" (print .ID)}}">{{_ "Edit"}}</a></td>
      <td>
        <form method="post" action="{{url_for ".delete" "id" (print .ID)}}">
          {{csrf_field}}
          <input type="hidden" name="_method" value="DELETE">
          <button type="submit" data-confirm="{{_ "Are you sure?"}}">{{_ "Delete"}}</button>
        </form>
      </td>
    </tr>
    {{end}}
  </tbody>
</table>
<a href="{{url_for ".new"}}">{{_ "New [[.Name.Resource]]"}}</a>
{{end}}
[[end]]

[[- define "show" -]]
{{define "title"}}{{_ "[[.Name.Title]]"}}{{end}}
{{define "content"}}
{{with .[[.Name.Resource]]}}
[[- range .Fields]]
<p>
  <strong>{{_ "[[.Label]]"}}:</strong>
</p>
<p>{{.[[.GoName]]}}</p>
[[- end]]
<a href="{{url_for ".edit" "id" (print .ID)}}">{{_ "Edit"}}</a>
{{end}}
<a href="{{url_for ".index"}}">{{_ "Back"}}</a>
{{end}}
[[end]]

[[- define "edit" -]]
{{define "title"}}{{_ "Editing [[.Name.Resource]]"}}{{end}}
{{define "content"}}
<h2>{{_ "Editing [[.Name.Resource]]"}}</h2>
<form method="post" action="{{url_for ".edit" "id" (print .[[.Name.Resource]].ID)}}">
  {{template "[[.Name.Resource]]/_[[.Name.Resource]]_form.html" .}}
  <button type="submit">{{_ "Save"}}</button>
</form>
<a href="{{url_for ".show" "id" (print .[[.Name.Resource]].ID)}}">{{_ "Show"}}</a>
<a href="{{url_for ".index"}}">{{_ "Back"}}</a>
{{end}}
[[end]]

[[- define "new" -]]
{{define "title"}}{{_ "Creating new [[.Name.Resource]]"}}{{end}}
{{define "content"}}
<h2>{{_ "Creating new [[.Name.Resource]]"}}</h2>
<form method="post" action="{{url_for ".new"}}">
  {{template "[[.Name.Resource]]/_[[.Name.Resource]]_form.html" .}}
  <button type="submit">{{_ "Create"}}</button>
</form>
<a href="{{url_for ".index"}}">{{_ "Back"}}</a>
{{end}}
[[end]]
`
