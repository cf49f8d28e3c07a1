package scaffold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// ErrBadName is returned for names with more than one "/" or an empty part.
var ErrBadName = errors.New("name must be <resource> or <blueprint>/<resource>")

// DefaultType is used for field tokens without a type.
const DefaultType = "Text"

// Name is a parsed resource name.
type Name struct {
	Blueprint string // empty for project level resources
	Resource  string // lower case, e.g. "tag"
}

// ParseName parses "resource" or "blueprint/resource".
func ParseName(s string) (Name, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	var n Name
	switch len(parts) {
	case 1:
		n.Resource = parts[0]
	case 2:
		n.Blueprint, n.Resource = parts[0], parts[1]
		if n.Blueprint == "" {
			return Name{}, fmt.Errorf("%w: %q", ErrBadName, s)
		}
	default:
		return Name{}, fmt.Errorf("%w: %q", ErrBadName, s)
	}
	if n.Resource == "" {
		return Name{}, fmt.Errorf("%w: %q", ErrBadName, s)
	}
	n.Resource = strings.ToLower(n.Resource)
	return n, nil
}

// String returns the name in its command line form.
func (n Name) String() string {
	if n.Blueprint == "" {
		return n.Resource
	}
	return n.Blueprint + "/" + n.Resource
}

// Model is the Go type name of the resource ("blog_entry" is "BlogEntry").
func (n Name) Model() string { return GoName(n.Resource) }

// Table is the package variable holding the store table ("Tags").
func (n Name) Table() string { return inflection.Plural(n.Model()) }

// Package is the Go package the generated code belongs to.
func (n Name) Package() string {
	if n.Blueprint == "" {
		return "main"
	}
	return PackageName(n.Blueprint)
}

// OwnBlueprint reports whether the resource is the blueprint's own, as
// created by create_blueprint --scaffold. Its routes sit at the blueprint
// root.
func (n Name) OwnBlueprint() bool {
	return n.Blueprint != "" && n.Blueprint == n.Resource
}

// Prefix is the path the resource routes are mounted under.
func (n Name) Prefix() string {
	if n.OwnBlueprint() {
		return ""
	}
	return "/" + n.Resource
}

// Endpoint names a generated route. Resources other than the blueprint's
// own get their own namespace so that ".show" resolves within it.
func (n Name) Endpoint(e string) string {
	if n.OwnBlueprint() {
		return e
	}
	return n.Resource + "." + e
}

// Title is the human readable resource name ("blog_entry" is "Blog entry").
func (n Name) Title() string { return Field{Name: n.Resource}.Label() }

// Plural is the human readable plural ("Blog entries").
func (n Name) Plural() string { return inflection.Plural(n.Title()) }

// Field is one "name[:Type]" token.
type Field struct {
	Name   string // column name as typed
	Type   string // declared type, e.g. "String(80)"
	GoType string
	Max    int // length limit of String(n), 0 when unbounded
}

var typeRe = regexp.MustCompile(`^(\w+)(?:\(\s*(\d+)\s*(?:,\s*\d+\s*)?\))?$`)

var goTypes = map[string]string{
	"String":       "string",
	"Text":         "string",
	"Unicode":      "string",
	"UnicodeText":  "string",
	"Integer":      "int",
	"SmallInteger": "int",
	"BigInteger":   "int64",
	"Boolean":      "bool",
	"Float":        "float64",
	"Numeric":      "float64",
	"DateTime":     "time.Time",
	"Date":         "time.Time",
}

// ParseFields splits a whitespace separated field list. Names are not
// checked for duplicates.
func ParseFields(s string) []Field {
	tokens := strings.Fields(s)
	fields := make([]Field, 0, len(tokens))
	for _, tok := range tokens {
		name, typ, found := strings.Cut(tok, ":")
		if !found || typ == "" {
			typ = DefaultType
		}
		f := Field{Name: name, Type: typ, GoType: "string"}
		if m := typeRe.FindStringSubmatch(typ); m != nil {
			if gt, ok := goTypes[m[1]]; ok {
				f.GoType = gt
			}
			if m[1] == "String" && m[2] != "" {
				f.Max, _ = strconv.Atoi(m[2])
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// GoName is the struct field name.
func (f Field) GoName() string { return GoName(f.Name) }

// Label is the human readable column header ("post_id" is "Post id").
func (f Field) Label() string {
	s := strings.ReplaceAll(f.Name, "_", " ")
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ModelTag is the struct tag of the model field.
func (f Field) ModelTag() string {
	return fmt.Sprintf("`json:%q`", f.Name)
}

// FormTag is the struct tag of the form field.
func (f Field) FormTag() string {
	if f.Max > 0 {
		return fmt.Sprintf("`schema:%q validate:\"max=%d\"`", f.Name, f.Max)
	}
	return fmt.Sprintf("`schema:%q`", f.Name)
}

// InputType is the HTML input type used in the form partial.
func (f Field) InputType() string {
	switch f.GoType {
	case "int", "int64":
		return "number"
	case "float64":
		return "text"
	case "bool":
		return "checkbox"
	case "time.Time":
		if f.Type == "Date" {
			return "date"
		}
		return "datetime-local"
	}
	return "text"
}

// Textarea reports whether the field is edited in a textarea.
func (f Field) Textarea() bool {
	return f.GoType == "string" && f.Max == 0
}

func usesTime(fields []Field) bool {
	for _, f := range fields {
		if f.GoType == "time.Time" {
			return true
		}
	}
	return false
}

var initialisms = map[string]string{
	"id":   "ID",
	"url":  "URL",
	"uri":  "URI",
	"ip":   "IP",
	"html": "HTML",
	"http": "HTTP",
	"json": "JSON",
	"api":  "API",
	"uuid": "UUID",
	"sql":  "SQL",
}

// GoName converts snake_case to an exported CamelCase identifier, keeping
// common initialisms upper case: "post_id" is "PostID".
func GoName(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		if up, ok := initialisms[strings.ToLower(part)]; ok {
			b.WriteString(up)
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// PackageName turns a blueprint name into a Go package name.
func PackageName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
