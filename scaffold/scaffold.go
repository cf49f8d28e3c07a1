// Package scaffold generates models, forms, views, templates and routes
// for a new resource by expanding source templates and appending the result
// to the project's files.
//
// Generation is not idempotent: running a command twice appends the
// declarations twice. Files are created with an import preamble when they
// do not exist yet. Nothing is rolled back when a later step fails.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"golang.org/x/mod/modfile"
)

// DefaultModule is used when the project has no readable go.mod.
const DefaultModule = "stencil"

// Generator writes scaffold files below Root.
type Generator struct {
	Root   string    // project directory
	Module string    // import path of the project module
	Out    io.Writer // progress report, nil for none
}

// New returns a Generator for the project at root, reading the module path
// from its go.mod.
func New(root string, out io.Writer) *Generator {
	return &Generator{Root: root, Module: moduleName(root), Out: out}
}

func moduleName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return DefaultModule
	}
	if mod := modfile.ModulePath(data); mod != "" {
		return mod
	}
	return DefaultModule
}

type genData struct {
	Module string
	Name   Name
	Fields []Field
	Time   bool
}

func (g *Generator) data(n Name, fields []Field) genData {
	return genData{Module: g.Module, Name: n, Fields: fields, Time: usesTime(fields)}
}

// dir returns the directory the resource's Go files live in.
func (g *Generator) dir(n Name) string {
	if n.Blueprint == "" {
		return g.Root
	}
	return filepath.Join(g.Root, "blueprints", n.Blueprint)
}

func (g *Generator) templateDir(n Name) string {
	if n.Blueprint == "" {
		return filepath.Join(g.Root, "templates", n.Resource)
	}
	return filepath.Join(g.Root, "blueprints", n.Blueprint, "templates", n.Resource)
}

// CreateBlueprint lays out blueprints/<name> with its template and static
// directories, blueprint.go and, unless scaffold is set, an empty route
// table. With scaffold it then runs CreateScaffold for <name>/<name>.
func (g *Generator) CreateBlueprint(name string, scaffold bool, fields string) error {
	n, err := ParseName(name + "/" + name)
	if err != nil {
		return err
	}
	bp := g.dir(n)
	dirs := []string{
		g.templateDir(n),
		filepath.Join(bp, "static", "css"),
		filepath.Join(bp, "static", "js"),
		filepath.Join(bp, "static", "img"),
	}
	for _, d := range dirs {
		if err := g.mkdir(d); err != nil {
			return err
		}
		// embed needs at least one file per directory.
		if err := g.touch(filepath.Join(d, ".gitkeep")); err != nil {
			return err
		}
	}

	data := g.data(n, nil)
	if err := g.writeOnce(filepath.Join(bp, "blueprint.go"), "", "blueprint", data); err != nil {
		return err
	}
	if scaffold {
		return g.CreateScaffold(n.String(), fields)
	}
	return g.writeOnce(filepath.Join(bp, "urls.go"), "routes_preamble", "routes_empty", data)
}

// writeOnce is writeGo for files that are left alone once they exist.
func (g *Generator) writeOnce(path, preamble, fragment string, data genData) error {
	if exists(path) {
		g.report("exist", path)
		return nil
	}
	return g.writeGo(path, preamble, fragment, data)
}

// CreateModel appends the model and its table to models.go, then creates
// the model form.
func (g *Generator) CreateModel(name, fields string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	data := g.data(n, ParseFields(fields))
	if err := g.writeGo(filepath.Join(g.dir(n), "models.go"), "model_preamble", "model", data); err != nil {
		return err
	}
	return g.CreateModelForm(name, fields)
}

// CreateModelForm appends the model form to forms.go.
func (g *Generator) CreateModelForm(name, fields string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	data := g.data(n, ParseFields(fields))
	return g.writeGo(filepath.Join(g.dir(n), "forms.go"), "form_preamble", "form", data)
}

// CreateView appends the CRUD views to views.go, then creates the
// templates.
func (g *Generator) CreateView(name, fields string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	data := g.data(n, ParseFields(fields))
	if err := g.writeGo(filepath.Join(g.dir(n), "views.go"), "views_preamble", "views", data); err != nil {
		return err
	}
	return g.CreateTemplates(name, fields)
}

// CreateRoutes adds the resource routes to urls.go. A new file declares
// Routes, an existing one gets an init func appending to it.
func (g *Generator) CreateRoutes(name string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	path := filepath.Join(g.dir(n), "urls.go")
	fragment := "routes_new"
	if exists(path) {
		fragment = "routes_append"
	}
	return g.writeGo(path, "routes_preamble", fragment, g.data(n, nil))
}

// CreateTemplates appends the form partial and the index, show, edit and
// new pages to the resource's template directory.
func (g *Generator) CreateTemplates(name, fields string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	dir := g.templateDir(n)
	if err := g.mkdir(dir); err != nil {
		return err
	}
	data := g.data(n, ParseFields(fields))
	pages := []struct{ file, tmpl string }{
		{"_" + n.Resource + "_form.html", "form"},
		{"index.html", "index"},
		{"show.html", "show"},
		{"edit.html", "edit"},
		{"new.html", "new"},
	}
	for _, p := range pages {
		var buf bytes.Buffer
		if err := pageTmpl.ExecuteTemplate(&buf, p.tmpl, data); err != nil {
			return fmt.Errorf("render %s: %w", p.file, err)
		}
		if err := g.appendFile(filepath.Join(dir, p.file), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// CreateScaffold creates the model, model form, views, templates and
// routes of a resource.
func (g *Generator) CreateScaffold(name, fields string) error {
	if err := g.CreateModel(name, fields); err != nil {
		return err
	}
	if err := g.CreateView(name, fields); err != nil {
		return err
	}
	return g.CreateRoutes(name)
}

// writeGo renders fragment and appends it to path. A missing file starts
// with the rendered preamble. The result is gofmt formatted.
func (g *Generator) writeGo(path, preamble, fragment string, data genData) error {
	var buf bytes.Buffer
	isNew := !exists(path)
	if isNew && preamble != "" {
		if err := goTmpl.ExecuteTemplate(&buf, preamble, data); err != nil {
			return fmt.Errorf("render %s: %w", preamble, err)
		}
		buf.WriteString("\n")
	}
	if err := goTmpl.ExecuteTemplate(&buf, fragment, data); err != nil {
		return fmt.Errorf("render %s: %w", fragment, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("gofmt %s: %w", filepath.Base(path), err)
	}
	if !isNew {
		src = append([]byte("\n"), src...)
	}
	return g.appendFile(path, src)
}

func (g *Generator) appendFile(path string, content []byte) error {
	action := "append"
	if !exists(path) {
		action = "create"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	g.report(action, path)
	return nil
}

func (g *Generator) mkdir(dir string) error {
	if exists(dir) {
		g.report("exist", dir)
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	g.report("mkdir", dir)
	return nil
}

func (g *Generator) touch(path string) error {
	if exists(path) {
		return nil
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

var actionColors = map[string]*color.Color{
	"create": color.New(color.FgHiGreen, color.Bold),
	"append": color.New(color.FgHiYellow, color.Bold),
	"mkdir":  color.New(color.FgHiCyan, color.Bold),
	"exist":  color.New(color.FgBlue, color.Bold),
}

func (g *Generator) report(action, path string) {
	if g.Out == nil {
		return
	}
	if rel, err := filepath.Rel(g.Root, path); err == nil {
		path = rel
	}
	fmt.Fprintf(g.Out, "%s  %s\n", actionColors[action].Sprintf("%10s", action), path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
