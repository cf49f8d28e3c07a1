// Package router maps declarative route tuples onto a gorilla/mux router.
//
// A route table is a list of Rule values, each holding two to four
// elements:
//
//	{"/", views.PostIndex}
//	{"/", "index", views.PostIndex}
//	{"/new", views.PostNew, router.Options{Methods: []string{"GET", "POST"}}}
//	{"/new", "new", views.PostNew, router.Options{Methods: []string{"GET", "POST"}}}
package router

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/gorilla/mux"
)

// ErrRuleFormat is returned for route tuples of unexpected arity or element types.
var ErrRuleFormat = errors.New("URL rule format not proper")

// Rule is a route tuple: (url_pattern, [endpoint,] handler[, options]).
type Rule []any

// Options carries per-route settings.
type Options struct {
	Methods []string
}

// Route is a parsed Rule.
type Route struct {
	Pattern  string
	Endpoint string
	Handler  http.HandlerFunc
	Options  Options
}

var defaultMethods = []string{http.MethodGet, http.MethodHead}

// ParseRule breaks rule into pattern, endpoint, handler and options.
func ParseRule(rule Rule) (Route, error) {
	if len(rule) < 2 || len(rule) > 4 {
		return Route{}, fmt.Errorf("%w %v", ErrRuleFormat, rule)
	}
	pattern, ok := rule[0].(string)
	if !ok {
		return Route{}, fmt.Errorf("%w: pattern must be a string, got %T", ErrRuleFormat, rule[0])
	}

	var (
		route = Route{Pattern: pattern}
		err   error
	)
	switch len(rule) {
	case 4:
		if route.Endpoint, ok = rule[1].(string); !ok {
			return Route{}, fmt.Errorf("%w: endpoint must be a string, got %T", ErrRuleFormat, rule[1])
		}
		if route.Handler, err = asHandler(rule[2]); err != nil {
			return Route{}, err
		}
		if route.Options, err = asOptions(rule[3]); err != nil {
			return Route{}, err
		}
	case 3:
		if opts, isOpts := rule[2].(Options); isOpts {
			// Options passed.
			route.Options = opts
			if route.Handler, err = asHandler(rule[1]); err != nil {
				return Route{}, err
			}
		} else {
			// Endpoint passed.
			if route.Endpoint, ok = rule[1].(string); !ok {
				return Route{}, fmt.Errorf("%w: endpoint must be a string, got %T", ErrRuleFormat, rule[1])
			}
			if route.Handler, err = asHandler(rule[2]); err != nil {
				return Route{}, err
			}
		}
	case 2:
		if route.Handler, err = asHandler(rule[1]); err != nil {
			return Route{}, err
		}
	}
	return route, nil
}

func asHandler(v any) (http.HandlerFunc, error) {
	switch h := v.(type) {
	case http.HandlerFunc:
		return h, nil
	case func(http.ResponseWriter, *http.Request):
		return h, nil
	case http.Handler:
		return h.ServeHTTP, nil
	}
	return nil, fmt.Errorf("%w: handler must be a func(http.ResponseWriter, *http.Request), got %T", ErrRuleFormat, v)
}

func asOptions(v any) (Options, error) {
	switch o := v.(type) {
	case Options:
		return o, nil
	case *Options:
		if o != nil {
			return *o, nil
		}
		return Options{}, nil
	}
	return Options{}, fmt.Errorf("%w: options must be router.Options, got %T", ErrRuleFormat, v)
}

// HandlerName returns the bare function name of h with receiver and
// package stripped, e.g. "PostIndex".
func HandlerName(h http.HandlerFunc) string {
	fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer())
	if fn == nil {
		return ""
	}
	name := fn.Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

var flaskVar = regexp.MustCompile(`<(?:(\w+):)?(\w+)>`)

var converters = map[string]string{
	"int":    "[0-9]+",
	"float":  `[0-9]+\.[0-9]+`,
	"path":   ".+",
	"string": "[^/]+",
}

// TranslatePattern converts Flask style variables (<int:id>) to mux
// variables ({id:[0-9]+}). Mux patterns pass through unchanged.
func TranslatePattern(pattern string) string {
	return flaskVar.ReplaceAllStringFunc(pattern, func(m string) string {
		parts := flaskVar.FindStringSubmatch(m)
		conv, name := parts[1], parts[2]
		if re, ok := converters[conv]; ok && conv != "string" {
			return "{" + name + ":" + re + "}"
		}
		return "{" + name + "}"
	})
}

// SetURLs parses every rule and registers it on r. Route names are
// "<namespace>.<endpoint>", or just the endpoint when namespace is empty.
func SetURLs(r *mux.Router, namespace string, rules []Rule) ([]Route, error) {
	routes := make([]Route, 0, len(rules))
	for _, rule := range rules {
		route, err := ParseRule(rule)
		if err != nil {
			return nil, err
		}
		if route.Endpoint == "" {
			route.Endpoint = HandlerName(route.Handler)
		}
		methods := route.Options.Methods
		if len(methods) == 0 {
			methods = defaultMethods
		}
		pattern := TranslatePattern(route.Pattern)
		name := route.Endpoint
		if namespace != "" {
			name = namespace + "." + route.Endpoint
		}
		r.Handle(pattern, route.Handler).Methods(methods...).Name(name)
		routes = append(routes, route)
	}
	return routes, nil
}
