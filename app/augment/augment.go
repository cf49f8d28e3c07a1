// Package augment provides contract checks for request arguments.
//
// Rules map an argument name to a Constraint. A constraint is a regular
// expression, a predicate, or an expr-lang expression evaluated with
// `value` (the argument string) and `present` in scope:
//
//	h = augment.EnsureArgs(augment.Rules{
//		"page": augment.Regexp(`^\d+$`),
//		"sort": augment.Expr(`value in ["asc", "desc"]`).WithMessage("bad sort"),
//	})(h)
package augment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// BaseKey holds summary messages not tied to one argument.
const BaseKey = "base"

// Errors maps argument names to constraint violation messages.
type Errors map[string][]string

// Add appends msg under name.
func (e Errors) Add(name, msg string) {
	e[name] = append(e[name], msg)
}

// Error is returned when a constraint is violated and no error handler is set.
type Error struct {
	Errors Errors
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Errors[k], "; ")))
	}
	return "augment: " + strings.Join(parts, ", ")
}

// Values is where argument values are looked up.
type Values interface {
	Get(key string) string
}

// Constraint validates a single argument value.
type Constraint struct {
	check   func(value string) (bool, error)
	message string
}

// WithMessage returns a copy of c reporting msg on failure.
func (c Constraint) WithMessage(msg string) Constraint {
	c.message = msg
	return c
}

// Regexp matches the value against pattern (anchored at the start, like re.match).
func Regexp(pattern string) Constraint {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	return Constraint{check: func(v string) (bool, error) {
		return re.MatchString(v), nil
	}}
}

// Func validates with an arbitrary predicate.
func Func(fn func(value string) bool) Constraint {
	return Constraint{check: func(v string) (bool, error) {
		return fn(v), nil
	}}
}

// Present requires a non-blank value.
func Present() Constraint {
	return Func(func(v string) bool { return strings.TrimSpace(v) != "" })
}

type exprEnv struct {
	Value   string `expr:"value"`
	Present bool   `expr:"present"`
}

var (
	programMu sync.Mutex
	programs  = map[string]*vm.Program{}
)

// Expr evaluates an expr-lang boolean expression. It panics if the
// expression does not compile, like regexp.MustCompile.
func Expr(expression string) Constraint {
	program := compile(expression)
	return Constraint{check: func(v string) (bool, error) {
		out, err := expr.Run(program, exprEnv{Value: v, Present: v != ""})
		if err != nil {
			return false, err
		}
		ok, _ := out.(bool)
		return ok, nil
	}}
}

func compile(expression string) *vm.Program {
	programMu.Lock()
	defer programMu.Unlock()
	if p, ok := programs[expression]; ok {
		return p
	}
	p, err := expr.Compile(expression, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		panic(fmt.Sprintf("augment: compile %q: %v", expression, err))
	}
	programs[expression] = p
	return p
}

// Rules maps argument names to constraints.
type Rules map[string]Constraint

// CheckArgs validates every rule against storage. With checkBlank unset,
// blank values are skipped.
func CheckArgs(storage Values, checkBlank bool, rules Rules) Errors {
	errs := Errors{}
	for _, name := range sortedNames(rules) {
		constraint := rules[name]
		val := storage.Get(name)
		if !checkBlank && val == "" {
			continue
		}
		ok, err := constraint.check(val)
		if ok && err == nil {
			continue
		}
		msg := constraint.message
		if msg == "" {
			msg = fmt.Sprintf("\"%s\" violates constraint.", val)
		}
		errs.Add(name, msg)
	}
	return errs
}

func sortedNames(rules Rules) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrorHandler answers a request whose arguments failed validation.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, errs Errors)

type options struct {
	storage    func(r *http.Request) Values
	handler    ErrorHandler
	checkBlank bool
}

// Option configures the Ensure* decorators.
type Option func(*options)

// WithStorage selects where arguments are read from. The default is the
// query string.
func WithStorage(fn func(r *http.Request) Values) Option {
	return func(o *options) { o.storage = fn }
}

// FormStorage reads arguments from the parsed form (query and body).
func FormStorage(r *http.Request) Values {
	_ = r.ParseForm()
	return r.Form
}

// WithErrorHandler delegates failures to fn instead of the default 400 response.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) { o.handler = fn }
}

// WithCheckBlank controls whether blank arguments are validated.
func WithCheckBlank(check bool) Option {
	return func(o *options) { o.checkBlank = check }
}

func buildOptions(opts []Option) *options {
	o := &options{
		storage:    func(r *http.Request) Values { return r.URL.Query() },
		checkBlank: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks rules against storage and returns *Error on failure,
// with a "N error(s)" summary under BaseKey.
func Validate(storage Values, checkBlank bool, rules Rules) error {
	errs := CheckArgs(storage, checkBlank, rules)
	if len(errs) == 0 {
		return nil
	}
	n := len(errs)
	plural := "errors"
	if n == 1 {
		plural = "error"
	}
	errs.Add(BaseKey, fmt.Sprintf("%d %s", n, plural))
	return &Error{Errors: errs}
}

// ValidateOneOf requires at least one rule to pass, and with exclusive set,
// at most one.
func ValidateOneOf(storage Values, checkBlank, exclusive bool, rules Rules) error {
	errs := CheckArgs(storage, checkBlank, rules)
	valid := len(rules) - len(errs)
	switch {
	case valid < 1:
		errs.Add(BaseKey, "One of constraints must validate.")
	case valid > 1 && exclusive:
		errs.Add(BaseKey, "Only one of constraints should validate.")
	default:
		return nil
	}
	return &Error{Errors: errs}
}

// EnsureArgs wraps a handler so it only runs when every rule holds.
func EnsureArgs(rules Rules, opts ...Option) func(http.HandlerFunc) http.HandlerFunc {
	o := buildOptions(opts)
	return guard(o, func(v Values) error { return Validate(v, o.checkBlank, rules) })
}

// EnsurePresence requires each named argument to be non-blank.
func EnsurePresence(names []string, opts ...Option) func(http.HandlerFunc) http.HandlerFunc {
	rules := Rules{}
	for _, name := range names {
		rules[name] = Present().WithMessage(name + " is required.")
	}
	return EnsureArgs(rules, opts...)
}

// EnsureOneOf requires at least one (or, with exclusive, exactly one) rule to hold.
func EnsureOneOf(rules Rules, exclusive bool, opts ...Option) func(http.HandlerFunc) http.HandlerFunc {
	o := buildOptions(opts)
	return guard(o, func(v Values) error { return ValidateOneOf(v, o.checkBlank, exclusive, rules) })
}

func guard(o *options, check func(Values) error) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			err := check(o.storage(r))
			if err == nil {
				next(w, r)
				return
			}
			errs := err.(*Error).Errors
			if o.handler != nil {
				o.handler(w, r, errs)
				return
			}
			writeErrors(w, errs)
		}
	}
}

func writeErrors(w http.ResponseWriter, errs Errors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]Errors{"errors": errs})
}
