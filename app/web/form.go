package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// BaseError keys form errors that belong to no single field.
const BaseError = "base"

var timeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

var (
	decoder  = schema.NewDecoder()
	encoder  = schema.NewEncoder()
	validate = validator.New(validator.WithRequiredStructEnabled())
)

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(time.Time{}, func(s string) reflect.Value {
		if s == "" {
			return reflect.ValueOf(time.Time{})
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return reflect.ValueOf(t)
			}
		}
		return reflect.Value{}
	})
	encoder.RegisterEncoder(time.Time{}, func(v reflect.Value) string {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(timeLayouts[1])
	})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
}

// Form carries submitted or prefilled values and per-field errors.
type Form struct {
	Values url.Values
	Errors map[string][]string
}

// NewForm returns a form prefilled from src, a struct with schema tags.
// src may be nil.
func NewForm(src any) *Form {
	f := &Form{Values: url.Values{}, Errors: map[string][]string{}}
	if v := reflect.ValueOf(src); !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return f
	}
	if err := encoder.Encode(src, f.Values); err != nil {
		f.AddError(BaseError, err.Error())
	}
	return f
}

// Get returns the first value of field.
func (f *Form) Get(field string) string {
	return f.Values.Get(field)
}

// ErrorsFor returns the messages for field.
func (f *Form) ErrorsFor(field string) []string {
	return f.Errors[field]
}

// AddError records msg against field.
func (f *Form) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

// Valid reports whether the form has no errors.
func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// Bind decodes the request form into dst and validates it with the
// validate struct tags.
func Bind(r *http.Request, dst any) *Form {
	f := &Form{Values: url.Values{}, Errors: map[string][]string{}}
	if err := r.ParseForm(); err != nil {
		f.AddError(BaseError, err.Error())
		return f
	}
	f.Values = r.PostForm
	if len(f.Values) == 0 {
		f.Values = r.Form
	}

	if err := decoder.Decode(dst, f.Values); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for _, field := range sortedKeys(multi) {
				f.AddError(field, "Not a valid value.")
			}
		} else {
			f.AddError(BaseError, err.Error())
		}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			f.AddError(BaseError, err.Error())
			return f
		}
		for _, fe := range fieldErrs {
			if _, decodeFailed := f.Errors[fe.Field()]; decodeFailed {
				continue
			}
			f.AddError(fe.Field(), message(fe))
		}
	}
	return f
}

// ValidateOnSubmit binds dst when r submits a form. For other requests it
// returns a form prefilled from dst and false.
func ValidateOnSubmit(r *http.Request, dst any) (*Form, bool) {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return NewForm(dst), false
	}
	f := Bind(r, dst)
	return f, f.Valid()
}

func message(fe validator.FieldError) string {
	text := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if text {
			return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "max":
		if text {
			return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Number must be at most %s.", fe.Param())
	case "email":
		return "Invalid email address."
	}
	return "Invalid value."
}

func sortedKeys(m schema.MultiError) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
