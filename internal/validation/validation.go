// Package validation checks candidate records before they reach the store.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is returned when a candidate record violates a field constraint.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds a single-field validation error.
func NewError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

// UserCandidate is a user registration payload after decoding.
type UserCandidate struct {
	Name   string  `json:"name" validate:"required,notblank"`
	Age    *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Gender *string `json:"gender" validate:"omitempty,oneof=m f o"`
}

// CompanyCandidate is a company create/update payload after decoding.
type CompanyCandidate struct {
	Title             string `json:"title" validate:"required,notblank"`
	Description       string `json:"description" validate:"required,notblank"`
	URL               string `json:"url" validate:"required,absuri"`
	PunchcardLifetime *int   `json:"punchcard_lifetime" validate:"omitempty,min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("absuri", func(fl validator.FieldLevel) bool {
		return IsURI(fl.Field().String())
	})
	return v
}

// ValidateUser reports whether u satisfies the user field constraints.
func ValidateUser(u *UserCandidate) error {
	return check(u)
}

// ValidateCompany reports whether c satisfies the company field constraints.
// Title uniqueness is checked by the caller against the store.
func ValidateCompany(c *CompanyCandidate) error {
	return check(c)
}

// IsURI reports whether s parses as an absolute URI with a scheme and a
// host or opaque part.
func IsURI(s string) bool {
	if strings.TrimSpace(s) != s || s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

func check(candidate interface{}) error {
	err := validate.Struct(candidate)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "absuri":
		return "must be a valid URI"
	default:
		return "is invalid"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
