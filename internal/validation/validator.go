// Package validation checks intentions and header conditions before they are
// stored. It reports every problem found rather than stopping at the first.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prasenjit/go-intentions/internal/models"
)

// Custom validation tags
const (
	tagExactlyOne  = "exactlyone"
	tagRegex       = "regex"
	tagHTTPMethod  = "httpmethod"
	tagOnePath     = "onepath"
	tagSlash       = "leadingslash"
	tagActionNone  = "action_without_permissions"
	tagActionExtra = "action_with_permissions"
)

var httpMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field errors
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator validates models
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the header and intention rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister(v, tagHTTPMethod, func(fl validator.FieldLevel) bool {
		return httpMethods[fl.Field().String()]
	})

	v.RegisterStructValidation(headerRules, models.HeaderCondition{})
	v.RegisterStructValidation(httpPermissionRules, models.HTTPPermission{})
	v.RegisterStructValidation(intentionRules, models.Intention{})

	return &Validator{validate: v}
}

// mustRegister panics when a custom tag cannot be registered
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Header validates a single header condition
func (v *Validator) Header(h *models.HeaderCondition) Errors {
	return v.check(h)
}

// Intention validates an intention together with its permissions and headers
func (v *Validator) Intention(ixn *models.Intention) Errors {
	return v.check(ixn)
}

func (v *Validator) check(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "", Message: err.Error()}}
	}

	result := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		result = append(result, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return result
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case tagExactlyOne:
		return "select exactly one match type"
	case tagRegex:
		return fe.Field() + " is not a valid regular expression"
	case tagHTTPMethod:
		return fmt.Sprintf("%q is not a valid HTTP method", fe.Value())
	case tagOnePath:
		return "only one of PathExact, PathPrefix or PathRegex may be set"
	case tagSlash:
		return fe.Field() + " must begin with '/'"
	case tagActionNone:
		return "Action is required when there are no permissions"
	case tagActionExtra:
		return "Action must be empty when permissions are set"
	default:
		return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
	}
}

func headerRules(sl validator.StructLevel) {
	h := sl.Current().Interface().(models.HeaderCondition)

	if h.MatchCount() != 1 {
		sl.ReportError(h.HeaderType(), "HeaderType", "HeaderType", tagExactlyOne, "")
	}
	if h.Regex != nil && !compiles(*h.Regex) {
		sl.ReportError(*h.Regex, "Regex", "Regex", tagRegex, "")
	}
}

func httpPermissionRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(models.HTTPPermission)

	paths := 0
	for _, s := range []string{p.PathExact, p.PathPrefix, p.PathRegex} {
		if s != "" {
			paths++
		}
	}
	if paths > 1 {
		sl.ReportError(p.PathExact, "PathExact", "PathExact", tagOnePath, "")
	}

	if p.PathExact != "" && !strings.HasPrefix(p.PathExact, "/") {
		sl.ReportError(p.PathExact, "PathExact", "PathExact", tagSlash, "")
	}
	if p.PathPrefix != "" && !strings.HasPrefix(p.PathPrefix, "/") {
		sl.ReportError(p.PathPrefix, "PathPrefix", "PathPrefix", tagSlash, "")
	}
	if p.PathRegex != "" && !compiles(p.PathRegex) {
		sl.ReportError(p.PathRegex, "PathRegex", "PathRegex", tagRegex, "")
	}
}

func intentionRules(sl validator.StructLevel) {
	ixn := sl.Current().Interface().(models.Intention)

	if len(ixn.Permissions) == 0 && ixn.Action == "" {
		sl.ReportError(ixn.Action, "Action", "Action", tagActionNone, "")
	}
	if len(ixn.Permissions) > 0 && ixn.Action != "" {
		sl.ReportError(ixn.Action, "Action", "Action", tagActionExtra, "")
	}
}

func compiles(pattern string) bool {
	_, err := regexp.Compile(pattern)
	return err == nil
}
