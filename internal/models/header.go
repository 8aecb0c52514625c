package models

import (
	"errors"
	"fmt"
	"strconv"
)

// HeaderType names the match kind of a header condition
type HeaderType string

// Supported header match kinds, in priority order
const (
	HeaderExact    HeaderType = "Exact"
	HeaderPrefix   HeaderType = "Prefix"
	HeaderSuffix   HeaderType = "Suffix"
	HeaderContains HeaderType = "Contains"
	HeaderRegex    HeaderType = "Regex"
	HeaderPresent  HeaderType = "Present"
)

// ErrUnknownHeaderType is returned when a match kind is not one of HeaderTypes()
var ErrUnknownHeaderType = errors.New("unknown header type")

// HeaderCondition matches one HTTP header by name and value.
// It is embedded in an HTTPPermission and has no identity of its own.
//
// Match fields are pointers so that an unset field stays distinguishable from
// a zero value: Exact set to "" is an active match, and Present set to false
// means the header must be absent while a nil Present means "not applicable".
type HeaderCondition struct {
	Name string `json:"Name" yaml:"name" validate:"required"`

	Exact    *string `json:"Exact,omitempty" yaml:"exact,omitempty"`
	Prefix   *string `json:"Prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix   *string `json:"Suffix,omitempty" yaml:"suffix,omitempty"`
	Contains *string `json:"Contains,omitempty" yaml:"contains,omitempty"`
	Regex    *string `json:"Regex,omitempty" yaml:"regex,omitempty"`
	Present  *bool   `json:"Present,omitempty" yaml:"present,omitempty"`

	IgnoreCase bool `json:"IgnoreCase,omitempty" yaml:"ignoreCase,omitempty"`
}

// headerMatcher reads one match field; ok is false while the field is unset
type headerMatcher struct {
	kind  HeaderType
	value func(h *HeaderCondition) (v any, ok bool)
}

var headerMatchers = []headerMatcher{
	{HeaderExact, func(h *HeaderCondition) (any, bool) { return deref(h.Exact) }},
	{HeaderPrefix, func(h *HeaderCondition) (any, bool) { return deref(h.Prefix) }},
	{HeaderSuffix, func(h *HeaderCondition) (any, bool) { return deref(h.Suffix) }},
	{HeaderContains, func(h *HeaderCondition) (any, bool) { return deref(h.Contains) }},
	{HeaderRegex, func(h *HeaderCondition) (any, bool) { return deref(h.Regex) }},
	{HeaderPresent, func(h *HeaderCondition) (any, bool) {
		if h.Present == nil {
			return nil, false
		}
		return *h.Present, true
	}},
}

func deref(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

// HeaderTypes returns all header match kinds in priority order
func HeaderTypes() []HeaderType {
	types := make([]HeaderType, len(headerMatchers))
	for i, m := range headerMatchers {
		types[i] = m.kind
	}
	return types
}

// Valid reports whether t is one of HeaderTypes()
func (t HeaderType) Valid() bool {
	for _, m := range headerMatchers {
		if m.kind == t {
			return true
		}
	}
	return false
}

// active returns the first populated match field in priority order
func (h *HeaderCondition) active() (HeaderType, any) {
	for _, m := range headerMatchers {
		if v, ok := m.value(h); ok {
			return m.kind, v
		}
	}
	return "", nil
}

// HeaderType returns the active match kind, or "" when no match field is set.
// If several fields are set the highest priority one wins.
func (h *HeaderCondition) HeaderType() HeaderType {
	kind, _ := h.active()
	return kind
}

// Value returns the value of the active match field: a string for the
// string kinds, a bool for Present, and nil when no field is set.
func (h *HeaderCondition) Value() any {
	_, v := h.active()
	return v
}

// MatchCount returns how many match fields are populated
func (h *HeaderCondition) MatchCount() int {
	n := 0
	for _, m := range headerMatchers {
		if _, ok := m.value(h); ok {
			n++
		}
	}
	return n
}

// ClearMatch unsets every match field. Name and IgnoreCase are kept.
func (h *HeaderCondition) ClearMatch() {
	h.Exact = nil
	h.Prefix = nil
	h.Suffix = nil
	h.Contains = nil
	h.Regex = nil
	h.Present = nil
}

// SetMatch makes kind the only populated match field.
// For HeaderPresent the value is parsed as a bool, an empty value meaning true.
func (h *HeaderCondition) SetMatch(kind HeaderType, value string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownHeaderType, kind)
	}

	var present *bool
	if kind == HeaderPresent {
		b := true
		if value != "" {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid Present value %q: %w", value, err)
			}
			b = parsed
		}
		present = &b
	}

	h.ClearMatch()
	v := value
	switch kind {
	case HeaderExact:
		h.Exact = &v
	case HeaderPrefix:
		h.Prefix = &v
	case HeaderSuffix:
		h.Suffix = &v
	case HeaderContains:
		h.Contains = &v
	case HeaderRegex:
		h.Regex = &v
	case HeaderPresent:
		h.Present = present
	}
	return nil
}
