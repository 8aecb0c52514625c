package condition

import (
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/prasenjit/go-intentions/internal/models"
)

// Matcher tests header conditions against request headers
type Matcher struct {
	regexCache sync.Map // pattern -> *regexp.Regexp, nil entry for invalid patterns
}

// NewMatcher creates a new header matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// MatchAll reports whether every condition matches the headers.
// An empty list matches.
func (m *Matcher) MatchAll(conds []models.HeaderCondition, headers http.Header) bool {
	for i := range conds {
		if !m.Match(&conds[i], headers) {
			return false
		}
	}
	return true
}

// Match tests a single condition against the headers. A condition without an
// active match kind never matches.
func (m *Matcher) Match(cond *models.HeaderCondition, headers http.Header) bool {
	value, exists := lookup(headers, cond.Name)

	switch cond.HeaderType() {
	case models.HeaderPresent:
		return exists == *cond.Present
	case "":
		return false
	}

	if !exists {
		return false
	}

	switch cond.HeaderType() {
	case models.HeaderRegex:
		re := m.compile(*cond.Regex, cond.IgnoreCase)
		if re == nil {
			return false
		}
		return re.MatchString(value)
	}

	expected, _ := cond.Value().(string)
	if cond.IgnoreCase {
		value = strings.ToLower(value)
		expected = strings.ToLower(expected)
	}

	switch cond.HeaderType() {
	case models.HeaderExact:
		return value == expected
	case models.HeaderPrefix:
		return strings.HasPrefix(value, expected)
	case models.HeaderSuffix:
		return strings.HasSuffix(value, expected)
	case models.HeaderContains:
		return strings.Contains(value, expected)
	default:
		return false
	}
}

// lookup finds the first value of a header by case-insensitive name
func lookup(headers http.Header, name string) (string, bool) {
	if vals, ok := headers[http.CanonicalHeaderKey(name)]; ok && len(vals) > 0 {
		return vals[0], true
	}
	// Headers built from plain maps may not use canonical keys
	for k, vals := range headers {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return vals[0], true
		}
	}
	return "", false
}

// compile returns the anchored regex for a pattern, or nil if it does not compile
func (m *Matcher) compile(pattern string, ignoreCase bool) *regexp.Regexp {
	key := pattern
	if ignoreCase {
		key = "(?i)" + pattern
	}

	if cached, ok := m.regexCache.Load(key); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}

	full := "^(?:" + pattern + ")$"
	if ignoreCase {
		full = "(?i)" + full
	}

	re, err := regexp.Compile(full)
	if err != nil {
		m.regexCache.Store(key, (*regexp.Regexp)(nil))
		return nil
	}
	m.regexCache.Store(key, re)
	return re
}
