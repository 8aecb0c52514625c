package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-intentions/internal/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func fields(errs Errors) []string {
	result := make([]string, len(errs))
	for i, e := range errs {
		result[i] = e.Field
	}
	return result
}

func TestHeader_Valid(t *testing.T) {
	v := New()

	for _, h := range []models.HeaderCondition{
		{Name: "X-Env", Exact: strPtr("prod")},
		{Name: "X-Env", Regex: strPtr(`^v\d+$`), IgnoreCase: true},
		{Name: "X-Debug", Present: boolPtr(false)},
		{Name: "X-Empty", Exact: strPtr("")},
	} {
		assert.Empty(t, v.Header(&h), "header %+v", h)
	}
}

func TestHeader_NameRequired(t *testing.T) {
	v := New()

	errs := v.Header(&models.HeaderCondition{Exact: strPtr("x")})
	require.Len(t, errs, 1)
	assert.Equal(t, "Name", errs[0].Field)
	assert.Equal(t, "Name is required", errs[0].Message)
}

func TestHeader_ExactlyOneMatchType(t *testing.T) {
	v := New()

	errs := v.Header(&models.HeaderCondition{Name: "X-Env"})
	require.Len(t, errs, 1)
	assert.Equal(t, "HeaderType", errs[0].Field)
	assert.Equal(t, "select exactly one match type", errs[0].Message)

	errs = v.Header(&models.HeaderCondition{Name: "X-Env", Exact: strPtr("a"), Prefix: strPtr("b")})
	require.Len(t, errs, 1)
	assert.Equal(t, "select exactly one match type", errs[0].Message)
}

func TestHeader_InvalidRegex(t *testing.T) {
	v := New()

	errs := v.Header(&models.HeaderCondition{Name: "X-Env", Regex: strPtr("(")})
	require.Len(t, errs, 1)
	assert.Equal(t, "Regex", errs[0].Field)
	assert.Contains(t, errs[0].Message, "regular expression")
}

func TestHeader_ReportsAllErrors(t *testing.T) {
	v := New()

	errs := v.Header(&models.HeaderCondition{Regex: strPtr("("), Present: boolPtr(true)})
	assert.ElementsMatch(t, []string{"Name", "HeaderType", "Regex"}, fields(errs))
	assert.NotEmpty(t, errs.Error())
}

func TestIntention_Valid(t *testing.T) {
	v := New()

	l4 := &models.Intention{SourceName: "web", DestinationName: "db", Action: models.ActionAllow}
	assert.Empty(t, v.Intention(l4))

	l7 := &models.Intention{
		SourceName:      "*",
		DestinationName: "api",
		Permissions: []models.Permission{
			{Action: models.ActionAllow, HTTP: &models.HTTPPermission{
				PathPrefix: "/v1",
				Methods:    []string{"GET", "POST"},
				Header:     []models.HeaderCondition{{Name: "X-Env", Exact: strPtr("prod")}},
			}},
			{Action: models.ActionDeny},
		},
	}
	assert.Empty(t, v.Intention(l7))
}

func TestIntention_Invalid(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		ixn      *models.Intention
		expected []string
	}{
		{
			name:     "missing names and action",
			ixn:      &models.Intention{},
			expected: []string{"SourceName", "DestinationName", "Action"},
		},
		{
			name:     "unknown action",
			ixn:      &models.Intention{SourceName: "a", DestinationName: "b", Action: "maybe"},
			expected: []string{"Action"},
		},
		{
			name: "action with permissions",
			ixn: &models.Intention{SourceName: "a", DestinationName: "b", Action: models.ActionAllow,
				Permissions: []models.Permission{{Action: models.ActionDeny}}},
			expected: []string{"Action"},
		},
		{
			name: "permission without action",
			ixn: &models.Intention{SourceName: "a", DestinationName: "b",
				Permissions: []models.Permission{{}}},
			expected: []string{"Permissions[0].Action"},
		},
		{
			name: "nested header errors",
			ixn: &models.Intention{SourceName: "a", DestinationName: "b",
				Permissions: []models.Permission{
					{Action: models.ActionAllow, HTTP: &models.HTTPPermission{
						Header: []models.HeaderCondition{
							{Name: "X-Ok", Exact: strPtr("1")},
							{Exact: strPtr("1"), Suffix: strPtr("2")},
						},
					}},
				}},
			expected: []string{"Permissions[0].HTTP.Header[1].Name", "Permissions[0].HTTP.Header[1].HeaderType"},
		},
		{
			name: "path rules",
			ixn: &models.Intention{SourceName: "a", DestinationName: "b",
				Permissions: []models.Permission{
					{Action: models.ActionAllow, HTTP: &models.HTTPPermission{PathExact: "v1", PathPrefix: "/v1"}},
					{Action: models.ActionAllow, HTTP: &models.HTTPPermission{PathRegex: "["}},
				}},
			expected: []string{"Permissions[0].HTTP.PathExact", "Permissions[0].HTTP.PathExact", "Permissions[1].HTTP.PathRegex"},
		},
		{
			name: "bad method",
			ixn: &models.Intention{SourceName: "a", DestinationName: "b",
				Permissions: []models.Permission{
					{Action: models.ActionAllow, HTTP: &models.HTTPPermission{Methods: []string{"GET", "FETCH"}}},
				}},
			expected: []string{"Permissions[0].HTTP.Methods[1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.expected, fields(v.Intention(tt.ixn)))
		})
	}
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	v := validator.New()

	assert.Panics(t, func() {
		mustRegister(v, "", func(validator.FieldLevel) bool { return true })
	})
	assert.NotPanics(t, func() {
		mustRegister(v, "always", func(validator.FieldLevel) bool { return true })
	})
}
