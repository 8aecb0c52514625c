package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-intentions/internal/models"
)

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected int
	}{
		{"bare array", `[{"SourceName":"web","DestinationName":"db","Action":"allow"},{"SourceName":"*","DestinationName":"db","Action":"deny"}]`, 2},
		{"wrapped", `{"Intentions":[{"SourceName":"web","DestinationName":"db","Action":"allow"}]}`, 1},
		{"single", `{"SourceName":"web","DestinationName":"db","Action":"allow"}`, 1},
		{"empty array", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			assert.Len(t, result.Elements, tt.expected)
			assert.Empty(t, result.Skipped)
		})
	}
}

func TestParse_HeaderConditions(t *testing.T) {
	doc := `[{
		"SourceName": "web",
		"DestinationName": "api",
		"Permissions": [{
			"Action": "allow",
			"HTTP": {
				"PathPrefix": "/v1",
				"Header": [
					{"Name": "X-Env", "Exact": "prod", "IgnoreCase": true},
					{"Name": "X-Debug", "Present": false},
					{"Name": "X-Trace"}
				]
			}
		}]
	}]`

	result, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Elements, 1)

	perms := result.Elements[0].Input.Permissions
	require.Len(t, perms, 1)
	require.NotNil(t, perms[0].HTTP)

	headers := perms[0].HTTP.Header
	require.Len(t, headers, 3)
	assert.Equal(t, models.HeaderExact, headers[0].HeaderType())
	assert.True(t, headers[0].IgnoreCase)
	assert.Equal(t, models.HeaderPresent, headers[1].HeaderType())
	assert.Equal(t, false, headers[1].Value())
	assert.Equal(t, models.HeaderType(""), headers[2].HeaderType())
}

func TestParse_SkipsBadElements(t *testing.T) {
	doc := `[{"SourceName":"web","DestinationName":"db","Action":"allow"}, 42, {"SourceName": 7}]`

	result, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Elements, 1)
	assert.Equal(t, 0, result.Elements[0].Index)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, 2, result.Skipped[1].Index)
}

func TestParse_InvalidDocument(t *testing.T) {
	for _, doc := range []string{`not json`, `"string"`, `{"Other": []}`, `{"Intentions": 3}`} {
		_, err := Parse([]byte(doc))
		assert.True(t, errors.Is(err, ErrInvalidDocument), "doc %s: %v", doc, err)
	}
}
