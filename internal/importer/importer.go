// Package importer reads intention export documents.
//
// Three document shapes are accepted: a bare JSON array of intentions, an
// object with an "Intentions" array, or a single intention object.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/prasenjit/go-intentions/internal/models"
)

// ErrInvalidDocument is returned when the input is not a JSON export document
var ErrInvalidDocument = errors.New("invalid export document")

// ElementError reports an element that could not be decoded
type ElementError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Element is a decoded intention and its position in the document
type Element struct {
	Index int
	Input models.IntentionInput
}

// Result holds the decoded elements and the ones that were skipped
type Result struct {
	Elements []Element
	Skipped  []ElementError
}

// Parse decodes an export document into intention inputs
func Parse(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDocument)
	}

	doc := gjson.ParseBytes(data)

	var elements []gjson.Result
	switch {
	case doc.IsArray():
		elements = doc.Array()
	case doc.IsObject() && doc.Get("Intentions").IsArray():
		elements = doc.Get("Intentions").Array()
	case doc.IsObject() && doc.Get("SourceName").Exists():
		elements = []gjson.Result{doc}
	default:
		return nil, fmt.Errorf("%w: expected an array, an Intentions list or an intention", ErrInvalidDocument)
	}

	result := &Result{Elements: make([]Element, 0, len(elements))}
	for i, elem := range elements {
		if !elem.IsObject() {
			result.Skipped = append(result.Skipped, ElementError{Index: i, Error: "not an object"})
			continue
		}

		var input models.IntentionInput
		if err := json.Unmarshal([]byte(elem.Raw), &input); err != nil {
			result.Skipped = append(result.Skipped, ElementError{Index: i, Error: err.Error()})
			continue
		}
		result.Elements = append(result.Elements, Element{Index: i, Input: input})
	}

	return result, nil
}
