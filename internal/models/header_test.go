package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestHeaderTypes(t *testing.T) {
	types := HeaderTypes()

	expected := []HeaderType{"Exact", "Prefix", "Suffix", "Contains", "Regex", "Present"}
	if len(types) != len(expected) {
		t.Fatalf("Expected %d header types, got %d", len(expected), len(types))
	}

	for i, ht := range expected {
		if types[i] != ht {
			t.Errorf("Expected header type %q at index %d, got %q", ht, i, types[i])
		}
	}
}

func TestHeaderTypeValid(t *testing.T) {
	for _, ht := range HeaderTypes() {
		if !ht.Valid() {
			t.Errorf("Expected %q to be valid", ht)
		}
	}

	for _, ht := range []HeaderType{"", "exact", "Invert", "Suffixes"} {
		if ht.Valid() {
			t.Errorf("Expected %q to be invalid", ht)
		}
	}
}

func TestHeaderCondition_SingleField(t *testing.T) {
	tests := []struct {
		name     string
		cond     HeaderCondition
		expected HeaderType
		value    any
	}{
		{"exact", HeaderCondition{Name: "X-Env", Exact: strPtr("prod")}, HeaderExact, "prod"},
		{"prefix", HeaderCondition{Name: "X-Env", Prefix: strPtr("pr")}, HeaderPrefix, "pr"},
		{"suffix", HeaderCondition{Name: "X-Env", Suffix: strPtr("od")}, HeaderSuffix, "od"},
		{"contains", HeaderCondition{Name: "X-Env", Contains: strPtr("ro")}, HeaderContains, "ro"},
		{"regex", HeaderCondition{Name: "X-Env", Regex: strPtr("^p.*")}, HeaderRegex, "^p.*"},
		{"present true", HeaderCondition{Name: "X-Env", Present: boolPtr(true)}, HeaderPresent, true},
		{"present false", HeaderCondition{Name: "X-Env", Present: boolPtr(false)}, HeaderPresent, false},
		{"empty exact is defined", HeaderCondition{Name: "X-Env", Exact: strPtr("")}, HeaderExact, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.HeaderType(); got != tt.expected {
				t.Errorf("Expected header type %q, got %q", tt.expected, got)
			}
			if got := tt.cond.Value(); got != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, got)
			}
			if got := tt.cond.MatchCount(); got != 1 {
				t.Errorf("Expected match count 1, got %d", got)
			}
		})
	}
}

func TestHeaderCondition_Unset(t *testing.T) {
	cond := HeaderCondition{Name: "X-Env", IgnoreCase: true}

	if got := cond.HeaderType(); got != "" {
		t.Errorf("Expected empty header type, got %q", got)
	}
	if got := cond.Value(); got != nil {
		t.Errorf("Expected nil value, got %v", got)
	}
	if got := cond.MatchCount(); got != 0 {
		t.Errorf("Expected match count 0, got %d", got)
	}
}

func TestHeaderCondition_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		cond     HeaderCondition
		expected HeaderType
		value    any
	}{
		{
			name:     "exact beats prefix",
			cond:     HeaderCondition{Exact: strPtr("a"), Prefix: strPtr("b")},
			expected: HeaderExact,
			value:    "a",
		},
		{
			name:     "suffix beats regex and present",
			cond:     HeaderCondition{Suffix: strPtr("s"), Regex: strPtr("r"), Present: boolPtr(true)},
			expected: HeaderSuffix,
			value:    "s",
		},
		{
			name:     "regex beats present",
			cond:     HeaderCondition{Regex: strPtr(".*"), Present: boolPtr(false)},
			expected: HeaderRegex,
			value:    ".*",
		},
		{
			name: "all set",
			cond: HeaderCondition{
				Exact: strPtr("e"), Prefix: strPtr("p"), Suffix: strPtr("s"),
				Contains: strPtr("c"), Regex: strPtr("r"), Present: boolPtr(true),
			},
			expected: HeaderExact,
			value:    "e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.HeaderType(); got != tt.expected {
				t.Errorf("Expected header type %q, got %q", tt.expected, got)
			}
			if got := tt.cond.Value(); got != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, got)
			}
			if !tt.cond.HeaderType().Valid() {
				t.Errorf("Expected %q to be a valid header type", tt.cond.HeaderType())
			}
		})
	}
}

func TestHeaderCondition_RecomputedOnAccess(t *testing.T) {
	cond := HeaderCondition{Name: "X-Env"}

	cond.Prefix = strPtr("a")
	if cond.HeaderType() != HeaderPrefix {
		t.Errorf("Expected Prefix, got %q", cond.HeaderType())
	}

	cond.Exact = strPtr("b")
	if cond.HeaderType() != HeaderExact {
		t.Errorf("Expected Exact after setting Exact, got %q", cond.HeaderType())
	}

	cond.Exact = nil
	cond.Prefix = nil
	if cond.HeaderType() != "" {
		t.Errorf("Expected empty header type after clearing, got %q", cond.HeaderType())
	}
}

func TestHeaderCondition_SetMatch(t *testing.T) {
	cond := HeaderCondition{
		Name:       "X-Env",
		Exact:      strPtr("a"),
		Regex:      strPtr("b"),
		IgnoreCase: true,
	}

	if err := cond.SetMatch(HeaderSuffix, "prod"); err != nil {
		t.Fatalf("SetMatch failed: %v", err)
	}
	if cond.MatchCount() != 1 {
		t.Errorf("Expected match count 1, got %d", cond.MatchCount())
	}
	if cond.HeaderType() != HeaderSuffix || cond.Value() != "prod" {
		t.Errorf("Expected Suffix=prod, got %s=%v", cond.HeaderType(), cond.Value())
	}
	if cond.Name != "X-Env" || !cond.IgnoreCase {
		t.Error("Expected Name and IgnoreCase to be kept")
	}

	if err := cond.SetMatch(HeaderPresent, ""); err != nil {
		t.Fatalf("SetMatch failed: %v", err)
	}
	if cond.Value() != true {
		t.Errorf("Expected Present=true, got %v", cond.Value())
	}
	if cond.Suffix != nil {
		t.Error("Expected Suffix to be cleared")
	}

	if err := cond.SetMatch(HeaderPresent, "false"); err != nil {
		t.Fatalf("SetMatch failed: %v", err)
	}
	if cond.Value() != false {
		t.Errorf("Expected Present=false, got %v", cond.Value())
	}

	if err := cond.SetMatch(HeaderPresent, "maybe"); err == nil {
		t.Error("Expected error for invalid Present value")
	}
	if cond.Value() != false {
		t.Error("Expected failed SetMatch to leave the condition unchanged")
	}

	err := cond.SetMatch("Invert", "x")
	if !errors.Is(err, ErrUnknownHeaderType) {
		t.Errorf("Expected ErrUnknownHeaderType, got %v", err)
	}
}

func TestHeaderCondition_ClearMatch(t *testing.T) {
	cond := HeaderCondition{Name: "X-Env", Contains: strPtr("x"), Present: boolPtr(false)}
	cond.ClearMatch()

	if cond.MatchCount() != 0 {
		t.Errorf("Expected no match fields, got %d", cond.MatchCount())
	}
	if cond.Name != "X-Env" {
		t.Errorf("Expected name to be kept, got %q", cond.Name)
	}
}

func TestHeaderCondition_RoundTrip(t *testing.T) {
	var cond HeaderCondition
	if err := json.Unmarshal([]byte(`{"Name":"X-Test","Regex":"^a"}`), &cond); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cond.HeaderType() != HeaderRegex {
		t.Errorf("Expected Regex, got %q", cond.HeaderType())
	}
	if cond.Present != nil {
		t.Error("Expected Present to stay unset")
	}

	data, err := json.Marshal(cond)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(record) != 2 {
		t.Errorf("Expected 2 keys, got %d: %s", len(record), data)
	}
	if record["Name"] != "X-Test" || record["Regex"] != "^a" {
		t.Errorf("Unexpected record: %s", data)
	}
}

func TestHeaderCondition_PresentFalseOnWire(t *testing.T) {
	cond := HeaderCondition{Name: "X-Debug", Present: boolPtr(false)}

	data, err := json.Marshal(cond)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"Name":"X-Debug","Present":false}` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var decoded HeaderCondition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.HeaderType() != HeaderPresent || decoded.Value() != false {
		t.Errorf("Expected Present=false, got %s=%v", decoded.HeaderType(), decoded.Value())
	}
}
