package models

import (
	"testing"
)

func TestUpdatePrecedence(t *testing.T) {
	tests := []struct {
		src      string
		dst      string
		expected int
	}{
		{"web", "db", 9},
		{"*", "db", 8},
		{"web", "*", 6},
		{"*", "*", 5},
	}

	for _, tt := range tests {
		t.Run(tt.src+"->"+tt.dst, func(t *testing.T) {
			ixn := &Intention{SourceName: tt.src, DestinationName: tt.dst}
			ixn.UpdatePrecedence()
			if ixn.Precedence != tt.expected {
				t.Errorf("Expected precedence %d, got %d", tt.expected, ixn.Precedence)
			}
		})
	}
}

func TestNewIntention(t *testing.T) {
	ixn := NewIntention(IntentionInput{
		SourceName:      "web",
		DestinationName: "*",
		Action:          ActionAllow,
	})

	if ixn.SourceName != "web" || ixn.DestinationName != "*" {
		t.Errorf("Unexpected names: %s -> %s", ixn.SourceName, ixn.DestinationName)
	}
	if ixn.Precedence != 6 {
		t.Errorf("Expected precedence 6, got %d", ixn.Precedence)
	}
	if ixn.ID != "" {
		t.Errorf("Expected empty ID, got %q", ixn.ID)
	}
}

func TestIntentionApply(t *testing.T) {
	ixn := &Intention{SourceName: "web", DestinationName: "db", Action: ActionAllow, Description: "old"}

	desc := "new"
	perms := []Permission{{Action: ActionDeny}}
	empty := ""
	ixn.Apply(IntentionUpdate{Description: &desc, Action: &empty, Permissions: &perms})

	if ixn.Description != "new" {
		t.Errorf("Expected description 'new', got %q", ixn.Description)
	}
	if ixn.Action != "" {
		t.Errorf("Expected empty action, got %q", ixn.Action)
	}
	if len(ixn.Permissions) != 1 {
		t.Errorf("Expected 1 permission, got %d", len(ixn.Permissions))
	}

	ixn.Apply(IntentionUpdate{})
	if ixn.Description != "new" {
		t.Error("Expected empty update to keep fields")
	}
}

func TestIntentionFilterMatches(t *testing.T) {
	ixn := &Intention{SourceName: "web", DestinationName: "db"}

	var nilFilter *IntentionFilter
	if !nilFilter.Matches(ixn) {
		t.Error("Expected nil filter to match")
	}
	if !(&IntentionFilter{SourceName: "web"}).Matches(ixn) {
		t.Error("Expected source filter to match")
	}
	if (&IntentionFilter{DestinationName: "api"}).Matches(ixn) {
		t.Error("Expected destination filter not to match")
	}
}

func TestIntentionHeaderConditions(t *testing.T) {
	ixn := &Intention{
		Permissions: []Permission{
			{Action: ActionAllow, HTTP: &HTTPPermission{
				PathPrefix: "/v1",
				Header: []HeaderCondition{
					{Name: "X-A", Exact: strPtr("1")},
					{Name: "X-B", Present: boolPtr(true)},
				},
			}},
			{Action: ActionDeny},
			{Action: ActionDeny, HTTP: &HTTPPermission{
				Header: []HeaderCondition{{Name: "X-C", Regex: strPtr(".*")}},
			}},
		},
	}

	headers := ixn.HeaderConditions()
	if len(headers) != 3 {
		t.Fatalf("Expected 3 header conditions, got %d", len(headers))
	}
	names := []string{"X-A", "X-B", "X-C"}
	for i, name := range names {
		if headers[i].Name != name {
			t.Errorf("Expected %q at index %d, got %q", name, i, headers[i].Name)
		}
	}
}
