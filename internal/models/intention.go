package models

import (
	"time"
)

// Intention actions
const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// WildcardName matches any service name in SourceName or DestinationName
const WildcardName = "*"

// Intention represents a traffic permission between two services
type Intention struct {
	ID              string       `json:"ID"`
	SourceName      string       `json:"SourceName" validate:"required"`
	DestinationName string       `json:"DestinationName" validate:"required"`
	Description     string       `json:"Description,omitempty"`
	Action          string       `json:"Action,omitempty" validate:"omitempty,oneof=allow deny"`
	Permissions     []Permission `json:"Permissions,omitempty" validate:"dive"`
	Precedence      int          `json:"Precedence"`
	CreatedAt       time.Time    `json:"CreateTime"`
	UpdatedAt       time.Time    `json:"UpdateTime"`
}

// Permission is one L7 rule of an intention
type Permission struct {
	Action string          `json:"Action" validate:"required,oneof=allow deny"`
	HTTP   *HTTPPermission `json:"HTTP,omitempty"`
}

// HTTPPermission holds the HTTP request attributes a permission applies to
type HTTPPermission struct {
	PathExact  string            `json:"PathExact,omitempty"`
	PathPrefix string            `json:"PathPrefix,omitempty"`
	PathRegex  string            `json:"PathRegex,omitempty"`
	Methods    []string          `json:"Methods,omitempty" validate:"dive,httpmethod"`
	Header     []HeaderCondition `json:"Header,omitempty" validate:"dive"`
}

// IntentionInput represents input for creating an intention
type IntentionInput struct {
	SourceName      string       `json:"SourceName"`
	DestinationName string       `json:"DestinationName"`
	Description     string       `json:"Description"`
	Action          string       `json:"Action"`
	Permissions     []Permission `json:"Permissions"`
}

// IntentionUpdate represents input for updating an intention
type IntentionUpdate struct {
	Description *string       `json:"Description,omitempty"`
	Action      *string       `json:"Action,omitempty"`
	Permissions *[]Permission `json:"Permissions,omitempty"`
}

// IntentionFilter narrows ListIntentions results
type IntentionFilter struct {
	SourceName      string `form:"source"`
	DestinationName string `form:"destination"`
}

// Matches reports whether the intention passes the filter
func (f *IntentionFilter) Matches(ixn *Intention) bool {
	if f == nil {
		return true
	}
	if f.SourceName != "" && ixn.SourceName != f.SourceName {
		return false
	}
	if f.DestinationName != "" && ixn.DestinationName != f.DestinationName {
		return false
	}
	return true
}

// NewIntention builds an intention from input. ID and timestamps are left
// to the caller.
func NewIntention(input IntentionInput) *Intention {
	ixn := &Intention{
		SourceName:      input.SourceName,
		DestinationName: input.DestinationName,
		Description:     input.Description,
		Action:          input.Action,
		Permissions:     input.Permissions,
	}
	ixn.UpdatePrecedence()
	return ixn
}

// Apply copies the set fields of update onto the intention
func (ixn *Intention) Apply(update IntentionUpdate) {
	if update.Description != nil {
		ixn.Description = *update.Description
	}
	if update.Action != nil {
		ixn.Action = *update.Action
	}
	if update.Permissions != nil {
		ixn.Permissions = *update.Permissions
	}
}

// UpdatePrecedence recomputes Precedence from the source and destination
// names. Exact names outrank wildcards and the destination weighs more.
func (ixn *Intention) UpdatePrecedence() {
	srcExact := ixn.SourceName != WildcardName
	dstExact := ixn.DestinationName != WildcardName

	switch {
	case srcExact && dstExact:
		ixn.Precedence = 9
	case !srcExact && dstExact:
		ixn.Precedence = 8
	case srcExact && !dstExact:
		ixn.Precedence = 6
	default:
		ixn.Precedence = 5
	}
}

// HeaderConditions returns every header condition of the intention in
// permission order
func (ixn *Intention) HeaderConditions() []HeaderCondition {
	var result []HeaderCondition
	for _, perm := range ixn.Permissions {
		if perm.HTTP == nil {
			continue
		}
		result = append(result, perm.HTTP.Header...)
	}
	return result
}
