// Package jsonapi renders domain values as JSON:API documents.
package jsonapi

import (
	"time"

	"github.com/goccy/go-json"
)

// Document is a top-level JSON:API document. Errors are written by the
// middleware package, never through Document.
type Document struct {
	Data     any    `json:"data"`
	Meta     *Meta  `json:"meta,omitempty"`
	Links    *Links `json:"links,omitempty"`
	Included []any  `json:"included,omitempty"`
}

// Meta is free-form document or resource metadata.
type Meta map[string]any

// Links are pagination links for list documents.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Resource is one resource object.
type Resource struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	Attributes    any           `json:"attributes"`
	Relationships Relationships `json:"relationships,omitempty"`
	Meta          *Meta         `json:"meta,omitempty"`
}

// Relationships maps a relationship name to its linkage.
type Relationships map[string]*Relationship

// Relationship holds to-many linkage. An empty list is still rendered so
// clients can tell "none" from "not loaded".
type Relationship struct {
	Data []ResourceIdentifier `json:"data"`
}

// ResourceIdentifier points at a resource by type and id.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewResource creates a resource.
func NewResource(resourceType, id string, attrs any) *Resource {
	return &Resource{Type: resourceType, ID: id, Attributes: attrs}
}

// Relate sets a to-many relationship on r to resources of one type.
func (r *Resource) Relate(name, resourceType string, ids []string) {
	data := make([]ResourceIdentifier, len(ids))
	for i, id := range ids {
		data[i] = ResourceIdentifier{Type: resourceType, ID: id}
	}
	if r.Relationships == nil {
		r.Relationships = Relationships{}
	}
	r.Relationships[name] = &Relationship{Data: data}
}

func NewSingleResponse(resource *Resource) *Document {
	return &Document{Data: resource}
}

func NewListResponse(resources []*Resource) *Document {
	if resources == nil {
		resources = []*Resource{}
	}
	return &Document{Data: resources}
}

// DateTime renders a time as RFC 3339 in UTC, or null when zero.
type DateTime time.Time

// NewDateTime creates a DateTime.
func NewDateTime(t time.Time) DateTime {
	return DateTime(t)
}

// MarshalJSON implements json.Marshaler.
func (dt DateTime) MarshalJSON() ([]byte, error) {
	t := time.Time(dt)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
