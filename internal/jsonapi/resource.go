// Package jsonapi decodes the loosely typed resource records served by the
// store directory endpoints.
//
// Records follow the {id, type, attributes, relationships} shape. Decoding is
// lenient: malformed ids, attributes or relationships decode to their zero
// value instead of failing the whole collection.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is a resource id normalized to a string. Numeric ids decode to their
// decimal representation so that 7 and "7" compare equal.
type ID string

// UnmarshalJSON accepts string and numeric ids. Anything else decodes to the
// empty ID, which never resolves.
func (id *ID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*id = ""
		return nil
	}

	switch t := v.(type) {
	case string:
		*id = ID(t)
	case json.Number:
		*id = ID(t.String())
	default:
		*id = ""
	}
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// Identifier is a reference to a resource in another collection.
type Identifier struct {
	ID   ID     `json:"id"`
	Type string `json:"type,omitempty"`
}

// Resource is a single record of a collection.
type Resource struct {
	ID            ID                      `json:"id"`
	Type          string                  `json:"type,omitempty"`
	Attributes    Attributes              `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// UnmarshalJSON decodes a resource, tolerating a relationships member that is
// not an object.
func (r *Resource) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID            ID              `json:"id"`
		Type          json.RawMessage `json:"type"`
		Attributes    Attributes      `json:"attributes"`
		Relationships json.RawMessage `json:"relationships"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Resource{ID: raw.ID, Attributes: raw.Attributes}

	var typ string
	if json.Unmarshal(raw.Type, &typ) == nil {
		r.Type = typ
	}

	if isObject(raw.Relationships) {
		var rels map[string]Relationship
		if json.Unmarshal(raw.Relationships, &rels) == nil {
			r.Relationships = rels
		}
	}
	return nil
}

// Relationship returns the named relationship. A missing relationship is
// returned as the zero value, which resolves to nothing.
func (r Resource) Relationship(name string) Relationship {
	if r.Relationships == nil {
		return Relationship{}
	}
	return r.Relationships[name]
}

// Relationship holds the linkage data of a relationship member.
type Relationship struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON keeps the raw data member of an object and drops anything
// else.
func (rel *Relationship) UnmarshalJSON(b []byte) error {
	*rel = Relationship{}
	if !isObject(b) {
		return nil
	}

	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(b, &raw) == nil {
		rel.Data = raw.Data
	}
	return nil
}

// One returns the single identifier of a to-one relationship. It reports
// false when the data member is missing, null, not an object or has no id.
func (rel Relationship) One() (Identifier, bool) {
	if !isObject(rel.Data) {
		return Identifier{}, false
	}

	var ident Identifier
	if err := json.Unmarshal(rel.Data, &ident); err != nil || ident.ID == "" {
		return Identifier{}, false
	}
	return ident, true
}

// Many returns the identifiers of a to-many relationship in their wire order.
// It reports false when the data member is not an array. Members that are not
// identifiers are skipped.
func (rel Relationship) Many() ([]Identifier, bool) {
	if !isArray(rel.Data) {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rel.Data, &items); err != nil {
		return nil, false
	}

	idents := make([]Identifier, 0, len(items))
	for _, item := range items {
		ident, ok := Relationship{Data: item}.One()
		if !ok {
			continue
		}
		idents = append(idents, ident)
	}
	return idents, true
}

// Attributes holds free-form resource attributes.
type Attributes map[string]any

// UnmarshalJSON decodes an attributes object. Non-object values decode to nil.
func (a *Attributes) UnmarshalJSON(b []byte) error {
	*a = nil
	if !isObject(b) {
		return nil
	}

	var m map[string]any
	if json.Unmarshal(b, &m) == nil {
		*a = m
	}
	return nil
}

// String returns a string attribute. Non-string values report false.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns a numeric attribute. Numeric strings are accepted, matching
// how the front-end coerced values when comparing them.
func (a Attributes) Number(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func isArray(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}
