package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the envelope returned by a collection endpoint.
type Document struct {
	Data []Resource `json:"data"`
	// Skipped counts members of data that were not resource objects.
	Skipped int `json:"-"`
}

// UnmarshalJSON decodes an envelope. A missing, null or non-array data member
// yields an empty collection, not an error.
func (d *Document) UnmarshalJSON(b []byte) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	*d = Document{Data: []Resource{}}
	if !isArray(env.Data) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}

	for _, item := range items {
		if !isObject(item) {
			d.Skipped++
			continue
		}
		var r Resource
		if err := json.Unmarshal(item, &r); err != nil {
			d.Skipped++
			continue
		}
		d.Data = append(d.Data, r)
	}
	return nil
}

// ParseDocument decodes an envelope from raw bytes. Empty input is treated
// as an empty collection.
func ParseDocument(b []byte) (Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Document{Data: []Resource{}}, nil
	}

	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("jsonapi: parse document: %w", err)
	}
	return doc, nil
}
