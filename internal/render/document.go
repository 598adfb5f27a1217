package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/storefront/internal/view"
)

// Document is the envelope written by the JSON and YAML exporters.
type Document struct {
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
	Count       int                  `json:"count" yaml:"count"`
	Stores      []view.DisplayRecord `json:"stores" yaml:"stores"`
}

// NewDocument wraps records with the generation time.
func NewDocument(records []view.DisplayRecord, now time.Time) Document {
	if records == nil {
		records = []view.DisplayRecord{}
	}
	return Document{GeneratedAt: now.UTC(), Count: len(records), Stores: records}
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAML writes doc as a YAML document.
func YAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}
