package jsonapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantIDs     []ID
		wantSkipped int
	}{
		{name: "populated", in: `{"data":[{"id":"1"},{"id":2}]}`, wantIDs: []ID{"1", "2"}},
		{name: "missing data", in: `{"meta":{}}`, wantIDs: []ID{}},
		{name: "null data", in: `{"data":null}`, wantIDs: []ID{}},
		{name: "object data", in: `{"data":{"id":"1"}}`, wantIDs: []ID{}},
		{name: "empty body", in: ``, wantIDs: []ID{}},
		{name: "junk members", in: `{"data":[null,"x",{"id":"9"},3]}`, wantIDs: []ID{"9"}, wantSkipped: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.in))
			require.NoError(t, err)
			require.NotNil(t, doc.Data)

			ids := make([]ID, 0, len(doc.Data))
			for _, r := range doc.Data {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantSkipped, doc.Skipped)
		})
	}
}

func TestParseDocumentInvalidJSON(t *testing.T) {
	_, err := ParseDocument([]byte(`<html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse document")
}
