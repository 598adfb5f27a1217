package testutil

import (
	"encoding/json"

	"github.com/lepinkainen/storefront/internal/jsonapi"
)

// Ref returns to-one relationship linkage for the given id and type.
func Ref(typ, id string) jsonapi.Relationship {
	data, _ := json.Marshal(jsonapi.Identifier{ID: jsonapi.ID(id), Type: typ})
	return jsonapi.Relationship{Data: data}
}

// Refs returns to-many relationship linkage for the given ids.
func Refs(typ string, ids ...string) jsonapi.Relationship {
	idents := make([]jsonapi.Identifier, 0, len(ids))
	for _, id := range ids {
		idents = append(idents, jsonapi.Identifier{ID: jsonapi.ID(id), Type: typ})
	}
	data, _ := json.Marshal(idents)
	return jsonapi.Relationship{Data: data}
}

// StoreFixture describes a store resource for tests. Empty fields are left
// out of the built resource.
type StoreFixture struct {
	ID          string
	Name        string
	Rating      any
	Established string
	Website     string
	Image       string
	CountryID   string
	BookIDs     []string
	NoBooks     bool
}

// Resource builds the fixture as a store resource.
func (f StoreFixture) Resource() jsonapi.Resource {
	attrs := jsonapi.Attributes{}
	setString(attrs, "name", f.Name)
	setString(attrs, "establishmentDate", f.Established)
	setString(attrs, "website", f.Website)
	setString(attrs, "storeImage", f.Image)
	if f.Rating != nil {
		attrs["rating"] = f.Rating
	}

	rels := map[string]jsonapi.Relationship{}
	if f.CountryID != "" {
		rels["countries"] = Ref("countries", f.CountryID)
	}
	if !f.NoBooks {
		rels["books"] = Refs("books", f.BookIDs...)
	}

	return jsonapi.Resource{ID: jsonapi.ID(f.ID), Type: "stores", Attributes: attrs, Relationships: rels}
}

// Book builds a book resource. An empty authorID leaves the author
// relationship out.
func Book(id, name string, copiesSold float64, authorID string) jsonapi.Resource {
	res := jsonapi.Resource{
		ID:         jsonapi.ID(id),
		Type:       "books",
		Attributes: jsonapi.Attributes{"name": name, "copiesSold": copiesSold},
	}
	if authorID != "" {
		res.Relationships = map[string]jsonapi.Relationship{"author": Ref("authors", authorID)}
	}
	return res
}

// Author builds an author resource.
func Author(id, fullName string) jsonapi.Resource {
	return jsonapi.Resource{
		ID:         jsonapi.ID(id),
		Type:       "authors",
		Attributes: jsonapi.Attributes{"fullName": fullName},
	}
}

// Country builds a country resource.
func Country(id, code string) jsonapi.Resource {
	return jsonapi.Resource{
		ID:         jsonapi.ID(id),
		Type:       "countries",
		Attributes: jsonapi.Attributes{"code": code},
	}
}

// Envelope wraps resources in a {"data": [...]} document body.
func Envelope(items ...jsonapi.Resource) []byte {
	if items == nil {
		items = []jsonapi.Resource{}
	}
	body, _ := json.Marshal(map[string]any{"data": items})
	return body
}

func setString(attrs jsonapi.Attributes, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
