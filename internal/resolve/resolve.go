// Package resolve follows relationship references between collections.
//
// Source collections carry no referential integrity guarantees, so every
// lookup reports whether it succeeded instead of failing.
package resolve

import (
	"github.com/lepinkainen/storefront/internal/jsonapi"
)

// Resolver looks up a resource by id.
type Resolver interface {
	Lookup(id jsonapi.ID) (jsonapi.Resource, bool)
}

// Resolve scans collection for the first resource with the given id.
func Resolve(collection []jsonapi.Resource, id jsonapi.ID) (jsonapi.Resource, bool) {
	if id == "" {
		return jsonapi.Resource{}, false
	}
	for _, r := range collection {
		if r.ID == id {
			return r, true
		}
	}
	return jsonapi.Resource{}, false
}

// Index is a hashed view over a collection. On duplicate ids the first
// occurrence wins, the same as Resolve.
type Index struct {
	items []jsonapi.Resource
	byID  map[jsonapi.ID]int
}

// NewIndex builds an index over collection. The collection must not be
// modified while the index is in use.
func NewIndex(collection []jsonapi.Resource) *Index {
	idx := &Index{
		items: collection,
		byID:  make(map[jsonapi.ID]int, len(collection)),
	}
	for i, r := range collection {
		if r.ID == "" {
			continue
		}
		if _, seen := idx.byID[r.ID]; !seen {
			idx.byID[r.ID] = i
		}
	}
	return idx
}

// Lookup implements Resolver. A nil index resolves nothing.
func (idx *Index) Lookup(id jsonapi.ID) (jsonapi.Resource, bool) {
	if idx == nil || id == "" {
		return jsonapi.Resource{}, false
	}
	i, ok := idx.byID[id]
	if !ok {
		return jsonapi.Resource{}, false
	}
	return idx.items[i], true
}

// Reference extracts the id of a to-one relationship. Names are tried in
// order, so aliases such as "countries" and "country" can both be accepted.
func Reference(entity jsonapi.Resource, names ...string) (jsonapi.ID, bool) {
	for _, name := range names {
		if ident, ok := entity.Relationship(name).One(); ok {
			return ident.ID, true
		}
	}
	return "", false
}

// References extracts the ids of a to-many relationship in wire order. A
// missing or non-array relationship yields no ids.
func References(entity jsonapi.Resource, name string) []jsonapi.ID {
	idents, ok := entity.Relationship(name).Many()
	if !ok {
		return nil
	}
	ids := make([]jsonapi.ID, 0, len(idents))
	for _, ident := range idents {
		ids = append(ids, ident.ID)
	}
	return ids
}

// One follows a to-one relationship of entity into target.
func One(target Resolver, entity jsonapi.Resource, names ...string) (jsonapi.Resource, bool) {
	if target == nil {
		return jsonapi.Resource{}, false
	}
	id, ok := Reference(entity, names...)
	if !ok {
		return jsonapi.Resource{}, false
	}
	return target.Lookup(id)
}
