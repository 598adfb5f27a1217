// Package ranking picks the best-selling books of a store.
package ranking

import (
	"cmp"
	"slices"

	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/lepinkainen/storefront/internal/resolve"
)

const (
	// DefaultTopN is the length of a store's best-seller list.
	DefaultTopN = 2

	// BooksRelationship is the store relationship listing its books.
	BooksRelationship = "books"
	// CopiesSoldAttribute is the book attribute books are ranked by.
	CopiesSoldAttribute = "copiesSold"
)

// CopiesSold returns the sales metric of a book. Missing or non-numeric
// values count as zero.
func CopiesSold(book jsonapi.Resource) float64 {
	n, ok := book.Attributes.Number(CopiesSoldAttribute)
	if !ok {
		return 0
	}
	return n
}

// StoreBooks resolves every book reference of store in relationship order.
// Unresolvable references are dropped.
func StoreBooks(store jsonapi.Resource, books resolve.Resolver) []jsonapi.Resource {
	if books == nil {
		return nil
	}

	ids := resolve.References(store, BooksRelationship)
	resolved := make([]jsonapi.Resource, 0, len(ids))
	for _, id := range ids {
		if book, ok := books.Lookup(id); ok {
			resolved = append(resolved, book)
		}
	}
	return resolved
}

// TopBooks returns at most n of the store's books ordered by copies sold,
// highest first. Books with equal sales keep their relationship order.
func TopBooks(store jsonapi.Resource, books resolve.Resolver, n int) []jsonapi.Resource {
	if n <= 0 {
		return []jsonapi.Resource{}
	}

	ranked := StoreBooks(store, books)
	slices.SortStableFunc(ranked, func(a, b jsonapi.Resource) int {
		return cmp.Compare(CopiesSold(b), CopiesSold(a))
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []jsonapi.Resource{}
	}
	return ranked
}
