package view

import (
	"testing"
	"time"

	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/lepinkainen/storefront/internal/resolve"
	"github.com/lepinkainen/storefront/internal/store"
	"github.com/lepinkainen/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFlags map[string]string

func (m mapFlags) Flag(code string) (string, bool) {
	url, ok := m[code]
	return url, ok
}

var fixedNow = time.Date(2024, time.July, 9, 12, 0, 0, 0, time.UTC)

func newTestAssembler() *Assembler {
	return NewAssembler(WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow }))
}

func fullSnapshot() store.Snapshot {
	return store.Snapshot{
		Stores: []jsonapi.Resource{
			testutil.StoreFixture{
				ID:          "1",
				Name:        "Corner Books",
				Rating:      4,
				Established: "2021-03-05T00:00:00Z",
				Website:     "https://corner.example",
				Image:       "https://img.example/corner.jpg",
				CountryID:   "c1",
				BookIDs:     []string{"b1", "b2", "b3", "b4"},
			}.Resource(),
			testutil.StoreFixture{ID: "2", Name: "Empty Shelf", NoBooks: true}.Resource(),
		},
		Books: []jsonapi.Resource{
			testutil.Book("b1", "Five", 5, "a1"),
			testutil.Book("b2", "Twenty A", 20, "a2"),
			testutil.Book("b3", "Twenty B", 20, "missing"),
			testutil.Book("b4", "One", 1, ""),
		},
		Authors: []jsonapi.Resource{
			testutil.Author("a1", "Mika Waltari"),
			testutil.Author("a2", "Tove Jansson"),
		},
		Countries: []jsonapi.Resource{testutil.Country("c1", "FI")},
	}
}

func TestAssembleFullRecord(t *testing.T) {
	records := newTestAssembler().Assemble(fullSnapshot(), mapFlags{"FI": "https://flags.test/fi.svg"})
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "1", rec.StoreID)
	assert.Equal(t, "Corner Books", rec.Name)
	assert.Equal(t, "https://img.example/corner.jpg", rec.Image)
	assert.Equal(t, "FI", rec.CountryCode)
	assert.Equal(t, "https://flags.test/fi.svg", rec.FlagURL)
	assert.True(t, rec.HasFlag())
	assert.Equal(t, 4, rec.Rating)
	assert.Equal(t, "05.03.2021", rec.Established)
	assert.Equal(t, "https://corner.example", rec.Website)
	assert.Equal(t, []BookLine{
		{Title: "Twenty A", Author: "Tove Jansson", CopiesSold: 20},
		{Title: "Twenty B", Author: UnknownAuthor, CopiesSold: 20},
	}, rec.Books)
}

func TestAssembleStoreWithoutBooks(t *testing.T) {
	records := newTestAssembler().Assemble(fullSnapshot(), nil)

	rec := records[1]
	assert.Equal(t, "Empty Shelf", rec.Name)
	assert.False(t, rec.HasBooks())
	assert.NotNil(t, rec.Books)
	assert.Equal(t, UnknownCountry, rec.CountryCode)
	assert.Equal(t, PlaceholderImage, rec.Image)
	assert.Equal(t, 0, rec.Rating)
	assert.Equal(t, "09.07.2024", rec.Established, "missing date formats the current date")
}

func TestAssemblePartialSnapshots(t *testing.T) {
	full := fullSnapshot()

	tests := []struct {
		name string
		snap store.Snapshot
	}{
		{"only stores", store.Snapshot{Stores: full.Stores}},
		{"no books", store.Snapshot{Stores: full.Stores, Authors: full.Authors, Countries: full.Countries}},
		{"no countries", store.Snapshot{Stores: full.Stores, Books: full.Books}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := newTestAssembler().Assemble(tt.snap, mapFlags{})
			require.Len(t, records, len(full.Stores))
			for i, rec := range records {
				assert.Equal(t, full.Stores[i].ID.String(), rec.StoreID, "records keep store order")
				assert.NotEmpty(t, rec.CountryCode)
				assert.NotEmpty(t, rec.Established)
				assert.LessOrEqual(t, len(rec.Books), 2)
			}
		})
	}
}

func TestAssembleNoStores(t *testing.T) {
	records := NewAssembler().Assemble(store.Snapshot{}, nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestAssemblePendingFlag(t *testing.T) {
	records := newTestAssembler().Assemble(fullSnapshot(), mapFlags{})
	assert.Empty(t, records[0].FlagURL)
	assert.False(t, records[0].HasFlag())
}

func TestAssembleCountryAlias(t *testing.T) {
	s := jsonapi.Resource{
		ID:            "9",
		Relationships: map[string]jsonapi.Relationship{"country": testutil.Ref("countries", "c1")},
	}
	snap := store.Snapshot{Stores: []jsonapi.Resource{s}, Countries: []jsonapi.Resource{testutil.Country("c1", "SE")}}

	records := newTestAssembler().Assemble(snap, nil)
	assert.Equal(t, "SE", records[0].CountryCode)
	assert.Equal(t, UnknownStore, records[0].Name)
}

func TestAssembleBookWithoutName(t *testing.T) {
	snap := store.Snapshot{
		Stores: []jsonapi.Resource{testutil.StoreFixture{ID: "1", BookIDs: []string{"b1"}}.Resource()},
		Books:  []jsonapi.Resource{{ID: "b1", Attributes: jsonapi.Attributes{"copiesSold": 3.0}}},
	}

	records := newTestAssembler().Assemble(snap, nil)
	require.Len(t, records[0].Books, 1)
	assert.Equal(t, UnknownBook, records[0].Books[0].Title)
	assert.Equal(t, UnknownAuthor, records[0].Books[0].Author)
}

func TestWithTopN(t *testing.T) {
	a := NewAssembler(WithLocation(time.UTC), WithTopN(3))
	records := a.Assemble(fullSnapshot(), nil)
	assert.Len(t, records[0].Books, 3)
	assert.Equal(t, "Five", records[0].Books[2].Title)
}

func TestAuthorLabel(t *testing.T) {
	authors := resolve.NewIndex([]jsonapi.Resource{testutil.Author("a1", "Astrid Lindgren"), {ID: "a2"}})

	assert.Equal(t, UnknownBookLabel, AuthorLabel(jsonapi.Resource{}, false, authors))
	assert.Equal(t, UnknownAuthor, AuthorLabel(testutil.Book("b", "x", 1, ""), true, authors))
	assert.Equal(t, UnknownAuthor, AuthorLabel(testutil.Book("b", "x", 1, "nobody"), true, authors))
	assert.Equal(t, UnknownAuthor, AuthorLabel(testutil.Book("b", "x", 1, "a2"), true, authors), "author without a name")
	assert.Equal(t, "Astrid Lindgren", AuthorLabel(testutil.Book("b", "x", 1, "a1"), true, authors))
	assert.Equal(t, UnknownAuthor, AuthorLabel(testutil.Book("b", "x", 1, "a1"), true, nil))
}

func TestRating(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"missing", nil, 0},
		{"integer", 3.0, 3},
		{"fraction truncates", 4.7, 4},
		{"half star truncates", 3.5, 3},
		{"numeric string", "2", 2},
		{"negative", -1.0, 0},
		{"above scale", 9.0, 5},
		{"garbage", "great", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := jsonapi.Resource{Attributes: jsonapi.Attributes{}}
			if tt.value != nil {
				s.Attributes["rating"] = tt.value
			}
			assert.Equal(t, tt.want, Rating(s))
		})
	}
}

func TestFormatDate(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	tests := []struct {
		name string
		loc  *time.Location
		raw  any
		want string
	}{
		{"rfc3339 utc", time.UTC, "2021-03-05T00:00:00Z", "05.03.2021"},
		{"fractional seconds", time.UTC, "2019-12-31T10:11:12.345Z", "31.12.2019"},
		{"bare date", time.UTC, "2010-06-01", "01.06.2010"},
		{"zone-less timestamp", time.UTC, "2015-01-02T03:04:05", "02.01.2015"},
		{"local calendar", helsinki, "2021-03-04T23:30:00Z", "05.03.2021"},
		{"missing", time.UTC, nil, "09.07.2024"},
		{"unparsable", time.UTC, "last tuesday", "09.07.2024"},
		{"not a string", time.UTC, 20210305.0, "09.07.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(WithLocation(tt.loc), WithClock(func() time.Time { return fixedNow }))
			attrs := jsonapi.Attributes{}
			if tt.raw != nil {
				attrs["establishmentDate"] = tt.raw
			}
			assert.Equal(t, tt.want, a.FormatDate(attrs))
		})
	}
}

func TestFormatDateDefaultClock(t *testing.T) {
	got := NewAssembler().FormatDate(nil)
	_, err := time.ParseInLocation(DateLayout, got, time.Local)
	assert.NoError(t, err)
}
