// Package view joins the fetched collections into render-ready store records.
package view

import (
	"math"
	"strings"
	"time"

	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/lepinkainen/storefront/internal/ranking"
	"github.com/lepinkainen/storefront/internal/resolve"
	"github.com/lepinkainen/storefront/internal/store"
)

// Defaults used when a field or reference cannot be resolved.
const (
	UnknownCountry   = "Unknown"
	UnknownStore     = "Unknown Store"
	UnknownBook      = "Unknown Book"
	UnknownBookLabel = "Unknown"
	UnknownAuthor    = "Unknown Author"
	PlaceholderImage = "https://via.placeholder.com/150"

	// DateLayout renders establishment dates as DD.MM.YYYY.
	DateLayout = "02.01.2006"

	// MaxRating is the top of the star scale.
	MaxRating = 5
)

// Relationship names followed by the assembler.
var (
	countryRelationship = []string{"countries", "country"}
	authorRelationship  = []string{"author", "authors"}
)

// FlagReader is the non-blocking read path of the flag cache.
type FlagReader interface {
	Flag(code string) (string, bool)
}

// BookLine is one row of a store's best-seller table.
type BookLine struct {
	Title      string  `json:"title" yaml:"title"`
	Author     string  `json:"author" yaml:"author"`
	CopiesSold float64 `json:"copies_sold" yaml:"copies_sold"`
}

// DisplayRecord is everything needed to render one store.
type DisplayRecord struct {
	StoreID     string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Image       string     `json:"image" yaml:"image"`
	CountryCode string     `json:"country_code" yaml:"country_code"`
	FlagURL     string     `json:"flag_url,omitempty" yaml:"flag_url,omitempty"`
	Rating      int        `json:"rating" yaml:"rating"`
	Books       []BookLine `json:"books" yaml:"books"`
	Established string     `json:"established" yaml:"established"`
	Website     string     `json:"website,omitempty" yaml:"website,omitempty"`
}

// HasBooks reports whether the record has any best-seller to show.
func (r DisplayRecord) HasBooks() bool {
	return len(r.Books) > 0
}

// HasFlag reports whether the flag of the store's country has resolved.
func (r DisplayRecord) HasFlag() bool {
	return r.FlagURL != ""
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLocation sets the calendar used to format dates. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(a *Assembler) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithClock overrides the clock used for missing dates.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithTopN overrides the length of the best-seller list.
func WithTopN(n int) Option {
	return func(a *Assembler) {
		a.topN = n
	}
}

// Assembler builds display records. It holds no data between calls and is
// safe for concurrent use.
type Assembler struct {
	loc  *time.Location
	now  func() time.Time
	topN int
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		loc:  time.Local,
		now:  time.Now,
		topN: ranking.DefaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns one record per store in store order. Any collection in
// snap may be empty and flags may be nil.
func (a *Assembler) Assemble(snap store.Snapshot, flags FlagReader) []DisplayRecord {
	books := resolve.NewIndex(snap.Books)
	authors := resolve.NewIndex(snap.Authors)
	countries := resolve.NewIndex(snap.Countries)

	records := make([]DisplayRecord, 0, len(snap.Stores))
	for _, s := range snap.Stores {
		records = append(records, a.record(s, books, authors, countries, flags))
	}
	return records
}

func (a *Assembler) record(s jsonapi.Resource, books, authors, countries resolve.Resolver, flags FlagReader) DisplayRecord {
	rec := DisplayRecord{
		StoreID:     s.ID.String(),
		Name:        stringOr(s.Attributes, "name", UnknownStore),
		Image:       stringOr(s.Attributes, "storeImage", PlaceholderImage),
		CountryCode: CountryCode(s, countries),
		Rating:      Rating(s),
		Established: a.FormatDate(s.Attributes),
	}
	rec.Website, _ = s.Attributes.String("website")

	if flags != nil && rec.CountryCode != UnknownCountry {
		if url, ok := flags.Flag(rec.CountryCode); ok {
			rec.FlagURL = url
		}
	}

	top := ranking.TopBooks(s, books, a.topN)
	rec.Books = make([]BookLine, 0, len(top))
	for _, book := range top {
		rec.Books = append(rec.Books, BookLine{
			Title:      stringOr(book.Attributes, "name", UnknownBook),
			Author:     AuthorLabel(book, true, authors),
			CopiesSold: ranking.CopiesSold(book),
		})
	}
	return rec
}

// CountryCode resolves the store's country and returns its code, or
// UnknownCountry.
func CountryCode(s jsonapi.Resource, countries resolve.Resolver) string {
	country, ok := resolve.One(countries, s, countryRelationship...)
	if !ok {
		return UnknownCountry
	}
	return stringOr(country.Attributes, "code", UnknownCountry)
}

// Rating returns the store rating truncated to an integer within 0..MaxRating.
func Rating(s jsonapi.Resource) int {
	n, ok := s.Attributes.Number("rating")
	if !ok || math.IsNaN(n) {
		return 0
	}
	n = math.Trunc(n)
	switch {
	case n < 0:
		return 0
	case n > MaxRating:
		return MaxRating
	default:
		return int(n)
	}
}

// AuthorLabel names the author of a best-seller row. A book that did not
// resolve gets UnknownBookLabel. A resolved book whose author is missing or
// unknown gets UnknownAuthor.
func AuthorLabel(book jsonapi.Resource, resolved bool, authors resolve.Resolver) string {
	if !resolved {
		return UnknownBookLabel
	}
	author, ok := resolve.One(authors, book, authorRelationship...)
	if !ok {
		return UnknownAuthor
	}
	return stringOr(author.Attributes, "fullName", UnknownAuthor)
}

// dateLayouts are tried in order when parsing establishment dates.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02", false},
}

// FormatDate formats the establishmentDate attribute as DD.MM.YYYY in the
// assembler's location. Missing or unparsable dates format the current date.
func (a *Assembler) FormatDate(attrs jsonapi.Attributes) string {
	raw, _ := attrs.String("establishmentDate")
	t, ok := ParseDate(raw, a.loc)
	if !ok {
		t = a.now()
	}
	return t.In(a.loc).Format(DateLayout)
}

// ParseDate parses the date formats the store endpoint is known to emit.
// Zone-less timestamps are read in loc, bare dates as UTC midnight.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, l := range dateLayouts {
		in := time.UTC
		if l.local {
			in = loc
		}
		if t, err := time.ParseInLocation(l.layout, raw, in); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringOr(attrs jsonapi.Attributes, key, fallback string) string {
	s, ok := attrs.String(key)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
