package render

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/storefront/internal/fileutil"
	"github.com/lepinkainen/storefront/internal/view"
)

func sampleRecord() view.DisplayRecord {
	return view.DisplayRecord{
		StoreID:     "1",
		Name:        "Corner Books",
		Image:       "https://img.example/corner.jpg",
		CountryCode: "FI",
		FlagURL:     "https://flags.test/fi.svg",
		Rating:      4,
		Books: []view.BookLine{
			{Title: "Moomin", Author: "Tove Jansson", CopiesSold: 20},
			{Title: "Pipe | Dream", Author: view.UnknownAuthor, CopiesSold: 10},
		},
		Established: "05.03.2021",
		Website:     "https://corner.example",
	}
}

func emptyRecord() view.DisplayRecord {
	return view.DisplayRecord{
		StoreID:     "2",
		Name:        "Empty Shelf",
		Image:       view.PlaceholderImage,
		CountryCode: view.UnknownCountry,
		Books:       []view.BookLine{},
		Established: "09.07.2024",
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":     FormatJSON,
		" YAML ":   FormatYAML,
		"yml":      FormatYAML,
		"md":       FormatMarkdown,
		"terminal": FormatTerminal,
		"db":       FormatSQLite,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorContains(t, err, `unknown output format "pdf"`)
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", Stars(4))
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★★★", Stars(7))
	assert.Equal(t, "☆☆☆☆☆", Stars(-2))
}

func TestFooter(t *testing.T) {
	assert.Equal(t, "05.03.2021 - https://corner.example", Footer(sampleRecord()))
	assert.Equal(t, "09.07.2024", Footer(emptyRecord()))
}

func TestTerminalCards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, []view.DisplayRecord{sampleRecord(), emptyRecord()}, 80))

	out := buf.String()
	assert.Contains(t, out, "Corner Books")
	assert.Contains(t, out, "★★★★☆")
	assert.Contains(t, out, "⚑ FI")
	assert.Contains(t, out, booksHeading)
	assert.Contains(t, out, "Moomin")
	assert.Contains(t, out, "Tove Jansson")
	assert.Contains(t, out, "05.03.2021 - https://corner.example")

	assert.Contains(t, out, "Empty Shelf")
	assert.Contains(t, out, "[Unknown]")
	assert.Contains(t, out, noBooks)
	assert.Less(t, strings.Index(out, "Corner Books"), strings.Index(out, "Empty Shelf"))
}

func TestTerminalNoStores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, nil, 0))
	assert.Contains(t, buf.String(), "No stores found")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "åä", truncate("åäö", 2))
	assert.Equal(t, "a b", truncate(" a \n b ", 0))
}

func TestJSONDocument(t *testing.T) {
	now := time.Date(2024, 7, 9, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, NewDocument([]view.DisplayRecord{sampleRecord()}, now)))

	var decoded struct {
		GeneratedAt time.Time            `json:"generated_at"`
		Count       int                  `json:"count"`
		Stores      []view.DisplayRecord `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, now, decoded.GeneratedAt)
	assert.Equal(t, 1, decoded.Count)
	assert.Equal(t, []view.DisplayRecord{sampleRecord()}, decoded.Stores)
}

func TestJSONDocumentEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, NewDocument(nil, time.Now())))
	assert.Contains(t, buf.String(), `"stores": []`)
}

func TestYAMLDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, NewDocument([]view.DisplayRecord{sampleRecord(), emptyRecord()}, time.Now())))

	var decoded struct {
		Count  int                  `yaml:"count"`
		Stores []view.DisplayRecord `yaml:"stores"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, "Corner Books", decoded.Stores[0].Name)
	assert.Equal(t, "Tove Jansson", decoded.Stores[0].Books[0].Author)
	assert.Empty(t, decoded.Stores[1].Books)
}

func splitNote(t *testing.T, content []byte) (map[string]any, string) {
	t.Helper()
	text := string(content)
	require.True(t, strings.HasPrefix(text, "---\n"))
	end := strings.Index(text[4:], "\n---\n")
	require.GreaterOrEqual(t, end, 0)

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(text[4:4+end]), &fm))
	return fm, text[4+end+5:]
}

func TestNote(t *testing.T) {
	content, err := Note(sampleRecord(), "")
	require.NoError(t, err)

	fm, body := splitNote(t, content)
	assert.Equal(t, "Corner Books", fm["title"])
	assert.Equal(t, "1", fm["store_id"])
	assert.Equal(t, "FI", fm["country"])
	assert.Equal(t, 4, fm["rating"])
	assert.Equal(t, "05.03.2021", fm["established"])
	assert.Equal(t, "https://img.example/corner.jpg", fm["image"])
	assert.Equal(t, []any{"storefront", "country/FI", "rating/4"}, fm["tags"])
	assert.Contains(t, string(content), "tags: [storefront, country/FI, rating/4]")

	assert.Contains(t, body, "# Corner Books")
	assert.Contains(t, body, "**Rating:** ★★★★☆")
	assert.Contains(t, body, "| Moomin | Tove Jansson |")
	assert.Contains(t, body, `| Pipe \| Dream | Unknown Author |`)
	assert.Contains(t, body, "05.03.2021 - https://corner.example")
}

func TestNoteWithoutBooks(t *testing.T) {
	content, err := Note(emptyRecord(), "")
	require.NoError(t, err)

	fm, body := splitNote(t, content)
	assert.NotContains(t, fm, "website")
	assert.NotContains(t, fm, "flag")
	assert.Equal(t, []any{"storefront", "rating/0"}, fm["tags"])
	assert.Contains(t, body, "| No Data Available | |")
	assert.Contains(t, body, "**Country:** Unknown")
}

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()
	dup := sampleRecord()
	dup.StoreID = "9"
	records := []view.DisplayRecord{sampleRecord(), emptyRecord(), dup}

	res, err := WriteMarkdown(context.Background(), records, MarkdownOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Written)
	assert.True(t, fileutil.FileExists(filepath.Join(dir, "Corner Books.md")))
	assert.True(t, fileutil.FileExists(filepath.Join(dir, "Corner Books (9).md")))
	assert.True(t, fileutil.FileExists(filepath.Join(dir, "Empty Shelf.md")))

	res, err = WriteMarkdown(context.Background(), records, MarkdownOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)
	assert.Equal(t, 3, res.Skipped)
}

func TestWriteMarkdownDownloadsImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 30, 30))))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)

	good := sampleRecord()
	good.Image = server.URL + "/corner.png"
	broken := emptyRecord()
	broken.Image = server.URL + "/broken.png"

	dir := t.TempDir()
	res, err := WriteMarkdown(context.Background(), []view.DisplayRecord{good, broken}, MarkdownOptions{
		Dir:            dir,
		DownloadImages: true,
		ThumbnailSize:  10,
		Doer:           server.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 1, res.Images)

	note, err := os.ReadFile(filepath.Join(dir, "Corner Books.md"))
	require.NoError(t, err)
	assert.Contains(t, string(note), "image: attachments/Corner Books 1 - image.jpg")

	note, err = os.ReadFile(filepath.Join(dir, "Empty Shelf.md"))
	require.NoError(t, err)
	assert.Contains(t, string(note), "/broken.png", "failed download keeps the remote url")
}

func TestWriteMarkdownCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WriteMarkdown(ctx, []view.DisplayRecord{sampleRecord()}, MarkdownOptions{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}
