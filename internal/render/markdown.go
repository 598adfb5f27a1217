package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/storefront/internal/fileutil"
	"github.com/lepinkainen/storefront/internal/view"
)

// frontmatterField is one key of a note's frontmatter. Fields keep their
// declaration order in the output.
type frontmatterField struct {
	key   string
	value any
	flow  bool
}

type frontmatter []frontmatterField

func (f *frontmatter) add(key string, value any) {
	*f = append(*f, frontmatterField{key: key, value: value})
}

func (f *frontmatter) addString(key, value string) {
	if value != "" {
		f.add(key, value)
	}
}

func (f *frontmatter) addFlow(key string, values []string) {
	if len(values) > 0 {
		*f = append(*f, frontmatterField{key: key, value: values, flow: true})
	}
}

// MarshalYAML keeps field order and writes flow sequences as [a, b].
func (f frontmatter) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(f)*2),
	}
	for _, field := range f {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(field.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", field.key, err)
		}
		if field.flow {
			valueNode.Style = yaml.FlowStyle
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: field.key}, valueNode)
	}
	return node, nil
}

// Note renders one store as a markdown document with YAML frontmatter. image
// overrides the record image, for example with a local thumbnail path.
func Note(rec view.DisplayRecord, image string) ([]byte, error) {
	if image == "" {
		image = rec.Image
	}

	var fm frontmatter
	fm.add("title", rec.Name)
	fm.add("store_id", rec.StoreID)
	fm.add("country", rec.CountryCode)
	fm.add("rating", rec.Rating)
	fm.add("established", rec.Established)
	fm.addString("website", rec.Website)
	fm.addString("flag", rec.FlagURL)
	fm.addString("image", image)
	fm.addFlow("tags", noteTags(rec))

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	buf.WriteString("---\n\n")

	fmt.Fprintf(&buf, "# %s\n\n", rec.Name)
	if image != "" {
		fmt.Fprintf(&buf, "![%s](<%s>)\n\n", escapeCell(rec.Name), image)
	}
	if rec.HasFlag() {
		fmt.Fprintf(&buf, "**Country:** ![%s](<%s>) %s\n\n", rec.CountryCode, rec.FlagURL, rec.CountryCode)
	} else {
		fmt.Fprintf(&buf, "**Country:** %s\n\n", rec.CountryCode)
	}
	fmt.Fprintf(&buf, "**Rating:** %s\n\n", Stars(rec.Rating))

	fmt.Fprintf(&buf, "## %s\n\n", booksHeading)
	buf.WriteString("| Title | Author |\n| --- | --- |\n")
	if !rec.HasBooks() {
		fmt.Fprintf(&buf, "| %s | |\n", noBooks)
	}
	for _, b := range rec.Books {
		fmt.Fprintf(&buf, "| %s | %s |\n", escapeCell(b.Title), escapeCell(b.Author))
	}

	fmt.Fprintf(&buf, "\n%s\n", Footer(rec))
	return buf.Bytes(), nil
}

func noteTags(rec view.DisplayRecord) []string {
	tags := []string{"storefront"}
	if rec.CountryCode != view.UnknownCountry {
		tags = append(tags, "country/"+rec.CountryCode)
	}
	tags = append(tags, fmt.Sprintf("rating/%d", rec.Rating))
	return tags
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// MarkdownOptions controls a markdown export.
type MarkdownOptions struct {
	Dir       string
	Overwrite bool
	// DownloadImages stores square store thumbnails next to the notes.
	DownloadImages bool
	ThumbnailSize  int
	Doer           fileutil.HTTPDoer
}

// MarkdownResult counts what a markdown export did.
type MarkdownResult struct {
	Written int
	Skipped int
	Images  int
	Paths   []string
}

// WriteMarkdown writes one note per record into opts.Dir. A failed image
// download falls back to the remote image URL.
func WriteMarkdown(ctx context.Context, records []view.DisplayRecord, opts MarkdownOptions) (MarkdownResult, error) {
	var res MarkdownResult
	taken := make(map[string]bool, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		image := ""
		if opts.DownloadImages && rec.Image != "" && rec.Image != view.PlaceholderImage {
			thumb, err := fileutil.DownloadThumbnail(ctx, opts.Doer, fileutil.ThumbnailOptions{
				URL:       rec.Image,
				OutputDir: opts.Dir,
				Filename:  fileutil.ThumbnailFilename(rec.Name+" "+rec.StoreID, "image"),
				Size:      opts.ThumbnailSize,
				Overwrite: opts.Overwrite,
			})
			switch {
			case err != nil:
				slog.Warn("Failed to download store image", "store", rec.Name, "error", err)
			case thumb != nil:
				image = thumb.RelativePath
				if thumb.Downloaded {
					res.Images++
				}
			}
		}

		content, err := Note(rec, image)
		if err != nil {
			return res, fmt.Errorf("render note for %s: %w", rec.Name, err)
		}

		path := fileutil.NotePath(opts.Dir, rec.Name, rec.StoreID, taken)
		written, err := fileutil.WriteFile(path, content, opts.Overwrite)
		if err != nil {
			return res, err
		}
		if !written {
			slog.Info("Note already exists, skipping", "path", path)
			res.Skipped++
			continue
		}
		slog.Debug("Wrote note", "path", path)
		res.Written++
		res.Paths = append(res.Paths, path)
	}
	return res, nil
}
