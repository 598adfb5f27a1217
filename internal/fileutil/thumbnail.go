package fileutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the edge length of exported thumbnails.
const DefaultThumbnailSize = 150

// AttachmentsDir is the directory, relative to the notes, holding images.
const AttachmentsDir = "attachments"

// maxImageBytes caps how much of an image response is read.
var maxImageBytes int64 = 20 << 20

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ThumbnailOptions describes one image to download.
type ThumbnailOptions struct {
	// URL is the source image.
	URL string
	// OutputDir is the notes directory; the image goes into its attachments.
	OutputDir string
	// Filename is the file name inside the attachments directory.
	Filename string
	// Size is the edge length of the square thumbnail.
	Size int
	// Overwrite downloads again even when the file exists.
	Overwrite bool
}

// ThumbnailResult reports where a thumbnail was stored.
type ThumbnailResult struct {
	Downloaded   bool
	LocalPath    string
	RelativePath string
}

// ThumbnailFilename builds the attachment name for a store image.
func ThumbnailFilename(name, kind string) string {
	return SanitizeFilename(name) + " - " + kind + ".jpg"
}

// DownloadThumbnail fetches an image, crops it to a centered square of
// opts.Size pixels and stores it as JPEG. It returns nil without error when
// opts.URL is empty.
func DownloadThumbnail(ctx context.Context, doer HTTPDoer, opts ThumbnailOptions) (*ThumbnailResult, error) {
	if opts.URL == "" {
		return nil, nil
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	result := &ThumbnailResult{
		LocalPath:    filepath.Join(opts.OutputDir, AttachmentsDir, opts.Filename),
		RelativePath: filepath.ToSlash(filepath.Join(AttachmentsDir, opts.Filename)),
	}

	if FileExists(result.LocalPath) && !opts.Overwrite {
		slog.Debug("Thumbnail already exists, skipping download", "path", result.LocalPath)
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading image from %s", resp.StatusCode, opts.URL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image from %s: %w", opts.URL, err)
	}
	if int64(len(data)) > maxImageBytes {
		return nil, fmt.Errorf("image from %s exceeds %d bytes", opts.URL, maxImageBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image from %s: %w", opts.URL, err)
	}
	img = imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(result.LocalPath), 0o755); err != nil {
		return nil, fmt.Errorf("create attachments directory: %w", err)
	}
	if err := imaging.Save(img, result.LocalPath, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	slog.Info("Downloaded thumbnail", "path", result.LocalPath)
	result.Downloaded = true
	return result, nil
}
