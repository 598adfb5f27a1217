package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/lepinkainen/storefront/internal/config"
	"github.com/lepinkainen/storefront/internal/datastore"
	"github.com/lepinkainen/storefront/internal/flags"
	"github.com/lepinkainen/storefront/internal/loader"
	"github.com/lepinkainen/storefront/internal/render"
	"github.com/lepinkainen/storefront/internal/store"
	"github.com/lepinkainen/storefront/internal/tui"
	"github.com/lepinkainen/storefront/internal/view"
)

var (
	runBrowser   = tui.Browse
	newDatastore = func(path string) datastore.Store { return datastore.NewSQLiteStore(path) }
	now          = time.Now
)

// ShowCmd prints store cards to stdout
type ShowCmd struct {
	Width  int  `help:"Card width in columns" default:"72"`
	Strict bool `help:"Fail when any collection could not be fetched"`
}

func (s *ShowCmd) Run(ctx context.Context) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	res := app.load(ctx)
	if err := render.Terminal(stdout, app.records(), s.Width); err != nil {
		return err
	}
	return strictErr(s.Strict, res)
}

// BrowseCmd opens the interactive store browser
type BrowseCmd struct{}

func (b *BrowseCmd) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		sendMu sync.Mutex
		send   func(tea.Msg)
	)
	post := func(msg tea.Msg) {
		sendMu.Lock()
		fn := send
		sendMu.Unlock()
		if fn != nil {
			fn(msg)
		}
	}

	updates := make(chan struct{}, 1)
	app, err := openApp(
		withLoaderOptions(loader.WithNotify(func(loader.Update) {
			select {
			case updates <- struct{}{}:
			default:
			}
		})),
		withFlagOptions(flags.WithObserver(func(code string, state flags.State) {
			post(tui.StatusMsg(fmt.Sprintf("Flag %s %s", code, state)))
		})),
	)
	if err != nil {
		return err
	}
	defer closeApp(app)

	model := tui.NewModel(nil, func() { app.load(ctx) })
	return runBrowser(model, func(fn func(tea.Msg)) {
		sendMu.Lock()
		send = fn
		sendMu.Unlock()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-updates:
					post(tui.RecordsMsg{Records: app.records()})
				}
			}
		}()

		res := app.load(ctx)
		post(tui.RecordsMsg{Records: app.records(), Status: loadStatus(res)})
	})
}

func loadStatus(res loader.Result) string {
	if len(res.Errors) > 0 {
		return fmt.Sprintf("%d stores, %d collections failed", res.Counts[store.Stores], len(res.Errors))
	}
	return fmt.Sprintf("%d stores", res.Counts[store.Stores])
}

// ExportCmd writes the store directory in a file format
type ExportCmd struct {
	Format         string `short:"t" help:"Output format (${enum})" enum:"markdown,md,json,yaml,yml,sqlite,db,terminal" default:"json"`
	Output         string `short:"o" help:"Output file, or directory for markdown (default: stdout, output.dir for markdown, ./storefront.db for sqlite)"`
	Overwrite      bool   `help:"Overwrite existing markdown notes"`
	DownloadImages bool   `help:"Download store images as thumbnails next to markdown notes"`
	ThumbnailSize  int    `help:"Thumbnail edge length in pixels" default:"150"`
	Strict         bool   `help:"Fail when any collection could not be fetched"`
}

// DefaultSnapshotFile is where sqlite exports go without --output.
const DefaultSnapshotFile = "./storefront.db"

func (e *ExportCmd) Run(ctx context.Context) error {
	format, err := render.ParseFormat(e.Format)
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	res := app.load(ctx)
	records := app.records()

	switch format {
	case render.FormatMarkdown:
		err = e.exportMarkdown(ctx, app, records)
	case render.FormatSQLite:
		err = e.exportSQLite(records)
	default:
		err = e.exportStream(format, records)
	}
	if err != nil {
		return err
	}
	return strictErr(e.Strict, res)
}

func (e *ExportCmd) exportMarkdown(ctx context.Context, app *application, records []view.DisplayRecord) error {
	dir := e.Output
	if dir == "" {
		dir = viper.GetString(config.KeyOutputDir)
	}

	result, err := render.WriteMarkdown(ctx, records, render.MarkdownOptions{
		Dir:            dir,
		Overwrite:      e.Overwrite,
		DownloadImages: e.DownloadImages,
		ThumbnailSize:  e.ThumbnailSize,
		Doer:           app.http.Doer(),
	})
	if err != nil {
		return fmt.Errorf("export markdown: %w", err)
	}

	slog.Info("Exported markdown notes", "dir", dir, "written", result.Written, "skipped", result.Skipped, "images", result.Images)
	return nil
}

func (e *ExportCmd) exportSQLite(records []view.DisplayRecord) error {
	path := e.Output
	if path == "" {
		path = DefaultSnapshotFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	ds := newDatastore(path)
	if err := ds.Connect(); err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	n, err := ds.ReplaceSnapshot(records)
	if err != nil {
		return fmt.Errorf("export sqlite: %w", err)
	}

	slog.Info("Exported snapshot", "database", path, "stores", n)
	return nil
}

func (e *ExportCmd) exportStream(format render.Format, records []view.DisplayRecord) (err error) {
	var w io.Writer = stdout
	if e.Output != "" && e.Output != "-" {
		if err := os.MkdirAll(filepath.Dir(e.Output), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(e.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		w = f
	}

	doc := render.NewDocument(records, now())
	switch format {
	case render.FormatJSON:
		return render.JSON(w, doc)
	case render.FormatYAML:
		return render.YAML(w, doc)
	default:
		return render.Terminal(w, records, render.DefaultWidth)
	}
}

func closeApp(app *application) {
	if err := app.Close(); err != nil {
		slog.Warn("Failed to close", "error", err)
	}
}
