package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/storefront/internal/cache"
	"github.com/lepinkainen/storefront/internal/config"
)

var (
	stdout    io.Writer = os.Stdout
	logOutput io.Writer = os.Stderr
	exit                = os.Exit
)

// CLI represents the complete command structure for the storefront application
type CLI struct {
	// Global flags
	Debug      bool   `help:"Enable debug logging"`
	ConfigFile string `name:"config" help:"Path to a YAML config file (defaults to ./config.yaml when present)" type:"path"`

	// Source flags
	APIURL   string `name:"api-url" help:"Base URL of the store directory backend" placeholder:"URL"`
	FlagsURL string `name:"flags-url" help:"Base URL of the REST Countries flag service" placeholder:"URL"`

	// Cache flags
	NoCache     bool   `help:"Do not read or write the flag lookup cache"`
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)"`

	Timezone string `help:"IANA time zone for establishment dates (default: local)"`

	Show   ShowCmd   `cmd:"" default:"withargs" help:"Print every store as a card"`
	Browse BrowseCmd `cmd:"" help:"Browse stores interactively"`
	Export ExportCmd `cmd:"" help:"Export stores as markdown, JSON, YAML or SQLite"`
	Cache  CacheCmd  `cmd:"" help:"Manage the flag lookup cache"`
}

// CacheCmd groups the cache maintenance subcommands
type CacheCmd struct {
	Clear cache.ClearCmd `cmd:"" help:"Remove cached flag lookups"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("storefront"),
		kong.Description("Show a directory of stores with their flags, ratings and best-selling books."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	if err := run(kctx, &cli); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		exit(1)
	}
}

func run(kctx *kong.Context, cli *CLI) error {
	initLogging(cli.Debug)

	if err := initConfig(cli.ConfigFile); err != nil {
		return err
	}
	updateGlobalConfig(cli)

	return kctx.Run()
}

func initConfig(path string) error {
	config.SetDefaults()
	config.BindEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("Config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	slog.Debug("Loaded config file", "path", viper.ConfigFileUsed())
	return nil
}

func updateGlobalConfig(cli *CLI) {
	// Flags override config file and environment values only when given
	if cli.APIURL != "" {
		viper.Set(config.KeyAPIBaseURL, cli.APIURL)
	}
	if cli.FlagsURL != "" {
		viper.Set(config.KeyFlagsBaseURL, cli.FlagsURL)
	}
	if cli.NoCache {
		viper.Set(config.KeyCacheEnabled, false)
	}
	if cli.CacheDBFile != "" {
		viper.Set(config.KeyCacheDBFile, cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set(config.KeyCacheTTL, cli.CacheTTL)
	}
	if cli.Timezone != "" {
		viper.Set(config.KeyTimezone, cli.Timezone)
	}
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging. Logs go to stderr so
	// exported documents can be piped from stdout.
	handler := humanlog.NewHandler(logOutput, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
