package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/readingwrapped/internal/config"
	"github.com/lepinkainen/readingwrapped/internal/covers"
	"github.com/lepinkainen/readingwrapped/internal/report"
)

// newCoverResolver builds the cover pipeline from the current config.
// Tests replace it to keep commands offline.
var newCoverResolver = func() report.CoverResolver {
	settings := config.Covers()
	return covers.NewScheduler(
		covers.WithRequestTimeout(settings.RequestTimeout),
		covers.WithRetryPolicy(covers.DefaultRetryPolicy(settings.MaxAttempts, settings.BackoffBase)),
		covers.WithValidation(settings.ValidateTimeout, settings.MinImageBytes),
		covers.WithConcurrency(settings.Concurrency),
		covers.WithGoogleBooks("", config.GoogleBooksAPIKey),
		covers.WithGoogleBooksRate(settings.GoogleBooksPerMinute),
	)
}

// CLI represents the complete command structure for the readingwrapped application
type CLI struct {
	// Global flags
	Debug          bool   `help:"Enable debug logging"`
	GoogleBooksKey string `name:"google-books-key" help:"Google Books API key (overrides googlebooks.apikey)"`

	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API"`
	Validate ValidateCmd `cmd:"" help:"Check that a Goodreads export can be analyzed"`
	Analyze  AnalyzeCmd  `cmd:"" help:"List the books read in a period with their covers"`
	Covers   CoversCmd   `cmd:"" help:"Resolve (and optionally download) covers for the books read in a period"`
}

func kongOptions(runCtx context.Context) []kong.Option {
	return []kong.Option{
		kong.Name("readingwrapped"),
		kong.Description("Reading year in review from a Goodreads library export."),
		kong.UsageOnError(),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	}
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	if err := initConfig(); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	ctx := kong.Parse(&cli, kongOptions(runCtx)...)

	updateGlobalConfig(&cli)

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// initConfig loads config.yaml from the working directory when present and
// binds environment variables. A missing file is not an error.
func initConfig() error {
	config.SetDefaults()

	viper.SetEnvPrefix("READINGWRAPPED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("googlebooks.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		slog.Debug("Config file not found, using defaults")
	}

	config.InitConfig()
	return nil
}

func updateGlobalConfig(cli *CLI) {
	if cli.GoogleBooksKey != "" {
		viper.Set("googlebooks.apikey", cli.GoogleBooksKey)
	}
	if cli.Debug {
		viper.Set("debug", true)
	}

	config.InitConfig()
	if config.Debug {
		initLogging(true)
	}
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	// Human-readable logs go to stderr so command output on stdout stays parseable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
