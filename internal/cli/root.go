package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/moviesync/internal/app"
	"github.com/vietddude/moviesync/internal/control"
	"github.com/vietddude/moviesync/internal/core/config"
	"github.com/vietddude/moviesync/internal/mylist"
	"github.com/vietddude/moviesync/internal/prefs"
	"github.com/vietddude/moviesync/internal/staging"
)

var (
	cfgPath   string
	prefsPath string
	isDebug   bool
	plain     bool
)

var rootCmd = &cobra.Command{
	Use:   "moviesync",
	Short: "Offline-resilient movie search",
	Long: `moviesync searches a movie database through a local mediator that keeps
working offline: failed requests are retried in the background once the
network is back, and the results are waiting the next time you open the app.`,
	Run: runLaunch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "preferences file (default is "+prefs.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "disable colors in output")
}

// loadConfig reads the config file. A missing default file yields the
// built-in defaults; an explicitly named file must exist.
func loadConfig(cmd *cobra.Command) *config.AppConfig {
	_ = godotenv.Load()

	var cfg *config.AppConfig
	_, statErr := os.Stat(cfgPath)
	if errors.Is(statErr, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			stylelog.InitDefault()
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if prefsPath != "" {
		cfg.Notify.PrefsPath = prefsPath
	}

	setupLogging(cfg)
	return cfg
}

func setupLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
		NoColor:    plain,
	})
}

func styles() app.Styles {
	if plain {
		return app.PlainStyles()
	}
	return app.DefaultStyles()
}

// foreground bundles what the user-facing commands need.
type foreground struct {
	app   *app.App
	store *control.Store
}

func openForeground(ctx context.Context, cfg *config.AppConfig) *foreground {
	client, err := app.NewClient(cfg.Client.MediatorURL, cfg.Client.Timeout)
	if err != nil {
		slog.Error("Invalid mediator address", "error", err)
		os.Exit(1)
	}

	store, err := control.OpenStore(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}

	list := mylist.New(store, client, slog.Default())
	return &foreground{
		app:   app.New(client, staging.NewStager(store), list, slog.Default()),
		store: store,
	}
}

func (f *foreground) close() {
	_ = f.store.Close()
}

func exitOn(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		os.Exit(1)
	}
}
