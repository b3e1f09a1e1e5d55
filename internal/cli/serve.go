package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/control"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background mediator and retry scheduler",
	Run:   runServe,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Populate the offline asset cache",
	Run:   runInstall,
}

func init() {
	rootCmd.AddCommand(serveCmd, installCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := control.NewService(ctx, cfg, control.Options{})
	exitOn(err, "Failed to initialize mediator")
	defer func() { _ = svc.Close() }()

	slog.Info("Mediator started",
		"config", cfgPath,
		"upstream", cfg.Upstream.BaseURL,
		"storage", cfg.Storage.Driver,
		"background_sync", !cfg.Sync.Disabled,
	)

	if err := svc.Run(ctx); err != nil {
		slog.Error("Mediator stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Mediator stopped")
}

func runInstall(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()

	svc, err := control.NewService(ctx, cfg, control.Options{})
	exitOn(err, "Failed to initialize mediator")
	defer func() { _ = svc.Close() }()

	n, err := svc.Install(ctx)
	exitOn(err, "Asset install failed")
	fmt.Printf("Cached %d assets in %s\n", n, cfg.Assets.CacheName)
}
