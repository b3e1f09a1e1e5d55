package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/app"
	"github.com/vietddude/moviesync/internal/ui"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Open the app: staged results if any, otherwise my list",
	Run:   runLaunch,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies by title",
	Args:  cobra.MinimumNArgs(1),
	Run:   runSearch,
}

var detailsCmd = &cobra.Command{
	Use:   "details <imdb-id>",
	Short: "Show a movie's details",
	Args:  cobra.ExactArgs(1),
	Run:   runDetails,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive search-as-you-type browser",
	Run:   runBrowse,
}

func init() {
	rootCmd.AddCommand(launchCmd, searchCmd, detailsCmd, browseCmd)
}

func runLaunch(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	view, err := fg.app.Launch(ctx)
	exitOn(err, "Launch failed")
	exitOn(app.Render(os.Stdout, view, styles()), "Render failed")
}

func runSearch(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	view, err := fg.app.Search(ctx, strings.Join(args, " "))
	exitOn(err, "Search failed")
	exitOn(app.Render(os.Stdout, view, styles()), "Render failed")
}

func runDetails(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	view, err := fg.app.Details(ctx, args[0])
	exitOn(err, "Details failed")
	exitOn(app.Render(os.Stdout, view, styles()), "Render failed")
}

func runBrowse(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fg := openForeground(ctx, cfg)
	defer fg.close()

	exitOn(ui.Run(ui.Options{Context: ctx, App: fg.app}), "Browser exited with error")
}
