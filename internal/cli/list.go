package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/app"
	"github.com/vietddude/moviesync/internal/mylist"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show my list",
	Run:   runList,
}

var addCmd = &cobra.Command{
	Use:   "add <imdb-id>",
	Short: "Add a movie to my list",
	Args:  cobra.ExactArgs(1),
	Run:   runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove <imdb-id>",
	Short: "Remove a movie from my list",
	Args:  cobra.ExactArgs(1),
	Run:   runRemove,
}

func init() {
	rootCmd.AddCommand(listCmd, addCmd, removeCmd)
}

func runList(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	view, err := fg.app.MyList(ctx)
	exitOn(err, "Failed to read my list")
	exitOn(app.Render(os.Stdout, view, styles()), "Render failed")
}

func runAdd(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	movie, err := fg.app.List().Add(ctx, args[0])
	if errors.Is(err, mylist.ErrDetailsUnavailable) {
		fmt.Println("Details are unavailable offline; try again once you are back online.")
		os.Exit(1)
	}
	exitOn(err, "Failed to add movie")
	fmt.Printf("Added %s (%s) to my list\n", movie.Title, movie.Year)
}

func runRemove(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	ctx := context.Background()
	fg := openForeground(ctx, cfg)
	defer fg.close()

	exitOn(fg.app.List().Remove(ctx, args[0]), "Failed to remove movie")
	fmt.Printf("Removed %s from my list\n", args[0])
}
