package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/app"
	"github.com/vietddude/moviesync/internal/core/domain"
)

var wakeCmd = &cobra.Command{
	Use:   "wake [search|details]",
	Short: "Fire the pending background retry for a request class now",
	Args:  cobra.ExactArgs(1),
	Run:   runWake,
}

func init() {
	rootCmd.AddCommand(wakeCmd)
}

func runWake(cmd *cobra.Command, args []string) {
	class, err := domain.ParseRequestClass(args[0])
	if err != nil {
		fmt.Printf("Invalid request class: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(cmd)
	client, err := app.NewClient(cfg.Client.MediatorURL, cfg.Client.Timeout)
	exitOn(err, "Invalid mediator address")

	registered, err := client.Wake(context.Background(), class.RetryTag())
	if err != nil {
		slog.Error("Retry failed", "class", class, "error", err)
		os.Exit(1)
	}
	if !registered {
		fmt.Printf("No %s retry was registered\n", class)
		return
	}
	fmt.Printf("Retried pending %s request\n", class)
}
