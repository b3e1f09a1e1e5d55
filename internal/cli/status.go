package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/moviesync/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mediator's connectivity, pending retries and staged results",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout)
	defer cancel()

	url := strings.TrimSuffix(cfg.Client.MediatorURL, "/") + "/health/detailed"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	exitOn(err, "Failed to build request")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Error("Mediator is not reachable", "url", cfg.Client.MediatorURL, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var report health.Report
	exitOn(json.NewDecoder(resp.Body).Decode(&report), "Failed to decode health report")

	fmt.Printf("Status: %s (online: %v)\n\n", report.Status, report.Online)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tERROR")
	for _, c := range report.Components {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Status, c.Error)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PENDING SYNC\tATTEMPTS\tNOT BEFORE")
	for _, r := range report.Pending {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.Tag, r.Attempts, r.NotBefore.Local().Format(time.RFC3339))
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STAGED\tREADY")
	for class, ready := range report.Staged {
		_, _ = fmt.Fprintf(w, "%s\t%v\n", class, ready)
	}
	_ = w.Flush()
}
