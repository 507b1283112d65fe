package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/solgate/internal/core/config"
	"github.com/vietddude/solgate/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show endpoint health and queue counts of a running gateway",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("http://localhost:%d/health/detailed", cfg.Server.Port)
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach gateway", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var report health.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		slog.Error("Failed to decode health report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("status: %s\n\n", report.Status)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ENDPOINT\tADDR\tFAILURES\tDOWN")
	for _, ep := range report.Queue.Endpoints {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", ep.Name, ep.Addr, ep.Failures, ep.Down)
	}
	_ = w.Flush()

	fmt.Println()
	pw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(pw, "PRIORITY\tPENDING\tIN-FLIGHT\tCOMPLETED\tFAILED")
	for _, p := range []string{"high", "medium", "low"} {
		counts := report.Queue.Priorities[p]
		_, _ = fmt.Fprintf(pw, "%s\t%d\t%d\t%d\t%d\n",
			p, counts.Pending, counts.InFlight, counts.Completed, counts.Failed)
	}
	_ = pw.Flush()
}
