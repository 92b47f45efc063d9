package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/awast-sec/awast-go/pkg/history"
	"github.com/awast-sec/awast-go/pkg/models"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List the findings currently known to the scanner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := buildClient(cmd)
		if err != nil {
			return err
		}

		baseURL, _ := cmd.Flags().GetString("baseurl")

		alerts, err := client.Alerts(cmd.Context(), baseURL)
		if err != nil {
			return err
		}

		renderAlerts(alerts)

		return nil
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert <alert-id>",
	Short: "Show one finding in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient(cmd)
		if err != nil {
			return err
		}

		alert, err := client.Alert(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		riskColor(string(alert.Risk)).Printf("[%s] %s\n", alert.Risk, alert.Name)
		fmt.Printf("  url:       %s\n", alert.URL)

		if alert.Param != "" {
			fmt.Printf("  param:     %s\n", alert.Param)
		}

		if alert.Evidence != "" {
			fmt.Printf("  evidence:  %s\n", alert.Evidence)
		}

		if alert.Description != "" {
			fmt.Printf("  detail:    %s\n", alert.Description)
		}

		if alert.Solution != "" {
			fmt.Printf("  solution:  %s\n", alert.Solution)
		}

		if alert.CWEID != "" {
			fmt.Printf("  cwe:       %s\n", alert.CWEID)
		}

		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show finding counts grouped by risk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := buildClient(cmd)
		if err != nil {
			return err
		}

		summary, err := client.AlertsSummary(cmd.Context())
		if err != nil {
			return err
		}

		renderSummary(summary)

		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scan sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("history")

		store, err := history.New(path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() {
			_ = store.Close()
		}()

		limit, _ := cmd.Flags().GetInt("limit")

		records, err := store.RecentScans(cmd.Context(), limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FINISHED\tKIND\tTARGET\tPHASE\tALERTS\tRECORD")

		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				rec.FinishedAt.Format("2006-01-02 15:04"),
				rec.Kind, rec.Target, rec.Phase, rec.TotalAlerts, rec.RecordID)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd, alertCmd, summaryCmd, historyCmd)

	alertsCmd.Flags().String("baseurl", "", "Only findings under this base URL")
	historyCmd.Flags().Int("limit", 20, "Maximum number of sessions to list")
}

func renderAlerts(alerts []models.Alert) {
	if len(alerts) == 0 {
		fmt.Println("no findings")
		return
	}

	for i := range alerts {
		a := &alerts[i]
		riskColor(string(a.Risk)).Printf("[%-13s]", a.Risk)
		fmt.Printf(" %s\n", a.Name)
		fmt.Printf("    %s", a.URL)

		if a.Param != "" {
			fmt.Printf(" (param: %s)", a.Param)
		}

		fmt.Println()
	}
}

func renderSummary(summary models.AlertsSummary) {
	fmt.Println()
	color.New(color.FgRed, color.Bold).Printf("  High: %d", summary.High)
	color.New(color.FgYellow).Printf("  Medium: %d", summary.Medium)
	color.New(color.FgBlue).Printf("  Low: %d", summary.Low)
	fmt.Printf("  Informational: %d  (total %d)\n", summary.Informational, summary.Total())
}
