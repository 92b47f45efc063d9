package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/awast-sec/awast-go/pkg/history"
	"github.com/awast-sec/awast-go/pkg/session"
)

var errBadCookie = errors.New("cookie must be name=value")

var scanCmd = &cobra.Command{
	Use:   "scan <target-url>",
	Short: "Run a full vulnerability scan and follow it to completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args[0], session.KindScan)
	},
}

var spiderCmd = &cobra.Command{
	Use:   "spider <target-url>",
	Short: "Run a reconnaissance-only crawl and follow it to completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args[0], session.KindSpider)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <scan-id>",
	Short: "Print the current status of a scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient(cmd)
		if err != nil {
			return err
		}

		status, err := client.ScanStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("scan %s: %d%%\n", args[0], status.Percent())

		return nil
	},
}

var abortCmd = &cobra.Command{
	Use:   "abort <scan-id>",
	Short: "Request a best-effort abort of a scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient(cmd)
		if err != nil {
			return err
		}

		if err := client.AbortScan(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("abort requested for scan %s\n", args[0])

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd, spiderCmd, statusCmd, abortCmd)

	for _, cmd := range []*cobra.Command{scanCmd, spiderCmd} {
		cmd.Flags().StringArray("cookie", nil, "Cookie forwarded to the scanner (repeatable, name=value)")
	}
}

func runSession(cmd *cobra.Command, target string, kind session.Kind) error {
	client, cfg, err := buildClient(cmd)
	if err != nil {
		return err
	}

	cookies, err := cookieMap(cmd)
	if err != nil {
		return err
	}

	printBanner()

	dialer := session.DialerFunc(func(ctx context.Context, id string) (session.StreamConn, error) {
		return client.DialScan(ctx, id)
	})

	ctrl := session.NewController(client, dialer, cfg)
	defer ctrl.Stop()

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		path, _ := cmd.Flags().GetString("history")

		store, err := history.New(path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() {
			_ = store.Close()
		}()

		ctrl.SetRecorder(store)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	var id string
	if kind == session.KindSpider {
		id, err = ctrl.StartSpider(ctx, target, cookies)
	} else {
		id, err = ctrl.StartScan(ctx, target, cookies)
	}

	if err != nil {
		return err
	}

	fmt.Printf("started %s of %s (scan id %s)\n", kind, target, id)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\ninterrupted, requesting abort")

			if err := ctrl.Abort(context.Background()); err != nil && !errors.Is(err, session.ErrNoActiveSession) {
				fmt.Fprintf(os.Stderr, "abort request failed: %v\n", err)
			}

			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}

			renderProgress(snap)

			if snap.Phase.Terminal() {
				fmt.Println()

				if snap.Phase == session.PhaseFailed {
					return fmt.Errorf("scan failed: %s", snap.LastErrorMessage)
				}

				renderAlerts(snap.Alerts)
				renderSummary(snap.SummaryByRisk)

				return nil
			}
		}
	}
}

func renderProgress(snap session.ScanSession) {
	fmt.Printf("\r[%s] %3d%%  %d alerts", snap.Phase, snap.ProgressPercent, snap.TotalAlertsFound)
}

func cookieMap(cmd *cobra.Command) (map[string]string, error) {
	raw, _ := cmd.Flags().GetStringArray("cookie")
	if len(raw) == 0 {
		return nil, nil
	}

	cookies := make(map[string]string, len(raw))

	for _, c := range raw {
		name, value, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errBadCookie, c)
		}

		cookies[name] = value
	}

	return cookies, nil
}

func riskColor(risk string) *color.Color {
	switch risk {
	case "High":
		return color.New(color.FgRed, color.Bold)
	case "Medium":
		return color.New(color.FgYellow)
	case "Low":
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgWhite)
	}
}
