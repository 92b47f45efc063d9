// Package cli pkg/cli/root.go implements the awastctl command line
// interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/awast-sec/awast-go/pkg/config"
	"github.com/awast-sec/awast-go/pkg/zap"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errTokenRequired = errors.New("no API token: set AWAST_TOKEN or pass --token")

var rootCmd = &cobra.Command{
	Use:   "awastctl",
	Short: "Client for the AWAST web application scanner",
	Long: `awastctl - client for the AWAST web application scanner

Starts spider crawls and vulnerability scans against an AWAST backend,
follows their progress over the live event stream with a polling fallback,
and lists the discovered findings.

WARNING: Scan only targets you have explicit permission to test.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadDotenv)

	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().String("api-url", "", "AWAST backend URL (default $AWAST_API_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (default $AWAST_TOKEN)")
	rootCmd.PersistentFlags().Duration("poll-interval", 0, "Status poll interval (default 5s)")
	rootCmd.PersistentFlags().String("history", "awast-history.db", "Path to the scan history database")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record finished scans")
	rootCmd.PersistentFlags().BoolP("insecure", "k", false, "Skip TLS certificate verification")
}

func loadDotenv() {
	// Missing .env is fine; environment variables may come from anywhere.
	_ = godotenv.Load()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("awastctl %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// buildConfig assembles the client configuration from the config file, the
// environment, and flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command) (*config.ClientConfig, error) {
	cfg := &config.ClientConfig{}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = os.Getenv("AWAST_API_URL")
	}

	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.APIURL = apiURL
	}

	if cfg.APIURL == "" {
		cfg.APIURL = "http://localhost:8000"
	}

	if interval, _ := cmd.Flags().GetDuration("poll-interval"); interval > 0 {
		cfg.PollInterval = config.Duration(interval)
	}

	if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
		cfg.InsecureSkipVerify = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildClient creates the authenticated API client from flags and
// environment.
func buildClient(cmd *cobra.Command) (*zap.Client, *config.ClientConfig, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("AWAST_TOKEN")
	}

	if token == "" {
		return nil, nil, errTokenRequired
	}

	client, err := zap.NewClient(cfg, zap.StaticToken(token), func() {
		fmt.Fprintln(os.Stderr, "session expired or token invalid, log in again")
	})
	if err != nil {
		return nil, nil, err
	}

	return client, cfg, nil
}
