package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trendpulse",
		Short: "Aggregate and score trending content across platforms",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(collectCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	var platforms []string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect records from platform adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(platforms)
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "specific platforms to collect (e.g., search_trends,video_platform)")
	return cmd
}

func rankCmd() *cobra.Command {
	var (
		jsonOutput bool
		strategy   string
		window     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Score and rank collected records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(jsonOutput, strategy, window, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&strategy, "strategy", "", "normalization strategy: minmax or proportion (default: from config)")
	cmd.Flags().StringVar(&window, "window", "", "time window, e.g. 24h (default: from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max trends to show (default: from config)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
