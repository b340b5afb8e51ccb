package main

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

//go:embed config.example.toml
var configExample []byte

var (
	cfgFile string
	dbPath  string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "homefeed",
		Short:         "Aggregate your posts from Substack, Bluesky, Leaflet, and BearBlog into one local feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	root.AddCommand(syncCmd())
	root.AddCommand(listCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCommand())
	root.AddCommand(checkCmd())
	root.AddCommand(initCmd())

	return root
}

func syncCmd() *cobra.Command {
	var (
		kind     string
		sourceID string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new items from configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), kind, sourceID)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only sync sources of this kind (substack, bluesky, leaflet, bearblog)")
	cmd.Flags().StringVarP(&sourceID, "source", "S", "", "only sync the source with this id")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		kind     string
		sourceID string
		limit    int
		since    string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), kind, sourceID, limit, since, query)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by source kind")
	cmd.Flags().StringVarP(&sourceID, "source", "S", "", "filter by source id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max items to show")
	cmd.Flags().StringVarP(&since, "since", "s", "", "only items published at or after this time (RFC 3339, a date, or a duration like 24h, 7d, 2w)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "substring match against title and summary")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		kind     string
		sourceID string
		limit    int
		since    string
		query    string
		format   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored items as JSON, NDJSON, or RSS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), kind, sourceID, limit, since, query, format, output)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by source kind")
	cmd.Flags().StringVarP(&sourceID, "source", "S", "", "filter by source id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max items to export (0 = all)")
	cmd.Flags().StringVarP(&since, "since", "s", "", "only items published at or after this time")
	cmd.Flags().StringVarP(&query, "query", "q", "", "substring match against title and summary")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format (json, ndjson, rss)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func serveCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(address)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address (default: from config)")
	return cmd
}

func runCommand() *cobra.Command {
	var (
		address string
		every   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the daemon: periodic syncs plus the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(address, every)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address (default: from config)")
	cmd.Flags().DurationVar(&every, "every", 0, "sync interval (default: from config)")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database schema and show item counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context())
		},
	}
}

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.toml"
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(path, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
