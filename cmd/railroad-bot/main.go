// Package main provides the railroad-bot entry point.
// It imports Blue Railroad tokens from chain data into the wiki.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blue-railroad-bot/internal/observability"
	"blue-railroad-bot/internal/wiki"
)

var (
	// Global flags
	verbose  bool
	wikiURL  string
	username string
	password string
	dryRun   bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "railroad-bot",
	Short: "Import Blue Railroad tokens into PickiPedia",
	Long: `railroad-bot renders one wiki page per Blue Railroad token and the
leaderboards configured on the bot configuration page, and writes only the
pages whose content changed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = observability.NewLogger(verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&wikiURL, "wiki-url", env("WIKI_URL", wiki.DefaultURL), "Wiki base URL")
	rootCmd.PersistentFlags().StringVar(&username, "username", os.Getenv("WIKI_USERNAME"), "Bot username (or set WIKI_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("WIKI_PASSWORD"), "Bot password (or set WIKI_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log intended edits without writing")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(updateSubmissionCmd)
	rootCmd.AddCommand(markMintedCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

// env returns the value of an environment variable or def when unset.
func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// requireCredentials rejects live runs without bot credentials. Anonymous
// reads would succeed and every write fail.
func requireCredentials(cmd *cobra.Command, args []string) error {
	if !dryRun && (username == "" || password == "") {
		return errors.New("--username and --password required unless --dry-run")
	}
	return nil
}

// newWikiClient creates the wiki client from the global flags.
func newWikiClient() *wiki.Client {
	opts := []wiki.ClientOption{wiki.WithUserAgent("BlueRailroadBot/1.0 (https://pickipedia.xyz)")}
	if username != "" {
		opts = append(opts, wiki.WithCredentials(username, password))
	}
	return wiki.NewClient(wikiURL, opts...)
}
