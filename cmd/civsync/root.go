package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"civsync/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "civsync",
	Short: "Incremental Civitai creator image sync and archiver",
	Long: `civsync keeps a local mirror of a Civitai creator's image gallery.

Each sync run lists the creator's current images, compares them against the
locally persisted manifest, downloads what is new, packages the new images
into a dated zip archive, and writes markdown and ID-list reports describing
what changed.

Features:
  - Incremental sync driven by a JSON manifest
  - Concurrent downloads with JPEG conversion
  - Added/removed change reports per run
  - Secure API token storage using the system keychain
  - One-shot bulk download without manifest tracking
  - Recurring sync on a cron schedule`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.civsync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`civsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
