package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"civsync/pkg/auth"
	"civsync/pkg/config"
	"civsync/pkg/logger"
	"civsync/pkg/syncer"
	"civsync/pkg/ui"
)

var (
	// Sync command flags
	outputDir   string
	concurrent  int
	jpegQuality int
	pageSize    int
	sortOrder   string
	period      string
	nsfw        string
	tokenName   string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync <username>",
	Short: "Sync new and removed images for a Civitai creator",
	Long: `Run one incremental sync pass for a Civitai creator.

The sync lists the creator's current images through the Civitai API, diffs
them against the local manifest, downloads the new images, archives them as
a dated zip, writes change reports, and updates the manifest.

An API token is optional for public galleries. To use one, store it with
'civsync auth login' or set the CIVITAI_API_TOKEN environment variable.`,
	Example: `  # Sync using default settings
  civsync sync somecreator

  # Sync into a specific directory with more workers
  civsync sync somecreator --output ./gallery --concurrent 8

  # Include NSFW-rated images
  civsync sync somecreator --nsfw X`,
	Args: cobra.ExactArgs(1),
	Run:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: ./output)")
	syncCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	syncCmd.Flags().IntVar(&jpegQuality, "jpeg-quality", 0, "JPEG encoding quality (1-95)")
	syncCmd.Flags().IntVar(&pageSize, "page-size", 0, "listing page size (1-200)")
	syncCmd.Flags().StringVar(&sortOrder, "sort", "", "listing sort order (Newest, Most Reactions, Most Comments)")
	syncCmd.Flags().StringVar(&period, "period", "", "listing time period (AllTime, Year, Month, Week, Day)")
	syncCmd.Flags().StringVar(&nsfw, "nsfw", "", "NSFW filter level (None, Soft, Mature, X)")
	syncCmd.Flags().StringVar(&tokenName, "token", "", "use a specific stored API token")
}

// buildQueryFlags collects the shared listing/download flags into a config
// override map
func buildQueryFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if jpegQuality > 0 {
		flags["jpeg-quality"] = jpegQuality
	}
	if pageSize > 0 {
		flags["page-size"] = pageSize
	}
	if sortOrder != "" {
		flags["sort"] = sortOrder
	}
	if period != "" {
		flags["period"] = period
	}
	if nsfw != "" {
		flags["nsfw"] = nsfw
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadConfigAndToken loads the merged configuration and fills in the API
// token from the credential manager when nothing else supplied one
func loadConfigAndToken() *config.Config {
	cfg, err := config.Load(configFile, buildQueryFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	if cfg.Civitai.APIToken == "" {
		if manager, err := auth.NewManager(); err == nil {
			cfg.Civitai.APIToken = manager.ResolveValue(tokenName)
		}
	}

	return cfg
}

func runSync(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	cfg := loadConfigAndToken()
	logger.WithField("version", version).Info("civsync starting")

	ui.PrintInfo("Target creator", username)

	s, err := syncer.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize syncer", err.Error())
		os.Exit(1)
	}

	summary, err := s.Run(username)
	if err != nil {
		logger.WithError(err).WithField("username", username).Error("Sync failed")
		ui.PrintError("SYNC FAILED", err.Error())
		os.Exit(1)
	}

	printRunSummary(summary)
	ui.PrintSuccess("Sync completed")
}

// printRunSummary renders the run outcome as a table
func printRunSummary(summary *syncer.RunSummary) {
	if ui.IsQuietMode() {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"Run ID", summary.RunID})
	table.Append([]string{"Creator", summary.Username})
	table.Append([]string{"Images listed", strconv.Itoa(summary.Collected)})
	table.Append([]string{"Pages fetched", strconv.Itoa(summary.Pages)})
	table.Append([]string{"Added", strconv.Itoa(summary.Added)})
	table.Append([]string{"Removed", strconv.Itoa(summary.Removed)})
	table.Append([]string{"Downloaded", strconv.Itoa(summary.Downloaded)})
	table.Append([]string{"Failed", strconv.Itoa(summary.Failed)})
	if summary.ArchivePath != "" {
		table.Append([]string{"Archive", summary.ArchivePath})
	}
	table.Append([]string{"Duration", summary.Duration.Round(time.Millisecond).String()})

	fmt.Println()
	table.Render()

	if summary.Truncated {
		fmt.Println()
		ui.PrintWarning("Listing was truncated; removal results may be incomplete")
	}
}
