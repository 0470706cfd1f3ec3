package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"civsync/pkg/config"
	"civsync/pkg/logger"
	"civsync/pkg/manifest"
	"civsync/pkg/ui"
)

var statusOutputDir string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <username>",
	Short: "Show the local sync state for a creator",
	Long: `Show the manifest state for a creator: how many images are tracked,
where the manifest lives, and when the last successful sync finished.`,
	Example: `  civsync status somecreator

  civsync status somecreator --output ./gallery`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOutputDir, "output", "o", "", "output directory (default: ./output)")
}

func runStatus(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if statusOutputDir != "" {
		flags["output"] = statusOutputDir
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	store := manifest.NewStore(
		manifest.DefaultPath(cfg.Output.BaseDirectory, username),
		logger.GetLogger(),
	)

	if !store.Exists() {
		ui.PrintInfo("No manifest", fmt.Sprintf("no sync has run for %s yet", username))
		fmt.Printf("\nRun the first sync with:\n  civsync sync %s\n", username)
		return
	}

	m, err := store.Load()
	if err != nil {
		ui.PrintError("Failed to load manifest", err.Error())
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"Creator", username})
	table.Append([]string{"Tracked images", strconv.Itoa(len(m))})
	table.Append([]string{"Manifest", store.Path()})
	table.Append([]string{"Last sync", store.ModTime().Format("2006-01-02 15:04:05")})

	table.Render()
}
