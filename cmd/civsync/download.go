package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"civsync/pkg/logger"
	"civsync/pkg/syncer"
	"civsync/pkg/ui"
)

var (
	// Download command flags
	imageCount   int
	noZip        bool
	skipExisting bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <username>",
	Short: "Download a creator's images without manifest tracking",
	Long: `Download images from a Civitai creator's gallery in one shot.

Unlike 'sync', this command does not read or write the manifest: it simply
lists the gallery, downloads the images, and optionally archives them. Use
--image-count to cap how many images are fetched and --skip-existing to
avoid re-downloading files already present in the output directory.`,
	Example: `  # Download everything as a zip
  civsync download somecreator

  # Download the 50 newest images as loose files
  civsync download somecreator --image-count 50 --no-zip

  # Resume a bulk download, skipping what is already on disk
  civsync download somecreator --no-zip --skip-existing`,
	Args: cobra.ExactArgs(1),
	Run:  runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: ./output)")
	downloadCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	downloadCmd.Flags().IntVar(&jpegQuality, "jpeg-quality", 0, "JPEG encoding quality (1-95)")
	downloadCmd.Flags().IntVar(&pageSize, "limit", 0, "listing page size (1-200)")
	downloadCmd.Flags().StringVar(&sortOrder, "sort", "", "listing sort order (Newest, Most Reactions, Most Comments)")
	downloadCmd.Flags().StringVar(&period, "period", "", "listing time period (AllTime, Year, Month, Week, Day)")
	downloadCmd.Flags().StringVar(&nsfw, "nsfw", "", "NSFW filter level (None, Soft, Mature, X)")
	downloadCmd.Flags().StringVar(&tokenName, "token", "", "use a specific stored API token")
	downloadCmd.Flags().IntVar(&imageCount, "image-count", 0, "maximum number of images to download (0 = all)")
	downloadCmd.Flags().BoolVar(&noZip, "no-zip", false, "keep downloaded files loose instead of archiving")
	downloadCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip files already present in the output directory")
}

func runDownload(cmd *cobra.Command, args []string) {
	username := strings.TrimSpace(args[0])

	cfg := loadConfigAndToken()
	logger.WithField("version", version).Info("civsync starting")

	ui.PrintInfo("Target creator", username)

	s, err := syncer.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize syncer", err.Error())
		os.Exit(1)
	}

	summary, err := s.Download(username, syncer.DownloadOptions{
		ImageCount:   imageCount,
		NoZip:        noZip,
		SkipExisting: skipExisting,
	})
	if err != nil {
		logger.WithError(err).WithField("username", username).Error("Download failed")
		ui.PrintError("DOWNLOAD FAILED", err.Error())
		os.Exit(1)
	}

	printRunSummary(summary)
	ui.PrintSuccess("Download completed")
}
