package syncer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"civsync/internal/downloader"
	"civsync/pkg/archive"
	"civsync/pkg/civitai"
	"civsync/pkg/collector"
	"civsync/pkg/config"
	"civsync/pkg/diff"
	"civsync/pkg/logger"
	"civsync/pkg/manifest"
	"civsync/pkg/ratelimit"
	"civsync/pkg/report"
	"civsync/pkg/storage"
	"civsync/pkg/ui"
)

// StagingDirName is the directory under the output base where freshly
// downloaded images land before archiving.
const StagingDirName = "new_images_temp"

// RunSummary describes what a single sync run did
type RunSummary struct {
	RunID        string
	Username     string
	Collected    int
	Pages        int
	Truncated    bool
	Added        int
	Removed      int
	Downloaded   int
	Failed       int
	ArchivePath  string
	ManifestPath string
	Duration     time.Duration
}

// Syncer orchestrates the Civitai image sync pipeline: collect, diff,
// report, download, archive, persist.
type Syncer struct {
	client CivitaiClient
	config *config.Config
	logger logger.Logger
	now    func() time.Time

	// runMu serializes runs. The manifest has a single writer per run and
	// the staging directory is shared, so two concurrent passes would
	// corrupt each other's state.
	runMu sync.Mutex
}

// ErrRunInProgress is returned when a run is requested while another one on
// the same Syncer has not finished.
var ErrRunInProgress = fmt.Errorf("a sync run is already in progress")

// New creates a new Syncer instance from the resolved configuration
func New(cfg *config.Config) (*Syncer, error) {
	log := logger.GetLogger()

	client := civitai.NewClient(
		cfg.Civitai.ListingTimeout,
		cfg.Civitai.AssetTimeout,
		cfg.Civitai.APIToken,
		log,
	)
	if cfg.Civitai.UserAgent != "" {
		client.SetUserAgent(cfg.Civitai.UserAgent)
	}

	return &Syncer{
		client: client,
		config: cfg,
		logger: log,
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source. Used by tests for deterministic
// archive names and report timestamps.
func (s *Syncer) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Syncer) listingQuery(username string) civitai.ListingQuery {
	return civitai.ListingQuery{
		Username: username,
		Sort:     s.config.Query.Sort,
		Period:   s.config.Query.Period,
		NSFW:     s.config.Query.NSFW,
		PageSize: s.config.Query.PageSize,
	}
}

func (s *Syncer) newCollector() *collector.Collector {
	var pacer ratelimit.Limiter
	if s.config.Civitai.PageInterval > 0 {
		pacer = ratelimit.NewFixedInterval(s.config.Civitai.PageInterval)
	}
	return collector.New(s.client, pacer, s.config.Civitai.BaseURL, s.logger)
}

// Run executes one complete sync pass for a creator. Per-image download
// failures are tallied in the summary but do not fail the run; manifest
// corruption and archive failure do.
func (s *Syncer) Run(username string) (*RunSummary, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := s.now()

	username = civitai.SanitizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	summary := &RunSummary{
		RunID:    uuid.NewString(),
		Username: username,
	}

	s.logger.InfoWithFields("starting sync run", map[string]interface{}{
		"username": username,
		"run_id":   summary.RunID,
	})

	outputDir := s.config.Output.BaseDirectory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Load previous state. A corrupt manifest is fatal: diffing against a
	// partial manifest would misreport half the library as new.
	store := manifest.NewStore(manifest.DefaultPath(outputDir, username), s.logger)
	summary.ManifestPath = store.Path()

	previous, err := store.Load()
	if err != nil {
		s.logger.WithError(err).WithField("path", store.Path()).Error("Failed to load manifest")
		return summary, err
	}

	// Collect the creator's current listing
	result := s.newCollector().Collect(s.listingQuery(username))
	summary.Collected = len(result.Records)
	summary.Pages = result.Pages
	summary.Truncated = result.Truncated

	if result.Truncated {
		ui.PrintWarning("Listing truncated by a request failure; removal results may include images that still exist")
	}

	changes := diff.Compute(result.Records, previous)
	summary.Added = len(changes.Added)
	summary.Removed = len(changes.Removed)

	s.logger.InfoWithFields("diff computed", map[string]interface{}{
		"username":  username,
		"collected": summary.Collected,
		"added":     summary.Added,
		"removed":   summary.Removed,
	})

	if changes.Empty() {
		ui.PrintInfo("No changes", fmt.Sprintf("%d images, all in sync", summary.Collected))
		if err := store.Save(manifest.FromRecords(result.Records)); err != nil {
			return summary, fmt.Errorf("failed to save manifest: %w", err)
		}
		summary.Duration = s.now().Sub(start)
		return summary, nil
	}

	// Reports are regenerated only when something changed
	reportsDir := filepath.Join(outputDir, s.config.Output.ReportsSubdir)
	generator := report.NewGenerator(reportsDir, s.now, s.logger)
	if err := generator.Write(username, summary.RunID, changes); err != nil {
		return summary, fmt.Errorf("failed to write reports: %w", err)
	}

	if summary.Added > 0 {
		downloaded, failed, archivePath, err := s.downloadAndArchive(username, changes.Added)
		summary.Downloaded = downloaded
		summary.Failed = failed
		summary.ArchivePath = archivePath
		if err != nil {
			return summary, err
		}
	}

	// Persist the full current set so the next run diffs against it
	if err := store.Save(manifest.FromRecords(result.Records)); err != nil {
		return summary, fmt.Errorf("failed to save manifest: %w", err)
	}

	logger.LogSyncSummary(username, summary.Added, summary.Removed, summary.Downloaded, summary.Failed)
	summary.Duration = s.now().Sub(start)
	return summary, nil
}

// downloadAndArchive fetches the added records into the staging directory,
// zips the successes, then clears the staging files. Archive failure leaves
// the staged files in place.
func (s *Syncer) downloadAndArchive(username string, added []civitai.ImageRecord) (downloaded, failed int, archivePath string, err error) {
	stagingDir := filepath.Join(s.config.Output.BaseDirectory, StagingDirName)

	storageManager, err := storage.NewManager(stagingDir)
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	filenames, downloaded, failed := s.runPool(storageManager, added, false)

	if downloaded == 0 {
		s.logger.WarnWithFields("no images downloaded, skipping archive", map[string]interface{}{
			"username": username,
			"failed":   failed,
		})
		return downloaded, failed, "", nil
	}

	zipName := fmt.Sprintf("civitai_%s_new_%s.zip", username, s.now().Format("20060102"))
	archivePath = filepath.Join(s.config.Output.BaseDirectory, zipName)

	if _, err := archive.Create(archivePath, stagingDir, filenames, s.logger); err != nil {
		return downloaded, failed, "", err
	}

	if err := archive.RemoveSources(stagingDir, filenames); err != nil {
		s.logger.WithError(err).Warn("Failed to clean staging directory")
	}

	ui.PrintSuccess(fmt.Sprintf("Archived %d new images to %s", downloaded, zipName))
	return downloaded, failed, archivePath, nil
}

// runPool pushes one job per record through the download worker pool and
// drains the results. Returns the filenames that were written.
func (s *Syncer) runPool(storageManager *storage.Manager, records []civitai.ImageRecord, skipExisting bool) (filenames []string, downloaded, failed int) {
	tracker := ui.NewProgressTracker(len(records))

	pool := downloader.NewWorkerPool(
		s.config.Download.ConcurrentDownloads,
		s.client,
		storageManager,
		s.config.Download.JPEGQuality,
		tracker,
		s.logger,
	)
	pool.SetSkipExisting(skipExisting)
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			if result.Success {
				downloaded++
				filenames = append(filenames, result.Filename)
			} else {
				failed++
			}
		}
	}()

	// Submit failures are counted here and merged only after the drain
	// goroutine has finished; it owns downloaded/failed until wg.Wait
	// returns.
	notSubmitted := 0
	for _, record := range records {
		if err := pool.Submit(downloader.Job{Record: record}); err != nil {
			s.logger.WithError(err).WithField("image_id", record.ID).Error("Failed to submit download job")
			notSubmitted++
		}
	}

	pool.Stop()
	wg.Wait()
	failed += notSubmitted

	return filenames, downloaded, failed
}

// DownloadOptions controls the one-shot Download pass
type DownloadOptions struct {
	// ImageCount caps how many images are downloaded; 0 means all.
	ImageCount int
	// NoZip keeps the downloaded files loose instead of archiving them.
	NoZip bool
	// SkipExisting treats files already present in the output as done.
	SkipExisting bool
}

// Download fetches a creator's images without consulting or writing the
// manifest: a plain bulk grab rather than an incremental sync.
func (s *Syncer) Download(username string, opts DownloadOptions) (*RunSummary, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := s.now()

	username = civitai.SanitizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	summary := &RunSummary{
		RunID:    uuid.NewString(),
		Username: username,
	}

	s.logger.InfoWithFields("starting one-shot download", map[string]interface{}{
		"username":    username,
		"run_id":      summary.RunID,
		"image_count": opts.ImageCount,
	})

	result := s.newCollector().Collect(s.listingQuery(username))
	summary.Collected = len(result.Records)
	summary.Pages = result.Pages
	summary.Truncated = result.Truncated

	if result.Truncated {
		ui.PrintWarning("Listing truncated by a request failure; downloading what was collected")
	}

	records := result.Records
	if opts.ImageCount > 0 && len(records) > opts.ImageCount {
		records = records[:opts.ImageCount]
	}

	if len(records) == 0 {
		ui.PrintInfo("Nothing to download", fmt.Sprintf("no images found for %s", username))
		summary.Duration = s.now().Sub(start)
		return summary, nil
	}

	targetDir := s.config.Output.BaseDirectory
	if !opts.NoZip {
		targetDir = filepath.Join(targetDir, StagingDirName)
	}

	storageManager, err := storage.NewManager(targetDir)
	if err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	filenames, downloaded, failed := s.runPool(storageManager, records, opts.SkipExisting)
	summary.Downloaded = downloaded
	summary.Failed = failed

	if !opts.NoZip && downloaded > 0 {
		zipName := fmt.Sprintf("civitai_%s_new_%s.zip", username, s.now().Format("20060102"))
		archivePath := filepath.Join(s.config.Output.BaseDirectory, zipName)

		if _, err := archive.Create(archivePath, targetDir, filenames, s.logger); err != nil {
			return summary, err
		}
		if err := archive.RemoveSources(targetDir, filenames); err != nil {
			s.logger.WithError(err).Warn("Failed to clean staging directory")
		}
		summary.ArchivePath = archivePath
	}

	summary.Duration = s.now().Sub(start)
	return summary, nil
}
