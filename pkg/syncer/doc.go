// Package syncer orchestrates the Civitai creator image sync pipeline.
//
// A sync run moves through six stages, coordinating the other packages:
//   - Load the persisted manifest for the creator (corruption is fatal)
//   - Collect the creator's current image listing page by page
//   - Diff the listing against the manifest into added and removed sets
//   - Write markdown and ID-list reports when the diff is non-empty
//   - Download and convert the added images through a worker pool
//   - Archive the new images as a zip, then persist the updated manifest
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := syncer.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := s.Run("creator_username")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("added %d, removed %d\n", summary.Added, summary.Removed)
//
// Failure handling:
//
// Per-image download failures are tallied in the RunSummary and logged but
// never abort the run. Manifest corruption and archive failure do abort it,
// and in both cases the manifest on disk is left untouched so the next run
// sees the same baseline.
package syncer
