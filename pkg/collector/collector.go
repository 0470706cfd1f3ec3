package collector

import (
	stderrors "errors"

	"civsync/pkg/civitai"
	"civsync/pkg/errors"
	"civsync/pkg/logger"
	"civsync/pkg/ratelimit"
)

// PageFetcher fetches one listing page. Implemented by *civitai.Client.
type PageFetcher interface {
	FetchImagesPage(pageURL string) (*civitai.ImagesResponse, error)
}

// Result is the outcome of one collection pass.
//
// Truncated is set when pagination stopped on a request failure instead of
// reaching the end of the listing. The records gathered up to that point are
// still returned; a truncated pass can make previously-seen items look
// deleted, so callers surface the flag as a warning before trusting removal
// results.
type Result struct {
	Records   []civitai.ImageRecord
	Pages     int
	Truncated bool
}

// Collector drives the page fetcher through an entire listing. It follows
// the envelope's nextPage URL as an opaque continuation token and paces
// consecutive page requests with a fixed delay.
type Collector struct {
	fetcher PageFetcher
	pacer   ratelimit.Limiter
	baseURL string
	logger  logger.Logger
}

// New creates a Collector. pacer may be nil to disable inter-page pacing.
func New(fetcher PageFetcher, pacer ratelimit.Limiter, baseURL string, log logger.Logger) *Collector {
	if pacer == nil {
		pacer = ratelimit.Nop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		fetcher: fetcher,
		pacer:   pacer,
		baseURL: baseURL,
		logger:  log,
	}
}

// Collect accumulates every ImageRecord the listing currently returns for
// the query. A request failure mid-pagination ends the pass and returns what
// was gathered so far - the listing is best effort, and a later run
// reconciles whatever this one missed.
func (c *Collector) Collect(query civitai.ListingQuery) Result {
	var result Result
	nextURL := civitai.ListingURL(c.baseURL, query)

	for nextURL != "" {
		if result.Pages > 0 {
			c.pacer.Wait()
		}

		envelope, err := c.fetcher.FetchImagesPage(nextURL)
		if err != nil {
			// Transient failures are expected to clear by the next run;
			// anything else deserves a closer look before retrying.
			transient := false
			var apiErr *errors.Error
			if stderrors.As(err, &apiErr) {
				transient = errors.IsTransient(apiErr.Type)
			}
			c.logger.WarnWithFields("listing truncated by request failure", map[string]interface{}{
				"username":  query.Username,
				"page":      result.Pages + 1,
				"collected": len(result.Records),
				"transient": transient,
				"error":     err.Error(),
			})
			result.Truncated = true
			return result
		}

		result.Pages++
		if len(envelope.Items) == 0 {
			break
		}

		result.Records = append(result.Records, envelope.Items...)
		logger.LogPageFetch(query.Username, result.Pages, len(result.Records), envelope.Metadata.NextPage != "")

		nextURL = envelope.Metadata.NextPage
	}

	c.logger.InfoWithFields("listing collection complete", map[string]interface{}{
		"username": query.Username,
		"pages":    result.Pages,
		"total":    len(result.Records),
	})

	return result
}
