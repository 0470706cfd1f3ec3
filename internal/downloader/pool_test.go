package downloader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"civsync/pkg/civitai"
	"civsync/pkg/logger"
)

// MockClient is a mock implementation of the asset fetcher
type MockClient struct {
	downloadDelay   time.Duration
	downloadError   error
	failURLs        map[string]bool
	downloadCounter int32
}

func (m *MockClient) DownloadImage(url string) ([]byte, error) {
	atomic.AddInt32(&m.downloadCounter, 1)
	if m.downloadDelay > 0 {
		time.Sleep(m.downloadDelay)
	}
	if m.downloadError != nil {
		return nil, m.downloadError
	}
	if m.failURLs[url] {
		return nil, fmt.Errorf("download failed for %s", url)
	}
	return validJPEG(), nil
}

func (m *MockClient) GetDownloadCount() int {
	return int(atomic.LoadInt32(&m.downloadCounter))
}

// MockStore is a mock implementation of the image store
type MockStore struct {
	savedImages map[string]bool
	saveError   error
	mu          sync.Mutex
}

func NewMockStore() *MockStore {
	return &MockStore{
		savedImages: make(map[string]bool),
	}
}

func (m *MockStore) IsDownloaded(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedImages[filename]
}

func (m *MockStore) SaveImage(r io.Reader, filename string) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedImages[filename] = true
	return "/mock/" + filename, nil
}

func (m *MockStore) SavedFilenames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.savedImages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func testJob(id int64) Job {
	return Job{Record: civitai.ImageRecord{
		ID:       id,
		URL:      fmt.Sprintf("https://img.example/%d.jpeg", id),
		Username: "alice",
	}}
}

// runJobs drives a pool through a job set and collects the results
func runJobs(t *testing.T, pool *WorkerPool, jobs []Job) []Result {
	t.Helper()

	pool.Start()

	var results []Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	pool.Stop()
	wg.Wait()
	return results
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	mockClient := &MockClient{downloadDelay: 5 * time.Millisecond}
	mockStore := NewMockStore()

	pool := NewWorkerPool(3, mockClient, mockStore, 85, nil, logger.NewNopLogger())

	numJobs := 10
	jobs := make([]Job, 0, numJobs)
	for i := 1; i <= numJobs; i++ {
		jobs = append(jobs, testJob(int64(i)))
	}

	results := runJobs(t, pool, jobs)

	if len(results) != numJobs {
		t.Fatalf("Expected %d results, got %d", numJobs, len(results))
	}
	for _, result := range results {
		if !result.Success {
			t.Errorf("Job %d failed: %v", result.Job.Record.ID, result.Err)
		}
		if result.Filename == "" {
			t.Error("Expected a filename on every result")
		}
		if result.Size == 0 {
			t.Errorf("Expected converted size for job %d", result.Job.Record.ID)
		}
	}

	if got := len(mockStore.SavedFilenames()); got != numJobs {
		t.Errorf("Expected %d saved files, got %d", numJobs, got)
	}
}

func TestWorkerPoolPoolSizeEquivalence(t *testing.T) {
	// The output set must not depend on worker count
	jobs := make([]Job, 0, 20)
	for i := 1; i <= 20; i++ {
		jobs = append(jobs, testJob(int64(i)))
	}

	storeSingle := NewMockStore()
	poolSingle := NewWorkerPool(1, &MockClient{}, storeSingle, 85, nil, logger.NewNopLogger())
	runJobs(t, poolSingle, jobs)

	storeWide := NewMockStore()
	poolWide := NewWorkerPool(8, &MockClient{}, storeWide, 85, nil, logger.NewNopLogger())
	runJobs(t, poolWide, jobs)

	single := storeSingle.SavedFilenames()
	wide := storeWide.SavedFilenames()

	if len(single) != len(wide) {
		t.Fatalf("Different output counts: 1 worker=%d, 8 workers=%d", len(single), len(wide))
	}
	for i := range single {
		if single[i] != wide[i] {
			t.Errorf("Output mismatch at %d: %s vs %s", i, single[i], wide[i])
		}
	}
}

func TestWorkerPoolPartialFailuresDoNotBlockSiblings(t *testing.T) {
	mockClient := &MockClient{failURLs: map[string]bool{
		"https://img.example/2.jpeg": true,
		"https://img.example/4.jpeg": true,
	}}
	mockStore := NewMockStore()

	pool := NewWorkerPool(2, mockClient, mockStore, 85, nil, logger.NewNopLogger())
	results := runJobs(t, pool, []Job{testJob(1), testJob(2), testJob(3), testJob(4), testJob(5)})

	var succeeded, failed int
	for _, result := range results {
		if result.Success {
			succeeded++
		} else {
			failed++
			if result.Err == nil {
				t.Error("Failed result must carry an error")
			}
		}
	}

	if succeeded != 3 {
		t.Errorf("Expected 3 successes, got %d", succeeded)
	}
	if failed != 2 {
		t.Errorf("Expected 2 failures, got %d", failed)
	}
}

func TestWorkerPoolConversionFailure(t *testing.T) {
	// Client returns bytes that are not an image
	mockStore := NewMockStore()

	pool := NewWorkerPool(1, &garbageClient{}, mockStore, 85, nil, logger.NewNopLogger())
	results := runJobs(t, pool, []Job{testJob(1)})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Error("Expected conversion failure")
	}
	if len(mockStore.SavedFilenames()) != 0 {
		t.Error("Nothing should be saved when conversion fails")
	}
}

type garbageClient struct{}

func (g *garbageClient) DownloadImage(url string) ([]byte, error) {
	return []byte("not an image"), nil
}

func TestWorkerPoolEmptyURL(t *testing.T) {
	pool := NewWorkerPool(1, &MockClient{}, NewMockStore(), 85, nil, logger.NewNopLogger())

	results := runJobs(t, pool, []Job{{Record: civitai.ImageRecord{ID: 7, Username: "alice"}}})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Error("Job without a source URL must fail")
	}
}

func TestWorkerPoolSkipExisting(t *testing.T) {
	mockClient := &MockClient{}
	mockStore := NewMockStore()
	mockStore.savedImages["alice_1.jpeg"] = true

	pool := NewWorkerPool(1, mockClient, mockStore, 85, nil, logger.NewNopLogger())
	pool.SetSkipExisting(true)

	results := runJobs(t, pool, []Job{testJob(1), testJob(2)})

	var skipped int
	for _, result := range results {
		if !result.Success {
			t.Errorf("Job %d failed: %v", result.Job.Record.ID, result.Err)
		}
		if result.Skipped {
			skipped++
		}
	}

	if skipped != 1 {
		t.Errorf("Expected 1 skipped result, got %d", skipped)
	}
	if mockClient.GetDownloadCount() != 1 {
		t.Errorf("Expected exactly 1 network fetch, got %d", mockClient.GetDownloadCount())
	}
}
