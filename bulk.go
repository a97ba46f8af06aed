package plinder

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Download phases reported via DownloadProgress.Phase.
const (
	// PhaseList is reported while the remote snapshot tree is listed.
	PhaseList = "list"

	// PhaseFetch is reported while objects are being fetched.
	PhaseFetch = "fetch"
)

// DownloadProgress reports progress during a bulk download.
type DownloadProgress struct {
	// Phase is the current phase: PhaseList or PhaseFetch.
	Phase string

	// ObjectsTotal is the number of objects to fetch (after skips).
	ObjectsTotal int

	// ObjectsCompleted is the number of objects fetched so far.
	ObjectsCompleted int

	// ObjectsSkipped is the number of objects already present locally.
	ObjectsSkipped int

	// BytesTotal is the total bytes to fetch.
	BytesTotal int64

	// BytesCompleted is the bytes from completed fetches so far.
	BytesCompleted int64

	// CurrentObject is the asset most recently completed.
	CurrentObject string
}

// DownloadStats summarizes a completed bulk download.
type DownloadStats struct {
	// Fetched is the number of objects transferred.
	Fetched int

	// Skipped is the number of objects already present locally.
	Skipped int

	// Bytes is the total bytes transferred.
	Bytes int64
}

// fetchJob is a unit of work for the download worker pool.
type fetchJob struct {
	// rel is the snapshot-relative path of the object.
	rel string

	// size is the object size in bytes, from the remote listing.
	size int64
}

// fetchResult is the outcome of one object fetch.
type fetchResult struct {
	// rel identifies the object this result is for.
	rel string

	// size is the object size in bytes.
	size int64

	// err is nil on success.
	err error
}

// Download mirrors the remote snapshot tree into the local mount.
// Present non-empty local files are skipped unless WithForce is given.
// Fetches run on a bounded worker pool; the first error cancels the
// remaining work and is returned.
func (c *client) Download(ctx context.Context, opts ...DownloadOption) (DownloadStats, error) {
	if c.cfg.Offline {
		return DownloadStats{}, fmt.Errorf("%w: cannot download while offline", ErrConfig)
	}

	dcfg := &downloadConfig{concurrency: c.concurrency}
	for _, opt := range opts {
		opt(dcfg)
	}

	if dcfg.progressFn != nil {
		dcfg.progressFn(DownloadProgress{Phase: PhaseList})
	}

	objects, err := c.remote.List(ctx, "")
	if err != nil {
		return DownloadStats{}, err
	}

	var (
		jobs       []fetchJob
		skipped    int
		totalBytes int64
	)
	for _, obj := range objects {
		clean, err := validateRequest(obj.Rel)
		if err != nil {
			// Objects with hostile names are not mirrored.
			if c.logger != nil {
				c.logger.Warn("skipping remote object with invalid path", "path", obj.Rel)
			}
			continue
		}
		if !dcfg.force && materialized(c.localPath(clean)) {
			skipped++
			continue
		}
		jobs = append(jobs, fetchJob{rel: clean, size: obj.Size})
		totalBytes += obj.Size
	}

	stats := DownloadStats{Skipped: skipped}
	if len(jobs) == 0 {
		if dcfg.progressFn != nil {
			dcfg.progressFn(DownloadProgress{Phase: PhaseFetch, ObjectsSkipped: skipped})
		}
		return stats, nil
	}

	if err := c.runFetchPool(ctx, jobs, dcfg, skipped, totalBytes, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// runFetchPool fans the jobs out over dcfg.concurrency workers and
// collects results, cancelling outstanding work on the first error.
func (c *client) runFetchPool(ctx context.Context, jobs []fetchJob, dcfg *downloadConfig, skipped int, totalBytes int64, stats *DownloadStats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan fetchJob, len(jobs))
	resultCh := make(chan fetchResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < dcfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				err := c.fetchAsset(ctx, job.rel, dcfg.force)
				select {
				case resultCh <- fetchResult{rel: job.rel, size: job.size, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	// Periodic progress keeps slow transfers visibly alive between
	// object completions.
	var mu sync.Mutex
	progress := DownloadProgress{
		Phase:          PhaseFetch,
		ObjectsTotal:   len(jobs),
		ObjectsSkipped: skipped,
		BytesTotal:     totalBytes,
	}
	var tickerDone chan struct{}
	if dcfg.progressFn != nil {
		dcfg.progressFn(progress)
		ticker := time.NewTicker(time.Second)
		tickerDone = make(chan struct{})
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					dcfg.progressFn(progress)
					mu.Unlock()
				case <-tickerDone:
					return
				}
			}
		}()
	}

	var firstErr error
	completed := 0
collect:
	for completed < len(jobs) {
		select {
		case result := <-resultCh:
			completed++
			if result.err != nil {
				if firstErr == nil {
					firstErr = result.err
					cancel()
				}
				continue
			}
			mu.Lock()
			progress.ObjectsCompleted++
			progress.BytesCompleted += result.size
			progress.CurrentObject = result.rel
			stats.Fetched++
			stats.Bytes += result.size
			if dcfg.progressFn != nil {
				dcfg.progressFn(progress)
			}
			mu.Unlock()
		case <-ctx.Done():
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break collect
		}
	}

	if tickerDone != nil {
		close(tickerDone)
	}
	wg.Wait()

	return firstErr
}

// fetchAsset runs one scoped fetch under the per-path lock, so a bulk
// download and a concurrent Materialize of the same asset cannot race.
func (c *client) fetchAsset(ctx context.Context, rel string, force bool) error {
	unlock := c.locks.acquire(rel)
	defer unlock()

	if !force && materialized(c.localPath(rel)) {
		return nil
	}
	return c.fetchInto(ctx, rel, c.localPath(rel), force)
}
