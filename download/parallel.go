package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dataquery-sdk/dataquery/utils"
)

// Range is an inclusive byte range. The ranges for one file partition
// [0, totalBytes) with no gaps or overlaps.
type Range struct {
	Start int64
	End   int64
}

// partitionRanges splits [0, totalBytes) into numParts near-equal contiguous
// ranges; the last range absorbs any remainder.
func partitionRanges(totalBytes int64, numParts int) []Range {
	if totalBytes <= 0 {
		return nil
	}
	if numParts < 1 {
		numParts = 1
	}
	if int64(numParts) > totalBytes {
		numParts = int(totalBytes)
	}
	partSize := totalBytes / int64(numParts)
	var ranges []Range
	var start int64
	for i := 0; i < numParts; i++ {
		end := start + partSize - 1
		if i == numParts-1 {
			end = totalBytes - 1
		}
		if start > end {
			break
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end + 1
	}
	return ranges
}

// Download fetches a file with numParts concurrent range requests written
// into a pre-sized temp file, falling back to a single stream when the
// server does not honor ranges or the file is small. Expected failures are
// reported through the Result, never as an error return.
func (d *Downloader) Download(ctx context.Context, req Request, opts Options, numParts int, callback Callback) Result {
	if numParts <= 0 {
		numParts = utils.DefaultNumParts
	}
	start := time.Now()
	log := d.log.With().Str("file", req.FileGroupID).Logger()

	support, err := d.probeRange(ctx, req)
	if err != nil {
		return d.newResult(req, "", 0, 0, start, StatusFailed, err)
	}
	if !support.Supported {
		log.Debug().Msg("Range requests not supported, using single stream")
		return d.DownloadSingleStream(ctx, req, opts, callback)
	}
	if support.TotalBytes < utils.SmallFileThreshold {
		log.Debug().Int64("size", support.TotalBytes).Msg("Small file, using single stream")
		return d.DownloadSingleStream(ctx, req, opts, callback)
	}

	destination, err := d.resolveDestination(opts, req.FileGroupID, support.Filename)
	if err != nil {
		return d.newResult(req, "", 0, 0, start, StatusFailed, err)
	}
	if _, statErr := os.Stat(destination); statErr == nil && !opts.OverwriteExisting {
		return d.newResult(req, destination, 0, 0, start, StatusFailed, &FileExistsError{Path: destination})
	}

	totalBytes := support.TotalBytes
	temp := tempPath(destination)
	tracker := NewTracker(req.FileGroupID, totalBytes, callback, opts.ShowProgress)

	err = d.transferRanges(ctx, req, opts, temp, totalBytes, numParts, tracker)
	if err == nil {
		if renameErr := os.Rename(temp, destination); renameErr != nil {
			err = renameErr
		}
	}
	if err != nil {
		return d.salvageOrFail(req, destination, temp, totalBytes, tracker.Bytes(), start, err)
	}

	log.Debug().
		Int64("size", totalBytes).
		Str("elapsed", utils.FormatDuration(time.Since(start))).
		Msg("Parallel download completed")
	return d.newResult(req, destination, totalBytes, tracker.Bytes(), start, StatusCompleted, nil)
}

// transferRanges pre-sizes the temp file and runs one goroutine per range.
// All workers are joined before returning; the first worker error wins.
func (d *Downloader) transferRanges(ctx context.Context, req Request, opts Options, temp string, totalBytes int64, numParts int, tracker *Tracker) error {
	f, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	if err := f.Truncate(totalBytes); err != nil {
		f.Close()
		return fmt.Errorf("error pre-allocating temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	ranges := partitionRanges(totalBytes, numParts)
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = utils.DefaultChunkSize
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(ranges))
	for _, r := range ranges {
		wg.Add(1)
		go func(r Range) {
			defer wg.Done()
			if err := d.downloadRange(ctx, req, temp, r, chunkSize, tracker); err != nil {
				errCh <- err
			}
		}(r)
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}

// downloadRange streams one byte range into the shared temp file. Each
// worker opens its own handle and writes at absolute offsets, so completion
// order does not matter; only the shared tracker is lock-guarded.
func (d *Downloader) downloadRange(ctx context.Context, req Request, temp string, r Range, chunkSize int64, tracker *Tracker) error {
	headers := map[string]string{"Range": fmt.Sprintf("bytes=%d-%d", r.Start, r.End)}
	resp, err := d.requester.Request(ctx, http.MethodGet, req.URL, req.Params, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fh, err := os.OpenFile(temp, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening temp file for range %d-%d: %w", r.Start, r.End, err)
	}
	defer fh.Close()

	expected := r.End - r.Start + 1
	buffer := make([]byte, chunkSize)
	position := r.Start
	var written int64
	for {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := fh.WriteAt(buffer[:n], position); writeErr != nil {
				return writeErr
			}
			position += int64(n)
			written += int64(n)
			tracker.Add(int64(n))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return readErr
		}
	}
	if written != expected {
		return fmt.Errorf("range %d-%d size mismatch: expected %d bytes, got %d", r.Start, r.End, expected, written)
	}
	return nil
}

// salvageOrFail recovers a completed file from a failed parallel attempt
// when the temp file already holds the full probed size; otherwise the temp
// file is removed and a FAILED result carries the original error.
func (d *Downloader) salvageOrFail(req Request, destination, temp string, totalBytes, bytesDownloaded int64, start time.Time, cause error) Result {
	if fi, statErr := os.Stat(temp); statErr == nil {
		if totalBytes > 0 && fi.Size() >= totalBytes {
			if renameErr := os.Rename(temp, destination); renameErr == nil {
				d.log.Warn().
					Str("file", req.FileGroupID).
					Str("error", cause.Error()).
					Msg("Salvaged completed temp file after failure")
				if bytesDownloaded < totalBytes {
					bytesDownloaded = totalBytes
				}
				return d.newResult(req, destination, totalBytes, bytesDownloaded, start, StatusCompleted, nil)
			}
		}
		os.Remove(temp)
	}
	return d.newResult(req, destination, 0, bytesDownloaded, start, StatusFailed, cause)
}
