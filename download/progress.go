package download

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataquery-sdk/dataquery/utils"
)

// Progress is a point-in-time snapshot of one in-flight download.
type Progress struct {
	FileGroupID     string
	BytesDownloaded int64
	TotalBytes      int64
	StartTime       time.Time
}

// Percentage is 0 when the total size is unknown.
func (p Progress) Percentage() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.BytesDownloaded) / float64(p.TotalBytes) * 100
}

// Speed returns average bytes per second since the download started.
func (p Progress) Speed() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.BytesDownloaded) / elapsed
}

// Callback receives throttled progress snapshots.
type Callback func(Progress)

const (
	callbackThresholdBytes = 1024 * 1024
	callbackThresholdTime  = 500 * time.Millisecond
)

// Tracker accumulates downloaded bytes across workers and invokes the
// callback when at least 1 MiB arrived since the last invocation, at least
// 0.5s elapsed, or the download completed. The completion callback fires
// exactly once. Without a callback, progress is logged at the same cadence.
type Tracker struct {
	mu sync.Mutex

	progress       Progress
	callback       Callback
	log            zerolog.Logger
	logProgress    bool
	lastBytes      int64
	lastTime       time.Time
	finalDelivered bool
}

func NewTracker(fileGroupID string, totalBytes int64, callback Callback, showProgress bool) *Tracker {
	return &Tracker{
		progress: Progress{
			FileGroupID: fileGroupID,
			TotalBytes:  totalBytes,
			StartTime:   time.Now(),
		},
		callback:    callback,
		log:         utils.GetLogger("download"),
		logProgress: showProgress,
		lastTime:    time.Now(),
	}
}

// Add records n more downloaded bytes. Safe for concurrent range workers.
func (t *Tracker) Add(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.BytesDownloaded += n
	t.deliverLocked(false)
}

// Set records an absolute byte count for single-writer downloads.
func (t *Tracker) Set(bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bytes > t.progress.BytesDownloaded {
		t.progress.BytesDownloaded = bytes
	}
	t.deliverLocked(false)
}

// Bytes returns the current downloaded byte count.
func (t *Tracker) Bytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress.BytesDownloaded
}

// Finish guarantees the completion callback even when the total size was
// unknown during the transfer.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.progress.TotalBytes <= 0 {
		t.progress.TotalBytes = t.progress.BytesDownloaded
	}
	t.deliverLocked(true)
}

func (t *Tracker) deliverLocked(force bool) {
	completed := t.progress.TotalBytes > 0 && t.progress.BytesDownloaded >= t.progress.TotalBytes
	if completed || force {
		if t.finalDelivered {
			return
		}
		t.finalDelivered = true
		t.emitLocked()
		return
	}

	bytesDiff := t.progress.BytesDownloaded - t.lastBytes
	timeDiff := time.Since(t.lastTime)
	if bytesDiff < callbackThresholdBytes && timeDiff < callbackThresholdTime {
		return
	}
	t.emitLocked()
}

func (t *Tracker) emitLocked() {
	t.lastBytes = t.progress.BytesDownloaded
	t.lastTime = time.Now()
	if t.callback != nil {
		t.callback(t.progress)
		return
	}
	if t.logProgress {
		t.log.Info().
			Str("file", t.progress.FileGroupID).
			Str("percentage", fmt.Sprintf("%.1f%%", t.progress.Percentage())).
			Str("downloaded", utils.FormatSize(t.progress.BytesDownloaded)).
			Msg("Download progress")
	}
}
