package download

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectProgress() (*[]Progress, Callback) {
	var mu sync.Mutex
	var seen []Progress
	return &seen, func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}
}

func TestTrackerThrottlesSmallIncrements(t *testing.T) {
	seen, cb := collectProgress()
	tracker := NewTracker("file1", 100*1024*1024, cb, false)

	// 100 x 1KiB stays under both the byte and time thresholds.
	for range 100 {
		tracker.Add(1024)
	}
	assert.Empty(t, *seen)
}

func TestTrackerFiresOnByteThreshold(t *testing.T) {
	seen, cb := collectProgress()
	tracker := NewTracker("file1", 100*1024*1024, cb, false)

	tracker.Add(1024 * 1024)
	require.Len(t, *seen, 1)
	assert.Equal(t, int64(1024*1024), (*seen)[0].BytesDownloaded)
	assert.Equal(t, "file1", (*seen)[0].FileGroupID)
}

func TestTrackerFiresOnTimeThreshold(t *testing.T) {
	seen, cb := collectProgress()
	tracker := NewTracker("file1", 100*1024*1024, cb, false)

	tracker.Add(10)
	assert.Empty(t, *seen)
	time.Sleep(callbackThresholdTime + 50*time.Millisecond)
	tracker.Add(10)
	assert.Len(t, *seen, 1)
}

func TestTrackerCompletionFiresExactlyOnce(t *testing.T) {
	seen, cb := collectProgress()
	total := int64(4 * 1024 * 1024)
	tracker := NewTracker("file1", total, cb, false)

	tracker.Add(total)
	tracker.Finish()
	tracker.Finish()

	var completions int
	for _, p := range *seen {
		if p.BytesDownloaded >= p.TotalBytes {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestTrackerFinishBackfillsUnknownTotal(t *testing.T) {
	seen, cb := collectProgress()
	tracker := NewTracker("file1", 0, cb, false)

	tracker.Set(12345)
	tracker.Finish()

	require.NotEmpty(t, *seen)
	final := (*seen)[len(*seen)-1]
	assert.Equal(t, int64(12345), final.BytesDownloaded)
	assert.Equal(t, int64(12345), final.TotalBytes)
}

func TestTrackerSetIsMonotonic(t *testing.T) {
	tracker := NewTracker("file1", 0, nil, false)
	tracker.Set(100)
	tracker.Set(50)
	assert.Equal(t, int64(100), tracker.Bytes())
}

func TestTrackerConcurrentAdds(t *testing.T) {
	seen, cb := collectProgress()
	total := int64(10 * 1024 * 1024)
	tracker := NewTracker("file1", total, cb, false)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1024 {
				tracker.Add(1024)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, total, tracker.Bytes())
	for i := 1; i < len(*seen); i++ {
		assert.GreaterOrEqual(t, (*seen)[i].BytesDownloaded, (*seen)[i-1].BytesDownloaded)
	}
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, float64(0), Progress{BytesDownloaded: 10, TotalBytes: 0}.Percentage())
	assert.InDelta(t, 50.0, Progress{BytesDownloaded: 50, TotalBytes: 100}.Percentage(), 0.001)
	assert.InDelta(t, 100.0, Progress{BytesDownloaded: 100, TotalBytes: 100}.Percentage(), 0.001)
}
