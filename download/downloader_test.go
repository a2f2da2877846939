package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRequester satisfies Requester with a plain HTTP client, the way the
// real client forwards query params and per-request headers.
type testRequester struct {
	client *http.Client
}

func (r *testRequester) Request(ctx context.Context, method, rawURL string, params, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return r.client.Do(req)
}

// recordingHandler tracks every Range header the server received.
type recordingHandler struct {
	mu      sync.Mutex
	ranges  []string
	handler http.HandlerFunc
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.ranges = append(h.ranges, r.Header.Get("Range"))
	h.mu.Unlock()
	h.handler(w, r)
}

func (h *recordingHandler) requestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ranges)
}

func (h *recordingHandler) rangeHeaders() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ranges...)
}

func randomPayload(n int) []byte {
	payload := make([]byte, n)
	rng := rand.New(rand.NewSource(42))
	rng.Read(payload)
	return payload
}

// rangeServer honors Range requests via http.ServeContent.
func rangeServer(t *testing.T, payload []byte) (*httptest.Server, *recordingHandler) {
	t.Helper()
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "data.bin", time.Now(), bytes.NewReader(payload))
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return server, h
}

func newTestDownloader(t *testing.T, server *httptest.Server) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := NewDownloader(&testRequester{client: server.Client()}, dir)
	return d, dir
}

func TestDownloadParallelRoundTrip(t *testing.T) {
	payload := randomPayload(12 * 1024 * 1024)
	server, handler := rangeServer(t, payload)
	d, dir := newTestDownloader(t, server)

	req := Request{URL: server.URL, FileGroupID: "BIGFILE", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	assert.Equal(t, int64(len(payload)), result.FileSize)
	assert.Equal(t, int64(len(payload)), result.BytesDownloaded)

	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "reassembled file differs from payload")

	// Probe plus one request per part, no temp file left behind.
	assert.Equal(t, 5, handler.requestCount())
	assert.Equal(t, "bytes=0-0", handler.rangeHeaders()[0])
	_, err = os.Stat(tempPath(result.LocalPath))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, dir, filepath.Dir(result.LocalPath))
}

// countingBody counts the bytes actually read from a response body.
type countingBody struct {
	inner io.ReadCloser
	read  *int64
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)
	*b.read += int64(n)
	return n, err
}

func (b *countingBody) Close() error { return b.inner.Close() }

// probeCountingRequester counts the bytes read from the body of the
// 1-byte probe request, leaving every other request untouched.
type probeCountingRequester struct {
	inner     Requester
	probeRead int64
}

func (r *probeCountingRequester) Request(ctx context.Context, method, rawURL string, params, headers map[string]string) (*http.Response, error) {
	resp, err := r.inner.Request(ctx, method, rawURL, params, headers)
	if err == nil && headers["Range"] == "bytes=0-0" {
		resp.Body = &countingBody{inner: resp.Body, read: &r.probeRead}
	}
	return resp, err
}

// A server that ignores Range headers answers the probe with the whole
// file; the probe must abandon that body rather than read it all and then
// download the file a second time through the fallback.
func TestProbeDoesNotDrainFullBody(t *testing.T) {
	payload := randomPayload(4 * 1024 * 1024)
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	counting := &probeCountingRequester{inner: &testRequester{client: server.Client()}}
	d := NewDownloader(counting, t.TempDir())

	req := Request{URL: server.URL, FileGroupID: "NORANGE", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
	assert.LessOrEqual(t, counting.probeRead, int64(probeDrainLimit),
		"probe read %d of a %d byte body", counting.probeRead, len(payload))
}

func TestDownloadFallsBackWithoutRangeSupport(t *testing.T) {
	payload := randomPayload(256 * 1024)
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		// Full body regardless of any Range header.
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	d, _ := newTestDownloader(t, server)

	req := Request{URL: server.URL, FileGroupID: "NORANGE", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
	// Probe and then one plain GET.
	require.Equal(t, 2, h.requestCount())
	assert.Equal(t, "", h.rangeHeaders()[1])
}

func TestSmallFileUsesSingleStream(t *testing.T) {
	// Range-capable server, but under the 10 MiB parallel cutoff.
	payload := randomPayload(1024 * 1024)
	server, handler := rangeServer(t, payload)
	d, _ := newTestDownloader(t, server)

	req := Request{URL: server.URL, FileGroupID: "SMALL", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
	require.Equal(t, 2, handler.requestCount())
	assert.Equal(t, "", handler.rangeHeaders()[1])
}

// The single-stream cutoff is strictly below 10 MiB; a file of exactly
// that size goes down the parallel path.
func TestExactThresholdUsesParallel(t *testing.T) {
	payload := randomPayload(10 * 1024 * 1024)
	server, handler := rangeServer(t, payload)
	d, _ := newTestDownloader(t, server)

	req := Request{URL: server.URL, FileGroupID: "BOUNDARY", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	assert.Equal(t, int64(len(payload)), result.FileSize)
	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))

	headers := handler.rangeHeaders()
	require.Len(t, headers, 5)
	assert.Equal(t, "bytes=0-0", headers[0])
	for _, h := range headers[1:] {
		assert.Regexp(t, `^bytes=\d+-\d+$`, h)
	}
}

func TestExistingFileIsNotOverwritten(t *testing.T) {
	payload := randomPayload(12 * 1024 * 1024)
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="existing.bin"`)
		http.ServeContent(w, r, "existing.bin", time.Now(), bytes.NewReader(payload))
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	d, dir := newTestDownloader(t, server)

	existing := filepath.Join(dir, "existing.bin")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0644))

	req := Request{URL: server.URL, FileGroupID: "EXISTING", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "FileExistsError")
	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))
	// Only the probe hit the server.
	assert.Equal(t, 1, h.requestCount())
}

func TestOverwriteReplacesExistingFile(t *testing.T) {
	payload := randomPayload(64 * 1024)
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="existing.bin"`)
		http.ServeContent(w, r, "existing.bin", time.Now(), bytes.NewReader(payload))
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	d, dir := newTestDownloader(t, server)

	existing := filepath.Join(dir, "existing.bin")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	opts := DefaultOptions()
	opts.OverwriteExisting = true
	req := Request{URL: server.URL, FileGroupID: "EXISTING", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, opts, 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
}

// A range worker failure after pre-allocation leaves a full-size temp file,
// which the salvage path finalizes rather than discarding.
func TestTruncatedRangeSalvagesPresizedTemp(t *testing.T) {
	payload := randomPayload(12 * 1024 * 1024)
	h := &recordingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "bytes=0-0" {
			http.ServeContent(w, r, "data.bin", time.Now(), bytes.NewReader(payload))
			return
		}
		var start, end int64
		fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(payload)))
		w.WriteHeader(http.StatusPartialContent)
		if start == 0 {
			// Short body so this worker reports a size mismatch.
			w.Write(payload[:100])
			return
		}
		w.Write(payload[start : end+1])
	}}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	d, dir := newTestDownloader(t, server)

	req := Request{URL: server.URL, FileGroupID: "BROKEN", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	assert.Equal(t, int64(len(payload)), result.BytesDownloaded)
	fi, err := os.Stat(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), fi.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".part"), "temp file %s left behind", entry.Name())
	}
}

func TestDownloadProbeFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	d, _ := newTestDownloader(t, server)
	server.Close()

	req := Request{URL: server.URL, FileGroupID: "DEAD", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 4, nil)

	require.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.ErrorMessage)
	assert.Equal(t, int64(0), result.BytesDownloaded)
}

func TestSalvageCompletedTempFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&testRequester{client: http.DefaultClient}, dir)

	destination := filepath.Join(dir, "salvaged.bin")
	temp := tempPath(destination)
	payload := randomPayload(4096)
	require.NoError(t, os.WriteFile(temp, payload, 0644))

	req := Request{FileGroupID: "SALVAGE"}
	result := d.salvageOrFail(req, destination, temp, 4096, 2048, time.Now(), errors.New("worker failed"))

	require.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, int64(4096), result.BytesDownloaded)
	got, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
	_, err = os.Stat(temp)
	assert.True(t, os.IsNotExist(err))
}

func TestSalvageIncompleteTempFileFails(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&testRequester{client: http.DefaultClient}, dir)

	destination := filepath.Join(dir, "short.bin")
	temp := tempPath(destination)
	require.NoError(t, os.WriteFile(temp, make([]byte, 100), 0644))

	req := Request{FileGroupID: "SHORT"}
	cause := errors.New("connection reset")
	result := d.salvageOrFail(req, destination, temp, 4096, 100, time.Now(), cause)

	require.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "connection reset")
	_, err := os.Stat(temp)
	assert.True(t, os.IsNotExist(err), "incomplete temp file must be removed")
	_, err = os.Stat(destination)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadSingleStreamWithExplicitRange(t *testing.T) {
	payload := randomPayload(1024)
	server, handler := rangeServer(t, payload)
	d, _ := newTestDownloader(t, server)

	opts := DefaultOptions()
	opts.RangeStart = 100
	opts.RangeEnd = 199
	req := Request{URL: server.URL, FileGroupID: "PARTIAL", FileDatetime: "20250101"}
	result := d.DownloadSingleStream(context.Background(), req, opts, nil)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	assert.Equal(t, int64(100), result.BytesDownloaded)
	got, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload[100:200], got))
	assert.Equal(t, []string{"bytes=100-199"}, handler.rangeHeaders())
}

func TestDownloadProgressReachesTotal(t *testing.T) {
	payload := randomPayload(12 * 1024 * 1024)
	server, _ := rangeServer(t, payload)
	d, _ := newTestDownloader(t, server)

	var mu sync.Mutex
	var last Progress
	callback := func(p Progress) {
		mu.Lock()
		last = p
		mu.Unlock()
	}

	req := Request{URL: server.URL, FileGroupID: "TRACKED", FileDatetime: "20250101"}
	result := d.Download(context.Background(), req, DefaultOptions(), 3, callback)

	require.Equal(t, StatusCompleted, result.Status, result.ErrorMessage)
	assert.Equal(t, int64(len(payload)), last.BytesDownloaded)
	assert.Equal(t, int64(len(payload)), last.TotalBytes)
	assert.InDelta(t, 100.0, last.Percentage(), 0.001)
}

func TestResolveDestination(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(&testRequester{client: http.DefaultClient}, dir)

	t.Run("explicit file path wins", func(t *testing.T) {
		opts := Options{DestinationPath: filepath.Join(dir, "out", "data.csv"), CreateDirectories: true}
		dest, err := d.resolveDestination(opts, "ID", "probed.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "out", "data.csv"), dest)
		_, err = os.Stat(filepath.Join(dir, "out"))
		assert.NoError(t, err)
	})

	t.Run("directory path joins filename", func(t *testing.T) {
		opts := Options{DestinationPath: dir}
		dest, err := d.resolveDestination(opts, "ID", "probed.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "probed.csv"), dest)
	})

	t.Run("empty path uses default dir", func(t *testing.T) {
		dest, err := d.resolveDestination(Options{}, "ID", "probed.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "probed.csv"), dest)
	})

	t.Run("empty filename falls back to id", func(t *testing.T) {
		dest, err := d.resolveDestination(Options{}, "MYID", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "MYID.bin"), dest)
	})
}
