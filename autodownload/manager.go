package autodownload

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dataquery-sdk/dataquery/client"
	"github.com/dataquery-sdk/dataquery/download"
	"github.com/dataquery-sdk/dataquery/utils"
)

// Client is the slice of the DataQuery client the manager needs.
type Client interface {
	ListAvailableFiles(ctx context.Context, groupID, fileGroupID, startDate, endDate string) ([]client.AvailableFile, error)
	CheckAvailability(ctx context.Context, fileGroupID, fileDatetime string) (*client.AvailabilityInfo, error)
	DownloadFile(ctx context.Context, fileGroupID, fileDatetime string, opts download.Options, numParts int, callback download.Callback) (download.Result, error)
}

// Archiver receives completed downloads, e.g. for S3 upload. Archive
// failures never fail the download that produced the file.
type Archiver interface {
	Archive(ctx context.Context, localPath string) error
}

// Config controls the polling loop watching one data group.
type Config struct {
	GroupID        string
	DestinationDir string

	// Interval between polling cycles; the first cycle runs immediately.
	// Zero means 30 minutes.
	Interval time.Duration

	// FileFilter skips files entirely; filtered files never touch the
	// retry or downloaded bookkeeping.
	FileFilter func(client.AvailableFile) bool

	ProgressCallback download.Callback
	ErrorCallback    func(error)

	// MaxRetries caps recorded failures per file+date key; zero means 3.
	MaxRetries int

	// IncludePreviousDays extends each cycle to today plus the two
	// previous days. Default is the current date only.
	IncludePreviousDays bool

	// NumParts for each delegated download; zero uses the downloader default.
	NumParts int

	Archiver Archiver
}

// Stats aggregates one manager's activity since creation.
type Stats struct {
	FilesDownloaded      int
	FilesSkipped         int
	DownloadFailures     int
	ArchiveFailures      int
	TotalBytesDownloaded int64
	ChecksPerformed      int
	LastCheck            time.Time
}

// Manager polls a group for new files and downloads the ones not yet seen.
// Bookkeeping is process-local: after a restart only the on-disk filename
// heuristic prevents re-downloads.
type Manager struct {
	client Client
	cfg    Config
	log    zerolog.Logger

	mu         sync.Mutex
	downloaded map[string]struct{}
	failed     map[string]int
	stats      Stats
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

func New(cli Client, cfg Config) (*Manager, error) {
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("auto-download requires a group id")
	}
	if cfg.DestinationDir == "" {
		cfg.DestinationDir = "./downloads"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if err := os.MkdirAll(cfg.DestinationDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating destination directory: %w", err)
	}
	return &Manager{
		client:     cli,
		cfg:        cfg,
		log:        utils.GetLogger("auto-download").With().Str("groupId", cfg.GroupID).Logger(),
		downloaded: make(map[string]struct{}),
		failed:     make(map[string]int),
	}, nil
}

// Start creates a manager and begins polling immediately.
func Start(ctx context.Context, cli Client, cfg Config) (*Manager, error) {
	m, err := New(cli, cfg)
	if err != nil {
		return nil, err
	}
	m.Run(ctx)
	return m, nil
}

// Run starts the background polling loop. Calling Run while running is a
// no-op.
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.log.Info().Dur("interval", m.cfg.Interval).Msg("Auto-download started")
	go m.loop(ctx)
}

// Stop signals the loop and waits for the current iteration to finish. It
// does not cancel an in-flight download. Stopping a stopped manager is a
// no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()
	<-done
	m.log.Info().Msg("Auto-download stopped")
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// GetDownloadedFiles returns the file+date keys downloaded this session.
func (m *Manager) GetDownloadedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.downloaded))
	for k := range m.downloaded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetFailedFiles returns a copy of the per-key failure counts.
func (m *Manager) GetFailedFiles() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	failed := make(map[string]int, len(m.failed))
	for k, v := range m.failed {
		failed[k] = v
	}
	return failed
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.doneCh)
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()
	for {
		if err := m.checkAndDownload(ctx); err != nil {
			m.log.Error().Err(err).Msg("Auto-download cycle failed")
			if m.cfg.ErrorCallback != nil {
				m.cfg.ErrorCallback(err)
			}
		}
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.Interval):
		}
	}
}

// checkAndDownload runs one polling cycle. A returned error is a cycle-level
// failure (listing); per-file failures are isolated inside downloadOne.
func (m *Manager) checkAndDownload(ctx context.Context) error {
	m.mu.Lock()
	m.stats.ChecksPerformed++
	m.stats.LastCheck = time.Now()
	m.mu.Unlock()

	for _, date := range m.datesToCheck() {
		files, err := m.client.ListAvailableFiles(ctx, m.cfg.GroupID, "", date, date)
		if err != nil {
			return fmt.Errorf("error listing available files for %s: %w", date, err)
		}
		for _, f := range files {
			if !f.IsAvailable {
				continue
			}
			if m.cfg.FileFilter != nil && !m.cfg.FileFilter(f) {
				continue
			}
			key := fileKey(f.FileGroupID, date)
			if m.alreadyHandled(f.FileGroupID, date, key) {
				continue
			}
			m.downloadOne(ctx, f.FileGroupID, date, key)
		}
	}
	return nil
}

// alreadyHandled applies the skip rules that avoid network calls entirely:
// downloaded this session, retries exhausted, or a matching file on disk.
func (m *Manager) alreadyHandled(fileGroupID, date, key string) bool {
	m.mu.Lock()
	if _, ok := m.downloaded[key]; ok {
		m.mu.Unlock()
		return true
	}
	if m.failed[key] >= m.cfg.MaxRetries {
		m.mu.Unlock()
		m.log.Debug().Str("key", key).Msg("Retry limit reached, skipping")
		return true
	}
	m.mu.Unlock()

	if m.fileExistsLocally(fileGroupID, date) {
		m.mu.Lock()
		m.downloaded[key] = struct{}{}
		m.stats.FilesSkipped++
		m.mu.Unlock()
		m.log.Debug().Str("key", key).Msg("File already present locally, skipping")
		return true
	}
	return false
}

// downloadOne isolates one file's availability check and download so a
// failure never aborts the rest of the cycle.
func (m *Manager) downloadOne(ctx context.Context, fileGroupID, date, key string) {
	avail, err := m.client.CheckAvailability(ctx, fileGroupID, date)
	if err != nil {
		if client.IsNotFound(err) {
			// Not yet published; no failure counted.
			return
		}
		m.log.Error().Err(err).Str("key", key).Msg("Availability check failed")
		return
	}
	if !avail.IsAvailable {
		return
	}
	if err := m.downloadFile(ctx, fileGroupID, date, key); err != nil {
		m.log.Error().Err(err).Str("key", key).Msg("Download failed")
	}
}

// downloadFile records stats before propagating any failure to the caller.
func (m *Manager) downloadFile(ctx context.Context, fileGroupID, date, key string) error {
	opts := download.DefaultOptions()
	opts.DestinationPath = m.cfg.DestinationDir

	result, err := m.client.DownloadFile(ctx, fileGroupID, date, opts, m.cfg.NumParts, m.cfg.ProgressCallback)
	if err != nil || !result.Succeeded() {
		m.mu.Lock()
		m.failed[key]++
		m.stats.DownloadFailures++
		m.mu.Unlock()
		if err != nil {
			return err
		}
		return fmt.Errorf("download failed for %s: %s", key, result.ErrorMessage)
	}

	m.mu.Lock()
	m.downloaded[key] = struct{}{}
	m.stats.FilesDownloaded++
	m.stats.TotalBytesDownloaded += result.BytesDownloaded
	m.mu.Unlock()
	m.log.Info().Str("key", key).Str("path", result.LocalPath).Int64("bytes", result.BytesDownloaded).Msg("File downloaded")

	if m.cfg.Archiver != nil {
		if aerr := m.cfg.Archiver.Archive(ctx, result.LocalPath); aerr != nil {
			m.mu.Lock()
			m.stats.ArchiveFailures++
			m.mu.Unlock()
			m.log.Error().Err(aerr).Str("path", result.LocalPath).Msg("Archive failed")
			if m.cfg.ErrorCallback != nil {
				m.cfg.ErrorCallback(aerr)
			}
		}
	}
	return nil
}

// fileExistsLocally checks the destination directory for a filename
// containing both the file id and the date.
func (m *Manager) fileExistsLocally(fileGroupID, date string) bool {
	entries, err := os.ReadDir(m.cfg.DestinationDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, fileGroupID) && strings.Contains(name, date) {
			return true
		}
	}
	return false
}

func (m *Manager) datesToCheck() []string {
	now := time.Now()
	dates := []string{now.Format("20060102")}
	if m.cfg.IncludePreviousDays {
		dates = append(dates,
			now.AddDate(0, 0, -1).Format("20060102"),
			now.AddDate(0, 0, -2).Format("20060102"),
		)
	}
	return dates
}

func fileKey(fileGroupID, date string) string {
	return fileGroupID + "_" + date
}
