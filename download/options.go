package download

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Options configures a single download invocation. The zero value is usable;
// copies with field overrides give per-call variants.
type Options struct {
	// DestinationPath is a file path (when it carries an extension) or a
	// directory the resolved filename is placed in. Empty means the
	// downloader's default directory.
	DestinationPath   string
	OverwriteExisting bool
	CreateDirectories bool

	// ChunkSize is the streaming read size; 0 means the 1 MiB default.
	ChunkSize int64

	// Explicit sub-range for single-stream partial-content fetches.
	// RangeHeader wins over RangeStart/RangeEnd; RangeStart < 0 means unset.
	RangeHeader string
	RangeStart  int64
	RangeEnd    int64

	ShowProgress bool
}

// DefaultOptions returns Options with the range fields unset.
func DefaultOptions() Options {
	return Options{RangeStart: -1, RangeEnd: -1, CreateDirectories: true}
}

func (o Options) rangeHeader() string {
	if o.RangeHeader != "" {
		return o.RangeHeader
	}
	if o.RangeStart >= 0 {
		if o.RangeEnd >= o.RangeStart {
			return fmt.Sprintf("bytes=%d-%d", o.RangeStart, o.RangeEnd)
		}
		return fmt.Sprintf("bytes=%d-", o.RangeStart)
	}
	return ""
}

// Result is the terminal record of one download attempt.
type Result struct {
	ID              string
	FileGroupID     string
	GroupID         string
	LocalPath       string
	FileSize        int64
	DownloadTime    time.Duration
	BytesDownloaded int64
	Status          Status
	ErrorMessage    string
}

func (r Result) Succeeded() bool {
	return r.Status == StatusCompleted
}

// FileExistsError reports a destination that already exists while
// overwriting is disabled. No bytes are written in that case.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

// errorMessage renders an error as "<Type>: <message>" for Result records.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	switch name {
	case "errorString", "wrapError", "joinError":
		name = "Error"
	}
	return fmt.Sprintf("%s: %v", name, err)
}
