package download

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dataquery-sdk/dataquery/utils"
)

// Requester performs an authenticated HTTP request against the DataQuery
// file endpoints. Implementations own auth, rate limiting, and retries;
// the downloader never retries internally.
type Requester interface {
	Request(ctx context.Context, method, url string, params, headers map[string]string) (*http.Response, error)
}

// Request identifies the remote file a download targets.
type Request struct {
	URL          string
	Params       map[string]string
	FileGroupID  string
	FileDatetime string
	GroupID      string
}

// Downloader transfers DataQuery files to the local filesystem, preferring
// parallel range requests and falling back to a single stream.
type Downloader struct {
	requester  Requester
	defaultDir string
	log        zerolog.Logger
}

func NewDownloader(requester Requester, defaultDir string) *Downloader {
	if defaultDir == "" {
		defaultDir = "./downloads"
	}
	return &Downloader{
		requester:  requester,
		defaultDir: defaultDir,
		log:        utils.GetLogger("downloader"),
	}
}

// resolveDestination maps Options and a probed filename to the final path.
// A DestinationPath with an extension is treated as the full file path,
// otherwise as a directory for the resolved filename.
func (d *Downloader) resolveDestination(opts Options, fileGroupID, filename string) (string, error) {
	if filename == "" {
		filename = fileGroupID + ".bin"
	}
	var destination, destinationDir string
	if opts.DestinationPath != "" {
		if filepath.Ext(opts.DestinationPath) != "" {
			destination = opts.DestinationPath
			destinationDir = filepath.Dir(opts.DestinationPath)
		} else {
			destinationDir = opts.DestinationPath
			destination = filepath.Join(destinationDir, filename)
		}
	} else {
		destinationDir = d.defaultDir
		destination = filepath.Join(destinationDir, filename)
	}
	if opts.CreateDirectories {
		if err := os.MkdirAll(destinationDir, 0755); err != nil {
			return "", err
		}
	}
	return destination, nil
}

func (d *Downloader) newResult(req Request, destination string, fileSize, bytesDownloaded int64, start time.Time, status Status, err error) Result {
	if destination == "" {
		destination = filepath.Join(d.defaultDir, req.FileGroupID+".tmp")
	}
	return Result{
		ID:              uuid.NewString(),
		FileGroupID:     req.FileGroupID,
		GroupID:         req.GroupID,
		LocalPath:       destination,
		FileSize:        fileSize,
		DownloadTime:    time.Since(start),
		BytesDownloaded: bytesDownloaded,
		Status:          status,
		ErrorMessage:    errorMessage(err),
	}
}

func tempPath(destination string) string {
	return destination + ".part"
}
