package download

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// RangeSupport is the typed outcome of a 1-byte probe request. Fallback to
// single-stream transfer is a branch on Supported, never on an error.
type RangeSupport struct {
	Supported  bool
	TotalBytes int64
	Filename   string
}

// probeDrainLimit caps how much of the probe body is read before closing.
// A ranged reply carries a single byte, so the drain only matters when the
// server ignores the Range header and responds 200 with the whole file.
const probeDrainLimit = 32 * 1024

// probeRange issues a GET with "Range: bytes=0-0" and inspects Content-Range
// ("bytes X-Y/TOTAL") for the total size. A missing or malformed header means
// range requests are unavailable. The suggested filename is extracted as a
// side effect so the destination can be resolved before any bytes land.
func (d *Downloader) probeRange(ctx context.Context, req Request) (RangeSupport, error) {
	headers := map[string]string{"Range": "bytes=0-0"}
	resp, err := d.requester.Request(ctx, http.MethodGet, req.URL, req.Params, headers)
	if err != nil {
		return RangeSupport{}, err
	}
	defer func() {
		// Closing with bytes still unread abandons the connection instead
		// of downloading a full body the fallback will fetch again.
		io.CopyN(io.Discard, resp.Body, probeDrainLimit)
		resp.Body.Close()
	}()

	support := RangeSupport{
		Filename: filenameFromResponse(resp, req.FileGroupID, req.FileDatetime),
	}

	contentRange := resp.Header.Get("Content-Range")
	total, ok := parseContentRangeTotal(contentRange)
	if !ok {
		d.log.Debug().Str("file", req.FileGroupID).Str("contentRange", contentRange).Msg("Range not supported by server")
		return support, nil
	}
	support.Supported = true
	support.TotalBytes = total
	return support, nil
}

func parseContentRangeTotal(contentRange string) (int64, bool) {
	idx := strings.LastIndex(contentRange, "/")
	if contentRange == "" || idx < 0 {
		return 0, false
	}
	sizeStr := strings.TrimSpace(contentRange[idx+1:])
	if sizeStr == "" || sizeStr == "*" {
		return 0, false
	}
	total, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}
