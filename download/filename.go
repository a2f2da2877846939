package download

import (
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/dataquery-sdk/dataquery/utils"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// filenameFromResponse resolves the name a download should land under:
// Content-Disposition filename (or RFC 5987 filename*), then a
// Content-Type-based extension, then the file-group id itself.
func filenameFromResponse(resp *http.Response, fileGroupID, fileDatetime string) string {
	if name := dispositionFilename(resp.Header.Get("Content-Disposition")); name != "" {
		return name
	}

	ext := extensionFromContentType(resp.Header.Get("Content-Type"))
	if ext == "" {
		ext = utils.FileExtensionFromID(fileGroupID)
	}
	base := filenameSanitizer.ReplaceAllString(fileGroupID, "_")
	base = strings.TrimSuffix(base, ext)
	if fileDatetime != "" {
		return base + "_" + fileDatetime + ext
	}
	return base + ext
}

func dispositionFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	if fn, ok := params["filename"]; ok && fn != "" {
		return filenameSanitizer.ReplaceAllString(fn, "_")
	}
	if fn, ok := params["filename*"]; ok && strings.HasPrefix(fn, "UTF-8''") {
		unescaped, err := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
		if err != nil {
			return ""
		}
		return filenameSanitizer.ReplaceAllString(unescaped, "_")
	}
	return ""
}

var contentTypeExtensions = map[string]string{
	"text/csv":                 ".csv",
	"application/json":         ".json",
	"application/zip":          ".zip",
	"application/gzip":         ".gz",
	"text/plain":               ".txt",
	"application/octet-stream": ".bin",
	"application/parquet":      ".parquet",
}

func extensionFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return contentTypeExtensions[strings.ToLower(mediaType)]
}
