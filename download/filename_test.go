package download

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func responseWithHeaders(headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{Header: h}
}

func TestFilenameFromContentDisposition(t *testing.T) {
	resp := responseWithHeaders(map[string]string{
		"Content-Disposition": `attachment; filename="prices_20250101.csv"`,
	})
	assert.Equal(t, "prices_20250101.csv", filenameFromResponse(resp, "PRICES", "20250101"))
}

func TestFilenameSanitizesDisposition(t *testing.T) {
	resp := responseWithHeaders(map[string]string{
		"Content-Disposition": `attachment; filename="../../etc/passwd"`,
	})
	name := filenameFromResponse(resp, "PRICES", "20250101")
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "\\")
	assert.Equal(t, ".._.._etc_passwd", name)
}

func TestFilenameFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"text/csv", "PRICES_20250101.csv"},
		{"application/json; charset=utf-8", "PRICES_20250101.json"},
		{"application/zip", "PRICES_20250101.zip"},
		{"application/octet-stream", "PRICES_20250101.bin"},
	}
	for _, tt := range tests {
		resp := responseWithHeaders(map[string]string{"Content-Type": tt.contentType})
		assert.Equal(t, tt.want, filenameFromResponse(resp, "PRICES", "20250101"))
	}
}

func TestFilenameFallsBackToFileGroupID(t *testing.T) {
	resp := responseWithHeaders(nil)
	// The id itself carries the extension.
	assert.Equal(t, "DATA_prices_20250101.csv", filenameFromResponse(resp, "DATA_prices.csv", "20250101"))
}

func TestFilenameWithoutDatetime(t *testing.T) {
	resp := responseWithHeaders(map[string]string{"Content-Type": "text/csv"})
	assert.Equal(t, "PRICES.csv", filenameFromResponse(resp, "PRICES", ""))
}

func TestDispositionFilename(t *testing.T) {
	assert.Equal(t, "", dispositionFilename(""))
	assert.Equal(t, "", dispositionFilename("not a header"))
	assert.Equal(t, "data.csv", dispositionFilename(`attachment; filename=data.csv`))
	// mime.ParseMediaType decodes the RFC 5987 form; the sanitizer then
	// replaces the non-ASCII rune.
	assert.Equal(t, "na_ve.csv", dispositionFilename(`attachment; filename*=UTF-8''na%C3%AFve.csv`))
}
