package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
		{1099511627776, "1.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 30s", FormatDuration(150*time.Second))
	assert.Equal(t, "1h 1m 5s", FormatDuration(time.Hour+time.Minute+5*time.Second))
}

func TestValidateFileDatetime(t *testing.T) {
	valid := []string{"20250101", "20250101T1230", "20250101T123045"}
	for _, v := range valid {
		assert.NoError(t, ValidateFileDatetime(v), v)
	}

	invalid := []string{"", "2025", "20251301", "20250101T2560", "2025-01-01", "yesterday"}
	for _, v := range invalid {
		assert.Error(t, ValidateFileDatetime(v), v)
	}
}

func TestFileExtensionFromID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"", ".bin"},
		{"PRICES", ".bin"},
		{"prices.csv", ".csv"},
		{"archive.tar.gz", ".gz"},
		{"../evil.csv", ".bin"},
		{"dir/evil.csv", ".bin"},
		{"evil%2Fdata.csv", ".bin"},
		{".hidden", ".bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileExtensionFromID(tt.id), "id %q", tt.id)
	}
}

func TestParseHeaderArgs(t *testing.T) {
	headers := ParseHeaderArgs([]string{
		"Authorization: Bearer token",
		"X-Custom:value",
		"malformed-no-colon",
		"Empty-Value:",
	})
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer token",
		"X-Custom":      "value",
		"Empty-Value":   "",
	}, headers)
}
