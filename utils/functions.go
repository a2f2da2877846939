package utils

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// FormatSize renders a byte count for log and progress output.
func FormatSize(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
	)
	switch {
	case b >= tb:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(tb))
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

var fileDatetimeLayouts = []string{"20060102", "20060102T1504", "20060102T150405"}

// ValidateFileDatetime accepts YYYYMMDD, YYYYMMDDTHHMM, or YYYYMMDDTHHMMSS.
func ValidateFileDatetime(value string) error {
	for _, layout := range fileDatetimeLayouts {
		if len(value) != len(layout) {
			continue
		}
		if _, err := time.Parse(layout, value); err == nil {
			return nil
		}
	}
	return fmt.Errorf("invalid file datetime %q: expected YYYYMMDD, YYYYMMDDTHHMM, or YYYYMMDDTHHMMSS", value)
}

// FileExtensionFromID extracts a usable extension from a file-group id,
// refusing ids that smell like path traversal.
func FileExtensionFromID(fileGroupID string) string {
	if fileGroupID == "" {
		return ".bin"
	}
	for _, pattern := range []string{"..", "/", "\\", "%2F", "%5C"} {
		if strings.Contains(fileGroupID, pattern) {
			return ".bin"
		}
	}
	base := path.Base(fileGroupID)
	if idx := strings.LastIndex(base, "."); idx > 0 && idx < len(base)-1 {
		return base[idx:]
	}
	return ".bin"
}

// ParseHeaderArgs converts "Key: Value" strings into a header map.
func ParseHeaderArgs(headers []string) map[string]string {
	parsed := make(map[string]string)
	for _, h := range headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed
}
