// Package filex holds small filesystem and file-size helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates base/name (including parents) if needed and returns its
// path. An empty base means the current working directory.
func EnsureDir(base, name string) (string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dir := filepath.Join(base, name)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count for people: "0 B", "512 B", "1.0 KB",
// "2.4 MB". Negative values (a size that grew) keep their sign.
func FormatFileSize(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	if n < 1024 {
		return fmt.Sprintf("%s%d B", sign, n)
	}

	value := float64(n) / 1024
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%s%.1f %s", sign, value, sizeUnits[unit])
}
