package service

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// discardLocal removes uploaded temp files. Failures are logged, never
// returned: the operation result has already been decided.
func discardLocal(paths ...string) {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("local upload cleanup failed", "path", path, "error", err)
		}
	}
}
