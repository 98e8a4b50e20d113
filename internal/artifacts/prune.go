package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PruneRunDirs deletes per-run capture directories under root whose contents
// are older than keepDays. Only direct subdirectories are considered; loose
// files at the root are left alone. A keepDays of zero or less is a no-op.
func PruneRunDirs(root string, keepDays int, log Logger) {
	if keepDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays)

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) && log != nil {
			log.LogWarn(fmt.Sprintf("scan artifacts dir: %v", err))
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil && log != nil {
			log.LogWarn(fmt.Sprintf("prune artifacts %s: %v", path, err))
		}
	}
}
