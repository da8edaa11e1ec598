package stats

import (
	"fmt"
	"os"
	"path/filepath"
)

// CollectRecords reads every per-module record in one stats directory.
// Unreadable individual files decode to the failed sentinel; an unreadable
// directory is an error.
func CollectRecords(dir string) (map[string]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read stats dir %s: %w", dir, err)
	}

	records := make(map[string]Record)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		module := ModuleFromFilename(entry.Name())
		if module == "" {
			continue
		}
		records[module] = ReadRecord(filepath.Join(dir, entry.Name()))
	}
	return records, nil
}
