// Package baseline persists per-variant counter baselines as CSV files.
// The delta tool consumes them for the baseline-comparison appendix.
package baseline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/toolchainperf/compilebench/pkg/stats"
)

// Path names the baseline CSV for one variant.
func Path(dir string, variant string) string {
	return filepath.Join(dir, variant+".csv")
}

// Exists reports whether a baseline has been recorded for the variant.
func Exists(dir string, variant string) bool {
	_, err := os.Stat(Path(dir, variant))
	return err == nil
}

// Write records one variant's per-module counters. Rows are sorted by module
// then counter so baselines diff cleanly in source control.
func Write(path string, records map[string]stats.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create baseline csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"module", "counter", "value"}); err != nil {
		return err
	}

	modules := make([]string, 0, len(records))
	for module := range records {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	for _, module := range modules {
		counters := records[module].Counters
		names := make([]string, 0, len(counters))
		for name := range counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row := []string{module, name, strconv.FormatInt(counters[name], 10)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	return writer.Error()
}

// Read loads a baseline CSV back into per-module counters.
func Read(path string) (map[string]stats.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open baseline csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse baseline csv: %w", err)
	}

	records := make(map[string]stats.Record)
	for idx, row := range rows {
		if idx == 0 {
			continue // header
		}
		if len(row) != 3 {
			return nil, fmt.Errorf("baseline row %d: expected 3 fields, got %d", idx, len(row))
		}
		value, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("baseline row %d: parse value %q: %w", idx, row[2], err)
		}
		record, ok := records[row[0]]
		if !ok {
			record = stats.Record{Counters: make(map[string]int64)}
			records[row[0]] = record
		}
		record.Counters[row[1]] = value
	}
	return records, nil
}
