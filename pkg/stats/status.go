package stats

import (
	"os"
	"path/filepath"
	"sort"
)

// Classification partitions the observed modules into disjoint passed and
// failed sets. Together the two sets cover every module seen in any stats
// directory.
type Classification struct {
	Passed []string `json:"passed"`
	Failed []string `json:"failed"`
}

type comboKey struct {
	configuration string
	instance      Instance
}

// FindModuleStatuses classifies every module observed under root for the
// given configurations. A module passes only if it appears in both instances
// of every configuration with a zero process-failure counter. Modules with a
// nonzero counter, an unreadable record, or missing from any
// (configuration, instance) combination are failed.
func FindModuleStatuses(root string, suite string, branch string, configurations []string) Classification {
	failed := make(map[string]bool)
	seen := make(map[comboKey]map[string]bool)

	for _, configuration := range configurations {
		variant := VariantName(suite, branch, configuration)
		for _, instance := range Instances {
			key := comboKey{configuration, instance}
			seen[key] = make(map[string]bool)

			dir := filepath.Join(root, DirName(instance, variant))
			entries, err := os.ReadDir(dir)
			if err != nil {
				// Missing directory: the presence check below fails
				// every module observed on the other side.
				continue
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				module := ModuleFromFilename(entry.Name())
				if module == "" {
					continue
				}
				seen[key][module] = true
				record := ReadRecord(filepath.Join(dir, entry.Name()))
				if record.Failed() {
					failed[module] = true
				}
			}
		}
	}

	union := make(map[string]bool)
	for _, modules := range seen {
		for module := range modules {
			union[module] = true
		}
	}

	// A module absent from any combination cannot be trusted as passing:
	// one toolchain crashing before emitting stats must not look green.
	for _, modules := range seen {
		for module := range union {
			if !modules[module] {
				failed[module] = true
			}
		}
	}

	classification := Classification{
		Passed: make([]string, 0, len(union)),
		Failed: make([]string, 0, len(failed)),
	}
	for module := range union {
		if failed[module] {
			classification.Failed = append(classification.Failed, module)
		} else {
			classification.Passed = append(classification.Passed, module)
		}
	}
	sort.Strings(classification.Passed)
	sort.Strings(classification.Failed)
	return classification
}
