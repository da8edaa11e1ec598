package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/toolchainperf/compilebench/pkg/schema"
)

// CounterProcessFailures is the counter the classifier keys pass/fail on.
const CounterProcessFailures = "Driver.NumProcessFailures"

// Instance identifies one of the two toolchain builds under comparison.
type Instance string

const (
	InstanceOld Instance = "old"
	InstanceNew Instance = "new"
)

// Instances lists both comparison sides in stable order.
var Instances = []Instance{InstanceOld, InstanceNew}

// Stats files are named stats-<pid>-<process>-<module>-<suffix>.json.
var recordFilePattern = regexp.MustCompile(`^stats-\d+-[^-]+-([^-]+)-[^-]+\.json$`)

// Record holds the named counters from one per-module stats file.
type Record struct {
	Counters map[string]int64
}

// Failed reports whether the record's process-failure counter is nonzero.
func (r Record) Failed() bool {
	return r.Counters[CounterProcessFailures] != 0
}

// failedRecord is the fallback for unreadable or invalid stats files.
// The sentinel makes an undecodable record indistinguishable from a failed one.
func failedRecord() Record {
	return Record{Counters: map[string]int64{CounterProcessFailures: 1}}
}

// ModuleFromFilename extracts the module name from a stats file name,
// or "" if the name does not match the record pattern.
func ModuleFromFilename(name string) string {
	match := recordFilePattern.FindStringSubmatch(name)
	if match == nil {
		return ""
	}
	return match[1]
}

// ReadRecord loads one per-module stats file. Unreadable, undecodable, or
// schema-invalid files yield the failed-sentinel record, never an error.
func ReadRecord(path string) Record {
	raw, err := os.ReadFile(path)
	if err != nil {
		return failedRecord()
	}
	if err := schema.ValidateStatsRecord(raw); err != nil {
		return failedRecord()
	}
	var counters map[string]int64
	if err := json.Unmarshal(raw, &counters); err != nil {
		return failedRecord()
	}
	return Record{Counters: counters}
}

// VariantName builds the composite suite+branch+configuration key used to
// name stats directories, table files, and baselines.
func VariantName(suite string, branch string, configuration string) string {
	return fmt.Sprintf("%s-%s-%s", suite, branch, configuration)
}

// DirName names the stats directory for one instance of a variant.
func DirName(instance Instance, variant string) string {
	return fmt.Sprintf("stats-%s-%s", instance, variant)
}
