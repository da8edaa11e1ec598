package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/toolchainperf/compilebench/pkg/stats"
)

func main() {
	root := flag.String("root", ".", "directory containing stats-<instance>-<variant> dirs")
	suite := flag.String("suite", "full", "suite part of the variant key")
	branch := flag.String("branch", "", "branch part of the variant key")
	configurations := flag.String("configurations", "debug-batch,release", "comma-separated configuration names")
	flag.Parse()

	if *branch == "" {
		fmt.Fprintln(os.Stderr, "branch is required")
		os.Exit(1)
	}

	classification := stats.FindModuleStatuses(*root, *suite, *branch, strings.Split(*configurations, ","))
	out, err := json.MarshalIndent(classification, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal classification: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	if len(classification.Failed) > 0 {
		os.Exit(1)
	}
}
