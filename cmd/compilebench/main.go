package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/toolchainperf/compilebench/pkg/driver"
	"github.com/toolchainperf/compilebench/pkg/drivercfg"
	"github.com/toolchainperf/compilebench/pkg/tracing"
	"github.com/toolchainperf/compilebench/pkg/workspace"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: compilebench [options] <branch>\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("compilebench: ")
	log.SetFlags(0)

	configPath := flag.String("config", "", "driver config YAML path (built-in defaults when empty)")
	reuse := flag.Bool("reuse-workspace", false, "reuse existing instance checkouts instead of cloning")
	skipBuild := flag.Bool("skip-build", false, "skip building the toolchains")
	skipRunner := flag.Bool("skip-runner", false, "skip the benchmark harness, analyze existing stats")
	suite := flag.String("suite", "full", "benchmark suite: full|smoketest")
	sandbox := flag.Bool("sandbox", false, "run the harness under the job sandbox profile")
	reps := flag.Int("reps", 0, "harness repetitions per instance/configuration (0 = suite default)")
	compareBaselines := flag.Bool("compare-baselines", false, "add per-variant baseline comparison sections")
	updateBaselines := flag.Bool("update-baselines", false, "record old-instance stats as the new baselines")
	output := flag.String("output", "", "report output path (default $"+workspace.EnvWorkspace+"/report.md)")
	otlpEndpoint := flag.String("otlp-endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP trace endpoint host:port")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}
	branch := flag.Arg(0)

	cfg := drivercfg.Default()
	if *configPath != "" {
		loaded, err := drivercfg.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = filepath.Join(os.Getenv(workspace.EnvWorkspace), "report.md")
	}

	shutdown, err := tracing.Setup("compilebench", *otlpEndpoint)
	if err != nil {
		log.Fatalf("setup tracer provider: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	d, err := driver.New(driver.Options{
		Branch:           branch,
		Suite:            *suite,
		Config:           cfg,
		ReuseWorkspace:   *reuse,
		SkipBuild:        *skipBuild,
		SkipRunner:       *skipRunner,
		Sandbox:          *sandbox,
		Reps:             *reps,
		CompareBaselines: *compareBaselines,
		UpdateBaselines:  *updateBaselines,
		OutputPath:       outputPath,
	})
	if err != nil {
		log.Fatal(err)
	}

	regressed, err := d.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("report written to %s", outputPath)
	if regressed {
		log.Print("regressions detected")
		os.Exit(1)
	}
}
