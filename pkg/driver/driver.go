// Package driver sequences a full comparison run: provision both instances,
// build, benchmark, classify, generate delta tables, and assemble the report.
package driver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/toolchainperf/compilebench/pkg/baseline"
	"github.com/toolchainperf/compilebench/pkg/delta"
	"github.com/toolchainperf/compilebench/pkg/drivercfg"
	"github.com/toolchainperf/compilebench/pkg/metrics"
	"github.com/toolchainperf/compilebench/pkg/notify"
	"github.com/toolchainperf/compilebench/pkg/report"
	"github.com/toolchainperf/compilebench/pkg/runner"
	"github.com/toolchainperf/compilebench/pkg/schema"
	"github.com/toolchainperf/compilebench/pkg/stats"
	"github.com/toolchainperf/compilebench/pkg/workspace"
)

// Options selects what one driver run does.
type Options struct {
	Branch           string
	Suite            string
	Config           drivercfg.DriverConfig
	ReuseWorkspace   bool
	SkipBuild        bool
	SkipRunner       bool
	Sandbox          bool
	Reps             int // 0 uses the suite default
	CompareBaselines bool
	UpdateBaselines  bool
	OutputPath       string
}

// Driver owns the collaborators of one run. Tests swap in fakes.
type Driver struct {
	Opts      Options
	Workspace *workspace.Workspace
	Harness   *runner.Harness
	Delta     *delta.Tool
	Metrics   *metrics.DriverMetrics
	Notifier  *notify.Exporter
	Log       *log.Logger

	tracer trace.Tracer
}

// New wires a driver from config and CI environment. Host prerequisite
// blockers and a missing workspace are fatal here, before any phase runs.
func New(opts Options) (*Driver, error) {
	cfg := opts.Config

	check := workspace.Evaluate(workspace.CollectSnapshot(cfg.Tools.Harness, cfg.Tools.DeltaTool))
	if !check.Pass {
		detail, _ := workspace.MarshalCheckReport(check)
		return nil, fmt.Errorf("host prerequisites not met:\n%s", detail)
	}

	ws, err := workspace.FromEnv(cfg.Source.RepoURL)
	if err != nil {
		return nil, err
	}

	harness := &runner.Harness{Bin: cfg.Tools.Harness}
	if opts.Sandbox {
		harness.SandboxProfile = ws.SandboxProfile()
	}

	d := &Driver{
		Opts:      opts,
		Workspace: ws,
		Harness:   harness,
		Delta: &delta.Tool{
			Path:      cfg.Tools.DeltaTool,
			DeltaPct:  cfg.Thresholds.DeltaPct,
			DeltaUsec: cfg.Thresholds.DeltaUsec,
		},
		Metrics: metrics.New(),
		Log:     log.New(os.Stderr, "compilebench: ", 0),
	}
	if cfg.Notify.WebhookURL != "" {
		d.Notifier = notify.New(cfg.Notify.WebhookURL, cfg.Notify.Secret, cfg.Notify.TimeoutMS)
	}
	return d, nil
}

// Run executes all phases sequentially and reports whether any regression
// was detected. The caller maps the boolean to the process exit code.
func (d *Driver) Run(ctx context.Context) (bool, error) {
	if d.tracer == nil {
		d.tracer = otel.Tracer("compilebench/driver")
	}
	cfg := d.Opts.Config
	suite, ok := cfg.Suites[d.Opts.Suite]
	if !ok {
		return false, fmt.Errorf("unknown suite %q", d.Opts.Suite)
	}
	reps := d.Opts.Reps
	if reps <= 0 {
		reps = suite.Repetitions
	}

	refs := map[stats.Instance]string{
		stats.InstanceOld: cfg.Source.OldRef,
		stats.InstanceNew: d.Opts.Branch,
	}

	err := d.phase(ctx, "provision", func(ctx context.Context) error {
		for _, instance := range stats.Instances {
			if err := d.Workspace.Provision(ctx, instance, refs[instance], d.Opts.ReuseWorkspace); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if !d.Opts.SkipBuild {
		err = d.phase(ctx, "build", func(ctx context.Context) error {
			for _, instance := range stats.Instances {
				if err := d.Workspace.Build(ctx, instance, cfg.Tools.BuildCmd); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return false, err
		}
	}

	if !d.Opts.SkipRunner {
		err = d.phase(ctx, "bench", func(ctx context.Context) error {
			return d.runBenchmarks(ctx, suite, reps)
		})
		if err != nil {
			return false, err
		}
	}

	var classification stats.Classification
	_ = d.phase(ctx, "analyze", func(context.Context) error {
		classification = stats.FindModuleStatuses(
			d.Workspace.Root, d.Opts.Suite, d.Opts.Branch, cfg.Configurations)
		d.Metrics.SetClassification(len(classification.Passed), len(classification.Failed))
		return nil
	})

	var sections []report.Section
	_ = d.phase(ctx, "delta", func(ctx context.Context) error {
		sections = d.generateTables(ctx)
		return nil
	})

	if d.Opts.UpdateBaselines {
		err = d.phase(ctx, "baselines", func(context.Context) error {
			return d.updateBaselines()
		})
		if err != nil {
			return false, err
		}
	}

	var regressed bool
	err = d.phase(ctx, "report", func(context.Context) error {
		out, err := os.Create(d.Opts.OutputPath)
		if err != nil {
			return fmt.Errorf("create report %s: %w", d.Opts.OutputPath, err)
		}
		defer out.Close()
		return d.writeReport(out, classification, sections, &regressed)
	})
	if err != nil {
		return false, err
	}
	d.Metrics.SetRegressed(regressed)

	if d.Notifier != nil {
		if err := d.Notifier.Send(schema.RegressionNotice{
			Branch:        d.Opts.Branch,
			Suite:         d.Opts.Suite,
			Timestamp:     time.Now().UTC(),
			Regressed:     regressed,
			FailedModules: classification.Failed,
			ReportPath:    d.Opts.OutputPath,
		}); err != nil {
			d.Log.Printf("notify: %v", err)
		}
	}
	if err := d.Metrics.Push(cfg.Push.GatewayURL, d.Workspace.JobName, d.Opts.Branch); err != nil {
		d.Log.Printf("metrics: %v", err)
	}

	return regressed, nil
}

func (d *Driver) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := d.tracer.Start(ctx, "phase."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	d.Metrics.ObservePhase(name, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (d *Driver) runBenchmarks(ctx context.Context, suite drivercfg.Suite, reps int) error {
	cfg := d.Opts.Config
	for _, configuration := range cfg.Configurations {
		variant := stats.VariantName(d.Opts.Suite, d.Opts.Branch, configuration)
		for _, instance := range stats.Instances {
			inv := runner.Invocation{
				Toolchain: d.Workspace.ToolchainBin(instance),
				CorpusDir: filepath.Join(d.Workspace.InstanceDir(instance), cfg.Source.CorpusPath),
				Subset:    suite.CorpusSubset,
				StatsDir:  filepath.Join(d.Workspace.Root, stats.DirName(instance, variant)),
			}
			swallowed := d.Harness.Run(ctx, inv, reps)
			for _, repErr := range swallowed {
				d.Log.Printf("%s %s: %v", instance, configuration, repErr)
			}
			d.Metrics.AddHarnessFailures(len(swallowed))
		}
	}
	return nil
}

// generateTables invokes the delta tool per (configuration, reference,
// statistic). Tool failures are collected into the section's exit codes and
// never abort assembly.
func (d *Driver) generateTables(ctx context.Context) []report.Section {
	cfg := d.Opts.Config
	sections := make([]report.Section, 0, len(cfg.Configurations))

	for _, configuration := range cfg.Configurations {
		variant := stats.VariantName(d.Opts.Suite, d.Opts.Branch, configuration)
		oldDir := filepath.Join(d.Workspace.Root, stats.DirName(stats.InstanceOld, variant))
		newDir := filepath.Join(d.Workspace.Root, stats.DirName(stats.InstanceNew, variant))

		head := report.Reference{Name: "head"}
		for _, stat := range cfg.Thresholds.SelectStats {
			outFile := filepath.Join(d.Workspace.Root, fmt.Sprintf("%s-head-%s.md", variant, stat))
			code, err := d.Delta.Generate(ctx, delta.Request{
				SelectStat: stat,
				OldPath:    oldDir,
				NewPath:    newDir,
				OutFile:    outFile,
			})
			if err != nil {
				d.Log.Printf("delta %s %s: %v", variant, stat, err)
			}
			head.Subsets = append(head.Subsets, report.Subset{Name: stat, TableFile: outFile, ToolExit: code})
		}
		section := report.Section{Configuration: configuration, References: []report.Reference{head}}

		if d.Opts.CompareBaselines {
			ref := report.Reference{Name: "baseline"}
			baselineDir := filepath.Join(d.Workspace.Root, "baselines")
			for _, stat := range cfg.Thresholds.SelectStats {
				subset := report.Subset{Name: stat}
				if baseline.Exists(baselineDir, variant) {
					outFile := filepath.Join(d.Workspace.Root, fmt.Sprintf("%s-baseline-%s.md", variant, stat))
					code, err := d.Delta.Generate(ctx, delta.Request{
						SelectStat:  stat,
						OldPath:     newDir,
						BaselineCSV: baseline.Path(baselineDir, variant),
						OutFile:     outFile,
					})
					if err != nil {
						d.Log.Printf("baseline delta %s %s: %v", variant, stat, err)
					}
					subset.TableFile = outFile
					subset.ToolExit = code
				}
				ref.Subsets = append(ref.Subsets, subset)
			}
			section.References = append(section.References, ref)
		}

		sections = append(sections, section)
	}
	return sections
}

func (d *Driver) updateBaselines() error {
	cfg := d.Opts.Config
	baselineDir := filepath.Join(d.Workspace.Root, "baselines")
	for _, configuration := range cfg.Configurations {
		variant := stats.VariantName(d.Opts.Suite, d.Opts.Branch, configuration)
		dir := filepath.Join(d.Workspace.Root, stats.DirName(stats.InstanceOld, variant))
		records, err := stats.CollectRecords(dir)
		if err != nil {
			return err
		}
		if err := baseline.Write(baseline.Path(baselineDir, variant), records); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) writeReport(out io.Writer, classification stats.Classification, sections []report.Section, regressed *bool) error {
	assembler := report.New(d.Opts.Branch, d.Opts.Suite)
	assembler.FailedModules = classification.Failed
	result, err := assembler.Write(out, sections)
	if err != nil {
		return err
	}
	*regressed = result
	return nil
}
