package drivercfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DriverConfig mirrors config/driver.yaml.
type DriverConfig struct {
	APIVersion     string           `yaml:"apiVersion"`
	Kind           string           `yaml:"kind"`
	Configurations []string         `yaml:"configurations"`
	Suites         map[string]Suite `yaml:"suites"`
	Thresholds     ThresholdConfig  `yaml:"thresholds"`
	Tools          ToolConfig       `yaml:"tools"`
	Source         SourceConfig     `yaml:"source"`
	Push           PushConfig       `yaml:"push"`
	Notify         NotifyConfig     `yaml:"notify"`
	OTLP           OTLPConfig       `yaml:"otlp"`
}

// Suite selects a corpus subset and repetition count.
type Suite struct {
	CorpusSubset string `yaml:"corpus_subset"`
	Repetitions  int    `yaml:"repetitions"`
}

// ThresholdConfig holds the fixed regression thresholds handed to the delta tool.
type ThresholdConfig struct {
	DeltaPct    float64  `yaml:"delta_pct"`
	DeltaUsec   float64  `yaml:"delta_usec"`
	SelectStats []string `yaml:"select_stats"`
}

// ToolConfig names the external collaborators the driver shells out to.
type ToolConfig struct {
	Git       string `yaml:"git"`
	BuildCmd  string `yaml:"build_cmd"`
	Harness   string `yaml:"harness"`
	DeltaTool string `yaml:"delta_tool"`
}

// SourceConfig identifies the compiler repository being compared.
type SourceConfig struct {
	RepoURL    string `yaml:"repo_url"`
	OldRef     string `yaml:"old_ref"`
	CorpusPath string `yaml:"corpus_path"`
}

// PushConfig configures the optional Pushgateway destination.
type PushConfig struct {
	GatewayURL string `yaml:"gateway_url"`
}

// NotifyConfig configures the optional regression webhook.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Secret     string `yaml:"secret"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

// OTLPConfig contains collector endpoint settings.
type OTLPConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// Default returns v1alpha1 defaults.
func Default() DriverConfig {
	return DriverConfig{
		APIVersion:     "compilebench.dev/v1alpha1",
		Kind:           "DriverConfig",
		Configurations: []string{"debug-batch", "release"},
		Suites: map[string]Suite{
			"full":      {CorpusSubset: "", Repetitions: 3},
			"smoketest": {CorpusSubset: "smoketest", Repetitions: 1},
		},
		Thresholds: ThresholdConfig{
			DeltaPct:  5,
			DeltaUsec: 100000,
			SelectStats: []string{
				"time.wall",
				"time.frontend.wall",
				"mem.peak",
			},
		},
		Tools: ToolConfig{
			Git:       "git",
			BuildCmd:  "utils/build-toolchain",
			Harness:   "compile-bench-runner",
			DeltaTool: "process-stats-dir",
		},
		Source: SourceConfig{
			OldRef:     "main",
			CorpusPath: "corpus",
		},
		Notify: NotifyConfig{
			TimeoutMS: 5000,
		},
	}
}

// Load parses and normalizes a driver config file.
func Load(path string) (DriverConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *DriverConfig) {
	def := Default()
	if len(cfg.Configurations) == 0 {
		cfg.Configurations = def.Configurations
	}
	if len(cfg.Suites) == 0 {
		cfg.Suites = def.Suites
	}
	for name, suite := range cfg.Suites {
		if suite.Repetitions <= 0 {
			suite.Repetitions = def.Suites["full"].Repetitions
			cfg.Suites[name] = suite
		}
	}
	if cfg.Thresholds.DeltaPct <= 0 {
		cfg.Thresholds.DeltaPct = def.Thresholds.DeltaPct
	}
	if cfg.Thresholds.DeltaUsec <= 0 {
		cfg.Thresholds.DeltaUsec = def.Thresholds.DeltaUsec
	}
	if len(cfg.Thresholds.SelectStats) == 0 {
		cfg.Thresholds.SelectStats = def.Thresholds.SelectStats
	}
	if cfg.Tools.Git == "" {
		cfg.Tools.Git = def.Tools.Git
	}
	if cfg.Tools.BuildCmd == "" {
		cfg.Tools.BuildCmd = def.Tools.BuildCmd
	}
	if cfg.Tools.Harness == "" {
		cfg.Tools.Harness = def.Tools.Harness
	}
	if cfg.Tools.DeltaTool == "" {
		cfg.Tools.DeltaTool = def.Tools.DeltaTool
	}
	if cfg.Source.OldRef == "" {
		cfg.Source.OldRef = def.Source.OldRef
	}
	if cfg.Source.CorpusPath == "" {
		cfg.Source.CorpusPath = def.Source.CorpusPath
	}
	if cfg.Notify.TimeoutMS <= 0 {
		cfg.Notify.TimeoutMS = def.Notify.TimeoutMS
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Kind == "" {
		cfg.Kind = def.Kind
	}
}
