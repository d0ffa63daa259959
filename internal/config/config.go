package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexicalci/xcharness/internal/bench"
	"github.com/lexicalci/xcharness/internal/supervise"
	"github.com/lexicalci/xcharness/internal/xctestrun"
)

// DefaultPath is looked up when no --config flag is given
const DefaultPath = ".xcharness.yaml"

// File is the optional per-repo defaults file. Flags beat file values, env
// overrides beat both.
type File struct {
	// Supervision defaults for `run` and `bench record`
	IdleSeconds     int  `yaml:"idle_seconds"`
	HardSeconds     int  `yaml:"hard_seconds"`
	SampleOnTimeout bool `yaml:"sample_on_timeout"`
	SampleSeconds   int  `yaml:"sample_seconds"`

	// Benchmark recording defaults
	Bench BenchDefaults `yaml:"bench"`

	// xctestrun patching defaults
	Products    string   `yaml:"products"`
	EnvPrefixes []string `yaml:"env_prefixes"`
}

// BenchDefaults configures where recorded runs land
type BenchDefaults struct {
	Out   string `yaml:"out"`
	Issue string `yaml:"issue"`
}

func withDefaults(f *File) *File {
	if f.SampleSeconds == 0 {
		f.SampleSeconds = supervise.DefaultSampleSeconds
	}
	if f.Bench.Out == "" {
		f.Bench.Out = bench.DefaultResultsPath
	}
	if f.Products == "" {
		f.Products = "Playground/Build/Products"
	}
	if len(f.EnvPrefixes) == 0 {
		f.EnvPrefixes = xctestrun.DefaultPrefixes
	}
	return f
}

// Load parses a YAML defaults file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return withDefaults(&f), nil
}

// LoadOrDefault loads path when set, otherwise tries DefaultPath in the
// working directory. A missing file is not an error, just defaults; a file
// that exists but does not parse is.
func LoadOrDefault(path string) (*File, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); err != nil {
		return withDefaults(&File{}), nil
	}
	return Load(DefaultPath)
}
