package session

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config's fields for a YAML config file (spec.md
// §6's segment-size flags plus the run-mode switches), the way the
// teacher's eval_harness loads models.yml: a plain struct with yaml
// tags, unmarshalled once and copied onto the defaults. Flags passed
// on the command line still take priority — ApplyTo only overwrites a
// Config field when the file actually sets it.
type FileConfig struct {
	Strict         *bool   `yaml:"strict"`
	PortCheck      *bool   `yaml:"portcheck"`
	StackSize      *int    `yaml:"stack"`
	FrameSize      *int    `yaml:"frame"`
	HeapSize       *int    `yaml:"heap"`
	HandleCount    *int    `yaml:"handles"`
	TimeLimit      *string `yaml:"timelimit"`
	RegressionTest *bool   `yaml:"regression_test"`
	NoWarnings     *bool   `yaml:"nowarnings"`
	Quiet          *bool   `yaml:"quiet"`
	Backtrace      *bool   `yaml:"backtrace"`
}

// LoadFileConfig reads and parses a YAML config file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

// ApplyTo copies fc's set fields onto cfg, leaving cfg's existing
// values (the command-line defaults) alone wherever fc is silent.
func (fc *FileConfig) ApplyTo(cfg *Config) error {
	if fc == nil {
		return nil
	}
	if fc.Strict != nil {
		cfg.Strict = *fc.Strict
	}
	if fc.PortCheck != nil {
		cfg.PortCheck = *fc.PortCheck
	}
	if fc.StackSize != nil {
		cfg.StackSize = *fc.StackSize
	}
	if fc.FrameSize != nil {
		cfg.FrameSize = *fc.FrameSize
	}
	if fc.HeapSize != nil {
		cfg.HeapSize = *fc.HeapSize
	}
	if fc.HandleCount != nil {
		cfg.HandleCount = *fc.HandleCount
	}
	if fc.TimeLimit != nil {
		d, err := time.ParseDuration(*fc.TimeLimit)
		if err != nil {
			return fmt.Errorf("config timelimit %q: %w", *fc.TimeLimit, err)
		}
		cfg.TimeLimit = d
	}
	if fc.RegressionTest != nil {
		cfg.RegressionTest = *fc.RegressionTest
	}
	if fc.NoWarnings != nil {
		cfg.NoWarnings = *fc.NoWarnings
	}
	if fc.Quiet != nil {
		cfg.Quiet = *fc.Quiet
	}
	if fc.Backtrace != nil {
		cfg.Backtrace = *fc.Backtrace
	}
	return nil
}
