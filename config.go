// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

const configFileName = "avdlc.toml"

// fileConfig is the content of avdlc.toml. Relative roots and output paths
// are relative to the directory holding the file.
type fileConfig struct {
	Roots          []string `toml:"roots"`
	OneWayVoid     bool     `toml:"one_way_void"`
	Format         string   `toml:"format"`
	Output         string   `toml:"output"`
	MaxConcurrency int      `toml:"max_concurrency"`
}

type assembleSettings struct {
	Roots          []string
	OneWayVoid     bool
	Format         outputFormat
	Output         string
	Indent         string
	MaxConcurrency int
	Verbose        bool
}

func addAssembleFlags(flags *pflag.FlagSet) {
	flags.StringSlice("root", nil, "additional search roots for targets and imports")
	flags.Bool("one-way-void", false, "mark every message returning void as one-way")
	flags.String("format", string(formatJSON), "output format (json|yaml|msgpack)")
	flags.StringP("output", "o", "-", "output file, directory, or - for stdout")
	flags.String("indent", "", "JSON indentation string")
	flags.Int("max-concurrency", 0, "number of targets assembled at once (0 selects the CPU count)")
	flags.BoolP("verbose", "v", false, "log import resolution to stderr")
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fileConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.MaxConcurrency < 0 {
		return fileConfig{}, fmt.Errorf("%s: max_concurrency must not be negative", path)
	}
	base := filepath.Dir(path)
	for x, root := range cfg.Roots {
		if !filepath.IsAbs(root) {
			cfg.Roots[x] = filepath.Join(base, root)
		}
	}
	if cfg.Output != "" && cfg.Output != "-" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(base, cfg.Output)
	}
	return cfg, nil
}

// resolveSettings merges the configuration file with the command line. An
// explicit configPath must exist. Otherwise the file is searched for from
// workDir upwards and is optional. Flags set on the command line win.
func resolveSettings(flags *pflag.FlagSet, configPath string, workDir string) (assembleSettings, error) {
	var cfg fileConfig
	if configPath == "" {
		found, ok, err := findConfig(workDir)
		if err != nil {
			return assembleSettings{}, err
		}
		if ok {
			configPath = found
		}
	}
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return assembleSettings{}, err
		}
		cfg = loaded
	}

	var s assembleSettings
	var err error
	if s.Roots, err = flags.GetStringSlice("root"); err != nil {
		return s, err
	}
	// Command line roots are searched before configured ones.
	s.Roots = append(s.Roots, cfg.Roots...)

	if s.OneWayVoid, err = flags.GetBool("one-way-void"); err != nil {
		return s, err
	}
	if !flags.Changed("one-way-void") {
		s.OneWayVoid = cfg.OneWayVoid
	}

	format, err := flags.GetString("format")
	if err != nil {
		return s, err
	}
	if !flags.Changed("format") && cfg.Format != "" {
		format = cfg.Format
	}
	if s.Format, err = parseFormat(format); err != nil {
		return s, err
	}

	if s.Output, err = flags.GetString("output"); err != nil {
		return s, err
	}
	if !flags.Changed("output") && cfg.Output != "" {
		s.Output = cfg.Output
	}

	if s.MaxConcurrency, err = flags.GetInt("max-concurrency"); err != nil {
		return s, err
	}
	if !flags.Changed("max-concurrency") && cfg.MaxConcurrency > 0 {
		s.MaxConcurrency = cfg.MaxConcurrency
	}

	if s.Indent, err = flags.GetString("indent"); err != nil {
		return s, err
	}
	if s.Verbose, err = flags.GetBool("verbose"); err != nil {
		return s, err
	}
	return s, nil
}
