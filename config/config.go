// PTRA: Patient Trajectory Analysis Library
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"ckdtra/progression"
)

// EnvPrefix is the prefix of the environment variables that override configuration keys, e.g. CKDTRA_WINDOW_START.
const EnvPrefix = "CKDTRA"

// PatientFilterNames lists the accepted patient filter names.
var PatientFilterNames = []string{"id", "male", "female", "alive"}

// Config holds the settings of an analysis run. Keys match the command line flags.
type Config struct {
	Input       string `mapstructure:"input"`
	Output      string `mapstructure:"output"`
	Name        string `mapstructure:"name"`
	WindowStart string `mapstructure:"window-start"`
	WindowEnd   string `mapstructure:"window-end"`
	Iter        int    `mapstructure:"iter"`
	PFilters    string `mapstructure:"pfilters"`
	Threads     int    `mapstructure:"threads"`
	Sample      int    `mapstructure:"sample"`
	Parquet     bool   `mapstructure:"parquet"`
	Concurrency int    `mapstructure:"concurrency"`
	LogLevel    string `mapstructure:"log-level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Name:        "ckd",
		WindowStart: "1997-01-01",
		WindowEnd:   "2023-12-31",
		PFilters:    "id",
		Sample:      10,
		Parquet:     true,
		Concurrency: 4,
		LogLevel:    "info",
	}
}

var keys = []string{"input", "output", "name", "window-start", "window-end", "iter", "pfilters", "threads", "sample",
	"parquet", "concurrency", "log-level"}

// SetDefaults registers the default configuration with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("name", d.Name)
	v.SetDefault("window-start", d.WindowStart)
	v.SetDefault("window-end", d.WindowEnd)
	v.SetDefault("iter", d.Iter)
	v.SetDefault("pfilters", d.PFilters)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("sample", d.Sample)
	v.SetDefault("parquet", d.Parquet)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("log-level", d.LogLevel)
}

// Load reads the configuration from v, the environment and, when configFile is not empty, a config file. Flags bound
// to v take precedence over the environment, which takes precedence over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Window returns the analysis window.
func (c *Config) Window() (progression.Window, error) {
	start, err := progression.ParseDiagnosisDate(c.WindowStart)
	if err != nil {
		return progression.Window{}, fmt.Errorf("window-start %q: %w", c.WindowStart, err)
	}
	end, err := progression.ParseDiagnosisDate(c.WindowEnd)
	if err != nil {
		return progression.Window{}, fmt.Errorf("window-end %q: %w", c.WindowEnd, err)
	}
	return progression.Window{Start: start, End: end}, nil
}

// FilterNames returns the patient filter names, split on commas.
func (c *Config) FilterNames() []string {
	names := []string{}
	for _, name := range strings.Split(c.PFilters, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Validate checks that the configuration can be used for a run.
func (c *Config) Validate() error {
	w, err := c.Window()
	if err != nil {
		return err
	}
	if progression.DiagnosisDateSmallerThan(w.End, w.Start) {
		return fmt.Errorf("window-end %s is before window-start %s", w.End, w.Start)
	}
	if c.Iter < 0 {
		return fmt.Errorf("iter must be >= 0, got %d", c.Iter)
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}
	if c.Sample < 0 {
		return fmt.Errorf("sample must be >= 0, got %d", c.Sample)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}
	if c.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	for _, name := range c.FilterNames() {
		known := false
		for _, n := range PatientFilterNames {
			if name == n {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown patient filter %q, expected one of %s", name, strings.Join(PatientFilterNames, ", "))
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}
