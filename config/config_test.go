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
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"ckdtra/progression"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if want := Default(); *cfg != want {
		t.Errorf("config = %+v, want %+v", *cfg, want)
	}
	w, err := cfg.Window()
	if err != nil {
		t.Fatal(err)
	}
	if w != progression.DefaultWindow() {
		t.Errorf("window = %v, want %v", w, progression.DefaultWindow())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), "/nonexistent/ckdtra.yaml"); err == nil {
		t.Error("missing config file should fail")
	}
}

func TestFilterNames(t *testing.T) {
	cfg := Default()
	cfg.PFilters = " female, alive,,"
	if names := cfg.FilterNames(); !reflect.DeepEqual(names, []string{"female", "alive"}) {
		t.Errorf("names = %v", names)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"same day window", func(c *Config) { c.WindowStart, c.WindowEnd = "2000-01-01", "2000-01-01" }, true},
		{"reversed window", func(c *Config) { c.WindowStart, c.WindowEnd = "2010-01-01", "2000-01-01" }, false},
		{"bad start", func(c *Config) { c.WindowStart = "someday" }, false},
		{"empty end", func(c *Config) { c.WindowEnd = "" }, false},
		{"negative iter", func(c *Config) { c.Iter = -1 }, false},
		{"negative threads", func(c *Config) { c.Threads = -2 }, false},
		{"negative sample", func(c *Config) { c.Sample = -1 }, false},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, false},
		{"empty name", func(c *Config) { c.Name = "" }, false},
		{"known filters", func(c *Config) { c.PFilters = "male,alive" }, true},
		{"unknown filter", func(c *Config) { c.PFilters = "male,MIBC" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.modify(&cfg)
		if err := cfg.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v, want ok %v", tt.name, err, tt.ok)
		}
	}
}
