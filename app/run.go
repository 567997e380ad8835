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

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"ckdtra/config"
	"ckdtra/progression"
)

// Run loads the Synthea data, analyses the CKD stage progression, prints the report to out and writes the result
// files to the output directory.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, logger zerolog.Logger) (*progression.Result, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	filters, err := GetPatientFilters(cfg.FilterNames(), window)
	if err != nil {
		return nil, err
	}
	ds, err := LoadSynthea(ctx, cfg.Input, LoadOptions{Concurrency: cfg.Concurrency, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Info().Int("patients", len(ds.Patients)).Int("conditions", len(ds.Conditions)).
		Int("skippedLines", ds.SkippedLines).Int("sources", len(ds.Sources)).Msg("Parsed Synthea data")
	opts := progression.Options{Window: window, Filters: filters}
	result := progression.Analyze(ds.Patients, ds.Conditions, opts)
	nc := result.Counts.Normalize
	logger.Info().Int("rows", nc.Rows).Int("badDate", nc.BadDate).Int("outOfWindow", nc.OutOfWindow).
		Int("unknownCode", nc.UnknownCode).Int("events", nc.Events).Int("filteredOut", result.Counts.FilteredOut).
		Int("unknownPatients", result.Counts.UnknownPatients).
		Msg("Normalized condition rows")
	if result.Counts.UnknownPatients > 0 {
		logger.Warn().Int("rows", result.Counts.UnknownPatients).
			Msg("Dropped condition rows of patients missing from patients.csv")
	}
	logger.Info().Int("dailyEvents", result.Counts.DailyEvents).Int("stagedPatients", result.Counts.StagedPatients).
		Int("transitions", result.Counts.Transitions).Int("pairs", len(result.Aggregates)).Msg("Computed transitions")
	progression.PrintSummary(out, result)
	fmt.Fprintln(out)
	progression.PrintPatientSample(out, result, cfg.Sample)
	directions, err := progression.DirectionStats(result.Aggregates)
	if err != nil {
		return nil, fmt.Errorf("direction test: %w", err)
	}
	if len(directions) > 0 {
		fmt.Fprintln(out)
		progression.PrintDirectionStats(out, directions)
	}
	intervals := progression.BootstrapMedianIntervals(result, cfg.Iter)
	if len(intervals) > 0 {
		fmt.Fprintln(out)
		progression.PrintMedianIntervals(out, intervals)
	}
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := progression.PrintResultToFiles(result, intervals, cfg.Output, cfg.Name); err != nil {
		return nil, fmt.Errorf("writing tab files: %w", err)
	}
	if cfg.Parquet {
		if err := WriteParquetFiles(result, cfg.Output, cfg.Name); err != nil {
			return nil, fmt.Errorf("writing parquet files: %w", err)
		}
	}
	logger.Info().Str("output", cfg.Output).Msg("Wrote result files")
	return result, nil
}
