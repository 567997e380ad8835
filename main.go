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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ckdtra/app"
	"ckdtra/config"
	"ckdtra/progression"
)

/*
Ckdtra is a tool for analysing the progression of chronic kidney disease (CKD) through its stages in synthetic patient
data generated by Synthea.

Usage:
	ckdtra run input outputPath [flags]
	ckdtra codes

Example:
	ckdtra run ./synthea_output/ ./ckd_results/ --name ckd_female --pfilters female,alive --iter 1000 --threads 8

The input is a directory with the Synthea CSV files patients.csv and conditions.csv (possibly in a csv subdirectory), a
.tar.gz archive with these files, or a directory with such archives.

The flags are:

--name string
	Sets the name of the run. This name is used to generate names for output files.
--window-start date
	The first day of the analysis window. Conditions diagnosed before this day are ignored. Default 1997-01-01.
--window-end date
	The last day of the analysis window, inclusive. Conditions diagnosed after this day are ignored. Default 2023-12-31.
--pfilters id | male | female | alive
	A list of filters for selecting the patients to analyse. alive keeps patients that were alive at some point in the
	analysis window.
--iter nr
	Sets the number of bootstrap iterations used to compute 95% intervals for the median transition durations. 0 turns
	the bootstrap off.
--sample nr
	The number of patients for which the stage timeline is printed.
--parquet
	Also write the aggregates and transitions as parquet files.
--threads nr
	The number of threads ckdtra uses. 0 uses all available cores.
--concurrency nr
	The number of archives that are read in parallel.
--log-level level
	The zerolog level: debug, info, warn, error.
--config file
	A configuration file (yaml, json, toml) with any of the settings above. Environment variables prefixed with CKDTRA_,
	e.g. CKDTRA_WINDOW_START, override the file. Flags override both.
*/

const (
	programVersion = 0.1
	programName    = "ckdtra"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func runCmd() *cobra.Command {
	var configFile string
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "run input outputPath",
		Short: "Compute the CKD stage transition times of a Synthea population",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			v.Set("input", args[0])
			output, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			v.Set("output", output)
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel).With().Str("run_id", uuid.NewString()).Str("name", cfg.Name).Logger()
			if cfg.Threads > 0 {
				runtime.GOMAXPROCS(cfg.Threads)
			}
			logger.Info().Str("input", cfg.Input).Str("output", cfg.Output).Str("window-start", cfg.WindowStart).
				Str("window-end", cfg.WindowEnd).Str("pfilters", cfg.PFilters).Int("iter", cfg.Iter).
				Int("threads", runtime.GOMAXPROCS(0)).Msg(programMessage())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if _, err := app.Run(ctx, cfg, cmd.OutOrStdout(), logger); err != nil {
				logger.Error().Err(err).Msg("run failed")
				return err
			}
			return nil
		},
	}
	d := config.Default()
	cmd.Flags().StringVar(&configFile, "config", "", "A configuration file.")
	cmd.Flags().String("name", d.Name, "The name of the run. This is used to generate the names of the output files.")
	cmd.Flags().String("window-start", d.WindowStart, "The first day of the analysis window.")
	cmd.Flags().String("window-end", d.WindowEnd, "The last day of the analysis window, inclusive.")
	cmd.Flags().String("pfilters", d.PFilters, "A list of pfilters to restrict analysis on specific patients.")
	cmd.Flags().Int("iter", d.Iter, "The number of bootstrap iterations for the median intervals, 0 for none.")
	cmd.Flags().Int("sample", d.Sample, "The number of patient timelines to print.")
	cmd.Flags().Bool("parquet", d.Parquet, "Write parquet files next to the tab files.")
	cmd.Flags().Int("threads", d.Threads, "The number of threads ckdtra uses.")
	cmd.Flags().Int("concurrency", d.Concurrency, "The number of archives read in parallel.")
	cmd.Flags().String("log-level", d.LogLevel, "The log level.")
	return cmd
}

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "Print the SNOMED CT codes mapped onto CKD stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, code := range progression.StagedCodes() {
				stage, _ := progression.StageForCode(code)
				fmt.Fprintf(out, "%s\t%d\t%s\n", code, stage, stage)
			}
			related := progression.RelatedCodes()
			codes := make([]string, 0, len(related))
			for code := range related {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				fmt.Fprintf(out, "%s\t-\t%s\n", code, related[code])
			}
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "CKD stage progression analysis",
		Version:       fmt.Sprint(programVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(codesCmd())
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
