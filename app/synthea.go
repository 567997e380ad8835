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
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ckdtra/progression"
	"ckdtra/utils"
)

const (
	patientsFile   = "patients.csv"
	conditionsFile = "conditions.csv"
)

// errIncompleteArchive is returned for archives that lack a patients or conditions file.
var errIncompleteArchive = errors.New("archive lacks patients.csv or conditions.csv")

// Dataset is the patient and condition data loaded from one or more Synthea exports.
type Dataset struct {
	Patients     []progression.PatientRecord
	Conditions   []progression.ConditionRecord
	Sources      []string //the directories or archives the data was read from
	SkippedLines int      //malformed csv lines
}

func (ds *Dataset) append(other *Dataset) {
	ds.Patients = append(ds.Patients, other.Patients...)
	ds.Conditions = append(ds.Conditions, other.Conditions...)
	ds.Sources = append(ds.Sources, other.Sources...)
	ds.SkippedLines += other.SkippedLines
}

// LoadOptions configures LoadSynthea.
type LoadOptions struct {
	Concurrency int //nr of archives read in parallel, 0 means 1
	Logger      zerolog.Logger
}

func isArchive(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz")
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

// LoadSynthea loads Synthea CSV exports. The path is either:
// - a directory with patients.csv and conditions.csv, possibly in a csv subdirectory
// - a .tar.gz archive containing both files
// - a directory with .tar.gz archives
// Archives without both files are skipped with a warning. Data from multiple archives is concatenated in the order of
// the archive file names.
func LoadSynthea(ctx context.Context, path string, opts LoadOptions) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading synthea data: %w", err)
	}
	if !info.IsDir() {
		if !isArchive(path) {
			return nil, fmt.Errorf("loading synthea data: %s is not a directory or .tar.gz archive", path)
		}
		return loadArchives(ctx, []string{path}, opts)
	}
	for _, dir := range []string{path, filepath.Join(path, "csv")} {
		if fileExists(filepath.Join(dir, patientsFile)) && fileExists(filepath.Join(dir, conditionsFile)) {
			opts.Logger.Info().Str("dir", dir).Msg("Loading Synthea CSV directory")
			return loadDirectory(dir)
		}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("loading synthea data: %w", err)
	}
	archives := []string{}
	for _, e := range entries {
		if !e.IsDir() && isArchive(e.Name()) {
			archives = append(archives, filepath.Join(path, e.Name()))
		}
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("loading synthea data: no %s/%s or .tar.gz archives in %s", patientsFile, conditionsFile,
			path)
	}
	sort.Strings(archives)
	return loadArchives(ctx, archives, opts)
}

// loadDirectory reads patients.csv and conditions.csv from a directory.
func loadDirectory(dir string) (*Dataset, error) {
	ds := &Dataset{Sources: []string{dir}}
	pfile, err := os.Open(filepath.Join(dir, patientsFile))
	if err != nil {
		return nil, fmt.Errorf("loading synthea data: %w", err)
	}
	defer pfile.Close()
	patients, skipped, err := parsePatients(pfile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pfile.Name(), err)
	}
	ds.Patients = patients
	ds.SkippedLines += skipped
	cfile, err := os.Open(filepath.Join(dir, conditionsFile))
	if err != nil {
		return nil, fmt.Errorf("loading synthea data: %w", err)
	}
	defer cfile.Close()
	conditions, skipped, err := parseConditions(cfile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfile.Name(), err)
	}
	ds.Conditions = conditions
	ds.SkippedLines += skipped
	return ds, nil
}

// loadArchives reads archives concurrently and concatenates their data in archive order.
func loadArchives(ctx context.Context, archives []string, opts LoadOptions) (*Dataset, error) {
	results := make([]*Dataset, len(archives))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.MaxInt(opts.Concurrency, 1))
	for i, archive := range archives {
		i, archive := i, archive
		g.Go(func() error {
			ds, err := loadArchive(gctx, archive)
			if errors.Is(err, errIncompleteArchive) {
				opts.Logger.Warn().Str("archive", archive).Msg("Skipping archive without patients.csv and conditions.csv")
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", archive, err)
			}
			opts.Logger.Info().Str("archive", archive).Int("patients", len(ds.Patients)).
				Int("conditions", len(ds.Conditions)).Msg("Loaded archive")
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading synthea archives: %w", err)
	}
	ds := &Dataset{Sources: []string{}}
	for _, r := range results {
		if r != nil {
			ds.append(r)
		}
	}
	if len(ds.Sources) == 0 {
		return nil, fmt.Errorf("loading synthea archives: %w", errIncompleteArchive)
	}
	return ds, nil
}

// loadArchive reads the patients and conditions members of a gzipped tar archive. Members are matched on their base
// name, ignoring case, wherever they are in the archive.
func loadArchive(ctx context.Context, archive string) (*Dataset, error) {
	file, err := os.Open(archive)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()
	ds := &Dataset{Sources: []string{archive}}
	var foundPatients, foundConditions bool
	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		switch strings.ToLower(filepath.Base(hdr.Name)) {
		case patientsFile:
			patients, skipped, err := parsePatients(tr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", hdr.Name, err)
			}
			ds.Patients = append(ds.Patients, patients...)
			ds.SkippedLines += skipped
			foundPatients = true
		case conditionsFile:
			conditions, skipped, err := parseConditions(tr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", hdr.Name, err)
			}
			ds.Conditions = append(ds.Conditions, conditions...)
			ds.SkippedLines += skipped
			foundConditions = true
		}
	}
	if !foundPatients || !foundConditions {
		return nil, errIncompleteArchive
	}
	return ds, nil
}
