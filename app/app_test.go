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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"ckdtra/config"
	"ckdtra/progression"
)

const testPatients = `Id,BIRTHDATE,DEATHDATE,SSN,FIRST,LAST,RACE,GENDER
001,1950-02-03,,999-1,Ann,Lee,white,F
002,1940-05-06,1996-01-01,999-2,Bob,Ray,white,M
003,1960-01-01,,999-3,Cid,Poe,asian,M
`

const testConditions = `START,STOP,PATIENT,ENCOUNTER,SYSTEM,CODE,DESCRIPTION
1997-01-05,,001,e1,http://snomed.info/sct,431855005,Chronic kidney disease stage 1 (disorder)
1997-08-15,,001,e2,http://snomed.info/sct,431856006,Chronic kidney disease stage 2 (disorder)
2001-03-03,,003,e3,http://snomed.info/sct,433144002,Chronic kidney disease stage 3 (disorder)
2001-03-03,,003,e3,http://snomed.info/sct,433146000,Chronic kidney disease stage 5 (disorder)
2003-03-03,2004-01-01,003,e4,http://snomed.info/sct,714152005,"Chronic kidney disease stage 5 on dialysis, (disorder)"
bad,line,with,too,many,fields,here,extra
1995-01-01,,002,e5,http://snomed.info/sct,431855005,Chronic kidney disease stage 1 (disorder)
2002-01-01,,002,e6,http://snomed.info/sct,44054006,Diabetes
`

type member struct {
	name, content string
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeArchive(t *testing.T, name string, members ...member) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644, Size: int64(len(m.content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(m.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	writeFile(t, name, buf.String())
}

func TestParsePatients(t *testing.T) {
	patients, skipped, err := parsePatients(strings.NewReader(testPatients))
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 0 || len(patients) != 3 {
		t.Fatalf("parsed %d patients, skipped %d", len(patients), skipped)
	}
	ann := patients[0]
	if ann.ID != "001" || ann.Gender != "F" || ann.FirstName != "Ann" || ann.LastName != "Lee" ||
		ann.BirthDate != (progression.DiagnosisDate{Year: 1950, Month: 2, Day: 3}) || ann.DeathDate != nil {
		t.Errorf("patient = %+v", ann)
	}
	if d := patients[1].DeathDate; d == nil || *d != (progression.DiagnosisDate{Year: 1996, Month: 1, Day: 1}) {
		t.Errorf("death date = %v", d)
	}
}

func TestParseConditions(t *testing.T) {
	conditions, skipped, err := parseConditions(strings.NewReader(testConditions))
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 1 || len(conditions) != 7 {
		t.Fatalf("parsed %d conditions, skipped %d", len(conditions), skipped)
	}
	c := conditions[4]
	if c.Start != "2003-03-03" || c.Stop != "2004-01-01" || c.PatientID != "003" || c.EncounterID != "e4" ||
		c.Code != "714152005" || c.Description != "Chronic kidney disease stage 5 on dialysis, (disorder)" {
		t.Errorf("condition = %+v", c)
	}
}

func TestParseMissingColumn(t *testing.T) {
	if _, _, err := parseConditions(strings.NewReader("START,PATIENT\n2001-01-01,x\n")); err == nil {
		t.Error("conditions without a CODE column should fail")
	}
	patients, _, err := parsePatients(strings.NewReader(""))
	if err != nil || len(patients) != 0 {
		t.Errorf("empty file gives %v, %v", patients, err)
	}
}

func TestLoadSyntheaDirectory(t *testing.T) {
	for _, sub := range []string{"", "csv"} {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, sub, "patients.csv"), testPatients)
		writeFile(t, filepath.Join(dir, sub, "conditions.csv"), testConditions)
		ds, err := LoadSynthea(context.Background(), dir, LoadOptions{Logger: zerolog.Nop()})
		if err != nil {
			t.Fatal(err)
		}
		if len(ds.Patients) != 3 || len(ds.Conditions) != 7 || ds.SkippedLines != 1 {
			t.Errorf("%q: loaded %d patients, %d conditions, %d skipped", sub, len(ds.Patients),
				len(ds.Conditions), ds.SkippedLines)
		}
		if len(ds.Sources) != 1 || ds.Sources[0] != filepath.Join(dir, sub) {
			t.Errorf("sources = %v", ds.Sources)
		}
	}
}

func TestLoadSyntheaArchives(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "a.tar.gz"),
		member{"out/csv/patients.csv", testPatients},
		member{"out/csv/conditions.csv", testConditions},
		member{"out/csv/encounters.csv", "Id\n"})
	writeArchive(t, filepath.Join(dir, "b.tgz"),
		member{"CONDITIONS.CSV", "START,PATIENT,CODE\n2010-01-01,b1,431855005\n"},
		member{"patients.csv", "Id,GENDER\nb1,F\n"})
	writeArchive(t, filepath.Join(dir, "c.tar.gz"), member{"patients.csv", testPatients})
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	ds, err := LoadSynthea(context.Background(), dir, LoadOptions{Concurrency: 3, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Sources) != 2 || filepath.Base(ds.Sources[0]) != "a.tar.gz" || filepath.Base(ds.Sources[1]) != "b.tgz" {
		t.Errorf("sources = %v", ds.Sources)
	}
	if len(ds.Patients) != 4 || ds.Patients[3].ID != "b1" {
		t.Errorf("patients = %+v", ds.Patients)
	}
	if len(ds.Conditions) != 8 || ds.Conditions[7].PatientID != "b1" {
		t.Errorf("conditions = %+v", ds.Conditions)
	}

	single, err := LoadSynthea(context.Background(), filepath.Join(dir, "b.tgz"), LoadOptions{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	if len(single.Patients) != 1 || len(single.Conditions) != 1 {
		t.Errorf("single archive gives %+v", single)
	}
}

func TestLoadSyntheaErrors(t *testing.T) {
	ctx := context.Background()
	opts := LoadOptions{Logger: zerolog.Nop()}
	dir := t.TempDir()
	if _, err := LoadSynthea(ctx, filepath.Join(dir, "missing"), opts); err == nil {
		t.Error("missing path should fail")
	}
	if _, err := LoadSynthea(ctx, dir, opts); err == nil {
		t.Error("empty directory should fail")
	}
	writeFile(t, filepath.Join(dir, "plain.csv"), testPatients)
	if _, err := LoadSynthea(ctx, filepath.Join(dir, "plain.csv"), opts); err == nil {
		t.Error("plain file should fail")
	}
	writeArchive(t, filepath.Join(dir, "only.tar.gz"), member{"conditions.csv", testConditions})
	if _, err := LoadSynthea(ctx, dir, opts); !errors.Is(err, errIncompleteArchive) {
		t.Errorf("incomplete archives give %v", err)
	}
	writeFile(t, filepath.Join(dir, "broken.tar.gz"), "not gzip")
	if _, err := LoadSynthea(ctx, filepath.Join(dir, "broken.tar.gz"), opts); err == nil {
		t.Error("broken archive should fail")
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	archive := filepath.Join(t.TempDir(), "x.tar.gz")
	writeArchive(t, archive, member{"patients.csv", testPatients}, member{"conditions.csv", testConditions})
	if _, err := loadArchive(cancelled, archive); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled load gives %v", err)
	}
}

func TestGetPatientFilters(t *testing.T) {
	window := progression.DefaultWindow()
	filters, err := GetPatientFilters([]string{"id", "female", "alive"}, window)
	if err != nil {
		t.Fatal(err)
	}
	patients, _, _ := parsePatients(strings.NewReader(testPatients))
	kept := progression.ApplyPatientFilters(filters, patients)
	if len(kept) != 1 || kept[0].ID != "001" {
		t.Errorf("kept = %+v", kept)
	}
	males, _ := GetPatientFilters([]string{"male", "alive"}, window)
	if kept := progression.ApplyPatientFilters(males, patients); len(kept) != 1 || kept[0].ID != "003" {
		t.Errorf("kept = %+v", kept)
	}
	if ids, err := GetPatientFilters([]string{"id", " id"}, window); err != nil || len(ids) != 0 {
		t.Errorf("id filters give %d filters, %v", len(ids), err)
	}
	if _, err := GetPatientFilters([]string{"female", "age70+"}, window); err == nil {
		t.Error("unknown filter should fail")
	}
}

func TestWriteParquetFiles(t *testing.T) {
	patients, _, _ := parsePatients(strings.NewReader(testPatients))
	conditions, _, _ := parseConditions(strings.NewReader(testConditions))
	r := progression.Analyze(patients, conditions, progression.DefaultOptions())
	dir := t.TempDir()
	if err := WriteParquetFiles(r, dir, "run"); err != nil {
		t.Fatal(err)
	}
	aggregates, err := parquet.ReadFile[AggregateRow](filepath.Join(dir, "run-aggregates.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	if len(aggregates) != 2 {
		t.Fatalf("aggregates = %+v", aggregates)
	}
	first := aggregates[0]
	if first.FromStage != 1 || first.ToStage != 2 || first.PatientCount != 1 || first.MeanDays != 222 ||
		first.Transition != "Stage 1 to Stage 2" || len(first.Modes) != 1 || first.Modes[0] != 222 {
		t.Errorf("aggregate row = %+v", first)
	}
	pw, err := NewParquetWriter[TransitionRow](filepath.Join(dir, "counted.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	if err := pw.Write(transitionRows(r)); err != nil {
		t.Fatal(err)
	}
	if err := pw.Write(transitionRows(r)[:1]); err != nil {
		t.Fatal(err)
	}
	if pw.Count() != 3 {
		t.Errorf("writer counted %d rows, want 3", pw.Count())
	}
	if err := pw.Close(); err != nil {
		t.Fatal(err)
	}
	transitions, err := parquet.ReadFile[TransitionRow](filepath.Join(dir, "run-transitions.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	want := TransitionRow{PatientID: "003", FromStage: 5, ToStage: 6, FromDate: "2001-03-03", ToDate: "2003-03-03",
		Days: 730}
	if len(transitions) != 2 || transitions[1] != want {
		t.Errorf("transitions = %+v", transitions)
	}
}

func TestRun(t *testing.T) {
	input := t.TempDir()
	writeArchive(t, filepath.Join(input, "synthea.tar.gz"),
		member{"csv/patients.csv", testPatients}, member{"csv/conditions.csv", testConditions})
	cfg := config.Default()
	cfg.Input = input
	cfg.Output = filepath.Join(t.TempDir(), "out")
	cfg.Name = "ckd"
	cfg.Iter = 10
	var out bytes.Buffer
	r, err := Run(context.Background(), &cfg, &out, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if r.Counts.Transitions != 2 || r.Counts.CKDPatients != 2 || r.Counts.StagedPatients != 2 ||
		r.Counts.FilteredOut != 0 || r.Counts.UnknownPatients != 0 {
		t.Errorf("counts = %+v", r.Counts)
	}
	for _, suffix := range []string{"-aggregates.tab", "-transitions.tab", "-timelines.tab", "-aggregates.parquet",
		"-transitions.parquet"} {
		if _, err := os.Stat(filepath.Join(cfg.Output, "ckd"+suffix)); err != nil {
			t.Errorf("missing output file: %v", err)
		}
	}
	if !strings.Contains(out.String(), "Stage 5 to End Stage Renal Disease") {
		t.Errorf("report misses the ESRD row:\n%s", out.String())
	}
	cfg.PFilters = "bogus"
	if _, err := Run(context.Background(), &cfg, &out, zerolog.Nop()); err == nil {
		t.Error("unknown filter should fail")
	}
}
