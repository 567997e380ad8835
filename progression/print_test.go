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

package progression

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTransitionLabel(t *testing.T) {
	if l := TransitionLabel(Pair{First: Stage1, Second: Stage2}); l != "Stage 1 to Stage 2" {
		t.Errorf("label = %q", l)
	}
	if l := TransitionLabel(Pair{First: Stage5, Second: StageESRD}); l != "Stage 5 to End Stage Renal Disease" {
		t.Errorf("label = %q", l)
	}
}

func TestSummaryRows(t *testing.T) {
	stats := []AggregateStat{
		{From: Stage1, To: Stage3, PatientCount: 2},
		{From: Stage2, To: Stage3, PatientCount: 4},
	}
	rows := SummaryRows(stats)
	if len(rows) != 6 {
		t.Fatalf("rows = %v", rows)
	}
	for i, pair := range CanonicalPairs() {
		if rows[i].Pair() != pair {
			t.Errorf("row %d = %v, want %v", i, rows[i].Pair(), pair)
		}
	}
	if rows[1].PatientCount != 4 || rows[0].PatientCount != 0 {
		t.Errorf("canonical rows = %+v", rows[:2])
	}
	if rows[5].Pair() != (Pair{First: Stage1, Second: Stage3}) {
		t.Errorf("last row = %v, want the non canonical 1->3", rows[5].Pair())
	}
}

func TestPrintSummaryAndSample(t *testing.T) {
	conditions := []ConditionRecord{
		condition("001", "1997-01-05", codeStage1),
		condition("001", "1997-08-15", codeStage2),
		condition("002", "2000-01-01", codeStage4),
		condition("003", "2000-01-01", codeStage1),
	}
	r := Analyze(nil, conditions, DefaultOptions())
	var buf bytes.Buffer
	PrintSummary(&buf, r)
	out := buf.String()
	if !strings.Contains(out, "Stage 1 to Stage 2") || !strings.Contains(out, "222.00") {
		t.Errorf("summary misses the 1->2 row:\n%s", out)
	}
	if !strings.Contains(out, "N/A") {
		t.Errorf("summary misses N/A rows:\n%s", out)
	}
	buf.Reset()
	PrintPatientSample(&buf, r, 2)
	out = buf.String()
	if !strings.Contains(out, "Patient ID: 001") || !strings.Contains(out, "Patient ID: 002") ||
		strings.Contains(out, "Patient ID: 003") {
		t.Errorf("sample shows the wrong patients:\n%s", out)
	}
	if !strings.Contains(out, "... and 1 more patients") {
		t.Errorf("sample misses the remainder line:\n%s", out)
	}
	buf.Reset()
	PrintPatientSample(&buf, Analyze(nil, nil, DefaultOptions()), 10)
	if !strings.Contains(buf.String(), "No patient transition data") {
		t.Errorf("empty sample = %q", buf.String())
	}
}

func TestPrintResultToFiles(t *testing.T) {
	r := Analyze(nil, syntheticConditions(20), DefaultOptions())
	dir := t.TempDir()
	intervals := BootstrapMedianIntervals(r, 20)
	if err := PrintResultToFiles(r, intervals, dir, "test"); err != nil {
		t.Fatal(err)
	}
	aggregates, err := os.ReadFile(filepath.Join(dir, "test-aggregates.tab"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(aggregates)), "\n")
	if len(lines) != len(r.Aggregates)+1 {
		t.Errorf("aggregates file has %d lines, want %d", len(lines), len(r.Aggregates)+1)
	}
	if !strings.HasPrefix(lines[0], "from\tto\tcount") {
		t.Errorf("header = %q", lines[0])
	}
	transitions, err := os.ReadFile(filepath.Join(dir, "test-transitions.tab"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(transitions), "\n"); n != r.Counts.Transitions+1 {
		t.Errorf("transitions file has %d lines, want %d", n, r.Counts.Transitions+1)
	}
	timelines, err := os.ReadFile(filepath.Join(dir, "test-timelines.tab"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(timelines), "\n"); n != len(r.Patients) {
		t.Errorf("timelines file has %d lines, want %d", n, len(r.Patients))
	}
	if err := PrintResultToFiles(r, nil, filepath.Join(dir, "missing"), "test"); err == nil {
		t.Error("writing to a missing directory should fail")
	}
}
