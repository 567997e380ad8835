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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ckdtra/progression"
)

// Synthea CSV exports have a header line naming the columns. Columns are looked up by name, so extra columns and
// reordered exports are handled.

var (
	patientColumns   = []string{"Id", "BIRTHDATE", "DEATHDATE", "FIRST", "LAST", "GENDER"}
	conditionColumns = []string{"START", "STOP", "PATIENT", "ENCOUNTER", "CODE", "DESCRIPTION"}
	// columns that must be present; the others are left empty when missing
	requiredPatientColumns   = []string{"Id"}
	requiredConditionColumns = []string{"START", "PATIENT", "CODE"}
)

// columnIndex maps a column name to its position in a line.
type columnIndex map[string]int

func (ci columnIndex) get(line []string, column string) string {
	i, ok := ci[column]
	if !ok || i >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[i])
}

// newColumnIndex resolves the wanted columns in a header line. Names are compared ignoring case.
func newColumnIndex(header, wanted, required []string) (columnIndex, error) {
	ci := columnIndex{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, w := range wanted {
			if strings.EqualFold(h, w) {
				ci[w] = i
			}
		}
	}
	for _, r := range required {
		if _, ok := ci[r]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", r, header)
		}
	}
	return ci, nil
}

// readCSV reads a csv file line by line and passes every line after the header to parse. Malformed lines and lines
// with more fields than the header are skipped and counted. Missing trailing fields read as empty.
func readCSV(r io.Reader, wanted, required []string, parse func(ci columnIndex, line []string)) (skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	header = append([]string(nil), header...)
	ci, err := newColumnIndex(header, wanted, required)
	if err != nil {
		return 0, err
	}
	for {
		line, err := reader.Read()
		if err == io.EOF {
			return skipped, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped++
			continue
		}
		if err != nil {
			return skipped, err
		}
		if len(line) > len(header) {
			skipped++
			continue
		}
		parse(ci, line)
	}
}

// parsePatients parses a Synthea patients.csv file. Lines without an id are skipped. Unparsable birth or death dates
// are treated as unknown.
func parsePatients(r io.Reader) ([]progression.PatientRecord, int, error) {
	patients := []progression.PatientRecord{}
	skipped, err := readCSV(r, patientColumns, requiredPatientColumns, func(ci columnIndex, line []string) {
		id := ci.get(line, "Id")
		if id == "" {
			return
		}
		patient := progression.PatientRecord{
			ID:        id,
			FirstName: ci.get(line, "FIRST"),
			LastName:  ci.get(line, "LAST"),
			Gender:    ci.get(line, "GENDER"),
		}
		if birth, err := progression.ParseDiagnosisDate(ci.get(line, "BIRTHDATE")); err == nil {
			patient.BirthDate = birth
		}
		if death, err := progression.ParseDiagnosisDate(ci.get(line, "DEATHDATE")); err == nil {
			patient.DeathDate = &death
		}
		patients = append(patients, patient)
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("parsing patients: %w", err)
	}
	return patients, skipped, nil
}

// parseConditions parses a Synthea conditions.csv file. Dates are kept as text; they are validated during
// normalization.
func parseConditions(r io.Reader) ([]progression.ConditionRecord, int, error) {
	conditions := []progression.ConditionRecord{}
	skipped, err := readCSV(r, conditionColumns, requiredConditionColumns, func(ci columnIndex, line []string) {
		conditions = append(conditions, progression.ConditionRecord{
			Start:       ci.get(line, "START"),
			Stop:        ci.get(line, "STOP"),
			PatientID:   ci.get(line, "PATIENT"),
			EncounterID: ci.get(line, "ENCOUNTER"),
			Code:        ci.get(line, "CODE"),
			Description: ci.get(line, "DESCRIPTION"),
		})
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("parsing conditions: %w", err)
	}
	return conditions, skipped, nil
}
