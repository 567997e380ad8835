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

// PatientRecord represents patient information as delivered by a loader. The analysis keys on ID only, the other
// fields serve patient filters and reports.
type PatientRecord struct {
	ID        string
	BirthDate DiagnosisDate  //zero when unknown
	DeathDate *DiagnosisDate //nil when alive or unknown
	FirstName string
	LastName  string
	Gender    string //M or F in Synthea
}

// ConditionRecord is a raw condition row. Dates are kept as strings so that the normalizer decides what is parseable.
type ConditionRecord struct {
	Start       string
	Stop        string
	PatientID   string
	EncounterID string
	Code        string
	Description string
}

// StageEvent is a condition mapped onto a CKD stage.
type StageEvent struct {
	PatientID string
	Date      DiagnosisDate
	Stage     Stage
}

// NormalizeCounts records what happened to the raw condition rows during normalization.
type NormalizeCounts struct {
	Rows        int //total nr of condition rows seen
	BadDate     int //rows with an unparseable start date
	OutOfWindow int //rows with a start date outside the analysis window
	UnknownCode int //rows with a code that is not in the stage registry
	Events      int //rows turned into stage events
}

// NormalizeEvents turns raw condition rows into stage events. Rows with unparseable dates, dates outside the window, or
// codes without a stage are dropped. The input order is preserved.
func NormalizeEvents(records []ConditionRecord, window Window) ([]StageEvent, NormalizeCounts) {
	counts := NormalizeCounts{Rows: len(records)}
	events := []StageEvent{}
	for _, record := range records {
		date, err := ParseDiagnosisDate(record.Start)
		if err != nil {
			counts.BadDate++
			continue
		}
		if !window.Contains(date) {
			counts.OutOfWindow++
			continue
		}
		stage, ok := StageForCode(record.Code)
		if !ok {
			counts.UnknownCode++
			continue
		}
		events = append(events, StageEvent{PatientID: record.PatientID, Date: date, Stage: stage})
	}
	counts.Events = len(events)
	return events, counts
}

// RelatedPatients collects the patients with at least one CKD related code, staged or not, dated within the window.
func RelatedPatients(records []ConditionRecord, window Window) map[string]bool {
	pids := map[string]bool{}
	for _, record := range records {
		if !IsCKDRelated(record.Code) {
			continue
		}
		date, err := ParseDiagnosisDate(record.Start)
		if err != nil || !window.Contains(date) {
			continue
		}
		pids[record.PatientID] = true
	}
	return pids
}
