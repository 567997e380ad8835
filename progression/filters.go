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

import "strings"

// PatientFilter prescribes a function type for implementing filters on patients, to be able to analyse progression for
// specific cohorts. E.g. female patients, patients alive during the analysis window, etc.
type PatientFilter func(patient *PatientRecord) bool

// ApplyPatientFilters returns the patients that pass all filters, in input order.
func ApplyPatientFilters(filters []PatientFilter, patients []PatientRecord) []PatientRecord {
	kept := []PatientRecord{}
	for i := range patients {
		keep := true
		for _, filter := range filters {
			if !filter(&patients[i]) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, patients[i])
		}
	}
	return kept
}

// GenderFilter keeps the patients of the given gender only. The comparison ignores case.
func GenderFilter(gender string) PatientFilter {
	return func(p *PatientRecord) bool {
		return strings.EqualFold(p.Gender, gender)
	}
}

// MaleFilter keeps male patients.
func MaleFilter() PatientFilter {
	return GenderFilter("M")
}

// FemaleFilter keeps female patients.
func FemaleFilter() PatientFilter {
	return GenderFilter("F")
}

// AliveInWindowFilter keeps patients that were alive at some point during the window: not born after the window ends
// and not deceased before it starts. Patients with an unknown birth date are kept.
func AliveInWindowFilter(w Window) PatientFilter {
	return func(p *PatientRecord) bool {
		if !p.BirthDate.IsZero() && DiagnosisDateSmallerThan(w.End, p.BirthDate) {
			return false
		}
		if p.DeathDate != nil && DiagnosisDateSmallerThan(*p.DeathDate, w.Start) {
			return false
		}
		return true
	}
}
