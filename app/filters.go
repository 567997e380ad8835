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
	"fmt"
	"strings"

	"ckdtra/config"
	"ckdtra/progression"
)

// GetPatientFilter returns the patient filter with the given name, see config.PatientFilterNames. The alive filter is relative to the analysis window.
func GetPatientFilter(name string, window progression.Window) (progression.PatientFilter, error) {
	switch strings.TrimSpace(name) {
	case "", "id":
		return func(p *progression.PatientRecord) bool { return true }, nil
	case "male":
		return progression.MaleFilter(), nil
	case "female":
		return progression.FemaleFilter(), nil
	case "alive":
		return progression.AliveInWindowFilter(window), nil
	default:
		return nil, fmt.Errorf("unknown patient filter %q, expected one of %s", name,
			strings.Join(config.PatientFilterNames, ", "))
	}
}

// GetPatientFilters returns the filters for a list of names. The identity filter is left out, so that a list of only
// id gives no filters and the conditions are used without looking up their patients.
func GetPatientFilters(names []string, window progression.Window) ([]progression.PatientFilter, error) {
	result := []progression.PatientFilter{}
	for _, name := range names {
		filter, err := GetPatientFilter(name, window)
		if err != nil {
			return nil, err
		}
		if name = strings.TrimSpace(name); name == "" || name == "id" {
			continue
		}
		result = append(result, filter)
	}
	return result, nil
}
