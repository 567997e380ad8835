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

// DailyMaxEvent is the single highest stage event kept per patient per calendar day.
type DailyMaxEvent StageEvent

// dayKey identifies a patient's calendar day.
type dayKey struct {
	pid  string
	date DiagnosisDate
}

// CollapseDaily reduces the events sharing a patient and a date to one event carrying the highest stage. Exactly one
// event is returned per distinct (patient, date) key, in order of first appearance of the key.
func CollapseDaily(events []StageEvent) []DailyMaxEvent {
	index := map[dayKey]int{} // key -> position in result
	result := []DailyMaxEvent{}
	for _, e := range events {
		key := dayKey{pid: e.PatientID, date: e.Date}
		i, ok := index[key]
		if !ok {
			index[key] = len(result)
			result = append(result, DailyMaxEvent(e))
			continue
		}
		if e.Stage > result[i].Stage {
			result[i].Stage = e.Stage
		}
	}
	return result
}
