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

import "sort"

// TimelineEntry records the first date a patient was observed at a stage.
type TimelineEntry struct {
	Stage Stage
	Date  DiagnosisDate
}

// PatientTimeline is the list of stages a patient reached, each with the date of first occurrence, ordered by that
// date. The order is the observed one: a patient seen at stage 3 before stage 2 keeps stage 3 first.
type PatientTimeline struct {
	PatientID string
	Entries   []TimelineEntry
}

// Stages returns the stages of the timeline in chronological order.
func (t *PatientTimeline) Stages() []Stage {
	stages := make([]Stage, len(t.Entries))
	for i, e := range t.Entries {
		stages[i] = e.Stage
	}
	return stages
}

// GroupByPatient partitions daily events per patient. Each patient's events keep their input order.
func GroupByPatient(events []DailyMaxEvent) map[string][]DailyMaxEvent {
	groups := map[string][]DailyMaxEvent{}
	for _, e := range events {
		groups[e.PatientID] = append(groups[e.PatientID], e)
	}
	return groups
}

// SortDailyEvents orders a patient's daily events by date. Events on the same date keep their input order.
func SortDailyEvents(events []DailyMaxEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return DiagnosisDateSmallerThan(events[i].Date, events[j].Date)
	})
}

// BuildTimeline computes the timeline of a patient from the patient's daily events. It returns nil when there are no
// events. The given slice is not modified.
func BuildTimeline(pid string, events []DailyMaxEvent) *PatientTimeline {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]DailyMaxEvent, len(events))
	copy(sorted, events)
	SortDailyEvents(sorted)
	seen := map[Stage]bool{}
	timeline := &PatientTimeline{PatientID: pid}
	for _, e := range sorted {
		if seen[e.Stage] {
			continue
		}
		seen[e.Stage] = true
		timeline.Entries = append(timeline.Entries, TimelineEntry{Stage: e.Stage, Date: e.Date})
	}
	return timeline
}
