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
	"sort"

	"github.com/exascience/pargo/parallel"
)

// PatientProgression holds the derived data of one patient.
type PatientProgression struct {
	Timeline    *PatientTimeline
	Transitions []Transition
}

// Counts summarizes how the input was reduced to the result.
type Counts struct {
	Normalize       NormalizeCounts
	FilteredOut     int //condition rows dropped because their patient did not pass the patient filters
	UnknownPatients int //condition rows dropped by filtering because their patient is not in the patient records
	DailyEvents     int //nr of collapsed (patient, date) events
	CKDPatients     int //patients with any CKD related code in the window
	StagedPatients  int //patients with at least one event at stage 1-6
	Transitions     int
}

// Result contains the outputs of an analysis run.
type Result struct {
	Window     Window
	Aggregates []AggregateStat                //ordered by (from, to)
	Patients   map[string]*PatientProgression //patients with at least one stage event
	Counts     Counts
	acc        *Accumulator
}

// Durations returns the sorted durations observed for a stage pair.
func (r *Result) Durations(pair Pair) []int {
	if r.acc == nil {
		return nil
	}
	return r.acc.Durations(pair)
}

// PatientIDs returns the ids of the patients in the result, sorted.
func (r *Result) PatientIDs() []string {
	pids := make([]string, 0, len(r.Patients))
	for pid := range r.Patients {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	return pids
}

// Options configures an analysis run.
type Options struct {
	Window  Window
	Filters []PatientFilter //patients must pass all filters; ignored when no patient records are given
	Batches int             //nr of batches for the parallel phase, 0 lets pargo decide
}

// DefaultOptions returns options with the default window and no filters.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow()}
}

// partial is the outcome of processing a batch of patients.
type partial struct {
	patients map[string]*PatientProgression
	acc      *Accumulator
}

// Analyze derives the stage timelines and transitions of all patients and aggregates the transition durations. When
// filters and patient records are given, only conditions of patients passing the filters are considered. Without
// filters all conditions are used, also those of patients missing from the records.
func Analyze(patients []PatientRecord, conditions []ConditionRecord, opts Options) *Result {
	result := &Result{Window: opts.Window, Patients: map[string]*PatientProgression{}, acc: NewAccumulator()}
	if len(patients) > 0 && len(opts.Filters) > 0 {
		known := make(map[string]bool, len(patients))
		for _, p := range patients {
			known[p.ID] = true
		}
		kept := ApplyPatientFilters(opts.Filters, patients)
		allowed := make(map[string]bool, len(kept))
		for _, p := range kept {
			allowed[p.ID] = true
		}
		selected := make([]ConditionRecord, 0, len(conditions))
		for _, c := range conditions {
			switch {
			case allowed[c.PatientID]:
				selected = append(selected, c)
			case known[c.PatientID]:
				result.Counts.FilteredOut++
			default:
				result.Counts.UnknownPatients++
			}
		}
		conditions = selected
	}
	result.Counts.CKDPatients = len(RelatedPatients(conditions, opts.Window))
	events, normalizeCounts := NormalizeEvents(conditions, opts.Window)
	result.Counts.Normalize = normalizeCounts
	daily := CollapseDaily(events)
	result.Counts.DailyEvents = len(daily)
	groups := GroupByPatient(daily)
	pids := make([]string, 0, len(groups))
	for pid := range groups {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	if len(pids) == 0 {
		result.Aggregates = []AggregateStat{}
		return result
	}
	batches := opts.Batches
	if batches > len(pids) {
		batches = len(pids)
	}
	merged := parallel.RangeReduce(0, len(pids), batches, func(low, high int) interface{} {
		p := partial{patients: map[string]*PatientProgression{}, acc: NewAccumulator()}
		for _, pid := range pids[low:high] {
			timeline := BuildTimeline(pid, groups[pid])
			if timeline == nil {
				continue
			}
			transitions := Transitions(timeline)
			for _, t := range transitions {
				p.acc.Add(t)
			}
			p.patients[pid] = &PatientProgression{Timeline: timeline, Transitions: transitions}
		}
		return p
	}, func(x, y interface{}) interface{} {
		p1 := x.(partial)
		p2 := y.(partial)
		for pid, pp := range p2.patients {
			p1.patients[pid] = pp
		}
		p1.acc.Merge(p2.acc)
		return p1
	}).(partial)
	result.Patients = merged.patients
	result.acc = merged.acc
	result.Aggregates = merged.acc.Stats()
	for _, pp := range result.Patients {
		result.Counts.Transitions += len(pp.Transitions)
		for _, e := range pp.Timeline.Entries {
			if e.Stage != StageUnspecified {
				result.Counts.StagedPatients++
				break
			}
		}
	}
	return result
}
