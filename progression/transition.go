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

// Pair is a (from stage, to stage) combination.
type Pair struct {
	First, Second Stage
}

// Forward checks if the pair follows clinical order, i.e. moves to a higher stage.
func (p Pair) Forward() bool {
	return p.First < p.Second
}

// Reverse returns the pair with its stages swapped.
func (p Pair) Reverse() Pair {
	return Pair{First: p.Second, Second: p.First}
}

func pairSmallerThan(p1, p2 Pair) bool {
	if p1.First != p2.First {
		return p1.First < p2.First
	}
	return p1.Second < p2.Second
}

// Transition is the move of a patient from one stage to the next distinct stage on the patient's timeline.
type Transition struct {
	PatientID string
	From, To  Stage
	FromDate  DiagnosisDate
	ToDate    DiagnosisDate
	Days      int //calendar days between FromDate and ToDate, never negative
}

// Pair returns the (from, to) stages of the transition.
func (t Transition) Pair() Pair {
	return Pair{First: t.From, Second: t.To}
}

// Transitions computes the transitions between consecutive staged entries of a timeline. Stage 0 entries are passed
// over, so 1 -> 0 -> 2 gives the transition 1 -> 2.
func Transitions(timeline *PatientTimeline) []Transition {
	if timeline == nil {
		return nil
	}
	transitions := []Transition{}
	entries := []TimelineEntry{}
	for _, e := range timeline.Entries {
		if e.Stage != StageUnspecified {
			entries = append(entries, e)
		}
	}
	for i := 0; i+1 < len(entries); i++ {
		from, to := entries[i], entries[i+1]
		transitions = append(transitions, Transition{
			PatientID: timeline.PatientID,
			From:      from.Stage,
			To:        to.Stage,
			FromDate:  from.Date,
			ToDate:    to.Date,
			Days:      DaysBetween(from.Date, to.Date),
		})
	}
	return transitions
}
