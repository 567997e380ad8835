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
	"math"
	"sort"
)

// AggregateStat summarizes the durations of all transitions between the same two stages.
type AggregateStat struct {
	From, To      Stage
	PatientCount  int     //nr of transitions observed, one per patient per adjacent pair
	MeanDays      float64 //arithmetic mean of the durations
	MedianDays    float64 //average of the two middle values for an even count
	MinDays       int
	MaxDays       int
	StdDevDays    float64 //population standard deviation
	Modes         []int   //most frequent durations, ascending
	ModeFrequency int     //nr of occurrences of each mode
}

// Pair returns the (from, to) stages of the statistic.
func (s AggregateStat) Pair() Pair {
	return Pair{First: s.From, Second: s.To}
}

// pairDurations holds the partial state for one stage pair. Sums are kept as integers so that merging partials in any
// order gives the same result.
type pairDurations struct {
	count     int
	sum       int64
	sumSquare int64
	durations []int
}

// Accumulator collects transition durations per stage pair. Accumulators built on disjoint sets of patients can be
// merged.
type Accumulator struct {
	pairs map[Pair]*pairDurations
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{pairs: map[Pair]*pairDurations{}}
}

// Add records a transition.
func (a *Accumulator) Add(t Transition) {
	pd, ok := a.pairs[t.Pair()]
	if !ok {
		pd = &pairDurations{}
		a.pairs[t.Pair()] = pd
	}
	pd.count++
	pd.sum += int64(t.Days)
	pd.sumSquare += int64(t.Days) * int64(t.Days)
	pd.durations = append(pd.durations, t.Days)
}

// Merge adds the contents of other to a and returns a.
func (a *Accumulator) Merge(other *Accumulator) *Accumulator {
	for pair, pd2 := range other.pairs {
		pd1, ok := a.pairs[pair]
		if !ok {
			pd1 = &pairDurations{}
			a.pairs[pair] = pd1
		}
		pd1.count += pd2.count
		pd1.sum += pd2.sum
		pd1.sumSquare += pd2.sumSquare
		pd1.durations = append(pd1.durations, pd2.durations...)
	}
	return a
}

// Pairs returns the observed stage pairs ordered by from stage, then to stage.
func (a *Accumulator) Pairs() []Pair {
	pairs := make([]Pair, 0, len(a.pairs))
	for pair := range a.pairs {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairSmallerThan(pairs[i], pairs[j]) })
	return pairs
}

// Count returns the nr of transitions recorded for a pair.
func (a *Accumulator) Count(pair Pair) int {
	if pd, ok := a.pairs[pair]; ok {
		return pd.count
	}
	return 0
}

// Durations returns a sorted copy of the durations recorded for a pair.
func (a *Accumulator) Durations(pair Pair) []int {
	pd, ok := a.pairs[pair]
	if !ok {
		return nil
	}
	durations := make([]int, len(pd.durations))
	copy(durations, pd.durations)
	sort.Ints(durations)
	return durations
}

// Stats computes the aggregate statistics per stage pair, ordered by (from, to).
func (a *Accumulator) Stats() []AggregateStat {
	stats := []AggregateStat{}
	for _, pair := range a.Pairs() {
		pd := a.pairs[pair]
		if pd.count == 0 {
			continue
		}
		durations := a.Durations(pair)
		n := float64(pd.count)
		mean := float64(pd.sum) / n
		variance := float64(pd.sumSquare)/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		modes, freq := modes(durations)
		stats = append(stats, AggregateStat{
			From:          pair.First,
			To:            pair.Second,
			PatientCount:  pd.count,
			MeanDays:      mean,
			MedianDays:    median(durations),
			MinDays:       durations[0],
			MaxDays:       durations[len(durations)-1],
			StdDevDays:    math.Sqrt(variance),
			Modes:         modes,
			ModeFrequency: freq,
		})
	}
	return stats
}

// Aggregate computes the aggregate statistics for a list of transitions.
func Aggregate(transitions []Transition) []AggregateStat {
	acc := NewAccumulator()
	for _, t := range transitions {
		acc.Add(t)
	}
	return acc.Stats()
}

// median returns the median of a sorted, non-empty list.
func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2.0
}

// modes returns all values with the highest frequency in a sorted, non-empty list, and that frequency.
func modes(sorted []int) ([]int, int) {
	result := []int{}
	maxFreq := 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		freq := j - i
		switch {
		case freq > maxFreq:
			maxFreq = freq
			result = []int{sorted[i]}
		case freq == maxFreq:
			result = append(result, sorted[i])
		}
		i = j
	}
	return result, maxFreq
}
