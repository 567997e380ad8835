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
	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"
)

// MedianInterval is a bootstrap percentile interval for the median duration of a stage pair.
type MedianInterval struct {
	Pair       Pair
	Low, High  float64 //2.5 and 97.5 percentiles of the resampled medians
	Iterations int
}

// BootstrapMedianIntervals resamples, for every aggregated stage pair with at least two transitions, the observed
// durations iter times with replacement and returns the 95% percentile interval of the resampled medians. The pairs are
// processed in parallel. The result is ordered by pair.
func BootstrapMedianIntervals(r *Result, iter int) []MedianInterval {
	if iter <= 0 {
		return []MedianInterval{}
	}
	stats := []AggregateStat{}
	for _, s := range r.Aggregates {
		if s.PatientCount >= 2 {
			stats = append(stats, s)
		}
	}
	intervals := make([]MedianInterval, len(stats))
	if len(stats) == 0 {
		return intervals
	}
	parallel.Range(0, len(stats), 0, func(low, high int) {
		for i := low; i < high; i++ {
			pair := stats[i].Pair()
			intervals[i] = bootstrapMedian(pair, r.Durations(pair), iter)
		}
	})
	return intervals
}

func bootstrapMedian(pair Pair, durations []int, iter int) MedianInterval {
	n := len(durations)
	medians := make([]float64, iter)
	sample := make([]int, n)
	for i := 0; i < iter; i++ {
		for j := range sample {
			sample[j] = durations[fastrand.Uint32n(uint32(n))]
		}
		sort.Ints(sample)
		medians[i] = median(sample)
	}
	sort.Float64s(medians)
	return MedianInterval{
		Pair:       pair,
		Low:        stat.Quantile(0.025, stat.Empirical, medians, nil),
		High:       stat.Quantile(0.975, stat.Empirical, medians, nil),
		Iterations: iter,
	}
}
