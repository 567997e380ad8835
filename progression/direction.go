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

	"ckdtra/utils"
)

// DirectionStat compares how often two stages were observed in either order. Dominant is the direction observed most
// often, and PValue is the binomial probability of seeing it at least DominantCount times out of both counts if both
// directions were equally likely.
type DirectionStat struct {
	Dominant      Pair
	DominantCount int
	ReverseCount  int
	PValue        float64
}

// DirectionStats computes a direction statistic for every pair of stages that was observed in both orders, e.g.
// 2->3 for some patients and 3->2 for others. Ties report the clinical (forward) direction as dominant. The result is
// ordered by dominant pair.
func DirectionStats(stats []AggregateStat) ([]DirectionStat, error) {
	counts := map[Pair]int{}
	for _, s := range stats {
		counts[s.Pair()] = s.PatientCount
	}
	result := []DirectionStat{}
	for pair, occurs := range counts {
		if !pair.Forward() {
			continue // visit every unordered pair once
		}
		occursReverse, ok := counts[pair.Reverse()]
		if !ok || occurs == 0 || occursReverse == 0 {
			continue
		}
		ds := DirectionStat{Dominant: pair, DominantCount: occurs, ReverseCount: occursReverse}
		if occursReverse > occurs {
			ds = DirectionStat{Dominant: pair.Reverse(), DominantCount: occursReverse, ReverseCount: occurs}
		}
		p, err := utils.BinomialCdf(0.5, occurs+occursReverse, ds.DominantCount)
		if err != nil {
			return nil, err
		}
		ds.PValue = p
		result = append(result, ds)
	}
	sort.Slice(result, func(i, j int) bool { return pairSmallerThan(result[i].Dominant, result[j].Dominant) })
	return result, nil
}
