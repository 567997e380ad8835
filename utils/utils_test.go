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

package utils

import (
	"math"
	"testing"
)

func TestBinomialCdf(t *testing.T) {
	tests := []struct {
		p    float64
		n, k int
		want float64
	}{
		{0.5, 10, 8, 0.0546875},
		{0.5, 10, 5, 0.623046875},
		{0.5, 2, 1, 0.75},
		{0.5, 10, 0, 1.0},
		{0.25, 4, 1, 1 - 0.75*0.75*0.75*0.75},
	}
	for _, tt := range tests {
		got, err := BinomialCdf(tt.p, tt.n, tt.k)
		if err != nil {
			t.Errorf("BinomialCdf(%v, %d, %d): %v", tt.p, tt.n, tt.k, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-5 {
			t.Errorf("BinomialCdf(%v, %d, %d) = %v, want %v", tt.p, tt.n, tt.k, got, tt.want)
		}
	}
	if _, err := BinomialCdf(0.5, 3, 3); err == nil {
		t.Error("k == n should fail")
	}
}

func TestMinMaxInt(t *testing.T) {
	if MinInt(3, -1) != -1 || MinInt(2, 2) != 2 || MaxInt(3, -1) != 3 || MaxInt(-5, -4) != -4 {
		t.Error("MinInt/MaxInt give wrong results")
	}
}
