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
	"fmt"
	"math"
)

// Binomial test. Translation from cl-math-stats, returning errors instead of failing hard.

var logPI = math.Log(math.Pi)

var gammaCoef = [6]float64{76.18009173, -86.50532033, 24.01409822, -1.231739516, 0.120858003e-2, -0.536382e-5}

// gammaLn computes the natural logarithm of the gamma function for x > 0.
func gammaLn(x float64) (float64, error) {
	if x <= 0.0 {
		return 0, fmt.Errorf("argument to gammaLn must be positive: %v", x)
	}
	if x > 1.0e302 {
		return 0, fmt.Errorf("argument to gammaLn too large: %v", x)
	}
	if x < 1.0 {
		// reflection formula
		z := 1.0 - x
		g, err := gammaLn(1.0 + z)
		if err != nil {
			return 0, err
		}
		return (math.Log(z) + logPI) - (g + math.Log(math.Sin(math.Pi*z))), nil
	}
	xx := x - 1.0
	tmp := xx + 5.5
	tmp -= (xx + 0.5) * math.Log(tmp)
	ser := 1.0
	for _, c := range gammaCoef {
		xx += 1.0
		ser += c / xx
	}
	return math.Log(2.50662827465*ser) - tmp, nil
}

// betaCf evaluates the continued fraction of the incomplete beta function.
func betaCf(a, b, x float64) (float64, error) {
	const (
		maxIter = 1000
		eps     = 3.0e-7
	)
	qab := a + b
	qap := a + 1.0
	qam := a - 1.0
	az, am := 1.0, 1.0
	bz, bm := 1.0-(qab*x/qap), 1.0
	for i := 0; i < maxIter; i++ {
		em := 1.0 + float64(i)
		tem := em + em
		d := (em * (b - em) * x) / ((qam + tem) * (a + tem))
		ap := az + (d * am)
		bp := bz + (d * bm)
		d = (-(a + em) * (qab + em) * x) / ((qap + tem) * (a + tem))
		app := ap + (d * az)
		bpp := bp + (d * bz)
		aold := az
		am = ap / bpp
		bm = bp / bpp
		az = app / bpp
		bz = 1.0
		if math.Abs(az-aold) < eps*math.Abs(az) {
			return az, nil
		}
	}
	return 0, fmt.Errorf("a = %v or b = %v too large, or maxIter too small in betaCf", a, b)
}

// betaIncomplete computes the regularized incomplete beta function I_x(a, b).
func betaIncomplete(a, b, x float64) (float64, error) {
	if x < 0.0 || x > 1.0 {
		return 0, fmt.Errorf("x must be between 0.0 and 1.0, got %v", x)
	}
	bt := 0.0
	if x != 0.0 && x != 1.0 {
		gab, err := gammaLn(a + b)
		if err != nil {
			return 0, err
		}
		ga, err := gammaLn(a)
		if err != nil {
			return 0, err
		}
		gb, err := gammaLn(b)
		if err != nil {
			return 0, err
		}
		bt = math.Exp(gab - ga - gb + (a * math.Log(x)) + (b * math.Log(1.0-x)))
	}
	if x < ((a + 1.0) / (a + b + 2.0)) {
		cf, err := betaCf(a, b, x)
		if err != nil {
			return 0, err
		}
		return bt * cf / a, nil
	}
	cf, err := betaCf(b, a, 1.0-x)
	if err != nil {
		return 0, err
	}
	return 1.0 - (bt * cf / b), nil
}

// BinomialCdf computes for a binomial experiment with n trials and success chance p the probability of observing at
// least k successes. It requires k < n.
func BinomialCdf(p float64, n, k int) (float64, error) {
	if k >= n {
		return 0, fmt.Errorf("can't have more events (k) than trials (n), but k is: %d n is: %d", k, n)
	}
	if k <= 0 {
		return 1.0, nil
	}
	return betaIncomplete(float64(k), float64(1+(n-k)), p)
}
