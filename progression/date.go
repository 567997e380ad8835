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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DiagnosisDate represents the calendar day of a diagnosis, with fields for representing the year, month, and day.
type DiagnosisDate struct {
	Year, Month, Day int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) DiagnosisDate {
	year, month, day := t.Date()
	return DiagnosisDate{Year: year, Month: int(month), Day: day}
}

// IsZero reports whether the date was never set.
func (d DiagnosisDate) IsZero() bool {
	return d == DiagnosisDate{}
}

func (d DiagnosisDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DiagnosisDateSmallerThan checks if d1 lies strictly before d2.
func DiagnosisDateSmallerThan(d1, d2 DiagnosisDate) bool {
	if d1.Year != d2.Year {
		return d1.Year < d2.Year
	}
	if d1.Month != d2.Month {
		return d1.Month < d2.Month
	}
	return d1.Day < d2.Day
}

// julianDay returns the Julian day number of a date in the proleptic Gregorian calendar.
func julianDay(d DiagnosisDate) int {
	a := (14 - d.Month) / 12
	y := d.Year + 4800 - a
	m := d.Month + 12*a - 3
	return d.Day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// DaysBetween returns the number of calendar days from d1 to d2. The result is negative when d2 lies before d1.
func DaysBetween(d1, d2 DiagnosisDate) int {
	return julianDay(d2) - julianDay(d1)
}

var errEmptyDate = errors.New("empty date")

// ParseDiagnosisDate parses the date formats found in Synthea exports, e.g. 2001-05-01 or 2001-05-01T10:11:12Z. Only
// the calendar day is kept.
func ParseDiagnosisDate(s string) (DiagnosisDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DiagnosisDate{}, errEmptyDate
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return DiagnosisDate{}, err
	}
	return DateOf(t), nil
}

// Window is an inclusive range of diagnosis dates.
type Window struct {
	Start, End DiagnosisDate
}

// DefaultWindow returns the analysis window 1997-01-01 up to and including 2023-12-31.
func DefaultWindow() Window {
	return Window{
		Start: DiagnosisDate{Year: 1997, Month: 1, Day: 1},
		End:   DiagnosisDate{Year: 2023, Month: 12, Day: 31},
	}
}

// Contains checks if a date lies in the window, bounds included.
func (w Window) Contains(d DiagnosisDate) bool {
	return !DiagnosisDateSmallerThan(d, w.Start) && !DiagnosisDateSmallerThan(w.End, d)
}

func (w Window) String() string {
	return fmt.Sprint("[", w.Start, ", ", w.End, "]")
}
