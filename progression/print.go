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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"ckdtra/utils"
)

// Printing of progression results

// CanonicalPairs returns the stage transitions along the clinical path, in report order.
func CanonicalPairs() []Pair {
	return []Pair{
		{First: Stage1, Second: Stage2},
		{First: Stage2, Second: Stage3},
		{First: Stage3, Second: Stage4},
		{First: Stage4, Second: Stage5},
		{First: Stage5, Second: StageESRD},
	}
}

// TransitionLabel names a transition, e.g. "Stage 1 to Stage 2" or "Stage 5 to End Stage Renal Disease".
func TransitionLabel(p Pair) string {
	return fmt.Sprint(p.First, " to ", p.Second)
}

// SummaryRows returns the aggregates in report order: the canonical transitions first, including those that were never
// observed (with a zero count), followed by all other observed pairs ordered by (from, to).
func SummaryRows(stats []AggregateStat) []AggregateStat {
	byPair := map[Pair]AggregateStat{}
	for _, s := range stats {
		byPair[s.Pair()] = s
	}
	rows := []AggregateStat{}
	canonical := map[Pair]bool{}
	for _, pair := range CanonicalPairs() {
		canonical[pair] = true
		if s, ok := byPair[pair]; ok {
			rows = append(rows, s)
		} else {
			rows = append(rows, AggregateStat{From: pair.First, To: pair.Second})
		}
	}
	for _, s := range stats {
		if !canonical[s.Pair()] {
			rows = append(rows, s)
		}
	}
	return rows
}

func formatDays(days float64) string {
	return strconv.FormatFloat(days, 'f', 2, 64)
}

func formatModes(modes []int) string {
	strs := make([]string, len(modes))
	for i, m := range modes {
		strs[i] = strconv.Itoa(m)
	}
	return strings.Join(strs, ", ")
}

// PrintSummary prints the aggregate table and the patient totals.
func PrintSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "--- CKD stage progression time summary", r.Window, "---")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Transition\tMean (days)\tMedian (days)\tMode(s) (days)\tMode frequency\tTransitions observed")
	for _, s := range SummaryRows(r.Aggregates) {
		if s.PatientCount == 0 {
			fmt.Fprintf(tw, "%s\tN/A\tN/A\tN/A (no data)\t0\t0\n", TransitionLabel(s.Pair()))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", TransitionLabel(s.Pair()), formatDays(s.MeanDays),
			formatDays(s.MedianDays), formatModes(s.Modes), s.ModeFrequency, s.PatientCount)
	}
	tw.Flush()
	fmt.Fprintln(w, "Total unique patients with any CKD related code:", r.Counts.CKDPatients)
	fmt.Fprintln(w, "Total patients considered in progression analysis (at least one stage 1-6):", r.Counts.StagedPatients)
}

// PrintPatientProgression prints a patient's chronological stages and transitions.
func PrintPatientProgression(w io.Writer, pp *PatientProgression) {
	fmt.Fprintln(w, "Patient ID:", pp.Timeline.PatientID)
	fmt.Fprintln(w, "  Diagnosed stages (earliest dates, chronological):")
	for _, e := range pp.Timeline.Entries {
		fmt.Fprintln(w, "   ", e.Stage, "on", e.Date)
	}
	if len(pp.Transitions) == 0 {
		fmt.Fprintln(w, "  No stage transitions for this patient.")
		return
	}
	fmt.Fprintln(w, "  Transitions:")
	for _, t := range pp.Transitions {
		fmt.Fprintf(w, "    %s: %d days (from %s to %s)\n", TransitionLabel(t.Pair()), t.Days, t.FromDate, t.ToDate)
	}
}

// PrintPatientSample prints the progressions of the first n patients ordered by id.
func PrintPatientSample(w io.Writer, r *Result, n int) {
	pids := r.PatientIDs()
	if len(pids) == 0 {
		fmt.Fprintln(w, "No patient transition data to display.")
		return
	}
	shown := utils.MinInt(n, len(pids))
	for _, pid := range pids[:shown] {
		PrintPatientProgression(w, r.Patients[pid])
	}
	if len(pids) > shown {
		fmt.Fprintln(w, "... and", len(pids)-shown, "more patients with CKD stage data.")
	}
}

// PrintDirectionStats prints the stage pairs observed in both orders.
func PrintDirectionStats(w io.Writer, stats []DirectionStat) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(w, "Stage pairs observed in both orders:")
	for _, ds := range stats {
		fmt.Fprintf(w, "  %s -- %d vs %d --> p = %s\n", TransitionLabel(ds.Dominant), ds.DominantCount,
			ds.ReverseCount, strconv.FormatFloat(ds.PValue, 'E', 3, 64))
	}
}

// PrintMedianIntervals prints bootstrap intervals for the medians.
func PrintMedianIntervals(w io.Writer, intervals []MedianInterval) {
	if len(intervals) == 0 {
		return
	}
	fmt.Fprintf(w, "Median duration 95%% bootstrap intervals (%d iterations):\n", intervals[0].Iterations)
	for _, mi := range intervals {
		fmt.Fprintf(w, "  %s: [%s, %s]\n", TransitionLabel(mi.Pair), formatDays(mi.Low), formatDays(mi.High))
	}
}

// createFile creates a file and passes it to print. Errors from creating, printing or closing are returned.
func createFile(name string, print func(w io.Writer) error) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return print(file)
}

// printAggregatesToTabFile prints one line per aggregate: from, to, count, mean, median, min, max, sd, modes, mode
// frequency.
func printAggregatesToTabFile(stats []AggregateStat, intervals []MedianInterval, name string) error {
	ci := map[Pair]MedianInterval{}
	for _, mi := range intervals {
		ci[mi.Pair] = mi
	}
	return createFile(name, func(w io.Writer) error {
		fmt.Fprintln(w, "from\tto\tcount\tmean_days\tmedian_days\tmin_days\tmax_days\tsd_days\tmodes\tmode_frequency\tmedian_ci_low\tmedian_ci_high")
		for _, s := range stats {
			low, high := "NA", "NA"
			if mi, ok := ci[s.Pair()]; ok {
				low, high = formatDays(mi.Low), formatDays(mi.High)
			}
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%d\t%d\t%s\t%s\t%d\t%s\t%s\n", s.From, s.To, s.PatientCount,
				formatDays(s.MeanDays), formatDays(s.MedianDays), s.MinDays, s.MaxDays, formatDays(s.StdDevDays),
				strings.ReplaceAll(formatModes(s.Modes), " ", ""), s.ModeFrequency, low, high); err != nil {
				return err
			}
		}
		return nil
	})
}

// printTransitionsToTabFile prints one line per transition, patients ordered by id.
func printTransitionsToTabFile(r *Result, name string) error {
	return createFile(name, func(w io.Writer) error {
		fmt.Fprintln(w, "patient\tfrom\tto\tfrom_date\tto_date\tdays")
		for _, pid := range r.PatientIDs() {
			for _, t := range r.Patients[pid].Transitions {
				if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%d\n", t.PatientID, t.From, t.To, t.FromDate,
					t.ToDate, t.Days); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// printTimelinesToTabFile prints one line per patient: the patient id followed by stage:date entries.
func printTimelinesToTabFile(r *Result, name string) error {
	return createFile(name, func(w io.Writer) error {
		for _, pid := range r.PatientIDs() {
			line := pid
			for _, e := range r.Patients[pid].Timeline.Entries {
				line = fmt.Sprintf("%s\t%d:%s", line, e.Stage, e.Date)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	})
}

// PrintResultToFiles outputs a result to tab files in the given directory:
// - <name>-aggregates.tab with the statistics per stage pair
// - <name>-transitions.tab with every patient transition
// - <name>-timelines.tab with every patient timeline
func PrintResultToFiles(r *Result, intervals []MedianInterval, path, name string) error {
	if err := printAggregatesToTabFile(r.Aggregates, intervals,
		filepath.Join(path, fmt.Sprintf("%s-aggregates.tab", name))); err != nil {
		return err
	}
	if err := printTransitionsToTabFile(r, filepath.Join(path, fmt.Sprintf("%s-transitions.tab", name))); err != nil {
		return err
	}
	return printTimelinesToTabFile(r, filepath.Join(path, fmt.Sprintf("%s-timelines.tab", name)))
}
