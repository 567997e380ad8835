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

package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"ckdtra/progression"
)

// AggregateRow is the parquet row of an aggregate statistic.
type AggregateRow struct {
	FromStage     int32   `parquet:"from_stage"`
	ToStage       int32   `parquet:"to_stage"`
	Transition    string  `parquet:"transition"`
	PatientCount  int64   `parquet:"patient_count"`
	MeanDays      float64 `parquet:"mean_days"`
	MedianDays    float64 `parquet:"median_days"`
	MinDays       int32   `parquet:"min_days"`
	MaxDays       int32   `parquet:"max_days"`
	StdDevDays    float64 `parquet:"stddev_days"`
	Modes         []int32 `parquet:"modes,list"`
	ModeFrequency int32   `parquet:"mode_frequency"`
}

// TransitionRow is the parquet row of a patient transition.
type TransitionRow struct {
	PatientID string `parquet:"patient_id"`
	FromStage int32  `parquet:"from_stage"`
	ToStage   int32  `parquet:"to_stage"`
	FromDate  string `parquet:"from_date"`
	ToDate    string `parquet:"to_date"`
	Days      int32  `parquet:"days"`
}

// ParquetWriter writes rows of type T to a Snappy compressed parquet file.
type ParquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
	count  int
}

// NewParquetWriter creates a new parquet file writer.
func NewParquetWriter[T any](filename string) (*ParquetWriter[T], error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}
	writer := parquet.NewGenericWriter[T](file,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("ckdtra", "0.1", ""),
	)
	return &ParquetWriter[T]{file: file, writer: writer}, nil
}

// Write writes rows to the parquet file.
func (pw *ParquetWriter[T]) Write(rows []T) error {
	n, err := pw.writer.Write(rows)
	pw.count += n
	if err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

// Close flushes and closes the parquet writer.
func (pw *ParquetWriter[T]) Close() error {
	if err := pw.writer.Close(); err != nil {
		pw.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return pw.file.Close()
}

// Count returns the number of rows written.
func (pw *ParquetWriter[T]) Count() int {
	return pw.count
}

func aggregateRows(stats []progression.AggregateStat) []AggregateRow {
	rows := make([]AggregateRow, 0, len(stats))
	for _, s := range stats {
		modes := make([]int32, len(s.Modes))
		for i, m := range s.Modes {
			modes[i] = int32(m)
		}
		rows = append(rows, AggregateRow{
			FromStage:     int32(s.From),
			ToStage:       int32(s.To),
			Transition:    progression.TransitionLabel(s.Pair()),
			PatientCount:  int64(s.PatientCount),
			MeanDays:      s.MeanDays,
			MedianDays:    s.MedianDays,
			MinDays:       int32(s.MinDays),
			MaxDays:       int32(s.MaxDays),
			StdDevDays:    s.StdDevDays,
			Modes:         modes,
			ModeFrequency: int32(s.ModeFrequency),
		})
	}
	return rows
}

func transitionRows(r *progression.Result) []TransitionRow {
	rows := make([]TransitionRow, 0, r.Counts.Transitions)
	for _, pid := range r.PatientIDs() {
		for _, t := range r.Patients[pid].Transitions {
			rows = append(rows, TransitionRow{
				PatientID: t.PatientID,
				FromStage: int32(t.From),
				ToStage:   int32(t.To),
				FromDate:  t.FromDate.String(),
				ToDate:    t.ToDate.String(),
				Days:      int32(t.Days),
			})
		}
	}
	return rows
}

func writeParquetFile[T any](filename string, rows []T) error {
	pw, err := NewParquetWriter[T](filename)
	if err != nil {
		return err
	}
	if err := pw.Write(rows); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}

// WriteParquetFiles writes <name>-aggregates.parquet and <name>-transitions.parquet to the given directory.
func WriteParquetFiles(r *progression.Result, path, name string) error {
	if err := writeParquetFile(filepath.Join(path, name+"-aggregates.parquet"), aggregateRows(r.Aggregates)); err != nil {
		return err
	}
	return writeParquetFile(filepath.Join(path, name+"-transitions.parquet"), transitionRows(r))
}
