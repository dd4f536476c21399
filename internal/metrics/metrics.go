// Package metrics holds the domain counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttendanceUpserts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "upserts_total",
		Help:      "Attendance upsert operations issued.",
	})

	AttendanceBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "mark_batches_total",
		Help:      "Attendance submissions by outcome.",
	}, []string{"outcome"})

	StudentsImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "students_imported_total",
		Help:      "Students inserted from roster uploads.",
	})

	StudentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roster",
		Name:      "students_skipped_total",
		Help:      "Roster rows skipped because the roll number already exists.",
	})

	Exports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "exports_total",
		Help:      "Attendance spreadsheets rendered.",
	})
)
