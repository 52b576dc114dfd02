// Package metrics records ingestion counters and step timings through a
// process-wide Backend. Until SetBackend is called every call is a no-op.
// Concrete backends live in prompush and datadog.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal           = "cricket_step_total"
	StepDurationSeconds = "cricket_step_duration_seconds"
	RowsTotal           = "cricket_rows_total"
	DocumentsTotal      = "cricket_documents_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend receives every metric emitted by the helpers below.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one duration-style sample.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush is called once before the process exits.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of step and observes its duration. The
// status label is "failure" when err is non-nil.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given job and kind.
//
// Kinds used by the ingestion coordinator:
//   - "matches_inserted", "matches_skipped", "matches_failed"
//   - "players_inserted"
//   - "deliveries_inserted"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordDocument counts one processed document by outcome ("ingested" or "failed").
func RecordDocument(job, status string) {
	backend.IncCounter(DocumentsTotal, 1, Labels{
		"job":    job,
		"status": status,
	})
}
