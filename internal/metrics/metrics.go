// Package metrics defines the registry's prometheus namespaces and the
// counters/timers the admission service and vetting worker update, wired
// the way the teacher's metrics package wires registry/storage/cache's
// prometheus adapter: a package-level docker/go-metrics Namespace plus
// small named instruments built on it.
package metrics

import (
	"time"

	"github.com/docker/go-metrics"
)

// NamespacePrefix is the namespace under which every metric below is
// registered with the default prometheus registry.
const NamespacePrefix = "skillreg"

var (
	// AdmissionNamespace covers the publish/read HTTP surface.
	AdmissionNamespace = metrics.NewNamespace(NamespacePrefix, "admission", nil)

	// WorkerNamespace covers the vetting worker pool.
	WorkerNamespace = metrics.NewNamespace(NamespacePrefix, "worker", nil)
)

var (
	publishRequests = AdmissionNamespace.NewLabeledCounter("publish_requests", "The number of publish requests received", "outcome")

	jobsCompleted = WorkerNamespace.NewLabeledCounter("jobs_completed", "The number of vetting jobs completed", "status")

	stageDuration = WorkerNamespace.NewLabeledTimer("stage_duration_seconds", "The duration of a single vetting stage", "stage")
)

func init() {
	metrics.Register(AdmissionNamespace)
	metrics.Register(WorkerNamespace)
}

// ObservePublish records the outcome of a single publish request
// ("accepted", "rejected", or "unauthorized").
func ObservePublish(outcome string) {
	publishRequests.WithValues(outcome).Inc()
}

// ObserveJobOutcome records a vetting job's terminal status ("pass",
// "fail", or "quarantined").
func ObserveJobOutcome(status string) {
	jobsCompleted.WithValues(status).Inc()
}

// StageTimer starts a timer for the named pipeline stage ("structure",
// "content", "safety", "signing"); call the returned func once the stage
// has finished running.
func StageTimer(stage string) func() {
	start := time.Now()
	timer := stageDuration.WithValues(stage)
	return func() {
		timer.UpdateSince(start)
	}
}
