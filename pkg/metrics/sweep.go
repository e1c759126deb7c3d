// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vigia"

// Recorder holds the verification engine's own series. All methods are safe
// on a nil *Recorder so components can run without metrics.
type Recorder struct {
	sweepRuns      *prometheus.CounterVec
	sweepDuration  *prometheus.HistogramVec
	sweepMembers   *prometheus.CounterVec
	sweepLastRun   *prometheus.GaugeVec
	directoryCalls *prometheus.CounterVec
	privilegeCalls *prometheus.CounterVec
}

// NewRecorder creates the vectors. Register it with Server.RegisterCollector.
func NewRecorder() *Recorder {
	return &Recorder{
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Total number of sweep runs by job and result.",
		}, []string{"job", "result"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of sweep runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~5min
		}, []string{"job"}),
		sweepMembers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_members_total",
			Help:      "Members processed by sweeps, by outcome.",
		}, []string{"job", "outcome"}),
		sweepLastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_last_run_time_seconds",
			Help:      "Unix time of the last completed sweep run.",
		}, []string{"job"}),
		directoryCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_requests_total",
			Help:      "Requests to the external player directory, by operation and result.",
		}, []string{"op", "result"}),
		privilegeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "privilege_mutations_total",
			Help:      "Privilege mutation calls, by action and result.",
		}, []string{"action", "result"}),
	}
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.sweepRuns, r.sweepDuration, r.sweepMembers, r.sweepLastRun, r.directoryCalls, r.privilegeCalls,
	}
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range r.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	for _, c := range r.collectors() {
		c.Collect(ch)
	}
}

// ObserveSweep records one finished sweep run.
func (r *Recorder) ObserveSweep(job string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sweepRuns.WithLabelValues(job, result).Inc()
	r.sweepDuration.WithLabelValues(job).Observe(duration.Seconds())
	r.sweepLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
}

// ObserveMember records the outcome for one member visited by a sweep.
func (r *Recorder) ObserveMember(job, outcome string) {
	if r == nil {
		return
	}
	r.sweepMembers.WithLabelValues(job, outcome).Inc()
}

// ObserveDirectory records one directory request.
func (r *Recorder) ObserveDirectory(op, result string) {
	if r == nil {
		return
	}
	r.directoryCalls.WithLabelValues(op, result).Inc()
}

// ObservePrivilege records one privilege mutation call.
func (r *Recorder) ObservePrivilege(action string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.privilegeCalls.WithLabelValues(action, result).Inc()
}
