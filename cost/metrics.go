// Copyright 2015 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package cost

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports per-rule rewrite counters and plan-cost histograms for
// the hosting server to scrape.
type Metrics struct {
	RewritesApplied *prometheus.CounterVec
	PlanScore       prometheus.Histogram
}

// NewMetrics registers a fresh Metrics set against reg. Passing a nil reg
// builds unregistered collectors, useful for unit tests that only assert
// on observed values.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RewritesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cottontail",
			Subsystem: "planner",
			Name:      "rewrites_applied_total",
			Help:      "Number of times each rewrite rule has fired.",
		}, []string{"rule"}),
		PlanScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cottontail",
			Subsystem: "planner",
			Name:      "plan_score",
			Help:      "Distribution of the final selected physical plan's scored cost.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RewritesApplied, m.PlanScore)
	}
	return m
}

// ObserveRewrite records one application of the named rule.
func (m *Metrics) ObserveRewrite(rule string) {
	if m == nil {
		return
	}
	m.RewritesApplied.WithLabelValues(rule).Inc()
}

// ObservePlanScore records the scored cost of a selected physical plan.
func (m *Metrics) ObservePlanScore(score float64) {
	if m == nil {
		return
	}
	m.PlanScore.Observe(score)
}
