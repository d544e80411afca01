// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package obsmetrics exposes Prometheus counters and gauges for the
// observation pipeline (SPEC_FULL.md §2.1 DOMAIN STACK): lines tokenized,
// observations delivered, and per-filter drop counts. The teacher itself
// only consumes client_golang as a Prometheus *query* client
// (internal/metricdata/prometheus.go); this package is the same
// dependency used the other direction, to let an operator scrape the
// pipeline the way cc-backend's own dashboards scrape job metrics.
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups every metric the pipeline publishes, registered against
// its own Registry so a caller can mount it on any HTTP mux without
// colliding with prometheus.DefaultRegisterer.
type Collector struct {
	Registry *prometheus.Registry

	LinesTokenized    *prometheus.CounterVec
	MalformedLines    *prometheus.CounterVec
	ObservationsIn    *prometheus.CounterVec
	ObservationsOut   *prometheus.CounterVec
	DuplicatesDropped *prometheus.CounterVec
	DeltaDropped      *prometheus.CounterVec
	PeriodDelayed     *prometheus.CounterVec
	UnknownDataItems  *prometheus.CounterVec
	ConversionErrors  *prometheus.CounterVec
	BufferGaps        *prometheus.CounterVec
	RingBufferLast    prometheus.Gauge
	RingBufferFirst   prometheus.Gauge
}

// New creates a Collector with every metric registered against a fresh
// Registry, matching the promauto.With(reg) idiom so tests can construct
// independent collectors without global state.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		Registry: reg,
		LinesTokenized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "lines_tokenized_total",
			Help:      "SHDR lines successfully tokenized, by source.",
		}, []string{"source"}),
		MalformedLines: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "malformed_lines_total",
			Help:      "SHDR lines dropped for lacking a timestamp and at least one field.",
		}, []string{"source"}),
		ObservationsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "observations_mapped_total",
			Help:      "Observations produced by the token mapper, before any filter runs.",
		}, []string{"source", "kind"}),
		ObservationsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "observations_delivered_total",
			Help:      "Observations that reached the ring buffer and were assigned a sequence.",
		}, []string{"source", "kind"}),
		DuplicatesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "duplicates_dropped_total",
			Help:      "Observations dropped by the duplicate filter (§4.6).",
		}, []string{"data_item"}),
		DeltaDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "delta_dropped_total",
			Help:      "Samples dropped by the delta filter (§4.7).",
		}, []string{"data_item"}),
		PeriodDelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "period_delayed_total",
			Help:      "Observations whose delivery the period filter delayed (§4.8).",
		}, []string{"data_item"}),
		UnknownDataItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "unknown_data_items_total",
			Help:      "Fields dropped for naming an unresolvable data item (§4.4, logged once per id).",
		}, []string{"data_item"}),
		ConversionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "conversion_errors_total",
			Help:      "Unit conversions that fell back to the unconverted value (§7 ConversionError).",
		}, []string{"from", "to"}),
		BufferGaps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "obspipeline",
			Name:      "buffer_gaps_total",
			Help:      "At()/Range() reads that found their sequence already evicted (§7 BufferOverrun).",
		}, []string{"sink"}),
		RingBufferLast: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "obspipeline",
			Name:      "ring_buffer_last_sequence",
			Help:      "Most recently delivered sequence number.",
		}),
		RingBufferFirst: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "obspipeline",
			Name:      "ring_buffer_first_sequence",
			Help:      "Oldest sequence number still held in the ring buffer.",
		}),
	}
}
