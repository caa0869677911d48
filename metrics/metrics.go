/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package metrics holds every Prometheus collector this pipeline exposes.
// There is no package-level registry: Registry is built once per process
// and threaded through to whichever stage constructs it (see DESIGN.md,
// "global singletons").
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the process's Prometheus registerer with every
// collector a stage might touch. Stages only populate the fields they
// use; the rest sit idle.
type Registry struct {
	reg *prometheus.Registry

	MessagesReceivedTotal *prometheus.CounterVec
	MessageSizeBytes      prometheus.Histogram
	ActiveConnections     *prometheus.GaugeVec

	MessagesConsumedTotal  *prometheus.CounterVec
	MessagesProcessedTotal *prometheus.CounterVec
	MessagesIndexedTotal   *prometheus.CounterVec
	EnrichmentDuration     *prometheus.HistogramVec
	BatchSize              prometheus.Histogram

	LogsEvaluatedTotal     prometheus.Counter
	AlertsTriggeredTotal   *prometheus.CounterVec
	AlertsSentTotal        *prometheus.CounterVec
	AlertDeliveryDuration  *prometheus.HistogramVec
}

// New builds a fresh registry with every collector registered against it.
func New() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		reg: reg,

		MessagesReceivedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_received_total",
			Help: "Ingest messages received, by protocol and status.",
		}, []string{"protocol", "status"}),

		MessageSizeBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "message_size_bytes",
			Help:    "Size in bytes of received syslog messages.",
			Buckets: prometheus.ExponentialBuckets(32, 2, 12),
		}),

		ActiveConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Currently open stream listener connections, by protocol.",
		}, []string{"protocol"}),

		MessagesConsumedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "Bus messages consumed, by status.",
		}, []string{"status"}),

		MessagesProcessedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_processed_total",
			Help: "Records enriched, by status.",
		}, []string{"status"}),

		MessagesIndexedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_indexed_total",
			Help: "Documents bulk-indexed into the store, by status.",
		}, []string{"status"}),

		EnrichmentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "enrichment_duration_seconds",
			Help: "Time spent per enrichment step, by enrichment_type.",
		}, []string{"enrichment_type"}),

		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch_size",
			Help:    "Size of bulk-indexed batches.",
			Buckets: prometheus.LinearBuckets(0, 50, 11),
		}),

		LogsEvaluatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "logs_evaluated_total",
			Help: "Enriched records evaluated against the rule library.",
		}),

		AlertsTriggeredTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_triggered_total",
			Help: "Alerts raised, by rule_name and severity.",
		}, []string{"rule_name", "severity"}),

		AlertsSentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Alert deliveries attempted, by channel and status.",
		}, []string{"channel", "status"}),

		AlertDeliveryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "alert_delivery_duration_seconds",
			Help: "Delivery latency per channel.",
		}, []string{"channel"}),
	}
}

// Handler exposes the registry on /metrics for promhttp to serve.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
