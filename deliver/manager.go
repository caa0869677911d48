/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package deliver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/log"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/metrics"
	"github.com/sujalthakur-03/CyberSentinel-SyslogServer/record"
)

// Deduplicator reports whether key has already been seen within the TTL
// window, as dedup.Cache does. Defined here, narrowed to the one method
// Manager needs, so tests can drive Dispatch against a fake.
type Deduplicator interface {
	SeenBefore(ctx context.Context, key string) bool
}

// Publisher sends payload to a bus topic, as bus.Producer does.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Manager dedupes, then fans an AlertEvent out to every configured sink
// in parallel, then publishes it to the alerts bus. The sink list is
// fixed at construction; hot reconfiguration is a non-goal.
type Manager struct {
	sinks    []Sink
	dedup    Deduplicator
	producer Publisher
	topic    string
	metrics  *metrics.Registry
	log      *log.Logger
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Sinks       []Sink
	Dedup       Deduplicator
	Producer    Publisher
	AlertsTopic string
	Metrics     *metrics.Registry
	Log         *log.Logger
}

// NewManager builds a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		sinks:    cfg.Sinks,
		dedup:    cfg.Dedup,
		producer: cfg.Producer,
		topic:    cfg.AlertsTopic,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
	}
}

// Dispatch dedupes alert by (rule_name, fingerprint); if it's a duplicate
// within the TTL window it is suppressed entirely — no sink calls, no
// alerts-bus publish. Otherwise every sink is called in parallel and the
// alert is published to the alerts bus regardless of sink outcomes.
func (m *Manager) Dispatch(ctx context.Context, alert record.AlertEvent) {
	key := record.DedupKey(alert.RuleName, alert.LogData.Fingerprint)
	if m.dedup != nil && m.dedup.SeenBefore(ctx, key) {
		m.log.Info("alert suppressed by dedup", log.KV("rule_name", alert.RuleName), log.KV("dedup_key", key))
		return
	}

	m.metrics.AlertsTriggeredTotal.WithLabelValues(alert.RuleName, string(alert.Severity)).Inc()

	var wg sync.WaitGroup
	for _, sink := range m.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			start := time.Now()
			ok := s.Send(ctx, alert)
			m.metrics.AlertDeliveryDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
			status := "ok"
			if !ok {
				status = "error"
			}
			m.metrics.AlertsSentTotal.WithLabelValues(s.Name(), status).Inc()
		}(sink)
	}
	wg.Wait()

	b, err := json.Marshal(alert)
	if err != nil {
		m.log.Error("marshaling alert for alerts bus failed", log.KVErr(err))
		return
	}
	if err := m.producer.Publish(m.topic, b); err != nil {
		m.log.Warn("publishing alert to alerts bus failed", log.KVErr(err))
	}
}
